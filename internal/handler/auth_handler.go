package handler

import (
	"errors"
	"net/http"

	"github.com/dailymetrics/internal/logger"
	"github.com/dailymetrics/internal/service"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	sessionKeyUserID  = "user_id"
	sessionKeyIsAdmin = "is_admin"
)

// Login 处理登录码登录请求
// 登录码是唯一凭证，没有用户名/密码组合
func (a *API) Login(c *gin.Context) {
	var payload struct {
		LoginCode string `json:"login_code"`
	}
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	user, err := a.users.GetByLoginCode(payload.LoginCode)
	if err != nil {
		if errors.Is(err, service.ErrInvalidLoginCode) {
			respondError(c, http.StatusUnauthorized, "登录码无效")
			return
		}
		logger.L.Error("login failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "登录失败")
		return
	}

	session := sessions.Default(c)
	session.Set(sessionKeyUserID, user.ID)
	session.Set(sessionKeyIsAdmin, user.IsAdmin)
	if err := session.Save(); err != nil {
		logger.L.Error("save session failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "会话保存失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":  user.ID,
		"username": user.Username,
		"is_admin": user.IsAdmin,
	})
}

// Logout 处理用户登出
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "会话清理失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"logged_out": true})
}

// AuthRequired 是一个简单的认证中间件，未登录请求一律返回 401
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		if session.Get(sessionKeyUserID) == nil {
			respondError(c, http.StatusUnauthorized, "请先登录")
			c.Abort()
			return
		}
		c.Next()
	}
}

// AdminRequired 校验当前会话属于管理员
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		if session.Get(sessionKeyUserID) == nil {
			respondError(c, http.StatusUnauthorized, "请先登录")
			c.Abort()
			return
		}
		isAdmin, ok := session.Get(sessionKeyIsAdmin).(bool)
		if !ok || !isAdmin {
			respondError(c, http.StatusForbidden, "需要管理员权限")
			c.Abort()
			return
		}
		c.Next()
	}
}

// currentUserID 从会话中取出登录用户 ID，零值表示未登录。
func currentUserID(c *gin.Context) uint {
	session := sessions.Default(c)
	if id, ok := session.Get(sessionKeyUserID).(uint); ok {
		return id
	}
	return 0
}
