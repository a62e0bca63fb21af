package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/dailymetrics/internal/db"
	"github.com/dailymetrics/internal/logger"
	"github.com/dailymetrics/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GetCurrentUser 返回当前登录用户的资料，含登录码
func (a *API) GetCurrentUser(c *gin.Context) {
	user, err := a.users.Get(currentUserID(c))
	if err != nil {
		handleUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, userToPayload(*user, true))
}

// UpdateCurrentUser 更新当前用户自己的用户名或头像
func (a *API) UpdateCurrentUser(c *gin.Context) {
	var payload struct {
		Username     string  `json:"username"`
		ProfilePhoto *string `json:"profile_photo"`
	}
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	user, err := a.users.UpdateProfile(currentUserID(c), service.ProfileInput{
		Username:     payload.Username,
		ProfilePhoto: payload.ProfilePhoto,
	})
	if err != nil {
		handleUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, userToPayload(*user, true))
}

// UploadProfilePhoto 上传当前用户的头像，只能改自己的
func (a *API) UploadProfilePhoto(c *gin.Context) {
	targetID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的用户ID")
		return
	}

	userID := currentUserID(c)
	if userID != targetID {
		respondError(c, http.StatusForbidden, "只能修改自己的头像")
		return
	}

	file, err := c.FormFile("photo")
	if err != nil {
		respondError(c, http.StatusBadRequest, "未找到上传的图片")
		return
	}

	photoPath, err := a.saveUploadedImage(file, "profiles")
	if err != nil {
		if errors.Is(err, errNotAnImage) {
			respondError(c, http.StatusBadRequest, "只允许上传图片文件")
			return
		}
		logger.L.Error("save profile photo failed", zap.Uint("user_id", userID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "保存文件失败")
		return
	}

	user, err := a.users.Get(userID)
	if err != nil {
		handleUserError(c, err)
		return
	}
	oldPhoto := user.ProfilePhoto

	if _, err := a.users.UpdateProfile(userID, service.ProfileInput{ProfilePhoto: &photoPath}); err != nil {
		handleUserError(c, err)
		return
	}
	a.removeUploadedImage(oldPhoto)

	c.JSON(http.StatusOK, gin.H{"profile_photo": photoPath})
}

func userToPayload(user db.User, includeLoginCode bool) gin.H {
	payload := gin.H{
		"id":            user.ID,
		"username":      user.Username,
		"profile_photo": user.ProfilePhoto,
		"is_admin":      user.IsAdmin,
		"created_at":    user.CreatedAt.Format(time.RFC3339),
	}
	if includeLoginCode {
		payload["login_code"] = user.LoginCode
	}
	return payload
}

func handleUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		respondError(c, http.StatusNotFound, "用户不存在")
	case errors.Is(err, service.ErrUsernameRequired):
		respondError(c, http.StatusBadRequest, "用户名不能为空")
	case errors.Is(err, service.ErrUsernameTaken):
		respondError(c, http.StatusBadRequest, "用户名已存在")
	case errors.Is(err, service.ErrSearchTermRequired):
		respondError(c, http.StatusBadRequest, "搜索关键词不能为空")
	case errors.Is(err, service.ErrCannotDeleteAdmin):
		respondError(c, http.StatusBadRequest, "不能删除管理员账号")
	default:
		logger.L.Error("user operation failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "操作失败")
	}
}
