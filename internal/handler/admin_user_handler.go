package handler

import (
	"net/http"

	"github.com/dailymetrics/internal/service"
	"github.com/gin-gonic/gin"
)

// CreateUser 管理员新建用户，响应里带上生成的登录码
func (a *API) CreateUser(c *gin.Context) {
	var payload struct {
		Username string `json:"username"`
	}
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	user, err := a.users.Create(payload.Username)
	if err != nil {
		handleUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"login_code": user.LoginCode,
	})
}

// ListUsers 返回全部用户
func (a *API) ListUsers(c *gin.Context) {
	users, err := a.users.List()
	if err != nil {
		handleUserError(c, err)
		return
	}

	items := make([]gin.H, 0, len(users))
	for _, user := range users {
		items = append(items, userToPayload(user, true))
	}
	c.JSON(http.StatusOK, items)
}

// SearchUsers 按用户名子串搜索用户，结果不含登录码
func (a *API) SearchUsers(c *gin.Context) {
	users, err := a.users.Search(c.Query("term"))
	if err != nil {
		handleUserError(c, err)
		return
	}

	items := make([]gin.H, 0, len(users))
	for _, user := range users {
		items = append(items, userToPayload(user, false))
	}
	c.JSON(http.StatusOK, items)
}

// GetUser 返回单个用户详情
func (a *API) GetUser(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的用户ID")
		return
	}

	user, err := a.users.Get(id)
	if err != nil {
		handleUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, userToPayload(*user, true))
}

// UpdateUser 管理员更新用户资料与角色
func (a *API) UpdateUser(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的用户ID")
		return
	}

	var payload struct {
		Username     string  `json:"username"`
		IsAdmin      *bool   `json:"is_admin"`
		ProfilePhoto *string `json:"profile_photo"`
	}
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	user, err := a.users.AdminUpdate(id, service.AdminUserInput{
		Username:     payload.Username,
		IsAdmin:      payload.IsAdmin,
		ProfilePhoto: payload.ProfilePhoto,
	})
	if err != nil {
		handleUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, userToPayload(*user, true))
}

// DeleteUser 删除普通用户，管理员账号受保护
func (a *API) DeleteUser(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的用户ID")
		return
	}

	if err := a.users.Delete(id); err != nil {
		handleUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// ResetLoginCode 为用户重新生成登录码
func (a *API) ResetLoginCode(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的用户ID")
		return
	}

	code, err := a.users.ResetLoginCode(id)
	if err != nil {
		handleUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"login_code": code})
}
