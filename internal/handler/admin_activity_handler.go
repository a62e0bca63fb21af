package handler

import (
	"errors"
	"net/http"

	"github.com/dailymetrics/internal/db"
	"github.com/dailymetrics/internal/logger"
	"github.com/dailymetrics/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ListActivities 返回全部活动类型
func (a *API) ListActivities(c *gin.Context) {
	activities, err := a.activities.List()
	if err != nil {
		handleActivityError(c, err)
		return
	}

	items := make([]gin.H, 0, len(activities))
	for _, activity := range activities {
		items = append(items, activityToPayload(activity))
	}
	c.JSON(http.StatusOK, items)
}

// CreateActivity 新建活动类型，图片可选（multipart 字段 image）
func (a *API) CreateActivity(c *gin.Context) {
	imagePath, ok := a.resolveActivityImage(c)
	if !ok {
		return
	}

	activity, err := a.activities.Create(service.ActivityInput{
		Name:  c.PostForm("name"),
		Image: imagePath,
	})
	if err != nil {
		a.removeUploadedImage(imagePath)
		handleActivityError(c, err)
		return
	}

	c.JSON(http.StatusOK, activityToPayload(*activity))
}

// UpdateActivity 重命名活动或替换图片
func (a *API) UpdateActivity(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的活动ID")
		return
	}

	imagePath, ok := a.resolveActivityImage(c)
	if !ok {
		return
	}

	activity, replacedImage, err := a.activities.Update(id, service.ActivityInput{
		Name:  c.PostForm("name"),
		Image: imagePath,
	})
	if err != nil {
		a.removeUploadedImage(imagePath)
		handleActivityError(c, err)
		return
	}
	a.removeUploadedImage(replacedImage)

	c.JSON(http.StatusOK, activityToPayload(*activity))
}

// DeleteActivity 删除活动类型及其全部计数记录
func (a *API) DeleteActivity(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的活动ID")
		return
	}

	imagePath, err := a.activities.Delete(id)
	if err != nil {
		handleActivityError(c, err)
		return
	}
	a.removeUploadedImage(imagePath)

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// resolveActivityImage 保存请求里的可选活动图片，返回相对 URL。
// 没有携带图片时返回空串，不算错误
func (a *API) resolveActivityImage(c *gin.Context) (string, bool) {
	file, err := c.FormFile("image")
	if err != nil {
		return "", true
	}

	imagePath, err := a.saveUploadedImage(file, "activities")
	if err != nil {
		if errors.Is(err, errNotAnImage) {
			respondError(c, http.StatusBadRequest, "只允许上传图片文件")
			return "", false
		}
		logger.L.Error("save activity image failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "保存文件失败")
		return "", false
	}
	return imagePath, true
}

func activityToPayload(activity db.ActivityType) gin.H {
	return gin.H{
		"id":    activity.ID,
		"name":  activity.Name,
		"image": activity.Image,
	}
}

func handleActivityError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrActivityNotFound):
		respondError(c, http.StatusNotFound, "活动不存在")
	case errors.Is(err, service.ErrActivityNameRequired):
		respondError(c, http.StatusBadRequest, "活动名称不能为空")
	case errors.Is(err, service.ErrActivityNameTaken):
		respondError(c, http.StatusBadRequest, "活动名称已存在")
	default:
		logger.L.Error("activity operation failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "操作失败")
	}
}
