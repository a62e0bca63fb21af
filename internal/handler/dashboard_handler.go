package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/dailymetrics/internal/logger"
	"github.com/dailymetrics/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type incrementPayload struct {
	ActivityTypeID uint `json:"activity_type_id"`
	IncrementValue int  `json:"increment_value"`
}

// GetDashboard 返回当前用户在每个活动上的汇总数字
func (a *API) GetDashboard(c *gin.Context) {
	userID := currentUserID(c)

	summaries, err := a.metrics.Dashboard(userID, time.Now())
	if err != nil {
		logger.L.Error("dashboard aggregation failed", zap.Uint("user_id", userID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "获取仪表盘数据失败")
		return
	}

	items := make([]gin.H, 0, len(summaries))
	for _, summary := range summaries {
		items = append(items, gin.H{
			"activity": gin.H{
				"id":    summary.Activity.ID,
				"name":  summary.Activity.Name,
				"image": summary.Activity.Image,
			},
			"today_count":     summary.TodayCount,
			"yesterday_count": summary.YesterdayCount,
			"total_all":       summary.TotalAll,
			"total_month":     summary.TotalMonth,
			"total_year":      summary.TotalYear,
			"streak":          summary.Streak,
		})
	}

	c.JSON(http.StatusOK, items)
}

// IncrementMetric 把当前用户今天的计数加上请求的值
// 同一天重复提交合并到同一条记录
func (a *API) IncrementMetric(c *gin.Context) {
	userID := currentUserID(c)

	var payload incrementPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	metric, err := a.metrics.Increment(userID, payload.ActivityTypeID, payload.IncrementValue, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrActivityNotFound):
			respondError(c, http.StatusNotFound, "活动不存在")
		case errors.Is(err, service.ErrInvalidIncrement):
			respondError(c, http.StatusBadRequest, "递增值必须为正数")
		default:
			logger.L.Error("increment metric failed", zap.Uint("user_id", userID), zap.Error(err))
			respondError(c, http.StatusInternalServerError, "保存计数失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":               metric.ID,
		"activity_type_id": metric.ActivityTypeID,
		"count":            metric.Count,
		"date":             metric.Date.Format(dateFormat),
	})
}
