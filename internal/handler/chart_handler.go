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

const defaultChartType = "daily"

// GetActivityChart 返回指定活动的时间序列图表数据
// type 支持 daily/weekly/monthly，缺省 daily
func (a *API) GetActivityChart(c *gin.Context) {
	activityID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的活动ID")
		return
	}

	chartType := c.DefaultQuery("type", defaultChartType)
	userID := currentUserID(c)

	data, err := a.charts.SeriesFor(userID, activityID, chartType, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrActivityNotFound):
			respondError(c, http.StatusNotFound, "活动不存在")
		case errors.Is(err, service.ErrInvalidChartType):
			respondError(c, http.StatusBadRequest, "不支持的图表类型")
		default:
			logger.L.Error("chart aggregation failed",
				zap.Uint("user_id", userID), zap.Uint("activity_id", activityID), zap.Error(err))
			respondError(c, http.StatusInternalServerError, "生成图表数据失败")
		}
		return
	}

	series := make([]gin.H, 0, len(data.Series))
	for _, bucket := range data.Series {
		series = append(series, gin.H{
			"label":    bucket.Label,
			"raw_date": bucket.RawDate,
			"count":    bucket.Count,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"activity_id":   data.ActivityTypeID,
		"activity_name": data.ActivityName,
		"chart_type":    data.ChartType,
		"data":          series,
		"stats": gin.H{
			"average": data.Stats.Average,
			"max":     data.Stats.Max,
			"total":   data.Stats.Total,
		},
	})
}
