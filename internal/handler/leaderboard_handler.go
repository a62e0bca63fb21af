package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dailymetrics/internal/logger"
	"github.com/dailymetrics/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GetLeaderboard 返回指定活动和时间段的排行榜及当前用户的个人纪录
// activityId 缺省取第一个活动，period 缺省 all
func (a *API) GetLeaderboard(c *gin.Context) {
	var activityID *uint
	if raw := c.Query("activityId"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			respondError(c, http.StatusBadRequest, "无效的活动ID")
			return
		}
		id := uint(parsed)
		activityID = &id
	}

	period := c.DefaultQuery("period", "all")

	var requestingUser *uint
	if userID := currentUserID(c); userID != 0 {
		requestingUser = &userID
	}

	data, err := a.leaderboard.Leaderboard(activityID, period, requestingUser, time.Now())
	if err != nil {
		logger.L.Error("leaderboard aggregation failed", zap.String("period", period), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "获取排行榜数据失败")
		return
	}

	c.JSON(http.StatusOK, serializeLeaderboard(data))
}

func serializeLeaderboard(data *service.LeaderboardData) gin.H {
	entries := make([]gin.H, 0, len(data.Entries))
	for _, entry := range data.Entries {
		entries = append(entries, gin.H{
			"rank":              entry.Rank,
			"user_id":           entry.UserID,
			"username":          entry.Username,
			"profile_photo_url": entry.ProfilePhotoURL,
			"total_score":       entry.TotalScore,
		})
	}

	activities := make([]gin.H, 0, len(data.AllActivities))
	for _, activity := range data.AllActivities {
		activities = append(activities, serializeActivityOption(activity))
	}

	records := make([]gin.H, 0, len(data.PersonalRecords))
	for _, record := range data.PersonalRecords {
		records = append(records, gin.H{
			"activity_id":    record.ActivityTypeID,
			"activity_name":  record.ActivityName,
			"activity_image": record.ActivityImageURL,
			"max_count":      record.MaxCount,
			"date_achieved":  record.DateAchieved.Format(dateFormat),
		})
	}

	payload := gin.H{
		"entries":          entries,
		"period":           data.Period,
		"all_activities":   activities,
		"personal_records": records,
	}
	if data.SelectedActivity != nil {
		payload["selected_activity"] = serializeActivityOption(*data.SelectedActivity)
	}
	return payload
}

func serializeActivityOption(option service.ActivityOption) gin.H {
	return gin.H{
		"id":    option.ID,
		"name":  option.Name,
		"image": option.ImageURL,
	}
}
