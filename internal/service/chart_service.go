package service

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dailymetrics/internal/db"
)

// ErrInvalidChartType 当图表分辨率不是 daily/weekly/monthly 时返回
var ErrInvalidChartType = errors.New("invalid chart type")

const (
	dailyBucketCount   = 30
	weeklyBucketCount  = 12
	monthlyBucketCount = 12

	dailyLabelFormat   = "Jan 02"
	monthlyLabelFormat = "Jan 2006"
	rawDateFormat      = "2006-01-02"
)

// ChartBucket 表示时间序列中的一个桶
// Label 用于坐标轴展示，RawDate 是 ISO 日期便于前端二次处理
type ChartBucket struct {
	Label   string
	RawDate string
	Count   int
}

// ChartStats 汇总整个序列的统计值。
type ChartStats struct {
	Average float64
	Max     int
	Total   int
}

// ChartData 是单次图表查询的完整结果。
type ChartData struct {
	ActivityTypeID uint
	ActivityName   string
	ChartType      string
	Series         []ChartBucket
	Stats          ChartStats
}

// ChartService 负责把稀疏的逐日计数展开成定长、补零的时间序列。
// daily 固定 30 桶，weekly/monthly 固定 12 桶，数据稀疏不影响长度
type ChartService struct {
	store      MetricStore
	activities ActivityDirectory
}

// NewChartService 构造 ChartService
func NewChartService(store MetricStore, activities ActivityDirectory) *ChartService {
	return &ChartService{store: store, activities: activities}
}

// SeriesFor 生成指定用户+活动在某个分辨率下的序列和统计。
// 活动不存在返回 ErrActivityNotFound，未知分辨率返回 ErrInvalidChartType
func (s *ChartService) SeriesFor(userID, activityTypeID uint, chartType string, now time.Time) (*ChartData, error) {
	activity, err := s.activities.Get(activityTypeID)
	if err != nil {
		return nil, err
	}

	today := db.NormalizeDate(now)
	resolution := strings.ToLower(strings.TrimSpace(chartType))

	var series []ChartBucket
	switch resolution {
	case "daily":
		series, err = s.dailySeries(userID, activityTypeID, today)
	case "weekly":
		series, err = s.weeklySeries(userID, activityTypeID, today)
	case "monthly":
		series, err = s.monthlySeries(userID, activityTypeID, today)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidChartType, chartType)
	}
	if err != nil {
		return nil, err
	}

	return &ChartData{
		ActivityTypeID: activity.ID,
		ActivityName:   activity.Name,
		ChartType:      resolution,
		Series:         series,
		Stats:          calculateChartStats(series),
	}, nil
}

// dailySeries 覆盖 [today-29, today]，一天一桶。
func (s *ChartService) dailySeries(userID, activityTypeID uint, today time.Time) ([]ChartBucket, error) {
	start := today.AddDate(0, 0, -(dailyBucketCount - 1))

	counts, err := s.store.ListRange(userID, activityTypeID, start, today)
	if err != nil {
		return nil, err
	}

	countsByDate := make(map[string]int, len(counts))
	for _, dc := range counts {
		countsByDate[dc.Date.Format(rawDateFormat)] += dc.Count
	}

	series := make([]ChartBucket, 0, dailyBucketCount)
	for i := 0; i < dailyBucketCount; i++ {
		date := start.AddDate(0, 0, i)
		key := date.Format(rawDateFormat)
		series = append(series, ChartBucket{
			Label:   date.Format(dailyLabelFormat),
			RawDate: key,
			Count:   countsByDate[key],
		})
	}
	return series, nil
}

// weeklySeries 覆盖以本周为末尾的 12 个自然周，周一为一周起点。
func (s *ChartService) weeklySeries(userID, activityTypeID uint, today time.Time) ([]ChartBucket, error) {
	endOfWeek := nextOrSameSunday(today)
	start := previousOrSameMonday(endOfWeek.AddDate(0, 0, -7*(weeklyBucketCount-1)))

	counts, err := s.store.ListRange(userID, activityTypeID, start, endOfWeek)
	if err != nil {
		return nil, err
	}

	countsByWeekStart := make(map[string]int, len(counts))
	for _, dc := range counts {
		key := previousOrSameMonday(dc.Date).Format(rawDateFormat)
		countsByWeekStart[key] += dc.Count
	}

	series := make([]ChartBucket, 0, weeklyBucketCount)
	weekStart := start
	for i := 0; i < weeklyBucketCount; i++ {
		key := weekStart.Format(rawDateFormat)
		_, isoWeek := weekStart.ISOWeek()
		series = append(series, ChartBucket{
			Label:   fmt.Sprintf("W%02d (%s)", isoWeek, weekStart.Format(dailyLabelFormat)),
			RawDate: key,
			Count:   countsByWeekStart[key],
		})
		weekStart = weekStart.AddDate(0, 0, 7)
	}
	return series, nil
}

// monthlySeries 覆盖 [当前月-11, 当前月] 的 12 个自然月。
func (s *ChartService) monthlySeries(userID, activityTypeID uint, today time.Time) ([]ChartBucket, error) {
	currentMonth := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
	startMonth := currentMonth.AddDate(0, -(monthlyBucketCount - 1), 0)
	endDate := currentMonth.AddDate(0, 1, -1) // 当前月最后一天

	counts, err := s.store.ListRange(userID, activityTypeID, startMonth, endDate)
	if err != nil {
		return nil, err
	}

	countsByMonth := make(map[string]int, len(counts))
	for _, dc := range counts {
		key := time.Date(dc.Date.Year(), dc.Date.Month(), 1, 0, 0, 0, 0, dc.Date.Location()).Format(rawDateFormat)
		countsByMonth[key] += dc.Count
	}

	series := make([]ChartBucket, 0, monthlyBucketCount)
	month := startMonth
	for i := 0; i < monthlyBucketCount; i++ {
		key := month.Format(rawDateFormat)
		series = append(series, ChartBucket{
			Label:   month.Format(monthlyLabelFormat),
			RawDate: key,
			Count:   countsByMonth[key],
		})
		month = month.AddDate(0, 1, 0)
	}
	return series, nil
}

// calculateChartStats 对序列求总和、最大值与保留一位小数的平均值。
func calculateChartStats(series []ChartBucket) ChartStats {
	if len(series) == 0 {
		return ChartStats{}
	}

	var total, max int
	for _, bucket := range series {
		total += bucket.Count
		if bucket.Count > max {
			max = bucket.Count
		}
	}

	average := math.Round(float64(total)/float64(len(series))*10) / 10

	return ChartStats{Average: average, Max: max, Total: total}
}

func previousOrSameMonday(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return t.AddDate(0, 0, -(weekday - 1))
}

func nextOrSameSunday(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		return t
	}
	return t.AddDate(0, 0, 7-weekday)
}
