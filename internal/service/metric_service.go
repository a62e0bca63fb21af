package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/dailymetrics/internal/db"
)

var (
	// ErrInvalidIncrement 当递增值不是正数时返回
	ErrInvalidIncrement = errors.New("increment value must be positive")
)

// MetricStore 是聚合逻辑依赖的计数存储契约。
// 键是 (user, activity, date)，递增必须是原子的 upsert；
// 缺失的记录一律按 0 处理，不是错误
type MetricStore interface {
	GetCount(userID, activityTypeID uint, date time.Time) (int, error)
	IncrementCount(userID, activityTypeID uint, date time.Time, delta int) (*db.Metric, error)
	SumCounts(userID, activityTypeID uint, from, to *time.Time) (int, error)
	ListRange(userID, activityTypeID uint, start, end time.Time) ([]db.DateCount, error)
	SumByUserForActivity(activityTypeID uint, since *time.Time) ([]db.UserScore, error)
	MaxCountPerActivity(userID uint) ([]db.ActivityBest, error)
}

// ActivityDirectory 提供聚合逻辑需要的活动类型元数据。
type ActivityDirectory interface {
	List() ([]db.ActivityType, error)
	Get(id uint) (*db.ActivityType, error)
}

// ActivitySummary 汇总单个用户在单个活动上的所有仪表盘数字
// 每次请求实时计算，不做缓存
type ActivitySummary struct {
	Activity       db.ActivityType
	TodayCount     int
	YesterdayCount int
	TotalAll       int
	TotalMonth     int
	TotalYear      int
	Streak         int
}

// MetricService 负责计数递增、仪表盘聚合与连胜计算。
type MetricService struct {
	store      MetricStore
	activities ActivityDirectory
}

// NewMetricService 构造 MetricService
func NewMetricService(store MetricStore, activities ActivityDirectory) *MetricService {
	return &MetricService{store: store, activities: activities}
}

// Increment 把用户今天在指定活动上的计数加 value。
// 同一天的多次递增合并到同一行
func (s *MetricService) Increment(userID, activityTypeID uint, value int, now time.Time) (*db.Metric, error) {
	if value <= 0 {
		return nil, ErrInvalidIncrement
	}

	if _, err := s.activities.Get(activityTypeID); err != nil {
		return nil, err
	}

	metric, err := s.store.IncrementCount(userID, activityTypeID, now, value)
	if err != nil {
		return nil, fmt.Errorf("increment metric: %w", err)
	}
	return metric, nil
}

// Dashboard 为每个已知活动类型生成一行汇总，顺序与活动枚举顺序一致。
func (s *MetricService) Dashboard(userID uint, now time.Time) ([]ActivitySummary, error) {
	activities, err := s.activities.List()
	if err != nil {
		return nil, err
	}

	today := db.NormalizeDate(now)
	yesterday := today.AddDate(0, 0, -1)
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
	yearStart := time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, today.Location())

	summaries := make([]ActivitySummary, 0, len(activities))
	for _, activity := range activities {
		todayCount, err := s.store.GetCount(userID, activity.ID, today)
		if err != nil {
			return nil, err
		}
		yesterdayCount, err := s.store.GetCount(userID, activity.ID, yesterday)
		if err != nil {
			return nil, err
		}

		totalAll, err := s.store.SumCounts(userID, activity.ID, nil, nil)
		if err != nil {
			return nil, err
		}
		totalMonth, err := s.store.SumCounts(userID, activity.ID, &monthStart, &today)
		if err != nil {
			return nil, err
		}
		totalYear, err := s.store.SumCounts(userID, activity.ID, &yearStart, &today)
		if err != nil {
			return nil, err
		}

		streak, err := s.Streak(userID, activity.ID, today)
		if err != nil {
			return nil, err
		}

		summaries = append(summaries, ActivitySummary{
			Activity:       activity,
			TodayCount:     todayCount,
			YesterdayCount: yesterdayCount,
			TotalAll:       totalAll,
			TotalMonth:     totalMonth,
			TotalYear:      totalYear,
			Streak:         streak,
		})
	}

	return summaries, nil
}

// Streak 从 today 起向前逐日回溯，统计连续打卡天数。
// 今天还没打卡但昨天打了时，不把连胜清零，而是从昨天起算；
// 这是刻意保留的产品行为，用户没来得及记录当天不应看到连胜归零
func (s *MetricService) Streak(userID, activityTypeID uint, today time.Time) (int, error) {
	date := db.NormalizeDate(today)

	todayCount, err := s.store.GetCount(userID, activityTypeID, date)
	if err != nil {
		return 0, err
	}
	if todayCount == 0 {
		date = date.AddDate(0, 0, -1)
	}

	streak := 0
	for {
		count, err := s.store.GetCount(userID, activityTypeID, date)
		if err != nil {
			return 0, err
		}
		if count == 0 {
			break
		}
		streak++
		date = date.AddDate(0, 0, -1)
	}

	return streak, nil
}
