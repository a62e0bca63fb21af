package db

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MetricStore 封装对指标计数表的全部读写。
// 键是 (user_id, activity_type_id, date)，同一天的递增合并到同一行；
// 聚合读取都从这里出口，服务层不直接拼 SQL
type MetricStore struct {
	db *gorm.DB
}

// DateCount 表示某一天的计数。
type DateCount struct {
	Date  time.Time
	Count int
}

// UserScore 表示排行榜中单个用户的累计得分。
type UserScore struct {
	UserID       uint
	Username     string
	ProfilePhoto string
	TotalScore   int64
}

// ActivityBest 表示用户在某个活动上的单日最高纪录及最早达成日期。
type ActivityBest struct {
	ActivityTypeID uint
	ActivityName   string
	ActivityImage  string
	MaxCount       int
	DateAchieved   time.Time
}

// NewMetricStore 构造 MetricStore
func NewMetricStore(gdb *gorm.DB) *MetricStore {
	return &MetricStore{db: gdb}
}

// NormalizeDate 把时间截断到当天零点，计数表只关心日期。
func NormalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// GetCount 返回指定键的计数，记录不存在视为 0。
func (s *MetricStore) GetCount(userID, activityTypeID uint, date time.Time) (int, error) {
	var metric Metric
	err := s.db.Where("user_id = ? AND activity_type_id = ? AND date = ?",
		userID, activityTypeID, NormalizeDate(date)).First(&metric).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("get count: %w", err)
	}
	return metric.Count, nil
}

// IncrementCount 原子地把指定键的计数加 delta，行不存在时创建。
// 依赖唯一索引 + ON CONFLICT 合并，并发的同键递增不会丢失更新
func (s *MetricStore) IncrementCount(userID, activityTypeID uint, date time.Time, delta int) (*Metric, error) {
	normalized := NormalizeDate(date)

	record := Metric{
		UserID:         userID,
		ActivityTypeID: activityTypeID,
		Date:           normalized,
		Count:          delta,
	}

	if err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "activity_type_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"count":      gorm.Expr("count + ?", delta),
			"updated_at": time.Now(),
		}),
	}).Create(&record).Error; err != nil {
		return nil, fmt.Errorf("increment count: %w", err)
	}

	if err := s.db.Where("user_id = ? AND activity_type_id = ? AND date = ?",
		userID, activityTypeID, normalized).First(&record).Error; err != nil {
		return nil, fmt.Errorf("reload metric: %w", err)
	}

	return &record, nil
}

// SumCounts 汇总指定用户+活动的计数，from/to 为空表示不设界。
func (s *MetricStore) SumCounts(userID, activityTypeID uint, from, to *time.Time) (int, error) {
	query := s.db.Model(&Metric{}).
		Select("COALESCE(SUM(count), 0)").
		Where("user_id = ? AND activity_type_id = ?", userID, activityTypeID)

	if from != nil {
		query = query.Where("date >= ?", NormalizeDate(*from))
	}
	if to != nil {
		query = query.Where("date <= ?", NormalizeDate(*to))
	}

	var total int
	if err := query.Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("sum counts: %w", err)
	}
	return total, nil
}

// ListRange 返回指定区间内的逐日计数，按日期升序。
func (s *MetricStore) ListRange(userID, activityTypeID uint, start, end time.Time) ([]DateCount, error) {
	var metrics []Metric
	if err := s.db.Where("user_id = ? AND activity_type_id = ?", userID, activityTypeID).
		Where("date BETWEEN ? AND ?", NormalizeDate(start), NormalizeDate(end)).
		Order("date ASC").
		Find(&metrics).Error; err != nil {
		return nil, fmt.Errorf("list metrics: %w", err)
	}

	counts := make([]DateCount, 0, len(metrics))
	for _, metric := range metrics {
		counts = append(counts, DateCount{Date: metric.Date, Count: metric.Count})
	}
	return counts, nil
}

// SumByUserForActivity 按用户汇总某个活动的计数，得分高的在前，同分按用户 ID 升序。
// since 为空表示不限起始日期；没有任何记录的用户不会出现在结果里
func (s *MetricStore) SumByUserForActivity(activityTypeID uint, since *time.Time) ([]UserScore, error) {
	query := s.db.Table("metrics m").
		Select("m.user_id AS user_id, u.username AS username, u.profile_photo AS profile_photo, COALESCE(SUM(m.count), 0) AS total_score").
		Joins("JOIN users u ON u.id = m.user_id").
		Where("m.activity_type_id = ?", activityTypeID).
		Where("m.deleted_at IS NULL AND u.deleted_at IS NULL")

	if since != nil {
		query = query.Where("m.date >= ?", NormalizeDate(*since))
	}

	var scores []UserScore
	if err := query.Group("m.user_id, u.username, u.profile_photo").
		Order("total_score DESC, m.user_id ASC").
		Scan(&scores).Error; err != nil {
		return nil, fmt.Errorf("sum by user: %w", err)
	}
	return scores, nil
}

// MaxCountPerActivity 返回用户在每个打过卡的活动上的单日最高计数，
// 同一最高值出现多次时取最早那天。
func (s *MetricStore) MaxCountPerActivity(userID uint) ([]ActivityBest, error) {
	var metrics []Metric
	if err := s.db.Where("user_id = ?", userID).
		Order("activity_type_id ASC, date ASC").
		Find(&metrics).Error; err != nil {
		return nil, fmt.Errorf("list user metrics: %w", err)
	}

	if len(metrics) == 0 {
		return []ActivityBest{}, nil
	}

	bestByActivity := make(map[uint]*ActivityBest)
	order := make([]uint, 0)
	for _, metric := range metrics {
		best, exists := bestByActivity[metric.ActivityTypeID]
		if !exists {
			bestByActivity[metric.ActivityTypeID] = &ActivityBest{
				ActivityTypeID: metric.ActivityTypeID,
				MaxCount:       metric.Count,
				DateAchieved:   metric.Date,
			}
			order = append(order, metric.ActivityTypeID)
			continue
		}
		// 日期升序遍历，严格大于才替换，保证并列最高取最早日期
		if metric.Count > best.MaxCount {
			best.MaxCount = metric.Count
			best.DateAchieved = metric.Date
		}
	}

	var activities []ActivityType
	if err := s.db.Where("id IN ?", order).Find(&activities).Error; err != nil {
		return nil, fmt.Errorf("load activity types: %w", err)
	}
	activityByID := make(map[uint]ActivityType, len(activities))
	for _, activity := range activities {
		activityByID[activity.ID] = activity
	}

	bests := make([]ActivityBest, 0, len(order))
	for _, activityID := range order {
		best := bestByActivity[activityID]
		if activity, ok := activityByID[activityID]; ok {
			best.ActivityName = activity.Name
			best.ActivityImage = activity.Image
		}
		bests = append(bests, *best)
	}
	return bests, nil
}
