package db

import (
	"time"

	"gorm.io/gorm"
)

// Metric 记录单个用户在某一天对某个活动的计数
// User + ActivityType + Date 采用唯一索引，同一天的多次提交合并到同一行
// Count 只增不减，删除跟随用户/活动的级联删除
type Metric struct {
	gorm.Model
	UserID         uint         `gorm:"index;index:idx_metric_unique,unique;not null"`
	User           User         `gorm:"constraint:OnDelete:CASCADE"`
	ActivityTypeID uint         `gorm:"index;index:idx_metric_unique,unique;not null"`
	ActivityType   ActivityType `gorm:"constraint:OnDelete:CASCADE"`
	Date           time.Time    `gorm:"index:idx_metric_unique,unique;not null"`
	Count          int          `gorm:"not null;default:0"`
}

// TableName 重写确保唯一索引作用到 user_id + activity_type_id + date
func (Metric) TableName() string {
	return "metrics"
}
