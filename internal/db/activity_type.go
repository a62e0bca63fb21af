package db

import "gorm.io/gorm"

// ActivityType 定义了可打卡的活动类型
// Name 全局唯一，Image 存储相对路径或完整 URL，可为空
type ActivityType struct {
	gorm.Model
	Name  string `gorm:"size:80;unique;not null"`
	Image string `gorm:"size:255"`
}

// TableName 指定自定义表名，避免自动复数化导致的歧义。
func (ActivityType) TableName() string {
	return "activity_types"
}
