package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dailymetrics/internal/db"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
)

var (
	// ErrActivityNotFound 在指定活动类型不存在时返回
	ErrActivityNotFound = errors.New("activity type not found")
	// ErrActivityNameRequired 当活动名称为空时返回
	ErrActivityNameRequired = errors.New("activity name is required")
	// ErrActivityNameTaken 当活动名称已被占用时返回
	ErrActivityNameTaken = errors.New("activity name already exists")
)

// 名称类字段只允许纯文本，展示端不再转义
var nameSanitizer = bluemonday.StrictPolicy()

func sanitizeName(raw string) string {
	return strings.TrimSpace(nameSanitizer.Sanitize(raw))
}

// ActivityTypeService 负责活动类型的增删改查
// 仅供后台管理使用，聚合侧只读它的 List/Get
type ActivityTypeService struct {
	db *gorm.DB
}

// ActivityInput 定义创建/更新活动类型时可配置字段
// Image 为已上传文件的相对路径，空字符串表示保持不变
type ActivityInput struct {
	Name  string
	Image string
}

// NewActivityTypeService 构造 ActivityTypeService
func NewActivityTypeService(gdb *gorm.DB) *ActivityTypeService {
	return &ActivityTypeService{db: gdb}
}

// List 返回全部活动类型，按创建顺序排列。
func (s *ActivityTypeService) List() ([]db.ActivityType, error) {
	var activities []db.ActivityType
	if err := s.db.Order("id ASC").Find(&activities).Error; err != nil {
		return nil, fmt.Errorf("list activity types: %w", err)
	}
	return activities, nil
}

// Get 根据 ID 获取活动类型
func (s *ActivityTypeService) Get(id uint) (*db.ActivityType, error) {
	var activity db.ActivityType
	if err := s.db.First(&activity, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrActivityNotFound
		}
		return nil, fmt.Errorf("get activity type: %w", err)
	}
	return &activity, nil
}

// Create 新建活动类型，名称必须唯一
func (s *ActivityTypeService) Create(input ActivityInput) (*db.ActivityType, error) {
	name := sanitizeName(input.Name)
	if name == "" {
		return nil, ErrActivityNameRequired
	}

	if taken, err := s.nameTaken(name, 0); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrActivityNameTaken
	}

	activity := db.ActivityType{
		Name:  name,
		Image: strings.TrimSpace(input.Image),
	}

	if err := s.db.Create(&activity).Error; err != nil {
		return nil, fmt.Errorf("create activity type: %w", err)
	}
	return &activity, nil
}

// Update 更新活动类型；Name 为空表示不改名，Image 为空表示保留原图。
// 返回被替换下来的旧图片路径，供调用方清理磁盘文件
func (s *ActivityTypeService) Update(id uint, input ActivityInput) (*db.ActivityType, string, error) {
	activity, err := s.Get(id)
	if err != nil {
		return nil, "", err
	}

	if name := sanitizeName(input.Name); name != "" && name != activity.Name {
		if taken, err := s.nameTaken(name, id); err != nil {
			return nil, "", err
		} else if taken {
			return nil, "", ErrActivityNameTaken
		}
		activity.Name = name
	}

	var replacedImage string
	if image := strings.TrimSpace(input.Image); image != "" && image != activity.Image {
		replacedImage = activity.Image
		activity.Image = image
	}

	if err := s.db.Save(activity).Error; err != nil {
		return nil, "", fmt.Errorf("update activity type: %w", err)
	}
	return activity, replacedImage, nil
}

// Delete 删除活动类型及其全部计数记录。
// 返回活动的图片路径，供调用方清理磁盘文件
func (s *ActivityTypeService) Delete(id uint) (string, error) {
	activity, err := s.Get(id)
	if err != nil {
		return "", err
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("activity_type_id = ?", id).Delete(&db.Metric{}).Error; err != nil {
			return err
		}
		return tx.Delete(&db.ActivityType{}, id).Error
	}); err != nil {
		return "", fmt.Errorf("delete activity type: %w", err)
	}

	return activity.Image, nil
}

func (s *ActivityTypeService) nameTaken(name string, excludeID uint) (bool, error) {
	var count int64
	query := s.db.Model(&db.ActivityType{}).Where("name = ?", name)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("check activity name: %w", err)
	}
	return count > 0, nil
}
