package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// User 定义了用户模型
// 登录凭证是管理员下发的 LoginCode，没有传统密码；
// 新建/重置时需要原样展示给管理员，因此明文存储
type User struct {
	gorm.Model
	Username     string `gorm:"size:80;unique;not null"`
	LoginCode    string `gorm:"size:64;unique;not null"`
	ProfilePhoto string `gorm:"size:255"`
	IsAdmin      bool   `gorm:"not null;default:false"`
}

// EnsureAdminUser 存在性检查：若提供的用户名与登录码均非空且不存在对应账号，则创建一个管理员用户。
func EnsureAdminUser(username, loginCode string) error {
	trimmedUser := strings.TrimSpace(username)
	trimmedCode := strings.TrimSpace(loginCode)
	if trimmedUser == "" || trimmedCode == "" {
		return nil
	}

	if DB == nil {
		return errors.New("database not initialized")
	}

	var existing User
	if err := DB.Where("username = ?", trimmedUser).First(&existing).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		return DB.Create(&User{Username: trimmedUser, LoginCode: trimmedCode, IsAdmin: true}).Error
	}

	return nil
}
