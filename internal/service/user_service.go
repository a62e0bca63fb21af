package service

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/dailymetrics/internal/db"
	"gorm.io/gorm"
)

var (
	// ErrUserNotFound 在指定用户不存在时返回
	ErrUserNotFound = errors.New("user not found")
	// ErrUsernameRequired 当用户名为空时返回
	ErrUsernameRequired = errors.New("username is required")
	// ErrUsernameTaken 当用户名已被占用时返回
	ErrUsernameTaken = errors.New("username already exists")
	// ErrSearchTermRequired 当搜索关键词为空时返回
	ErrSearchTermRequired = errors.New("search term cannot be empty")
	// ErrCannotDeleteAdmin 禁止删除管理员账号
	ErrCannotDeleteAdmin = errors.New("cannot delete admin user")
	// ErrInvalidLoginCode 登录码不存在时返回
	ErrInvalidLoginCode = errors.New("invalid login code")
)

const (
	loginCodeLength  = 16
	loginCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// UserService 负责用户账号管理与登录码逻辑。
type UserService struct {
	db *gorm.DB
}

// AdminUserInput 定义管理员更新用户时可配置字段
// 指针为 nil 表示对应字段保持不变
type AdminUserInput struct {
	Username     string
	IsAdmin      *bool
	ProfilePhoto *string
}

// ProfileInput 定义用户更新自己资料时可配置字段
type ProfileInput struct {
	Username     string
	ProfilePhoto *string
}

// NewUserService 构造 UserService
func NewUserService(gdb *gorm.DB) *UserService {
	return &UserService{db: gdb}
}

// Create 新建普通用户并生成登录码。
// 登录码只在这里和 ResetLoginCode 原样返回，管理员负责转交给用户
func (s *UserService) Create(username string) (*db.User, error) {
	name := sanitizeName(username)
	if name == "" {
		return nil, ErrUsernameRequired
	}

	if taken, err := s.usernameTaken(name, 0); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrUsernameTaken
	}

	code, err := generateLoginCode()
	if err != nil {
		return nil, err
	}

	user := db.User{
		Username:  name,
		LoginCode: code,
		IsAdmin:   false,
	}

	if err := s.db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

// Get 根据 ID 获取用户
func (s *UserService) Get(id uint) (*db.User, error) {
	var user db.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// GetByLoginCode 根据登录码查找用户，供登录流程使用。
func (s *UserService) GetByLoginCode(code string) (*db.User, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return nil, ErrInvalidLoginCode
	}

	var user db.User
	if err := s.db.Where("login_code = ?", trimmed).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidLoginCode
		}
		return nil, fmt.Errorf("find user by login code: %w", err)
	}
	return &user, nil
}

// List 返回全部用户，按创建顺序排列。
func (s *UserService) List() ([]db.User, error) {
	var users []db.User
	if err := s.db.Order("id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Search 按用户名子串搜索用户。
func (s *UserService) Search(term string) ([]db.User, error) {
	trimmed := strings.TrimSpace(term)
	if trimmed == "" {
		return nil, ErrSearchTermRequired
	}

	var users []db.User
	like := fmt.Sprintf("%%%s%%", trimmed)
	if err := s.db.Where("username LIKE ?", like).Order("id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	return users, nil
}

// Delete 删除普通用户及其全部计数记录，管理员账号不可删除。
func (s *UserService) Delete(id uint) error {
	user, err := s.Get(id)
	if err != nil {
		return err
	}
	if user.IsAdmin {
		return ErrCannotDeleteAdmin
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&db.Metric{}).Error; err != nil {
			return err
		}
		return tx.Delete(&db.User{}, id).Error
	}); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// AdminUpdate 管理员更新任意用户的资料与角色。
func (s *UserService) AdminUpdate(id uint, input AdminUserInput) (*db.User, error) {
	user, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if name := sanitizeName(input.Username); name != "" && name != user.Username {
		if taken, err := s.usernameTaken(name, id); err != nil {
			return nil, err
		} else if taken {
			return nil, ErrUsernameTaken
		}
		user.Username = name
	}
	if input.IsAdmin != nil {
		user.IsAdmin = *input.IsAdmin
	}
	if input.ProfilePhoto != nil {
		user.ProfilePhoto = strings.TrimSpace(*input.ProfilePhoto)
	}

	if err := s.db.Save(user).Error; err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// UpdateProfile 用户更新自己的用户名或头像。
func (s *UserService) UpdateProfile(id uint, input ProfileInput) (*db.User, error) {
	user, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if name := sanitizeName(input.Username); name != "" && name != user.Username {
		if taken, err := s.usernameTaken(name, id); err != nil {
			return nil, err
		} else if taken {
			return nil, ErrUsernameTaken
		}
		user.Username = name
	}
	if input.ProfilePhoto != nil {
		user.ProfilePhoto = strings.TrimSpace(*input.ProfilePhoto)
	}

	if err := s.db.Save(user).Error; err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}

// ResetLoginCode 为用户重新生成登录码并返回新码。
func (s *UserService) ResetLoginCode(id uint) (string, error) {
	user, err := s.Get(id)
	if err != nil {
		return "", err
	}

	code, err := generateLoginCode()
	if err != nil {
		return "", err
	}

	user.LoginCode = code
	if err := s.db.Save(user).Error; err != nil {
		return "", fmt.Errorf("reset login code: %w", err)
	}
	return code, nil
}

func (s *UserService) usernameTaken(username string, excludeID uint) (bool, error) {
	var count int64
	query := s.db.Model(&db.User{}).Where("username = ?", username)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return count > 0, nil
}

func generateLoginCode() (string, error) {
	code := make([]byte, loginCodeLength)
	for i := range code {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(loginCodeCharset))))
		if err != nil {
			return "", fmt.Errorf("generate login code: %w", err)
		}
		code[i] = loginCodeCharset[idx.Int64()]
	}
	return string(code), nil
}
