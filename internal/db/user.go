package db

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ErrInvalidCredentials 用户名不存在或密码不匹配
var ErrInvalidCredentials = errors.New("invalid credentials")

// User 是可以管理期刊的编辑账号
type User struct {
	gorm.Model
	Username string `gorm:"unique;not null"`
	Password string `gorm:"not null"`
}

// EnsureUser creates the account on first start. An existing account keeps
// its stored password.
func EnsureUser(gdb *gorm.DB, username, password string) error {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return nil
	}
	if gdb == nil {
		return errors.New("database not initialized")
	}

	var count int64
	if err := gdb.Model(&User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return fmt.Errorf("lookup user %q: %w", username, err)
	}
	if count > 0 {
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return gdb.Create(&User{Username: username, Password: string(hashed)}).Error
}

// Authenticate 校验用户名与密码，失败时返回 ErrInvalidCredentials
func Authenticate(gdb *gorm.DB, username, password string) (*User, error) {
	var user User
	err := gdb.Where("username = ?", strings.TrimSpace(username)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}
