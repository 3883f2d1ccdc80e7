package models

import (
	"context"
	"errors"
	"time"

	"github.com/lendfocus/mortgage_backend/config"
	"github.com/lendfocus/mortgage_backend/utils"
)

type UserRole string

const (
	UserRoleAdmin       UserRole = "A"
	UserRoleLoanOfficer UserRole = "O"
	UserRoleUnderwriter UserRole = "U"
)

// User is an operator account (loan officers, underwriters, admins).
type User struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Username  string    `gorm:"size:100;not null;unique" json:"username" binding:"required"`
	Name      string    `gorm:"size:100;not null" json:"name" binding:"required"`
	Email     *string   `gorm:"size:100;unique" json:"email"`
	Phone     string    `gorm:"size:20" json:"phone"`
	Password  string    `gorm:"size:255;not null" json:"password"`
	IsActive  *bool     `gorm:"not null" json:"is_active"`
	Role      UserRole  `gorm:"type:enum('A','O','U');default:O" json:"role"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Login verifies credentials and returns a signed token.
func Login(ctx context.Context, username string, password string) (string, error) {
	db := config.GetDB()
	var users []*User
	if err := db.WithContext(ctx).Where("username = ?", username).Limit(1).Find(&users).Error; err != nil {
		return "", err
	}
	if len(users) == 0 {
		return "", errors.New("invalid username or password")
	}
	user := users[0]
	if user.IsActive == nil || !*user.IsActive {
		return "", errors.New("account is inactive")
	}
	if err := utils.ComparePassword(user.Password, password); err != nil {
		return "", errors.New("invalid username or password")
	}
	return utils.JwtGenerate(user.ID, string(user.Role))
}

// CreateUser seeds an operator account with a bcrypt-hashed password.
func CreateUser(ctx context.Context, username, name, password string, role UserRole) (*User, error) {
	hashed, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := User{
		Username: username,
		Name:     name,
		Password: string(hashed),
		IsActive: utils.NewTrue(),
		Role:     role,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
