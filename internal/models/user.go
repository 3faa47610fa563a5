package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	gorm.Model
	GoogleID string `gorm:"uniqueIndex"`
	Username string
	Email    string `gorm:"index"`
	Avatar   string
	Role     string `gorm:"default:user"`

	// Google OAuth token, used for Calendar access on the user's behalf.
	GoogleAccessToken  string     `json:"-"`
	GoogleRefreshToken string     `json:"-"`
	GoogleTokenExpiry  *time.Time `json:"-"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
