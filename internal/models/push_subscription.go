package models

import "gorm.io/gorm"

type PushSubscription struct {
	gorm.Model
	UserID   uint   `json:"user_id" gorm:"index"`
	Endpoint string `json:"endpoint" gorm:"uniqueIndex"`
	P256dh   string `json:"p256dh"`
	Auth     string `json:"auth"`
}
