package models

import "time"

// User & auth related models
type User struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	Email        string  `gorm:"unique;not null;index" json:"email"`
	Password     string  `gorm:"not null" json:"-"` // bcrypt hash
	Name         string  `json:"name"`
	BusinessName string  `json:"business_name"`
	Demo         bool    `gorm:"not null;default:false" json:"demo"`
	SessionID    *string `gorm:"size:64;index" json:"-"` // set for ephemeral demo users
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
