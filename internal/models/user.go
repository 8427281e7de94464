package models

import (
	"time"
)

// User is an account that owns projects
type User struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Email          string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	HashedPassword string    `gorm:"size:255;not null" json:"-"`
	CreatedAt      time.Time `json:"-"`
	UpdatedAt      time.Time `json:"-"`
}

// TableName overrides the table name for User
func (User) TableName() string {
	return "users"
}
