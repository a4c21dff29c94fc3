package model

import "time"

type User struct {
	ID             uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	Email          string    `gorm:"column:email;type:text;not null;uniqueIndex"`
	HashedPassword string    `gorm:"column:hashed_password;type:text;not null"`
	IsActive       bool      `gorm:"column:is_active;not null;default:1"`
	CreatedAt      time.Time `gorm:"column:created_at;not null"`
}

func (User) TableName() string {
	return "users"
}
