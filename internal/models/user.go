package models

import "time"

// User is the single record the registry manages. Email is stored already
// normalized, so the unique index enforces case-insensitive uniqueness.
type User struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:320;not null;uniqueIndex:idx_users_email" json:"email"`
	CreatedAt time.Time `gorm:"not null;index:idx_users_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
