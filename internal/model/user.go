package model

import "time"

// User represents a registered account that owns recipes, comments and search history.
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"uniqueIndex;size:150;not null"`
	Email        string    `json:"email" gorm:"size:255"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	CreatedAt    time.Time `json:"created_at"`
}
