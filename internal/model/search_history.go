package model

import "time"

// MaxSearchQueryLength bounds the stored query text.
const MaxSearchQueryLength = 255

// SearchHistory is an append-only record of a search run by a user.
type SearchHistory struct {
	ID        uint      `json:"-" gorm:"primaryKey"`
	UserID    uint      `json:"-" gorm:"not null;index:idx_search_history_user_ts,priority:1"`
	Query     string    `json:"query" gorm:"size:255;not null"`
	Timestamp time.Time `json:"timestamp" gorm:"autoCreateTime;index:idx_search_history_user_ts,priority:2,sort:desc"`

	// Relations
	User User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName keeps the table name stable regardless of GORM's pluralizer.
func (SearchHistory) TableName() string {
	return "search_histories"
}
