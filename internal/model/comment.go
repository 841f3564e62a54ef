package model

import "time"

// Comment is a note left by a user on a recipe.
type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	RecipeID  uint      `json:"recipe" gorm:"not null;index"`
	AuthorID  uint      `json:"-" gorm:"not null;index"`
	Text      string    `json:"text" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Author User `json:"-" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
}
