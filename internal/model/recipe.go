package model

import "time"

const (
	// DefaultCookingTime is applied when a recipe is created without a cooking time.
	DefaultCookingTime = 25
	// DefaultCalories is applied when a recipe is created without calories.
	DefaultCalories = 145
)

// Recipe is a user-authored recipe. UserID is nil once the owner is gone,
// which leaves the recipe readable but no longer modifiable.
type Recipe struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      *uint     `json:"user" gorm:"index"`
	Name        string    `json:"name" gorm:"size:200;not null"`
	Description string    `json:"description" gorm:"type:text;not null"`
	Ingredients string    `json:"ingredients" gorm:"type:text;not null"`
	Image       string    `json:"image,omitempty" gorm:"size:512"`
	CookingTime int       `json:"cooking_time" gorm:"not null;default:25"`
	Calories    int       `json:"calories" gorm:"not null;default:145"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`

	// Relations
	User     *User     `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL"`
	Comments []Comment `json:"-" gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
}

// OwnedBy reports whether userID is the recipe's owner.
func (r *Recipe) OwnedBy(userID uint) bool {
	return r.UserID != nil && *r.UserID == userID
}
