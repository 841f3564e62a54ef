package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"recipehub/internal/model"
)

func ownerPtr(id uint) *uint { return &id }

func TestCanModifyRecipe(t *testing.T) {
	tests := []struct {
		name    string
		actorID uint
		recipe  *model.Recipe
		want    bool
	}{
		{name: "owner", actorID: 1, recipe: &model.Recipe{UserID: ownerPtr(1)}, want: true},
		{name: "other user", actorID: 2, recipe: &model.Recipe{UserID: ownerPtr(1)}, want: false},
		{name: "no owner", actorID: 1, recipe: &model.Recipe{}, want: false},
		{name: "zero actor against no owner", actorID: 0, recipe: &model.Recipe{}, want: false},
		{name: "nil recipe", actorID: 1, recipe: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanModifyRecipe(tt.actorID, tt.recipe))
		})
	}
}

func TestCanModifyRecipe_IgnoresMutableOwnerAttributes(t *testing.T) {
	recipe := &model.Recipe{
		UserID: ownerPtr(7),
		User:   &model.User{ID: 7, Username: "renamed"},
	}
	assert.True(t, CanModifyRecipe(7, recipe))

	recipe.User = &model.User{ID: 8, Username: "someone"}
	assert.True(t, CanModifyRecipe(7, recipe))
	assert.False(t, CanModifyRecipe(8, recipe))
}

func TestCanModifyComment(t *testing.T) {
	comment := &model.Comment{AuthorID: 3}

	assert.True(t, CanModifyComment(3, comment))
	assert.False(t, CanModifyComment(4, comment))
	assert.False(t, CanModifyComment(3, nil))
}
