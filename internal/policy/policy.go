// Package policy decides whether an acting user may mutate a resource.
package policy

import "recipehub/internal/model"

// CanModifyRecipe reports whether actorID owns recipe.
// Recipes without an owner can never be modified.
func CanModifyRecipe(actorID uint, recipe *model.Recipe) bool {
	if recipe == nil {
		return false
	}
	return recipe.OwnedBy(actorID)
}

// CanModifyComment reports whether actorID authored comment.
func CanModifyComment(actorID uint, comment *model.Comment) bool {
	if comment == nil {
		return false
	}
	return comment.AuthorID == actorID
}
