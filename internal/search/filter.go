// Package search implements the recipe text filter: a query matches a recipe
// when it is a case-insensitive substring of the name, the description or
// the ingredients.
package search

import (
	"strings"

	"gorm.io/gorm"

	"recipehub/internal/model"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Matches reports whether recipe satisfies query. An empty query matches everything.
func Matches(recipe *model.Recipe, query string) bool {
	if query == "" {
		return true
	}
	if recipe == nil {
		return false
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(recipe.Name), q) ||
		strings.Contains(strings.ToLower(recipe.Description), q) ||
		strings.Contains(strings.ToLower(recipe.Ingredients), q)
}

// Filter returns the recipes matching query, preserving input order.
func Filter(recipes []model.Recipe, query string) []model.Recipe {
	if query == "" {
		return recipes
	}
	out := make([]model.Recipe, 0, len(recipes))
	for i := range recipes {
		if Matches(&recipes[i], query) {
			out = append(out, recipes[i])
		}
	}
	return out
}

// Scope is the SQL form of Matches for use with (*gorm.DB).Scopes.
// LIKE wildcards in query are escaped so they match literally.
func Scope(query string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if query == "" {
			return db
		}
		pattern := "%" + likeEscaper.Replace(strings.ToLower(query)) + "%"
		return db.Where(
			"LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(ingredients) LIKE ?",
			pattern, pattern, pattern,
		)
	}
}
