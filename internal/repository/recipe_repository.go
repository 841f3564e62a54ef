package repository

import (
	"context"

	"gorm.io/gorm"

	"recipehub/internal/model"
	"recipehub/internal/search"
)

// RecipeRepository defines recipe persistence operations.
type RecipeRepository interface {
	Create(ctx context.Context, recipe *model.Recipe) error
	Update(ctx context.Context, recipe *model.Recipe) error
	FindByID(ctx context.Context, id uint) (*model.Recipe, error)
	// List returns recipes matching query, newest first. An empty query lists everything.
	List(ctx context.Context, query string) ([]model.Recipe, error)
	// Delete removes the recipe and its comments in one transaction.
	Delete(ctx context.Context, id uint) error
}

type recipeRepository struct {
	db *gorm.DB
}

// NewRecipeRepository creates a new recipe repository.
func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

// Create creates a new recipe.
func (r *recipeRepository) Create(ctx context.Context, recipe *model.Recipe) error {
	return r.db.WithContext(ctx).Create(recipe).Error
}

// Update writes the editable columns. Owner and creation time are never touched.
func (r *recipeRepository) Update(ctx context.Context, recipe *model.Recipe) error {
	return r.db.WithContext(ctx).Model(recipe).
		Select("name", "description", "ingredients", "image", "cooking_time", "calories").
		Updates(recipe).Error
}

// FindByID finds a recipe by ID.
func (r *recipeRepository) FindByID(ctx context.Context, id uint) (*model.Recipe, error) {
	var recipe model.Recipe
	if err := r.db.WithContext(ctx).First(&recipe, id).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

// List lists recipes matching query.
func (r *recipeRepository) List(ctx context.Context, query string) ([]model.Recipe, error) {
	var recipes []model.Recipe
	if err := r.db.WithContext(ctx).
		Scopes(search.Scope(query)).
		Order("created_at DESC").Order("id DESC").
		Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

// Delete deletes a recipe together with its comments.
func (r *recipeRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", id).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Recipe{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
