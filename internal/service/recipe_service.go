package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"recipehub/internal/auth"
	apperrors "recipehub/internal/errors"
	"recipehub/internal/logging"
	"recipehub/internal/metrics"
	"recipehub/internal/model"
	"recipehub/internal/policy"
	"recipehub/internal/repository"
	"recipehub/internal/storage"
	"recipehub/internal/validation"
)

// CreateRecipeInput holds the fields accepted when creating a recipe.
// Nil CookingTime and Calories fall back to the model defaults.
type CreateRecipeInput struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"required"`
	Ingredients string `json:"ingredients" validate:"required"`
	CookingTime *int   `json:"cooking_time" validate:"omitempty,min=0"`
	Calories    *int   `json:"calories" validate:"omitempty,min=0"`
}

// UpdateRecipeInput holds a partial update; nil fields are left unchanged.
type UpdateRecipeInput struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,min=1"`
	Ingredients *string `json:"ingredients" validate:"omitempty,min=1"`
	CookingTime *int    `json:"cooking_time" validate:"omitempty,min=0"`
	Calories    *int    `json:"calories" validate:"omitempty,min=0"`
}

// RecipeService handles the recipe lifecycle and search.
type RecipeService interface {
	List(ctx context.Context, actor *auth.Principal, query string) ([]model.Recipe, error)
	Get(ctx context.Context, id uint) (*model.Recipe, error)
	Create(ctx context.Context, actor *auth.Principal, in CreateRecipeInput, image *storage.Upload) (*model.Recipe, error)
	Update(ctx context.Context, actor *auth.Principal, id uint, in UpdateRecipeInput, image *storage.Upload) (*model.Recipe, error)
	Delete(ctx context.Context, actor *auth.Principal, id uint) error
	ImageURL(recipe *model.Recipe) string
}

type recipeService struct {
	repo      repository.RecipeRepository
	images    storage.ImageStore
	history   SearchHistoryService
	validator *validator.Validate
}

// NewRecipeService creates a new recipe service.
func NewRecipeService(repo repository.RecipeRepository, images storage.ImageStore, history SearchHistoryService) RecipeService {
	return &recipeService{
		repo:      repo,
		images:    images,
		history:   history,
		validator: validation.New(),
	}
}

// List returns recipes matching query. Searches by an authenticated user are
// recorded in their history without waiting for the write.
func (s *recipeService) List(ctx context.Context, actor *auth.Principal, query string) ([]model.Recipe, error) {
	recipes, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}

	if query == "" {
		metrics.RecipeSearches.WithLabelValues("false").Inc()
		return recipes, nil
	}
	metrics.RecipeSearches.WithLabelValues("true").Inc()
	if actor != nil && s.history != nil {
		s.history.Record(actor.UserID, query)
	}
	return recipes, nil
}

// Get retrieves a recipe by ID.
func (s *recipeService) Get(ctx context.Context, id uint) (*model.Recipe, error) {
	recipe, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRecipeNotFound
		}
		return nil, fmt.Errorf("find recipe: %w", err)
	}
	return recipe, nil
}

// Create persists a new recipe owned by actor.
func (s *recipeService) Create(ctx context.Context, actor *auth.Principal, in CreateRecipeInput, image *storage.Upload) (*model.Recipe, error) {
	if actor == nil {
		return nil, apperrors.ErrUnauthenticated
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Ingredients = strings.TrimSpace(in.Ingredients)
	if err := validation.Struct(s.validator, in); err != nil {
		return nil, err
	}

	ownerID := actor.UserID
	recipe := &model.Recipe{
		UserID:      &ownerID,
		Name:        in.Name,
		Description: in.Description,
		Ingredients: in.Ingredients,
		CookingTime: model.DefaultCookingTime,
		Calories:    model.DefaultCalories,
	}
	if in.CookingTime != nil {
		recipe.CookingTime = *in.CookingTime
	}
	if in.Calories != nil {
		recipe.Calories = *in.Calories
	}

	if image != nil {
		key, err := s.putImage(ctx, *image)
		if err != nil {
			return nil, err
		}
		recipe.Image = key
	}

	if err := s.repo.Create(ctx, recipe); err != nil {
		s.removeImage(ctx, recipe.Image)
		return nil, fmt.Errorf("create recipe: %w", err)
	}
	return recipe, nil
}

// Update applies a partial update. Only the owner may update a recipe.
func (s *recipeService) Update(ctx context.Context, actor *auth.Principal, id uint, in UpdateRecipeInput, image *storage.Upload) (*model.Recipe, error) {
	if actor == nil {
		return nil, apperrors.ErrUnauthenticated
	}

	recipe, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanModifyRecipe(actor.UserID, recipe) {
		return nil, apperrors.ErrForbidden
	}

	in.Name = trimPtr(in.Name)
	in.Description = trimPtr(in.Description)
	in.Ingredients = trimPtr(in.Ingredients)
	if err := validation.Struct(s.validator, in); err != nil {
		return nil, err
	}

	if in.Name != nil {
		recipe.Name = *in.Name
	}
	if in.Description != nil {
		recipe.Description = *in.Description
	}
	if in.Ingredients != nil {
		recipe.Ingredients = *in.Ingredients
	}
	if in.CookingTime != nil {
		recipe.CookingTime = *in.CookingTime
	}
	if in.Calories != nil {
		recipe.Calories = *in.Calories
	}

	oldImage := recipe.Image
	if image != nil {
		key, err := s.putImage(ctx, *image)
		if err != nil {
			return nil, err
		}
		recipe.Image = key
	}

	if err := s.repo.Update(ctx, recipe); err != nil {
		if recipe.Image != oldImage {
			s.removeImage(ctx, recipe.Image)
		}
		return nil, fmt.Errorf("update recipe: %w", err)
	}
	if recipe.Image != oldImage {
		s.removeImage(ctx, oldImage)
	}
	return recipe, nil
}

// Delete removes a recipe and its comments. Only the owner may delete a recipe.
func (s *recipeService) Delete(ctx context.Context, actor *auth.Principal, id uint) error {
	if actor == nil {
		return apperrors.ErrUnauthenticated
	}

	recipe, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !policy.CanModifyRecipe(actor.UserID, recipe) {
		return apperrors.ErrForbidden
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrRecipeNotFound
		}
		return fmt.Errorf("delete recipe: %w", err)
	}
	s.removeImage(ctx, recipe.Image)
	return nil
}

// ImageURL returns the public URL of the recipe image, or "" when it has none.
func (s *recipeService) ImageURL(recipe *model.Recipe) string {
	if recipe == nil || recipe.Image == "" || s.images == nil {
		return ""
	}
	return s.images.URL(recipe.Image)
}

func (s *recipeService) putImage(ctx context.Context, upload storage.Upload) (string, error) {
	if s.images == nil {
		return "", apperrors.NewValidationError("image", "image uploads are not available")
	}
	key, err := s.images.Put(ctx, upload)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedType) {
			return "", apperrors.NewValidationError("image", "upload a valid image (jpeg, png, gif or webp)")
		}
		return "", fmt.Errorf("store image: %w", err)
	}
	return key, nil
}

// removeImage deletes an image object best-effort; orphaned objects are only logged.
func (s *recipeService) removeImage(ctx context.Context, key string) {
	if key == "" || s.images == nil {
		return
	}
	if err := s.images.Delete(ctx, key); err != nil {
		logging.Warn().Err(err).Str("key", key).Msg("failed to delete recipe image")
	}
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
