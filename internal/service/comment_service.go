package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"recipehub/internal/auth"
	apperrors "recipehub/internal/errors"
	"recipehub/internal/model"
	"recipehub/internal/policy"
	"recipehub/internal/repository"
)

// CommentService handles comment operations.
type CommentService interface {
	// List returns all comments, or only those of recipeID when it is non-nil.
	List(ctx context.Context, recipeID *uint) ([]model.Comment, error)
	Get(ctx context.Context, id uint) (*model.Comment, error)
	Create(ctx context.Context, actor *auth.Principal, recipeID uint, text string) (*model.Comment, error)
	Update(ctx context.Context, actor *auth.Principal, id uint, text string) (*model.Comment, error)
	Delete(ctx context.Context, actor *auth.Principal, id uint) error
}

type commentService struct {
	comments repository.CommentRepository
	recipes  repository.RecipeRepository
}

// NewCommentService creates a new comment service.
func NewCommentService(comments repository.CommentRepository, recipes repository.RecipeRepository) CommentService {
	return &commentService{
		comments: comments,
		recipes:  recipes,
	}
}

func (s *commentService) List(ctx context.Context, recipeID *uint) ([]model.Comment, error) {
	comments, err := s.comments.List(ctx, recipeID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

func (s *commentService) Get(ctx context.Context, id uint) (*model.Comment, error) {
	comment, err := s.comments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCommentNotFound
		}
		return nil, fmt.Errorf("find comment: %w", err)
	}
	return comment, nil
}

// Create adds a comment authored by actor to an existing recipe.
func (s *commentService) Create(ctx context.Context, actor *auth.Principal, recipeID uint, text string) (*model.Comment, error) {
	if actor == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.NewValidationError("text", "this field is required")
	}

	if _, err := s.recipes.FindByID(ctx, recipeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRecipeNotFound
		}
		return nil, fmt.Errorf("find recipe: %w", err)
	}

	comment := &model.Comment{
		RecipeID: recipeID,
		AuthorID: actor.UserID,
		Text:     text,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return comment, nil
}

// Update changes the comment text. Only the author may edit a comment.
func (s *commentService) Update(ctx context.Context, actor *auth.Principal, id uint, text string) (*model.Comment, error) {
	if actor == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	comment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanModifyComment(actor.UserID, comment) {
		return nil, apperrors.ErrForbidden
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.NewValidationError("text", "this field is required")
	}
	comment.Text = text
	if err := s.comments.Update(ctx, comment); err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	return comment, nil
}

// Delete removes a comment. Only the author may delete a comment.
func (s *commentService) Delete(ctx context.Context, actor *auth.Principal, id uint) error {
	if actor == nil {
		return apperrors.ErrUnauthenticated
	}
	comment, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !policy.CanModifyComment(actor.UserID, comment) {
		return apperrors.ErrForbidden
	}
	if err := s.comments.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrCommentNotFound
		}
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}
