package repository

import (
	"context"

	"gorm.io/gorm"

	"recipehub/internal/model"
)

// CommentRepository defines comment persistence operations.
// Returned comments have Author preloaded.
type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	Update(ctx context.Context, comment *model.Comment) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Comment, error)
	// List returns comments newest first, restricted to recipeID when it is non-nil.
	List(ctx context.Context, recipeID *uint) ([]model.Comment, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new comment repository.
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *model.Comment) error {
	if err := r.db.WithContext(ctx).Omit("Author").Create(comment).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).First(&comment.Author, comment.AuthorID).Error
}

// Update writes the comment text; author and recipe are fixed at creation.
func (r *commentRepository) Update(ctx context.Context, comment *model.Comment) error {
	return r.db.WithContext(ctx).Model(comment).Update("text", comment.Text).Error
}

func (r *commentRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Comment{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *commentRepository) FindByID(ctx context.Context, id uint) (*model.Comment, error) {
	var comment model.Comment
	if err := r.db.WithContext(ctx).Preload("Author").First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) List(ctx context.Context, recipeID *uint) ([]model.Comment, error) {
	q := r.db.WithContext(ctx).Preload("Author")
	if recipeID != nil {
		q = q.Where("recipe_id = ?", *recipeID)
	}
	var comments []model.Comment
	if err := q.Order("created_at DESC").Order("id DESC").Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}
