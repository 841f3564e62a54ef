package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"recipehub/internal/model"
)

// SearchHistoryRepository defines search history persistence operations.
type SearchHistoryRepository interface {
	Create(ctx context.Context, entry *model.SearchHistory) error
	CreateBatch(ctx context.Context, entries []model.SearchHistory) error
	// ListRecent returns at most limit entries for userID, newest first.
	ListRecent(ctx context.Context, userID uint, limit int) ([]model.SearchHistory, error)
}

type searchHistoryRepository struct {
	db *gorm.DB
}

// NewSearchHistoryRepository creates a new search history repository.
func NewSearchHistoryRepository(db *gorm.DB) SearchHistoryRepository {
	return &searchHistoryRepository{db: db}
}

// Create appends a search history entry.
func (r *searchHistoryRepository) Create(ctx context.Context, entry *model.SearchHistory) error {
	return r.db.WithContext(ctx).Omit("User").Create(entry).Error
}

// CreateBatch appends multiple entries in a single statement.
func (r *searchHistoryRepository) CreateBatch(ctx context.Context, entries []model.SearchHistory) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit("User").CreateInBatches(entries, 100).Error
}

func (r *searchHistoryRepository) ListRecent(ctx context.Context, userID uint, limit int) ([]model.SearchHistory, error) {
	var entries []model.SearchHistory
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}, Desc: true}).
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
