package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"recipehub/internal/auth"
	"recipehub/internal/model"
	"recipehub/internal/storage"
)

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

// MockRecipeRepository is a mock implementation of RecipeRepository.
type MockRecipeRepository struct {
	mock.Mock
}

func (m *MockRecipeRepository) Create(ctx context.Context, recipe *model.Recipe) error {
	args := m.Called(ctx, recipe)
	return args.Error(0)
}

func (m *MockRecipeRepository) Update(ctx context.Context, recipe *model.Recipe) error {
	args := m.Called(ctx, recipe)
	return args.Error(0)
}

func (m *MockRecipeRepository) FindByID(ctx context.Context, id uint) (*model.Recipe, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Recipe), args.Error(1)
}

func (m *MockRecipeRepository) List(ctx context.Context, query string) ([]model.Recipe, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Recipe), args.Error(1)
}

func (m *MockRecipeRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockCommentRepository is a mock implementation of CommentRepository.
type MockCommentRepository struct {
	mock.Mock
}

func (m *MockCommentRepository) Create(ctx context.Context, comment *model.Comment) error {
	args := m.Called(ctx, comment)
	return args.Error(0)
}

func (m *MockCommentRepository) Update(ctx context.Context, comment *model.Comment) error {
	args := m.Called(ctx, comment)
	return args.Error(0)
}

func (m *MockCommentRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCommentRepository) FindByID(ctx context.Context, id uint) (*model.Comment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Comment), args.Error(1)
}

func (m *MockCommentRepository) List(ctx context.Context, recipeID *uint) ([]model.Comment, error) {
	args := m.Called(ctx, recipeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Comment), args.Error(1)
}

// MockSearchHistoryRepository is a mock implementation of SearchHistoryRepository.
type MockSearchHistoryRepository struct {
	mock.Mock
}

func (m *MockSearchHistoryRepository) Create(ctx context.Context, entry *model.SearchHistory) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockSearchHistoryRepository) CreateBatch(ctx context.Context, entries []model.SearchHistory) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

func (m *MockSearchHistoryRepository) ListRecent(ctx context.Context, userID uint, limit int) ([]model.SearchHistory, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SearchHistory), args.Error(1)
}

// MockSearchHistoryService records calls to Record.
type MockSearchHistoryService struct {
	mock.Mock
}

func (m *MockSearchHistoryService) List(ctx context.Context, actor *auth.Principal) ([]model.SearchHistory, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SearchHistory), args.Error(1)
}

func (m *MockSearchHistoryService) Create(ctx context.Context, actor *auth.Principal, query string) (*model.SearchHistory, error) {
	args := m.Called(ctx, actor, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SearchHistory), args.Error(1)
}

func (m *MockSearchHistoryService) Record(userID uint, query string) {
	m.Called(userID, query)
}

func (m *MockSearchHistoryService) Close() {}

// MockImageStore is a mock implementation of storage.ImageStore.
type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) Put(ctx context.Context, upload storage.Upload) (string, error) {
	args := m.Called(ctx, upload)
	return args.String(0), args.Error(1)
}

func (m *MockImageStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockImageStore) URL(key string) string {
	return "https://cdn.example/" + key
}

// MockTokenStore is a mock implementation of TokenStoreInterface.
type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) StoreRefreshToken(ctx context.Context, tokenID string, userID uint, username string, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, userID, username, ttl)
	return args.Error(0)
}

func (m *MockTokenStore) GetRefreshToken(ctx context.Context, tokenID string) (uint, string, error) {
	args := m.Called(ctx, tokenID)
	return args.Get(0).(uint), args.String(1), args.Error(2)
}

func (m *MockTokenStore) DeleteRefreshToken(ctx context.Context, tokenID string) error {
	args := m.Called(ctx, tokenID)
	return args.Error(0)
}

func (m *MockTokenStore) BlacklistAccessToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, ttl)
	return args.Error(0)
}

func (m *MockTokenStore) IsAccessTokenBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}

func uintPtr(v uint) *uint { return &v }

func strPtr(v string) *string { return &v }

func intPtr(v int) *int { return &v }
