package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"recipehub/internal/auth"
	apperrors "recipehub/internal/errors"
	"recipehub/internal/model"
	"recipehub/internal/storage"
)

var (
	alice = &auth.Principal{UserID: 1, Username: "alice"}
	bob   = &auth.Principal{UserID: 2, Username: "bob"}
)

func soup() *model.Recipe {
	return &model.Recipe{
		ID:          10,
		UserID:      uintPtr(1),
		Name:        "Soup",
		Description: "Hot soup",
		Ingredients: "water,salt",
		CookingTime: 25,
		Calories:    145,
	}
}

func TestRecipeService_Create(t *testing.T) {
	tests := []struct {
		name       string
		actor      *auth.Principal
		input      CreateRecipeInput
		setupMock  func(*MockRecipeRepository)
		wantErr    error
		wantFields []string
	}{
		{
			name:  "owner is the acting user and defaults apply",
			actor: alice,
			input: CreateRecipeInput{Name: " Soup ", Description: "Hot soup", Ingredients: "water,salt"},
			setupMock: func(m *MockRecipeRepository) {
				m.On("Create", mock.Anything, mock.MatchedBy(func(r *model.Recipe) bool {
					return r.UserID != nil && *r.UserID == 1 && r.Name == "Soup" &&
						r.CookingTime == model.DefaultCookingTime && r.Calories == model.DefaultCalories
				})).Return(nil)
			},
		},
		{
			name:    "anonymous",
			actor:   nil,
			input:   CreateRecipeInput{Name: "Soup", Description: "Hot soup", Ingredients: "water"},
			wantErr: apperrors.ErrUnauthenticated,
		},
		{
			name:       "missing required fields",
			actor:      alice,
			input:      CreateRecipeInput{Name: "   "},
			wantFields: []string{"name", "description", "ingredients"},
		},
		{
			name:       "name too long and negative calories",
			actor:      alice,
			input:      CreateRecipeInput{Name: strings.Repeat("a", 201), Description: "d", Ingredients: "i", Calories: intPtr(-5)},
			wantFields: []string{"name", "calories"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRecipeRepository)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}
			svc := NewRecipeService(repo, new(MockImageStore), nil)

			recipe, err := svc.Create(context.Background(), tt.actor, tt.input, nil)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, recipe)
			case tt.wantFields != nil:
				var verr *apperrors.ValidationError
				require.True(t, errors.As(err, &verr))
				for _, f := range tt.wantFields {
					assert.Contains(t, verr.Fields, f)
				}
				assert.Len(t, verr.Fields, len(tt.wantFields))
				repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			default:
				require.NoError(t, err)
				assert.Equal(t, "Soup", recipe.Name)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestRecipeService_CreateWithImage(t *testing.T) {
	repo := new(MockRecipeRepository)
	images := new(MockImageStore)
	upload := storage.Upload{Filename: "soup.png", ContentType: "image/png", Body: strings.NewReader("png")}

	images.On("Put", mock.Anything, upload).Return("recipes/abc.png", nil)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*model.Recipe")).Return(nil)

	svc := NewRecipeService(repo, images, nil)
	recipe, err := svc.Create(context.Background(), alice, CreateRecipeInput{Name: "Soup", Description: "d", Ingredients: "i"}, &upload)

	require.NoError(t, err)
	assert.Equal(t, "recipes/abc.png", recipe.Image)
	assert.Equal(t, "https://cdn.example/recipes/abc.png", svc.ImageURL(recipe))
	images.AssertExpectations(t)
}

func TestRecipeService_CreateRemovesImageWhenInsertFails(t *testing.T) {
	repo := new(MockRecipeRepository)
	images := new(MockImageStore)
	upload := storage.Upload{Filename: "soup.png", ContentType: "image/png", Body: strings.NewReader("png")}

	images.On("Put", mock.Anything, upload).Return("recipes/abc.png", nil)
	images.On("Delete", mock.Anything, "recipes/abc.png").Return(nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))

	svc := NewRecipeService(repo, images, nil)
	_, err := svc.Create(context.Background(), alice, CreateRecipeInput{Name: "Soup", Description: "d", Ingredients: "i"}, &upload)

	assert.Error(t, err)
	images.AssertExpectations(t)
}

func TestRecipeService_CreateRejectsNonImage(t *testing.T) {
	images := new(MockImageStore)
	images.On("Put", mock.Anything, mock.Anything).Return("", storage.ErrUnsupportedType)

	svc := NewRecipeService(new(MockRecipeRepository), images, nil)
	_, err := svc.Create(context.Background(), alice, CreateRecipeInput{Name: "Soup", Description: "d", Ingredients: "i"},
		&storage.Upload{Filename: "a.txt", ContentType: "text/plain", Body: strings.NewReader("x")})

	var verr *apperrors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "image")
}

func TestRecipeService_Update(t *testing.T) {
	tests := []struct {
		name      string
		actor     *auth.Principal
		input     UpdateRecipeInput
		setupMock func(*MockRecipeRepository)
		wantErr   error
		wantName  string
	}{
		{
			name:  "owner renames",
			actor: alice,
			input: UpdateRecipeInput{Name: strPtr("Cold Soup")},
			setupMock: func(m *MockRecipeRepository) {
				m.On("FindByID", mock.Anything, uint(10)).Return(soup(), nil)
				m.On("Update", mock.Anything, mock.MatchedBy(func(r *model.Recipe) bool {
					return r.Name == "Cold Soup" && r.Description == "Hot soup"
				})).Return(nil)
			},
			wantName: "Cold Soup",
		},
		{
			name:  "non-owner is forbidden and nothing is written",
			actor: bob,
			input: UpdateRecipeInput{Name: strPtr("Cold Soup")},
			setupMock: func(m *MockRecipeRepository) {
				m.On("FindByID", mock.Anything, uint(10)).Return(soup(), nil)
			},
			wantErr: apperrors.ErrForbidden,
		},
		{
			name:  "ownerless recipe is forbidden for everyone",
			actor: alice,
			input: UpdateRecipeInput{Name: strPtr("x")},
			setupMock: func(m *MockRecipeRepository) {
				r := soup()
				r.UserID = nil
				m.On("FindByID", mock.Anything, uint(10)).Return(r, nil)
			},
			wantErr: apperrors.ErrForbidden,
		},
		{
			name:  "missing recipe",
			actor: alice,
			input: UpdateRecipeInput{Name: strPtr("x")},
			setupMock: func(m *MockRecipeRepository) {
				m.On("FindByID", mock.Anything, uint(10)).Return(nil, gorm.ErrRecordNotFound)
			},
			wantErr: apperrors.ErrRecipeNotFound,
		},
		{
			name:    "anonymous",
			actor:   nil,
			input:   UpdateRecipeInput{Name: strPtr("x")},
			wantErr: apperrors.ErrUnauthenticated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRecipeRepository)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}
			svc := NewRecipeService(repo, new(MockImageStore), nil)

			recipe, err := svc.Update(context.Background(), tt.actor, 10, tt.input, nil)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, recipe)
				repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantName, recipe.Name)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestRecipeService_UpdateRejectsBlankName(t *testing.T) {
	repo := new(MockRecipeRepository)
	repo.On("FindByID", mock.Anything, uint(10)).Return(soup(), nil)

	svc := NewRecipeService(repo, new(MockImageStore), nil)
	_, err := svc.Update(context.Background(), alice, 10, UpdateRecipeInput{Name: strPtr("  ")}, nil)

	var verr *apperrors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "name")
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestRecipeService_UpdateReplacesImage(t *testing.T) {
	repo := new(MockRecipeRepository)
	images := new(MockImageStore)
	existing := soup()
	existing.Image = "recipes/old.png"
	upload := storage.Upload{Filename: "new.png", ContentType: "image/png", Body: strings.NewReader("png")}

	repo.On("FindByID", mock.Anything, uint(10)).Return(existing, nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)
	images.On("Put", mock.Anything, upload).Return("recipes/new.png", nil)
	images.On("Delete", mock.Anything, "recipes/old.png").Return(nil)

	svc := NewRecipeService(repo, images, nil)
	recipe, err := svc.Update(context.Background(), alice, 10, UpdateRecipeInput{}, &upload)

	require.NoError(t, err)
	assert.Equal(t, "recipes/new.png", recipe.Image)
	images.AssertExpectations(t)
}

func TestRecipeService_Delete(t *testing.T) {
	t.Run("owner deletes recipe and image", func(t *testing.T) {
		repo := new(MockRecipeRepository)
		images := new(MockImageStore)
		existing := soup()
		existing.Image = "recipes/soup.png"
		repo.On("FindByID", mock.Anything, uint(10)).Return(existing, nil)
		repo.On("Delete", mock.Anything, uint(10)).Return(nil)
		images.On("Delete", mock.Anything, "recipes/soup.png").Return(nil)

		svc := NewRecipeService(repo, images, nil)
		require.NoError(t, svc.Delete(context.Background(), alice, 10))

		repo.AssertExpectations(t)
		images.AssertExpectations(t)
	})

	t.Run("non-owner is forbidden", func(t *testing.T) {
		repo := new(MockRecipeRepository)
		repo.On("FindByID", mock.Anything, uint(10)).Return(soup(), nil)

		svc := NewRecipeService(repo, new(MockImageStore), nil)
		err := svc.Delete(context.Background(), bob, 10)

		assert.ErrorIs(t, err, apperrors.ErrForbidden)
		repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("missing recipe", func(t *testing.T) {
		repo := new(MockRecipeRepository)
		repo.On("FindByID", mock.Anything, uint(10)).Return(nil, gorm.ErrRecordNotFound)

		svc := NewRecipeService(repo, new(MockImageStore), nil)
		assert.ErrorIs(t, svc.Delete(context.Background(), alice, 10), apperrors.ErrRecipeNotFound)
	})
}

func TestRecipeService_ListRecordsAuthenticatedSearches(t *testing.T) {
	repo := new(MockRecipeRepository)
	history := new(MockSearchHistoryService)
	repo.On("List", mock.Anything, "soup").Return([]model.Recipe{*soup()}, nil)
	history.On("Record", uint(1), "soup").Return()

	svc := NewRecipeService(repo, new(MockImageStore), history)
	recipes, err := svc.List(context.Background(), alice, "soup")

	require.NoError(t, err)
	assert.Len(t, recipes, 1)
	history.AssertExpectations(t)
}

func TestRecipeService_ListSkipsRecordingForAnonymousOrEmptyQuery(t *testing.T) {
	repo := new(MockRecipeRepository)
	history := new(MockSearchHistoryService)
	repo.On("List", mock.Anything, "soup").Return([]model.Recipe{}, nil)
	repo.On("List", mock.Anything, "").Return([]model.Recipe{*soup()}, nil)

	svc := NewRecipeService(repo, new(MockImageStore), history)

	_, err := svc.List(context.Background(), nil, "soup")
	require.NoError(t, err)
	_, err = svc.List(context.Background(), alice, "")
	require.NoError(t, err)

	history.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
}
