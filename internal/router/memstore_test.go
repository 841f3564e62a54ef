package router

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"recipehub/internal/model"
	"recipehub/internal/search"
	"recipehub/internal/storage"
)

// memDB is an in-memory stand-in for the relational store, shared by the
// repository fakes below so that cascades and joins behave like the real schema.
type memDB struct {
	mu       sync.Mutex
	nextID   uint
	users    map[uint]model.User
	recipes  map[uint]model.Recipe
	comments map[uint]model.Comment
	history  []model.SearchHistory
}

func newMemDB() *memDB {
	return &memDB{
		users:    map[uint]model.User{},
		recipes:  map[uint]model.Recipe{},
		comments: map[uint]model.Comment{},
	}
}

func (db *memDB) id() uint {
	db.nextID++
	return db.nextID
}

type memUsers struct{ db *memDB }

func (r memUsers) Create(_ context.Context, user *model.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.Username == user.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	user.ID = r.db.id()
	user.CreatedAt = time.Now()
	r.db.users[user.ID] = *user
	return nil
}

func (r memUsers) FindByID(_ context.Context, id uint) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (r memUsers) FindByUsername(_ context.Context, username string) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type memRecipes struct{ db *memDB }

func (r memRecipes) Create(_ context.Context, recipe *model.Recipe) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	recipe.ID = r.db.id()
	recipe.CreatedAt = time.Now()
	if recipe.CookingTime == 0 {
		recipe.CookingTime = model.DefaultCookingTime
	}
	if recipe.Calories == 0 {
		recipe.Calories = model.DefaultCalories
	}
	r.db.recipes[recipe.ID] = *recipe
	return nil
}

func (r memRecipes) Update(_ context.Context, recipe *model.Recipe) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.recipes[recipe.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.db.recipes[recipe.ID] = *recipe
	return nil
}

func (r memRecipes) FindByID(_ context.Context, id uint) (*model.Recipe, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	recipe, ok := r.db.recipes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &recipe, nil
}

func (r memRecipes) List(_ context.Context, query string) ([]model.Recipe, error) {
	r.db.mu.Lock()
	all := make([]model.Recipe, 0, len(r.db.recipes))
	for _, recipe := range r.db.recipes {
		all = append(all, recipe)
	}
	r.db.mu.Unlock()

	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return search.Filter(all, query), nil
}

func (r memRecipes) Delete(_ context.Context, id uint) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.recipes[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	for cid, c := range r.db.comments {
		if c.RecipeID == id {
			delete(r.db.comments, cid)
		}
	}
	delete(r.db.recipes, id)
	return nil
}

type memComments struct{ db *memDB }

// withAuthor mirrors the Author preload; callers hold the lock.
func (r memComments) withAuthor(c model.Comment) model.Comment {
	c.Author = r.db.users[c.AuthorID]
	return c
}

func (r memComments) Create(_ context.Context, comment *model.Comment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	comment.ID = r.db.id()
	comment.CreatedAt = time.Now()
	r.db.comments[comment.ID] = *comment
	*comment = r.withAuthor(*comment)
	return nil
}

func (r memComments) Update(_ context.Context, comment *model.Comment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	stored, ok := r.db.comments[comment.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Text = comment.Text
	r.db.comments[comment.ID] = stored
	return nil
}

func (r memComments) Delete(_ context.Context, id uint) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.comments[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.db.comments, id)
	return nil
}

func (r memComments) FindByID(_ context.Context, id uint) (*model.Comment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.comments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c = r.withAuthor(c)
	return &c, nil
}

func (r memComments) List(_ context.Context, recipeID *uint) ([]model.Comment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []model.Comment{}
	for _, c := range r.db.comments {
		if recipeID == nil || c.RecipeID == *recipeID {
			out = append(out, r.withAuthor(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

type memHistory struct{ db *memDB }

func (r memHistory) Create(_ context.Context, entry *model.SearchHistory) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	entry.ID = r.db.id()
	r.db.history = append(r.db.history, *entry)
	return nil
}

func (r memHistory) CreateBatch(_ context.Context, entries []model.SearchHistory) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, e := range entries {
		e.ID = r.db.id()
		r.db.history = append(r.db.history, e)
	}
	return nil
}

func (r memHistory) ListRecent(_ context.Context, userID uint, limit int) ([]model.SearchHistory, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []model.SearchHistory{}
	for _, e := range r.db.history {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// memTokens is a map-backed token store.
type memTokens struct {
	mu          sync.Mutex
	refresh     map[string]model.User
	blacklisted map[string]bool
}

func newMemTokens() *memTokens {
	return &memTokens{refresh: map[string]model.User{}, blacklisted: map[string]bool{}}
}

func (s *memTokens) StoreRefreshToken(_ context.Context, tokenID string, userID uint, username string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh[tokenID] = model.User{ID: userID, Username: username}
	return nil
}

func (s *memTokens) GetRefreshToken(_ context.Context, tokenID string) (uint, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.refresh[tokenID]
	if !ok {
		return 0, "", gorm.ErrRecordNotFound
	}
	return u.ID, u.Username, nil
}

func (s *memTokens) DeleteRefreshToken(_ context.Context, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.refresh, tokenID)
	return nil
}

func (s *memTokens) BlacklistAccessToken(_ context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blacklisted[tokenID] = true
	return nil
}

func (s *memTokens) IsAccessTokenBlacklisted(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blacklisted[tokenID], nil
}

// memImages records stored objects by key.
type memImages struct {
	mu      sync.Mutex
	objects map[string]string
}

func newMemImages() *memImages {
	return &memImages{objects: map[string]string{}}
}

func (s *memImages) Put(_ context.Context, upload storage.Upload) (string, error) {
	upload, err := storage.Sniff(upload)
	if err != nil {
		return "", err
	}
	body, err := io.ReadAll(upload.Body)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := fmt.Sprintf("recipes/%d-%s", len(s.objects)+1, upload.Filename)
	s.objects[key] = string(body)
	return key, nil
}

func (s *memImages) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *memImages) URL(key string) string {
	return "http://images.test/" + key
}

func (s *memImages) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}
