package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"gorm.io/gorm"

	"recipehub/internal/auth"
	"recipehub/internal/cache"
	"recipehub/internal/config"
	"recipehub/internal/db"
	"recipehub/internal/logging"
	"recipehub/internal/model"
	"recipehub/internal/repository"
	"recipehub/internal/service"
	"recipehub/internal/storage"
)

const defaultSeedFile = "cmd/seed/recipes.json"

// Fixture is the seed file layout: users, each owning a list of recipes.
type Fixture struct {
	Users []SeedUser `json:"users"`
}

// SeedUser is a user account together with the recipes it owns.
type SeedUser struct {
	Username string       `json:"username"`
	Email    string       `json:"email"`
	Password string       `json:"password"`
	Recipes  []SeedRecipe `json:"recipes"`
}

// SeedRecipe is a recipe without an image.
type SeedRecipe struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Ingredients string `json:"ingredients"`
	CookingTime *int   `json:"cooking_time"`
	Calories    *int   `json:"calories"`
}

type seeder struct {
	users   repository.UserRepository
	auth    service.AuthService
	recipes service.RecipeService
}

func main() {
	cfg := config.Load()
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	logging.Info().Msg("starting seed")

	path := os.Getenv("SEED_FILE")
	if path == "" {
		path = defaultSeedFile
	}
	fixture, err := loadFixture(path)
	if err != nil {
		logging.Fatal().Err(err).Str("file", path).Msg("load seed file")
	}

	gormDB, err := db.Open(cfg.DBDriver, cfg.DSN())
	if err != nil {
		logging.Fatal().Err(err).Msg("connect to database")
	}
	if err := gormDB.AutoMigrate(&model.User{}, &model.Recipe{}, &model.Comment{}, &model.SearchHistory{}); err != nil {
		logging.Fatal().Err(err).Msg("run migrations")
	}

	ctx := context.Background()
	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()

	imageStore, err := storage.NewS3Store(ctx, cfg.S3)
	if err != nil {
		logging.Fatal().Err(err).Msg("image store init")
	}

	userRepo := repository.NewUserRepository(gormDB)
	historyService := service.NewSearchHistoryService(repository.NewSearchHistoryRepository(gormDB))
	defer historyService.Close()

	s := &seeder{
		users:   userRepo,
		auth:    service.NewAuthService(userRepo, auth.NewJWTService(cfg.JWTSecret), auth.NewTokenStore(cacheClient)),
		recipes: service.NewRecipeService(repository.NewRecipeRepository(gormDB), imageStore, historyService),
	}

	users, recipes, err := s.run(ctx, fixture)
	if err != nil {
		logging.Fatal().Err(err).Msg("seed failed")
	}
	logging.Info().Int("users_created", users).Int("recipes_created", recipes).Msg("seed completed")
}

func loadFixture(path string) (*Fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var f Fixture
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &f, nil
}

// run creates missing users and their recipes. Existing users are reused and
// a recipe is skipped when its owner already has one with the same name, so
// running the seed twice is harmless.
func (s *seeder) run(ctx context.Context, f *Fixture) (usersCreated, recipesCreated int, err error) {
	for _, u := range f.Users {
		user, err := s.users.FindByUsername(ctx, u.Username)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			user, _, err = s.auth.Register(ctx, u.Username, u.Email, u.Password)
			if err != nil {
				return usersCreated, recipesCreated, fmt.Errorf("register %s: %w", u.Username, err)
			}
			usersCreated++
		case err != nil:
			return usersCreated, recipesCreated, fmt.Errorf("find user %s: %w", u.Username, err)
		}

		actor := &auth.Principal{UserID: user.ID, Username: user.Username}
		for _, r := range u.Recipes {
			exists, err := s.ownsRecipe(ctx, user.ID, r.Name)
			if err != nil {
				return usersCreated, recipesCreated, err
			}
			if exists {
				logging.Debug().Str("user", u.Username).Str("recipe", r.Name).Msg("recipe already seeded")
				continue
			}
			in := service.CreateRecipeInput{
				Name:        r.Name,
				Description: r.Description,
				Ingredients: r.Ingredients,
				CookingTime: r.CookingTime,
				Calories:    r.Calories,
			}
			if _, err := s.recipes.Create(ctx, actor, in, nil); err != nil {
				return usersCreated, recipesCreated, fmt.Errorf("create recipe %q: %w", r.Name, err)
			}
			recipesCreated++
		}
	}
	return usersCreated, recipesCreated, nil
}

func (s *seeder) ownsRecipe(ctx context.Context, userID uint, name string) (bool, error) {
	// Anonymous search so seeding leaves no history behind.
	matches, err := s.recipes.List(ctx, nil, name)
	if err != nil {
		return false, fmt.Errorf("look up recipe %q: %w", name, err)
	}
	for i := range matches {
		if matches[i].Name == name && matches[i].OwnedBy(userID) {
			return true, nil
		}
	}
	return false, nil
}
