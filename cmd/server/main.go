package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/cors"

	"recipehub/docs"
	"recipehub/internal/auth"
	"recipehub/internal/cache"
	"recipehub/internal/config"
	"recipehub/internal/db"
	"recipehub/internal/handler"
	"recipehub/internal/logging"
	"recipehub/internal/model"
	"recipehub/internal/repository"
	"recipehub/internal/router"
	"recipehub/internal/service"
	"recipehub/internal/storage"
)

// @title Recipe Hub API
// @version 1.0
// @description Recipe sharing API with comments, text search and per-user search history.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	gormDB, err := db.Open(cfg.DBDriver, cfg.DSN())
	if err != nil {
		logging.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("database init")
	}

	if err := migrate(gormDB.Migrator(), os.Getenv("RESET_DB") == "true"); err != nil {
		logging.Fatal().Err(err).Msg("auto-migrate")
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 2*time.Second)
	if err := cacheClient.Ping(pingCtx); err != nil {
		logging.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, token revocation will not persist")
	}
	cancelPing()

	imageStore, err := storage.NewS3Store(context.Background(), cfg.S3)
	if err != nil {
		logging.Fatal().Err(err).Msg("image store init")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	recipeRepo := repository.NewRecipeRepository(gormDB)
	commentRepo := repository.NewCommentRepository(gormDB)
	historyRepo := repository.NewSearchHistoryRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Initialize services
	historyService := service.NewSearchHistoryService(historyRepo)
	recipeService := service.NewRecipeService(recipeRepo, imageStore, historyService)
	commentService := service.NewCommentService(commentRepo, recipeRepo)
	authService := service.NewAuthService(userRepo, jwtService, tokenStore)

	e := echo.New()
	e.HideBanner = true
	router.Register(e, jwtService, tokenStore, router.Handlers{
		Recipe:        handler.NewRecipeHandler(recipeService),
		Comment:       handler.NewCommentHandler(commentService),
		SearchHistory: handler.NewSearchHistoryHandler(historyService),
		Auth:          handler.NewAuthHandler(authService),
	})

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = strings.TrimPrefix(strings.TrimPrefix(cfg.SwaggerHost, "https://"), "http://")
	}

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           corsHandler.Handler(e),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logging.Info().Str("addr", srv.Addr).Str("swagger", "/swagger/index.html").Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("server start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logging.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logging.Error().Err(err).Msg("server shutdown")
	}
	// Requests have drained, so no further searches can be queued.
	historyService.Close()
}

// schema lists tables in dependency order; drops run in reverse.
var schema = []interface{}{
	&model.User{},
	&model.Recipe{},
	&model.Comment{},
	&model.SearchHistory{},
}

type migrator interface {
	DropTable(dst ...interface{}) error
	AutoMigrate(dst ...interface{}) error
}

func migrate(m migrator, reset bool) error {
	if reset {
		logging.Warn().Msg("RESET_DB=true detected, dropping all tables")
		for i := len(schema) - 1; i >= 0; i-- {
			if err := m.DropTable(schema[i]); err != nil {
				logging.Warn().Err(err).Msg("drop table failed (may not exist)")
			}
		}
	}
	return m.AutoMigrate(schema...)
}
