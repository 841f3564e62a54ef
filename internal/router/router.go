package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"

	"recipehub/internal/auth"
	"recipehub/internal/handler"
	"recipehub/internal/logging"
	"recipehub/internal/metrics"
	"recipehub/internal/validation"
)

// Handlers groups the HTTP handlers mounted under /api.
type Handlers struct {
	Recipe        *handler.RecipeHandler
	Comment       *handler.CommentHandler
	SearchHistory *handler.SearchHistoryHandler
	Auth          *handler.AuthHandler
}

// Register wires routes and middleware.
func Register(e *echo.Echo, jwtService *auth.JWTService, tokenStore auth.TokenStoreInterface, h Handlers) {
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.RequestID())
	e.Use(logging.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(metrics.Middleware())

	e.Validator = &CustomValidator{validator: validation.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	optionalAuth := auth.Middleware(jwtService, tokenStore, true)
	requireAuth := auth.Middleware(jwtService, tokenStore, false)

	api := e.Group("/api")

	// Public routes
	api.POST("/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/refresh", h.Auth.Refresh)
	api.POST("/auth/logout", h.Auth.Logout, optionalAuth)

	// Recipe routes; anonymous reads, searches by signed-in users are recorded
	api.GET("/recipes", h.Recipe.List, optionalAuth)
	api.GET("/recipes/:id", h.Recipe.Get, optionalAuth)
	api.POST("/recipes", h.Recipe.Create, requireAuth)
	api.PATCH("/recipes/:id", h.Recipe.Update, requireAuth)
	api.PUT("/recipes/:id", h.Recipe.Update, requireAuth)
	api.DELETE("/recipes/:id", h.Recipe.Delete, requireAuth)

	// Comment routes
	api.GET("/comments", h.Comment.List, optionalAuth)
	api.GET("/comments/:id", h.Comment.Get, optionalAuth)
	api.POST("/comments", h.Comment.Create, requireAuth)
	api.PATCH("/comments/:id", h.Comment.Update, requireAuth)
	api.DELETE("/comments/:id", h.Comment.Delete, requireAuth)

	// Search history routes
	history := api.Group("/search-history", requireAuth)
	history.GET("", h.SearchHistory.List)
	history.POST("", h.SearchHistory.Create)
}

// CustomValidator wraps validator for Echo and reports field-level errors.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return validation.Struct(cv.validator, i)
}
