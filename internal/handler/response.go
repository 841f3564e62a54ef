package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	apperrors "recipehub/internal/errors"
	"recipehub/internal/logging"
	"recipehub/internal/model"
)

// RecipeResponse is the wire form of a recipe.
type RecipeResponse struct {
	ID          uint    `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Ingredients string  `json:"ingredients"`
	Image       *string `json:"image"`
	CookingTime int     `json:"cooking_time"`
	Calories    int     `json:"calories"`
	User        *uint   `json:"user"`
}

// CommentResponse is the wire form of a comment.
type CommentResponse struct {
	ID        uint      `json:"id"`
	Recipe    uint      `json:"recipe"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// SearchHistoryResponse is the wire form of a search history entry.
type SearchHistoryResponse struct {
	Query     string    `json:"query"`
	Timestamp time.Time `json:"timestamp"`
}

func newRecipeResponse(r *model.Recipe, imageURL string) RecipeResponse {
	resp := RecipeResponse{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Ingredients: r.Ingredients,
		CookingTime: r.CookingTime,
		Calories:    r.Calories,
		User:        r.UserID,
	}
	if imageURL != "" {
		resp.Image = &imageURL
	}
	return resp
}

func newCommentResponse(c *model.Comment) CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		Recipe:    c.RecipeID,
		Author:    c.Author.Username,
		Text:      c.Text,
		CreatedAt: c.CreatedAt,
	}
}

func newSearchHistoryResponse(e *model.SearchHistory) SearchHistoryResponse {
	return SearchHistoryResponse{Query: e.Query, Timestamp: e.Timestamp}
}

// respondError converts a service error into an echo HTTP error carrying an
// ErrorResponse body. Unexpected errors are logged here and hidden from the client.
func respondError(c echo.Context, err error) error {
	httpErr := apperrors.MapErrorToHTTP(err)
	if httpErr.StatusCode >= http.StatusInternalServerError {
		logging.Error().Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("request failed")
	}
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

func badRequest(message, code string) error {
	return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// parseID reads a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, badRequest("invalid id", "INVALID_ID")
	}
	return uint(id), nil
}
