package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"recipehub/internal/auth"
	"recipehub/internal/service"
)

// SearchHistoryHandler exposes the caller's search history.
type SearchHistoryHandler struct {
	historyService service.SearchHistoryService
}

// NewSearchHistoryHandler creates a new search history handler.
func NewSearchHistoryHandler(historyService service.SearchHistoryService) *SearchHistoryHandler {
	return &SearchHistoryHandler{historyService: historyService}
}

// SearchHistoryRequest is a manually recorded search.
type SearchHistoryRequest struct {
	Query string `json:"query"`
}

// List godoc
// @Summary Most recent searches of the caller, newest first
// @Tags search-history
// @Produce json
// @Security BearerAuth
// @Success 200 {array} SearchHistoryResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /search-history [get]
func (h *SearchHistoryHandler) List(c echo.Context) error {
	actor, _ := auth.PrincipalFrom(c)
	entries, err := h.historyService.List(c.Request().Context(), actor)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]SearchHistoryResponse, 0, len(entries))
	for i := range entries {
		out = append(out, newSearchHistoryResponse(&entries[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// Create godoc
// @Summary Record a search for the caller
// @Tags search-history
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SearchHistoryRequest true "Query"
// @Success 201 {object} SearchHistoryResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /search-history [post]
func (h *SearchHistoryHandler) Create(c echo.Context) error {
	var req SearchHistoryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body", "INVALID_BODY")
	}

	actor, _ := auth.PrincipalFrom(c)
	entry, err := h.historyService.Create(c.Request().Context(), actor, req.Query)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, newSearchHistoryResponse(entry))
}
