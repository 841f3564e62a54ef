package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"recipehub/internal/auth"
	"recipehub/internal/service"
)

// CommentHandler handles comment endpoints.
type CommentHandler struct {
	commentService service.CommentService
}

// NewCommentHandler creates a new comment handler.
func NewCommentHandler(commentService service.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

// CreateCommentRequest represents a new comment.
type CreateCommentRequest struct {
	Recipe uint   `json:"recipe" validate:"required"`
	Text   string `json:"text" validate:"required"`
}

// UpdateCommentRequest represents a comment edit. Text is checked by the
// service after the author check, so non-authors always get 403.
type UpdateCommentRequest struct {
	Text string `json:"text"`
}

// List godoc
// @Summary List comments
// @Description Without a recipe filter every comment is returned.
// @Tags comments
// @Produce json
// @Param recipe query int false "Recipe ID"
// @Success 200 {array} CommentResponse
// @Failure 400 {object} errors.ErrorResponse
// @Router /comments [get]
func (h *CommentHandler) List(c echo.Context) error {
	var recipeID *uint
	if raw := c.QueryParam("recipe"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return badRequest("invalid recipe filter", "INVALID_ID")
		}
		v := uint(id)
		recipeID = &v
	}

	comments, err := h.commentService.List(c.Request().Context(), recipeID)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]CommentResponse, 0, len(comments))
	for i := range comments {
		out = append(out, newCommentResponse(&comments[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// Get godoc
// @Summary Get comment by id
// @Tags comments
// @Produce json
// @Param id path int true "Comment ID"
// @Success 200 {object} CommentResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /comments/{id} [get]
func (h *CommentHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	comment, err := h.commentService.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, newCommentResponse(comment))
}

// Create godoc
// @Summary Comment on a recipe
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateCommentRequest true "Comment"
// @Success 201 {object} CommentResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /comments [post]
func (h *CommentHandler) Create(c echo.Context) error {
	var req CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body", "INVALID_BODY")
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, err)
	}

	actor, _ := auth.PrincipalFrom(c)
	comment, err := h.commentService.Create(c.Request().Context(), actor, req.Recipe, req.Text)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, newCommentResponse(comment))
}

// Update godoc
// @Summary Edit a comment (author only)
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Param request body UpdateCommentRequest true "Comment"
// @Success 200 {object} CommentResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /comments/{id} [patch]
func (h *CommentHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req UpdateCommentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body", "INVALID_BODY")
	}

	actor, _ := auth.PrincipalFrom(c)
	comment, err := h.commentService.Update(c.Request().Context(), actor, id, req.Text)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, newCommentResponse(comment))
}

// Delete godoc
// @Summary Delete a comment (author only)
// @Tags comments
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Success 204
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /comments/{id} [delete]
func (h *CommentHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	actor, _ := auth.PrincipalFrom(c)
	if err := h.commentService.Delete(c.Request().Context(), actor, id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
