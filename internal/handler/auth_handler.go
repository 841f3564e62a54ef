package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"recipehub/internal/auth"
	"recipehub/internal/service"
)

// AuthHandler handles registration and token endpoints.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Email    string `json:"email" validate:"omitempty,email,max=255"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries a refresh token.
type RefreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

// AccessResponse is returned by the refresh endpoint.
type AccessResponse struct {
	Access string `json:"access"`
}

// Register godoc
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration data"
// @Success 201 {object} service.TokenPair
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body", "INVALID_BODY")
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, err)
	}

	_, tokens, err := h.authService.Register(c.Request().Context(), req.Username, req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, tokens)
}

// Login godoc
// @Summary Obtain a token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} service.TokenPair
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body", "INVALID_BODY")
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, err)
	}

	tokens, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, tokens)
}

// Refresh godoc
// @Summary Exchange a refresh token for a new access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "Refresh token"
// @Success 200 {object} AccessResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req RefreshRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body", "INVALID_BODY")
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, err)
	}

	access, err := h.authService.RefreshToken(c.Request().Context(), req.Refresh)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, AccessResponse{Access: access})
}

// Logout godoc
// @Summary Revoke a refresh token
// @Description When called with the matching access token, that token is revoked as well.
// @Tags auth
// @Accept json
// @Param request body RefreshRequest true "Refresh token"
// @Success 204
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	var req RefreshRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body", "INVALID_BODY")
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, err)
	}

	actor, _ := auth.PrincipalFrom(c)
	if err := h.authService.Logout(c.Request().Context(), req.Refresh, actor); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
