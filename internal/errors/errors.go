package errors

import (
	"errors"
	"net/http"
	"sort"
	"strings"
)

var (
	// ErrRecipeNotFound is returned when a recipe id does not resolve.
	ErrRecipeNotFound = errors.New("recipe not found")
	// ErrCommentNotFound is returned when a comment id does not resolve.
	ErrCommentNotFound = errors.New("comment not found")
	// ErrForbidden is returned when an authenticated user may not mutate a resource.
	ErrForbidden = errors.New("you do not have permission to modify this resource")
	// ErrUnauthenticated is returned when a write is attempted without credentials.
	ErrUnauthenticated = errors.New("authentication credentials were not provided")
	// ErrUserAlreadyExists is returned when trying to register an existing username.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrInvalidCredentials is returned when username or password is incorrect.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrInvalidRefreshToken is returned when refresh token is invalid or expired.
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
)

// ValidationError carries field-level messages for malformed input.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a ValidationError with a single field message.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	Fields     map[string]string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error:  e.Message,
		Code:   e.Code,
		Fields: e.Fields,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		e := NewHTTPError(http.StatusBadRequest, "validation failed", "VALIDATION_ERROR")
		e.Fields = validationErr.Fields
		return e
	}

	switch {
	case errors.Is(err, ErrRecipeNotFound):
		return NewHTTPError(http.StatusNotFound, ErrRecipeNotFound.Error(), "RECIPE_NOT_FOUND")
	case errors.Is(err, ErrCommentNotFound):
		return NewHTTPError(http.StatusNotFound, ErrCommentNotFound.Error(), "COMMENT_NOT_FOUND")
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, ErrForbidden.Error(), "FORBIDDEN")
	case errors.Is(err, ErrUnauthenticated):
		return NewHTTPError(http.StatusUnauthorized, ErrUnauthenticated.Error(), "UNAUTHENTICATED")
	case errors.Is(err, ErrUserAlreadyExists):
		return NewHTTPError(http.StatusConflict, ErrUserAlreadyExists.Error(), "USER_ALREADY_EXISTS")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, ErrInvalidCredentials.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrInvalidRefreshToken):
		return NewHTTPError(http.StatusUnauthorized, ErrInvalidRefreshToken.Error(), "INVALID_REFRESH_TOKEN")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
