package auth

import (
	"errors"
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	apperrors "recipehub/internal/errors"
	"recipehub/internal/logging"
)

const principalKey = "principal"

var errTokenRevoked = errors.New("token has been revoked")

// Middleware authenticates bearer access tokens. With optional set, requests
// without an Authorization header pass through anonymously; a header that is
// present but invalid is still rejected.
func Middleware(jwtService *JWTService, store TokenStoreInterface, optional bool) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey: principalKey,
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			claims, err := jwtService.ValidateAccessToken(token)
			if err != nil {
				return nil, err
			}
			if revoked, _ := store.IsAccessTokenBlacklisted(c.Request().Context(), claims.ID); revoked {
				return nil, errTokenRevoked
			}
			c.Set(logging.UserIDKey, claims.UserID)
			principal := &Principal{
				UserID:   claims.UserID,
				Username: claims.Username,
				TokenID:  claims.ID,
			}
			if claims.ExpiresAt != nil {
				principal.ExpiresAt = claims.ExpiresAt.Time
			}
			return principal, nil
		},
		ContinueOnIgnoredError: optional,
		ErrorHandler: func(c echo.Context, err error) error {
			var extractErr *echojwt.TokenExtractionError
			if optional && errors.As(err, &extractErr) {
				return nil
			}
			if errors.As(err, &extractErr) {
				return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
					Error: apperrors.ErrUnauthenticated.Error(),
					Code:  "UNAUTHENTICATED",
				})
			}
			return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
				Error: "invalid or expired token",
				Code:  "INVALID_TOKEN",
			})
		},
	})
}

// PrincipalFrom returns the authenticated caller, if any.
func PrincipalFrom(c echo.Context) (*Principal, bool) {
	p, ok := c.Get(principalKey).(*Principal)
	return p, ok && p != nil
}
