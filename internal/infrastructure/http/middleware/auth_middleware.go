package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/johnquangdev/meeting-followup/pkg/jwt"
)

// ClaimsContextKey is the echo context key the validated claims are stored
// under.
const ClaimsContextKey = "service_claims"

// AuthMiddleware authenticates operational endpoints with service tokens.
// Webhook endpoints are excluded: platforms sign their own notifications.
type AuthMiddleware struct {
	manager *jwt.Manager
}

// NewAuthMiddleware creates an auth middleware
func NewAuthMiddleware(manager *jwt.Manager) *AuthMiddleware {
	return &AuthMiddleware{manager: manager}
}

// RequireServiceToken validates the bearer token and stores its claims on
// the request context.
func (m *AuthMiddleware) RequireServiceToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := extractToken(c.Request())
		if token == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"code":    "UNAUTHENTICATED",
				"message": "missing authorization token",
			})
		}

		claims, err := m.manager.ValidateToken(token)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"code":    "UNAUTHENTICATED",
				"message": "invalid or expired token",
			})
		}

		c.Set(ClaimsContextKey, claims)
		return next(c)
	}
}

// RequireRole additionally checks the claims role
func (m *AuthMiddleware) RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Get(ClaimsContextKey).(*jwt.Claims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"code":    "UNAUTHENTICATED",
					"message": "not authenticated",
				})
			}

			for _, role := range roles {
				if claims.Role == role {
					return next(c)
				}
			}

			return c.JSON(http.StatusForbidden, map[string]string{
				"code":    "FORBIDDEN",
				"message": "insufficient permissions",
			})
		}
	}
}

func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return ""
}
