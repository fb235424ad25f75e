package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/quickprint/quickprint-api/services"
)

// IdentityKey is the Gin context key holding the resolved caller identity
const IdentityKey = "identity"

// AuthError represents an authentication error
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// extractBearerToken pulls the bearer token out of the Authorization header.
// Returns "" when the header is absent or malformed.
func extractBearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// resolveIdentity validates the request's bearer token against the identity
// provider. Every request revalidates; nothing is cached across requests.
func resolveIdentity(c *gin.Context, identity services.IdentityInterface) (*services.Identity, bool) {
	token := extractBearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "No token provided",
			},
		})
		return nil, false
	}

	resolved, err := identity.GetUser(token)
	if err != nil {
		if errors.Is(err, services.ErrInvalidToken) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_TOKEN",
					"message": "Invalid token",
				},
			})
		} else {
			c.JSON(http.StatusBadGateway, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "AUTH_PROVIDER_ERROR",
					"message": "Failed to verify token",
				},
			})
		}
		return nil, false
	}

	return resolved, true
}

// RequireAuth resolves the bearer token to an identity and attaches it to
// the request context. Requests without a valid token are rejected.
func RequireAuth(identity services.IdentityInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		resolved, ok := resolveIdentity(c, identity)
		if !ok {
			c.Abort()
			return
		}
		c.Set(IdentityKey, resolved)
		c.Next()
	}
}

// RequireAdmin is RequireAuth plus an admin-role check. Non-admin callers
// receive 403 with no resource data in the body.
func RequireAdmin(identity services.IdentityInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		resolved, ok := resolveIdentity(c, identity)
		if !ok {
			c.Abort()
			return
		}
		if !resolved.IsAdmin() {
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "FORBIDDEN",
					"message": "Admin access required",
				},
			})
			c.Abort()
			return
		}
		c.Set(IdentityKey, resolved)
		c.Next()
	}
}

// OptionalAuth attaches the resolved identity when a valid token is present
// and lets the request through anonymously otherwise. Used by the contact
// form.
func OptionalAuth(identity services.IdentityInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token != "" {
			if resolved, err := identity.GetUser(token); err == nil {
				c.Set(IdentityKey, resolved)
			}
		}
		c.Next()
	}
}

// CurrentIdentity extracts the resolved identity from the Gin context
func CurrentIdentity(c *gin.Context) (*services.Identity, error) {
	value, exists := c.Get(IdentityKey)
	if !exists {
		return nil, &AuthError{Code: "MISSING_IDENTITY", Message: "Identity not found in context"}
	}

	resolved, ok := value.(*services.Identity)
	if !ok {
		return nil, &AuthError{Code: "INVALID_IDENTITY", Message: "Identity is not in the expected format"}
	}

	return resolved, nil
}
