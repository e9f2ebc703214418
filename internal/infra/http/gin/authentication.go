package ginserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	domainauth "staywise/internal/domain/auth"
	domainuser "staywise/internal/domain/user"
)

const (
	identityContextKey   = "staywise.identity"
	tokenErrorContextKey = "staywise.token_error"
)

// TokenAuthenticator resolves a bearer token into the caller's identity.
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, token string) (domainauth.Identity, error)
}

// AuthMiddleware attaches the identity of a valid bearer token to the request.
// It never rejects on its own; RequireAuth and RequireRole do.
type AuthMiddleware struct {
	Tokens TokenAuthenticator
	Logger *slog.Logger
}

func (m AuthMiddleware) Handle(c *gin.Context) {
	token := extractBearerToken(c.GetHeader("Authorization"))
	if token == "" || m.Tokens == nil {
		c.Next()
		return
	}
	identity, err := m.Tokens.Authenticate(c.Request.Context(), token)
	if err != nil {
		if m.Logger != nil && !errors.Is(err, domainauth.ErrTokenExpired) {
			m.Logger.Debug("token validation failed", "error", err)
		}
		c.Set(tokenErrorContextKey, err)
		c.Next()
		return
	}
	c.Set(identityContextKey, identity)
	c.Request = c.Request.WithContext(domainauth.ContextWithIdentity(c.Request.Context(), identity))
	c.Next()
}

// RequireAuth rejects requests without a valid bearer token: 401 when none
// was sent, 403 when it did not verify.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := currentIdentity(c); ok {
			c.Next()
			return
		}
		if _, failed := c.Get(tokenErrorContextKey); failed {
			respondMessage(c, http.StatusForbidden, "Invalid or expired token")
			return
		}
		respondMessage(c, http.StatusUnauthorized, "Access token required")
	}
}

// RequireRole admits callers holding one of roles. Mount it after RequireAuth.
func RequireRole(roles ...domainuser.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := currentIdentity(c)
		if !ok {
			respondMessage(c, http.StatusUnauthorized, "Access token required")
			return
		}
		if !identity.HasRole(roles...) {
			respondMessage(c, http.StatusForbidden, forbiddenMessage(roles))
			return
		}
		c.Next()
	}
}

func forbiddenMessage(roles []domainuser.Role) string {
	if len(roles) == 1 && roles[0] == domainuser.RoleAdmin {
		return "Admin access required"
	}
	return "Insufficient permissions"
}

func currentIdentity(c *gin.Context) (domainauth.Identity, bool) {
	val, exists := c.Get(identityContextKey)
	if !exists {
		return domainauth.Identity{}, false
	}
	identity, ok := val.(domainauth.Identity)
	return identity, ok && !identity.IsZero()
}

func extractBearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
