package auth

import (
	"context"
	"errors"
	"time"

	"staywise/internal/domain/user"
)

var (
	ErrTokenRequired      = errors.New("auth: token is required")
	ErrTokenInvalid       = errors.New("auth: token is invalid")
	ErrTokenExpired       = errors.New("auth: token expired")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrUnauthenticated    = errors.New("auth: authentication required")
	ErrForbidden          = errors.New("auth: insufficient role")
)

// Identity is the authenticated caller a request acts on behalf of.
type Identity struct {
	UserID user.ID
	Role   user.Role
}

func (i Identity) IsZero() bool {
	return i.UserID == ""
}

func (i Identity) HasRole(roles ...user.Role) bool {
	for _, role := range roles {
		if i.Role == role {
			return true
		}
	}
	return false
}

// Credential is an issued bearer token.
type Credential struct {
	Token     string
	ExpiresAt time.Time
}

type identityKey struct{}

func ContextWithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	identity, ok := ctx.Value(identityKey{}).(Identity)
	if !ok || identity.IsZero() {
		return Identity{}, false
	}
	return identity, true
}
