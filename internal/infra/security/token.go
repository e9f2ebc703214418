package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	domainauth "staywise/internal/domain/auth"
	domainuser "staywise/internal/domain/user"
)

// DefaultTokenTTL is how long an issued bearer token stays valid.
const DefaultTokenTTL = 7 * 24 * time.Hour

var ErrSecretRequired = errors.New("security: jwt secret is required")

type claims struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// JWTIssuer signs HS256 tokens carrying the user id and role.
type JWTIssuer struct {
	Secret []byte
	TTL    time.Duration
	Issuer string
}

func NewJWTIssuer(secret string, ttl time.Duration) (*JWTIssuer, error) {
	if secret == "" {
		return nil, ErrSecretRequired
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &JWTIssuer{Secret: []byte(secret), TTL: ttl, Issuer: "staywise"}, nil
}

func (j *JWTIssuer) Issue(identity domainauth.Identity, now time.Time) (domainauth.Credential, error) {
	if len(j.Secret) == 0 {
		return domainauth.Credential{}, ErrSecretRequired
	}
	if now.IsZero() {
		now = time.Now()
	}
	ttl := j.TTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	expires := now.Add(ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID: string(identity.UserID),
		Role:   string(identity.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    j.Issuer,
			Subject:   string(identity.UserID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})
	signed, err := token.SignedString(j.Secret)
	if err != nil {
		return domainauth.Credential{}, fmt.Errorf("security: sign token: %w", err)
	}
	return domainauth.Credential{Token: signed, ExpiresAt: expires.UTC()}, nil
}

// Verify checks signature, algorithm and expiry, then rebuilds the identity.
func (j *JWTIssuer) Verify(raw string) (domainauth.Identity, error) {
	if raw == "" {
		return domainauth.Identity{}, domainauth.ErrTokenRequired
	}
	parsed, err := jwt.ParseWithClaims(raw, &claims{}, func(*jwt.Token) (any, error) {
		return j.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domainauth.Identity{}, domainauth.ErrTokenExpired
		}
		return domainauth.Identity{}, fmt.Errorf("%w: %v", domainauth.ErrTokenInvalid, err)
	}
	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid || c.UserID == "" || c.ExpiresAt == nil {
		return domainauth.Identity{}, domainauth.ErrTokenInvalid
	}
	role, err := domainuser.ParseRole(c.Role)
	if err != nil {
		return domainauth.Identity{}, domainauth.ErrTokenInvalid
	}
	return domainauth.Identity{UserID: domainuser.ID(c.UserID), Role: role}, nil
}
