package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	domainauth "staywise/internal/domain/auth"
	domainuser "staywise/internal/domain/user"
)

const MinPasswordLength = 6

var (
	ErrPasswordTooShort = fmt.Errorf("auth: password must be at least %d characters", MinPasswordLength)
	ErrUserInactive     = errors.New("auth: account is disabled")
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// TokenIssuer signs and verifies bearer credentials.
type TokenIssuer interface {
	Issue(identity domainauth.Identity, now time.Time) (domainauth.Credential, error)
	Verify(token string) (domainauth.Identity, error)
}

type Service struct {
	Users     domainuser.Repository
	Passwords PasswordHasher
	Tokens    TokenIssuer
	Logger    *slog.Logger
	Now       func() time.Time
}

type SignupParams struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type LoginParams struct {
	Email    string
	Password string
}

type AuthResult struct {
	User       *domainuser.User
	Credential domainauth.Credential
}

func (s *Service) Signup(ctx context.Context, params SignupParams) (*AuthResult, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	email := domainuser.NormalizeEmail(params.Email)
	if email == "" {
		return nil, domainuser.ErrEmailRequired
	}
	if err := validatePassword(params.Password); err != nil {
		return nil, err
	}
	if _, err := s.Users.ByEmail(ctx, email); err == nil {
		return nil, domainuser.ErrEmailAlreadyUsed
	} else if !errors.Is(err, domainuser.ErrNotFound) {
		return nil, err
	}
	hash, err := s.Passwords.Hash(params.Password)
	if err != nil {
		return nil, err
	}
	user, err := domainuser.NewUser(domainuser.CreateParams{
		ID:           domainuser.ID(uuid.NewString()),
		Email:        email,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		PasswordHash: hash,
		Role:         domainuser.RoleUser,
		CreatedAt:    s.now(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.Users.Save(ctx, user); err != nil {
		return nil, err
	}
	cred, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	}
	return &AuthResult{User: user, Credential: cred}, nil
}

// Login reports unknown emails and wrong passwords with the same error.
func (s *Service) Login(ctx context.Context, params LoginParams) (*AuthResult, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	email := domainuser.NormalizeEmail(params.Email)
	if email == "" {
		return nil, domainauth.ErrInvalidCredentials
	}
	user, err := s.Users.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domainuser.ErrNotFound) {
			return nil, domainauth.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := s.Passwords.Compare(user.PasswordHash, params.Password); err != nil {
		return nil, domainauth.ErrInvalidCredentials
	}
	if !user.Active {
		return nil, ErrUserInactive
	}
	cred, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.InfoContext(ctx, "user authenticated", "user_id", user.ID)
	}
	return &AuthResult{User: user, Credential: cred}, nil
}

// Authenticate verifies a bearer token. It does not consult the user store;
// the role recorded at issue time stays in force until the token expires.
func (s *Service) Authenticate(_ context.Context, token string) (domainauth.Identity, error) {
	if s.Tokens == nil {
		return domainauth.Identity{}, errors.New("auth: token issuer required")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return domainauth.Identity{}, domainauth.ErrTokenRequired
	}
	return s.Tokens.Verify(token)
}

func (s *Service) Profile(ctx context.Context, id domainuser.ID) (*domainuser.User, error) {
	if s.Users == nil {
		return nil, errors.New("auth: user repository required")
	}
	return s.Users.ByID(ctx, id)
}

func (s *Service) issue(user *domainuser.User) (domainauth.Credential, error) {
	return s.Tokens.Issue(domainauth.Identity{UserID: user.ID, Role: user.Role}, s.now())
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

func (s *Service) ensureDependencies() error {
	switch {
	case s.Users == nil:
		return errors.New("auth: user repository required")
	case s.Passwords == nil:
		return errors.New("auth: password hasher required")
	case s.Tokens == nil:
		return errors.New("auth: token issuer required")
	default:
		return nil
	}
}
