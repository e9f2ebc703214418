package middleware

import (
	"context"
	"fmt"

	"staywise/internal/app/commands"
	"staywise/internal/app/queries"
	"staywise/internal/domain/auth"
	"staywise/internal/domain/user"
)

type Authorizer interface {
	Authorize(ctx context.Context, message any) error
}

// RoleRestricted is implemented by messages only some roles may send.
type RoleRestricted interface {
	RequiredRole() user.Role
}

// RoleAuthorizer checks RoleRestricted messages against the identity in the
// context. Unrestricted messages pass through.
type RoleAuthorizer struct{}

func (RoleAuthorizer) Authorize(ctx context.Context, message any) error {
	restricted, ok := message.(RoleRestricted)
	if !ok {
		return nil
	}
	required := restricted.RequiredRole()
	if required == "" {
		return nil
	}
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return auth.ErrUnauthenticated
	}
	if !identity.HasRole(required) {
		return fmt.Errorf("%w: %s required", auth.ErrForbidden, required)
	}
	return nil
}

func Authorization(a Authorizer) CommandMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := a.Authorize(ctx, cmd); err != nil {
				return nil, err
			}
			return next.Dispatch(ctx, cmd)
		})
	}
}

func QueryAuthorization(a Authorizer) QueryMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next queries.Bus) queries.Bus {
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if err := a.Authorize(ctx, q); err != nil {
				return nil, err
			}
			return next.Ask(ctx, q)
		})
	}
}
