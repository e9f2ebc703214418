package users

import (
	"context"
	"time"

	"staywise/internal/app/commands"
	"staywise/internal/app/dto"
	handlersupport "staywise/internal/app/handlers/support"
	"staywise/internal/app/queries"
	"staywise/internal/app/uow"
	domainuser "staywise/internal/domain/user"
)

const (
	listUsersKey  = "users.list"
	updateUserKey = "users.update"
)

type ListUsersQuery struct{}

func (q ListUsersQuery) Key() string { return listUsersKey }

func (q ListUsersQuery) RequiredRole() domainuser.Role { return domainuser.RoleAdmin }

type ListUsersHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListUsersHandler) Handle(ctx context.Context, _ ListUsersQuery) (*dto.UserList, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	items, err := unit.Users().List(execCtx)
	if err != nil {
		return nil, err
	}
	out := &dto.UserList{Users: make([]dto.UserProfile, 0, len(items))}
	for _, u := range items {
		out.Users = append(out.Users, dto.MapUserProfile(u))
	}
	return out, nil
}

// UpdateUserCommand changes an account's role or active flag. Nil fields are
// left alone.
type UpdateUserCommand struct {
	UserID string  `validate:"required"`
	Role   *string `validate:"omitempty,oneof=user admin"`
	Active *bool
}

func (c UpdateUserCommand) Key() string { return updateUserKey }

func (c UpdateUserCommand) RequiredRole() domainuser.Role { return domainuser.RoleAdmin }

type UpdateUserHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *UpdateUserHandler) Handle(ctx context.Context, cmd UpdateUserCommand) (*dto.UserProfile, error) {
	unit, ctx, err := handlersupport.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer unit.Abort(ctx)

	account, err := unit.Users().ByID(ctx, domainuser.ID(cmd.UserID))
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if cmd.Role != nil {
		if err := account.SetRole(domainuser.Role(*cmd.Role), now); err != nil {
			return nil, err
		}
	}
	if cmd.Active != nil {
		account.SetActive(*cmd.Active, now)
	}
	if err := unit.Users().Save(ctx, account); err != nil {
		return nil, err
	}
	if err := unit.Finish(ctx); err != nil {
		return nil, err
	}
	profile := dto.MapUserProfile(account)
	return &profile, nil
}

var (
	_ queries.Handler[ListUsersQuery, *dto.UserList]        = (*ListUsersHandler)(nil)
	_ commands.Handler[UpdateUserCommand, *dto.UserProfile] = (*UpdateUserHandler)(nil)
)
