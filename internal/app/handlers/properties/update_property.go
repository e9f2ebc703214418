package properties

import (
	"context"
	"log/slog"
	"time"

	"staywise/internal/app/commands"
	"staywise/internal/app/dto"
	handlersupport "staywise/internal/app/handlers/support"
	"staywise/internal/app/uow"
	domainproperties "staywise/internal/domain/properties"
	domainuser "staywise/internal/domain/user"
)

const updatePropertyKey = "properties.update_flags"

// UpdatePropertyCommand toggles moderation flags. Nil fields are left alone.
type UpdatePropertyCommand struct {
	PropertyID string `validate:"required"`
	Approved   *bool
	Active     *bool
}

func (c UpdatePropertyCommand) Key() string { return updatePropertyKey }

func (c UpdatePropertyCommand) RequiredRole() domainuser.Role { return domainuser.RoleAdmin }

type UpdatePropertyHandler struct {
	UoWFactory uow.UoWFactory
	Cache      CatalogCache
	Logger     *slog.Logger
}

func (h *UpdatePropertyHandler) Handle(ctx context.Context, cmd UpdatePropertyCommand) (*dto.PropertyView, error) {
	unit, ctx, err := handlersupport.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer unit.Abort(ctx)

	property, err := unit.Properties().ByID(ctx, domainproperties.ID(cmd.PropertyID))
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if cmd.Approved != nil {
		property.SetApproved(*cmd.Approved, now)
	}
	if cmd.Active != nil {
		property.SetActive(*cmd.Active, now)
	}
	if err := unit.Properties().Save(ctx, property); err != nil {
		return nil, err
	}
	views := []dto.PropertyView{dto.MapProperty(property)}
	if err := attachOwners(ctx, handlersupport.NewRelations(unit), views, true); err != nil {
		return nil, err
	}
	if err := unit.Finish(ctx); err != nil {
		return nil, err
	}
	invalidateCatalog(ctx, h.Cache, h.Logger)
	return &views[0], nil
}

var _ commands.Handler[UpdatePropertyCommand, *dto.PropertyView] = (*UpdatePropertyHandler)(nil)
