package properties

import (
	"context"

	"staywise/internal/app/dto"
	handlersupport "staywise/internal/app/handlers/support"
	"staywise/internal/app/queries"
	"staywise/internal/app/uow"
	domainproperties "staywise/internal/domain/properties"
	domainuser "staywise/internal/domain/user"
)

const (
	getPropertyKey    = "properties.get"
	listPropertiesKey = "properties.list_all"
)

type GetPropertyQuery struct {
	ID string `validate:"required"`
}

func (q GetPropertyQuery) Key() string { return getPropertyKey }

type GetPropertyHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetPropertyHandler) Handle(ctx context.Context, q GetPropertyQuery) (*dto.PropertyView, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	property, err := unit.Properties().ByID(execCtx, domainproperties.ID(q.ID))
	if err != nil {
		return nil, err
	}
	views := []dto.PropertyView{dto.MapProperty(property)}
	if err := attachOwners(execCtx, handlersupport.NewRelations(unit), views, true); err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ListPropertiesQuery lists the whole catalog, inactive and unapproved included.
type ListPropertiesQuery struct{}

func (q ListPropertiesQuery) Key() string { return listPropertiesKey }

func (q ListPropertiesQuery) RequiredRole() domainuser.Role { return domainuser.RoleAdmin }

type ListPropertiesHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListPropertiesHandler) Handle(ctx context.Context, _ ListPropertiesQuery) (*dto.PropertyList, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	items, err := unit.Properties().List(execCtx)
	if err != nil {
		return nil, err
	}
	views := dto.MapProperties(items)
	if err := attachOwners(execCtx, handlersupport.NewRelations(unit), views, true); err != nil {
		return nil, err
	}
	return &dto.PropertyList{Properties: views}, nil
}

var (
	_ queries.Handler[GetPropertyQuery, *dto.PropertyView]    = (*GetPropertyHandler)(nil)
	_ queries.Handler[ListPropertiesQuery, *dto.PropertyList] = (*ListPropertiesHandler)(nil)
)
