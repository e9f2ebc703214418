package support

import (
	"context"
	"errors"

	"staywise/internal/app/uow"
	domainproperties "staywise/internal/domain/properties"
	domainuser "staywise/internal/domain/user"
)

// Relations resolves related properties and users (booking property and
// requester, property owner), loading each entity at most once per request.
// Missing entities resolve to nil.
type Relations struct {
	unit       uow.UnitOfWork
	properties map[domainproperties.ID]*domainproperties.Property
	users      map[domainuser.ID]*domainuser.User
}

func NewRelations(unit uow.UnitOfWork) *Relations {
	return &Relations{
		unit:       unit,
		properties: make(map[domainproperties.ID]*domainproperties.Property),
		users:      make(map[domainuser.ID]*domainuser.User),
	}
}

func (r *Relations) Property(ctx context.Context, id domainproperties.ID) (*domainproperties.Property, error) {
	if p, ok := r.properties[id]; ok {
		return p, nil
	}
	p, err := r.unit.Properties().ByID(ctx, id)
	if err != nil && !errors.Is(err, domainproperties.ErrNotFound) {
		return nil, err
	}
	r.properties[id] = p
	return p, nil
}

func (r *Relations) User(ctx context.Context, id domainuser.ID) (*domainuser.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	u, err := r.unit.Users().ByID(ctx, id)
	if err != nil && !errors.Is(err, domainuser.ErrNotFound) {
		return nil, err
	}
	r.users[id] = u
	return u, nil
}
