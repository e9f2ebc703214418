package uow

import (
	"context"
	"errors"

	"staywise/internal/domain/booking"
	"staywise/internal/domain/properties"
	"staywise/internal/domain/user"
)

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Properties() properties.Repository
	Bookings() booking.Repository
	Users() user.Repository

	// LockProperty serializes booking writes on one property until the unit
	// commits or rolls back. Locking an unknown property returns
	// properties.ErrNotFound.
	LockProperty(ctx context.Context, id properties.ID) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

type TxOptions struct {
	ReadOnly bool
}

// ContextInjector is implemented by units whose repositories pick the
// transaction up from the context (database sessions, gorm transactions).
type ContextInjector interface {
	InjectContext(ctx context.Context) context.Context
}

// ErrUnitOfWorkMissing is returned by handlers that only run inside the
// transaction middleware.
var ErrUnitOfWorkMissing = errors.New("uow: unit of work missing from context")

type unitKey struct{}

// Enter puts unit into ctx together with whatever transaction handle it
// carries, so nested handlers join the same transaction.
func Enter(ctx context.Context, unit UnitOfWork) context.Context {
	if injector, ok := unit.(ContextInjector); ok {
		ctx = injector.InjectContext(ctx)
	}
	return context.WithValue(ctx, unitKey{}, unit)
}

// FromContext returns the unit a surrounding command entered, if any.
func FromContext(ctx context.Context) (UnitOfWork, bool) {
	unit, ok := ctx.Value(unitKey{}).(UnitOfWork)
	return unit, ok && unit != nil
}
