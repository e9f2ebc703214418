package support

import (
	"context"

	"staywise/internal/app/uow"
)

// BeginReadOnlyUnit reuses the unit already in ctx or opens a read-only one.
// The returned cleanup is nil when the unit was reused.
func BeginReadOnlyUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, func(), error) {
	unit, ok := uow.FromContext(ctx)
	if ok {
		return unit, ctx, nil, nil
	}
	if factory == nil {
		return nil, ctx, nil, uow.ErrUnitOfWorkMissing
	}
	newUnit, err := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, ctx, nil, err
	}
	execCtx := uow.Enter(ctx, newUnit)
	cleanup := func() {
		_ = newUnit.Rollback(execCtx)
	}
	return newUnit, execCtx, cleanup, nil
}

// WriteUnit is a unit of work a handler may have opened itself. Finish
// commits it when the handler owns it and is a no-op otherwise.
type WriteUnit struct {
	uow.UnitOfWork
	managed   bool
	committed bool
}

// BeginWriteUnit reuses the transaction middleware's unit when present.
func BeginWriteUnit(ctx context.Context, factory uow.UoWFactory) (*WriteUnit, context.Context, error) {
	if unit, ok := uow.FromContext(ctx); ok {
		return &WriteUnit{UnitOfWork: unit}, ctx, nil
	}
	if factory == nil {
		return nil, ctx, uow.ErrUnitOfWorkMissing
	}
	unit, err := factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return nil, ctx, err
	}
	return &WriteUnit{UnitOfWork: unit, managed: true}, uow.Enter(ctx, unit), nil
}

func (w *WriteUnit) Finish(ctx context.Context) error {
	if !w.managed || w.committed {
		return nil
	}
	if err := w.UnitOfWork.Commit(ctx); err != nil {
		return err
	}
	w.committed = true
	return nil
}

// Abort rolls back a handler-owned unit that was not committed. Meant for defer.
func (w *WriteUnit) Abort(ctx context.Context) {
	if w.managed && !w.committed {
		_ = w.UnitOfWork.Rollback(ctx)
	}
}
