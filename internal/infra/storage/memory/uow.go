package memory

import (
	"context"
	"errors"
	"sync"

	"staywise/internal/app/uow"
	domainbooking "staywise/internal/domain/booking"
	domainproperties "staywise/internal/domain/properties"
	domainuser "staywise/internal/domain/user"
)

var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// PropertyLocks hands out one mutex per property.
type PropertyLocks struct {
	mu    sync.Mutex
	locks map[domainproperties.ID]*sync.Mutex
}

func NewPropertyLocks() *PropertyLocks {
	return &PropertyLocks{locks: make(map[domainproperties.ID]*sync.Mutex)}
}

func (l *PropertyLocks) get(id domainproperties.ID) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	return m
}

// Factory wires in-memory repositories into a unit-of-work boundary. Writes
// are applied immediately and Rollback does not undo them; the only isolation
// offered is the per-property lock.
type Factory struct {
	Properties *PropertyRepository
	Bookings   *BookingRepository
	Users      *UserRepository
	Locks      *PropertyLocks
}

// NewFactory builds a factory over empty repositories.
func NewFactory() *Factory {
	return &Factory{
		Properties: NewPropertyRepository(),
		Bookings:   NewBookingRepository(),
		Users:      NewUserRepository(),
		Locks:      NewPropertyLocks(),
	}
}

func (f *Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f == nil || f.Properties == nil || f.Bookings == nil || f.Users == nil || f.Locks == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{factory: f, readOnly: opts.ReadOnly}, nil
}

// Unit is a uow.UnitOfWork backed by in-memory stores.
type Unit struct {
	factory  *Factory
	readOnly bool

	mu   sync.Mutex
	held map[domainproperties.ID]*sync.Mutex
	done bool
}

func (u *Unit) Properties() domainproperties.Repository {
	return u.factory.Properties
}

func (u *Unit) Bookings() domainbooking.Repository {
	return u.factory.Bookings
}

func (u *Unit) Users() domainuser.Repository {
	return u.factory.Users
}

// LockProperty blocks until no other unit holds the property. Locking the
// same property twice within a unit is a no-op.
func (u *Unit) LockProperty(ctx context.Context, id domainproperties.ID) error {
	if !u.factory.Properties.exists(id) {
		return domainproperties.ErrNotFound
	}
	u.mu.Lock()
	if u.done {
		u.mu.Unlock()
		return errors.New("memory: unit of work already finished")
	}
	if _, ok := u.held[id]; ok {
		u.mu.Unlock()
		return nil
	}
	u.mu.Unlock()

	m := u.factory.Locks.get(id)
	acquired := make(chan struct{})
	go func() {
		m.Lock()
		close(acquired)
	}()
	select {
	case <-acquired:
	case <-ctx.Done():
		// hand the mutex back once the pending Lock returns
		go func() {
			<-acquired
			m.Unlock()
		}()
		return ctx.Err()
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if u.held == nil {
		u.held = make(map[domainproperties.ID]*sync.Mutex)
	}
	u.held[id] = m
	return nil
}

func (u *Unit) Commit(ctx context.Context) error {
	u.release()
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	u.release()
	return nil
}

func (u *Unit) release() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done {
		return
	}
	u.done = true
	for id, m := range u.held {
		m.Unlock()
		delete(u.held, id)
	}
}

var _ uow.UoWFactory = (*Factory)(nil)
