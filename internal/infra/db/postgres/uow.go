package postgres

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"gorm.io/gorm"

	"staywise/internal/app/uow"
	domainbooking "staywise/internal/domain/booking"
	domainproperties "staywise/internal/domain/properties"
	domainuser "staywise/internal/domain/user"
)

var ErrUnitOfWorkNotConfigured = errors.New("postgres: unit of work factory missing database")

// Factory opens one database transaction per unit of work.
type Factory struct {
	DB *gorm.DB

	PropertiesRepo *PropertyRepository
	BookingsRepo   *BookingRepository
	UsersRepo      *UserRepository
}

func NewFactory(db *gorm.DB) *Factory {
	return &Factory{
		DB:             db,
		PropertiesRepo: NewPropertyRepository(db),
		BookingsRepo:   NewBookingRepository(db),
		UsersRepo:      NewUserRepository(db),
	}
}

func (f *Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f == nil || f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	tx := f.DB.WithContext(ctx).Begin(&sql.TxOptions{ReadOnly: opts.ReadOnly})
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &Unit{tx: tx, factory: f}, nil
}

type Unit struct {
	tx      *gorm.DB
	factory *Factory

	once sync.Once
}

func (u *Unit) Properties() domainproperties.Repository {
	return u.factory.PropertiesRepo
}

func (u *Unit) Bookings() domainbooking.Repository {
	return u.factory.BookingsRepo
}

func (u *Unit) Users() domainuser.Repository {
	return u.factory.UsersRepo
}

// LockProperty issues SELECT ... FOR UPDATE on the property row; concurrent
// units wait until this transaction ends.
func (u *Unit) LockProperty(ctx context.Context, id domainproperties.ID) error {
	return lockPropertyRow(u.tx.WithContext(ctx), id)
}

func (u *Unit) Commit(ctx context.Context) error {
	err := sql.ErrTxDone
	u.once.Do(func() { err = u.tx.Commit().Error })
	return err
}

func (u *Unit) Rollback(ctx context.Context) error {
	var err error
	u.once.Do(func() { err = u.tx.Rollback().Error })
	return err
}

func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return contextWithTx(ctx, u.tx)
}

var (
	_ uow.UoWFactory      = (*Factory)(nil)
	_ uow.ContextInjector = (*Unit)(nil)
)
