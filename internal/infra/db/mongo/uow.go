package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"staywise/internal/app/uow"
	domainbooking "staywise/internal/domain/booking"
	domainproperties "staywise/internal/domain/properties"
	domainuser "staywise/internal/domain/user"
)

const writeConflictCode = 112

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	PropertiesRepo *PropertyRepository
	BookingsRepo   *BookingRepository
	UsersRepo      *UserRepository
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

func NewFactory(db *mongo.Database) *Factory {
	return &Factory{
		DB:             db,
		PropertiesRepo: NewPropertyRepository(db),
		BookingsRepo:   NewBookingRepository(db),
		UsersRepo:      NewUserRepository(db),
	}
}

// Begin starts a MongoDB session/transaction.
func (f *Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f == nil || f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())
	if opts.ReadOnly {
		txnOpts = txnOpts.SetReadConcern(readconcern.Majority())
	}
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{
		db:         f.DB,
		session:    session,
		properties: f.PropertiesRepo,
		bookings:   f.BookingsRepo,
		users:      f.UsersRepo,
		locks:      f.DB.Collection(bookingLocksCollection),
	}, nil
}

type Unit struct {
	db      *mongo.Database
	session mongo.Session
	locks   *mongo.Collection

	properties *PropertyRepository
	bookings   *BookingRepository
	users      *UserRepository
}

func (u *Unit) Properties() domainproperties.Repository {
	return u.properties
}

func (u *Unit) Bookings() domainbooking.Repository {
	return u.bookings
}

func (u *Unit) Users() domainuser.Repository {
	return u.users
}

// LockProperty bumps a per-property lock document inside the transaction.
// A second transaction touching the same document gets a write conflict,
// reported as ErrConcurrentBooking.
func (u *Unit) LockProperty(ctx context.Context, id domainproperties.ID) error {
	ctx = u.InjectContext(ctx)
	if _, err := u.properties.ByID(ctx, id); err != nil {
		return mapWriteError(err)
	}
	update := bson.M{
		"$inc": bson.M{"seq": 1},
		"$set": bson.M{"locked_at": time.Now().UTC()},
	}
	_, err := u.locks.UpdateByID(ctx, string(id), update, options.Update().SetUpsert(true))
	return mapWriteError(err)
}

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return mapWriteError(u.session.CommitTransaction(ctx))
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	if isWriteConflict(err) {
		return errors.Join(domainbooking.ErrConcurrentBooking, err)
	}
	return err
}

func isWriteConflict(err error) bool {
	var srvErr mongo.ServerError
	if errors.As(err, &srvErr) {
		if srvErr.HasErrorCode(writeConflictCode) || srvErr.HasErrorLabel("TransientTransactionError") {
			return true
		}
	}
	return false
}

var (
	_ uow.UoWFactory      = (*Factory)(nil)
	_ uow.ContextInjector = (*Unit)(nil)
)
