package memory

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staywise/internal/app/middleware"
	"staywise/internal/app/uow"
	domainbooking "staywise/internal/domain/booking"
	domainproperties "staywise/internal/domain/properties"
	"staywise/internal/domain/shared/daterange"
	"staywise/internal/domain/shared/money"
	domainuser "staywise/internal/domain/user"
)

func seedProperty(t *testing.T, repo *PropertyRepository, id string, created time.Time) *domainproperties.Property {
	t.Helper()
	p, err := domainproperties.New(domainproperties.CreateParams{
		ID:        domainproperties.ID(id),
		Title:     "Property " + id,
		Price:     money.Cents(10000),
		Capacity:  4,
		Type:      domainproperties.TypeHouse,
		OwnerID:   "admin",
		CreatedAt: created,
	})
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), p))
	return p
}

func TestPropertySearchNewestFirstAndPaged(t *testing.T) {
	repo := NewPropertyRepository()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		seedProperty(t, repo, fmt.Sprintf("p-%02d", i), base.Add(time.Duration(i)*time.Hour))
	}
	hidden, err := repo.ByID(context.Background(), "p-24")
	require.NoError(t, err)
	hidden.SetActive(false, base)
	require.NoError(t, repo.Save(context.Background(), hidden))

	page, err := repo.Search(context.Background(), domainproperties.Filter{OnlyActive: true, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 24, page.Total)
	require.Len(t, page.Items, 10)
	assert.Equal(t, domainproperties.ID("p-23"), page.Items[0].ID)

	last, err := repo.Search(context.Background(), domainproperties.Filter{OnlyActive: true, Page: 3, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, last.Items, 4)
	assert.False(t, last.HasNext())

	all, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 25)
}

func TestPropertyRepositoryReturnsCopies(t *testing.T) {
	repo := NewPropertyRepository()
	seedProperty(t, repo, "p-1", time.Now())

	got, err := repo.ByID(context.Background(), "p-1")
	require.NoError(t, err)
	got.Title = "changed"

	again, err := repo.ByID(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, "Property p-1", again.Title)

	_, err = repo.ByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domainproperties.ErrNotFound)
}

func TestFindConflictIgnoresInactiveStatuses(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()
	day := func(d int) time.Time { return time.Date(2024, 12, d, 0, 0, 0, 0, time.UTC) }

	existing := &domainbooking.Booking{
		ID:          "b-1",
		PropertyID:  "p-1",
		RequesterID: "u-1",
		Range:       daterange.DateRange{CheckIn: day(15), CheckOut: day(20)},
		Status:      domainbooking.StatusConfirmed,
	}
	require.NoError(t, repo.Save(ctx, existing))

	conflict, err := repo.FindConflict(ctx, "p-1", daterange.DateRange{CheckIn: day(18), CheckOut: day(22)})
	require.NoError(t, err)
	require.NotNil(t, conflict)
	assert.Equal(t, domainbooking.ID("b-1"), conflict.ID)

	conflict, err = repo.FindConflict(ctx, "p-1", daterange.DateRange{CheckIn: day(20), CheckOut: day(22)})
	require.NoError(t, err)
	assert.Nil(t, conflict)

	conflict, err = repo.FindConflict(ctx, "p-2", daterange.DateRange{CheckIn: day(18), CheckOut: day(22)})
	require.NoError(t, err)
	assert.Nil(t, conflict)

	existing.Status = domainbooking.StatusCancelled
	require.NoError(t, repo.Save(ctx, existing))
	conflict, err = repo.FindConflict(ctx, "p-1", daterange.DateRange{CheckIn: day(18), CheckOut: day(22)})
	require.NoError(t, err)
	assert.Nil(t, conflict)
}

func TestUserRepositoryEnforcesUniqueEmail(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()
	first, err := domainuser.NewUser(domainuser.CreateParams{ID: "u-1", Email: "a@example.com", FirstName: "A", LastName: "A", PasswordHash: "h"})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, first))

	dup, err := domainuser.NewUser(domainuser.CreateParams{ID: "u-2", Email: "A@Example.com", FirstName: "B", LastName: "B", PasswordHash: "h"})
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Save(ctx, dup), domainuser.ErrEmailAlreadyUsed)

	first.SetActive(false, time.Now())
	require.NoError(t, repo.Save(ctx, first))
	got, err := repo.ByEmail(ctx, " a@example.com ")
	require.NoError(t, err)
	assert.False(t, got.Active)
}

func TestLockPropertySerializesUnits(t *testing.T) {
	f := NewFactory()
	seedProperty(t, f.Properties, "p-1", time.Now())
	ctx := context.Background()

	first, err := f.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, first.LockProperty(ctx, "p-1"))
	require.NoError(t, first.LockProperty(ctx, "p-1"))

	var acquired atomic.Bool
	second, err := f.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() {
		err := second.LockProperty(ctx, "p-1")
		acquired.Store(true)
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	assert.False(t, acquired.Load())

	require.NoError(t, first.Commit(ctx))
	require.NoError(t, <-done)
	assert.True(t, acquired.Load())
	require.NoError(t, second.Rollback(ctx))
	require.NoError(t, second.Rollback(ctx))
}

func TestLockPropertyHonoursContext(t *testing.T) {
	f := NewFactory()
	seedProperty(t, f.Properties, "p-1", time.Now())

	holder, err := f.Begin(context.Background(), uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, holder.LockProperty(context.Background(), "p-1"))

	waiter, err := f.Begin(context.Background(), uow.TxOptions{})
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, waiter.LockProperty(ctx, "p-1"), context.DeadlineExceeded)

	require.NoError(t, holder.Commit(context.Background()))
	assert.ErrorIs(t, waiter.LockProperty(context.Background(), "missing"), domainproperties.ErrNotFound)
}

func TestIdempotencyStoreExpires(t *testing.T) {
	store := NewIdempotencyStore(time.Minute)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, middleware.IdempotencyRecord{Key: "fresh", OccurredAt: time.Now()}))
	require.NoError(t, store.Save(ctx, middleware.IdempotencyRecord{Key: "stale", OccurredAt: time.Now().Add(-time.Hour)}))

	_, ok, err := store.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, ok)

	_, ok, err = store.Get(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, ok)
}
