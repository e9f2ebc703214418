package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staywise/internal/app/commands"
	"staywise/internal/app/outbox"
	"staywise/internal/app/uow"
	"staywise/internal/domain/auth"
	"staywise/internal/domain/booking"
	"staywise/internal/domain/properties"
	"staywise/internal/domain/user"
)

type echoResult struct {
	Value string `json:"value"`
}

type echoCommand struct {
	Value   string `validate:"required"`
	IdemKey string
	Role    user.Role
}

func (c echoCommand) Key() string             { return "test.echo" }
func (c echoCommand) IdempotencyKey() string  { return c.IdemKey }
func (c echoCommand) ResultPrototype() any    { return &echoResult{} }
func (c echoCommand) RequiredRole() user.Role { return c.Role }

type mapStore struct {
	mu      sync.Mutex
	records map[string]IdempotencyRecord
}

func (s *mapStore) Get(_ context.Context, key string) (IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	return rec, ok, nil
}

func (s *mapStore) Save(_ context.Context, rec IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.records == nil {
		s.records = map[string]IdempotencyRecord{}
	}
	s.records[rec.Key] = rec
	return nil
}

func newEchoBus(calls *int, fail *error) commands.Bus {
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler[echoCommand, *echoResult](bus, "test.echo", commands.HandlerFunc[echoCommand, *echoResult](
		func(ctx context.Context, cmd echoCommand) (*echoResult, error) {
			*calls++
			if fail != nil && *fail != nil {
				return nil, *fail
			}
			return &echoResult{Value: cmd.Value}, nil
		}))
	return bus
}

func TestIdempotencyReplaysSuccess(t *testing.T) {
	calls := 0
	store := &mapStore{}
	bus := ChainCommands(newEchoBus(&calls, nil), Idempotency(store, nil))
	ctx := context.Background()

	first, err := commands.Dispatch[echoCommand, *echoResult](ctx, bus, echoCommand{Value: "a", IdemKey: "k-1"})
	require.NoError(t, err)
	second, err := commands.Dispatch[echoCommand, *echoResult](ctx, bus, echoCommand{Value: "b", IdemKey: "k-1"})
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, "a", first.Value)
	assert.Equal(t, "a", second.Value)

	_, err = commands.Dispatch[echoCommand, *echoResult](ctx, bus, echoCommand{Value: "c"})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestIdempotencyDoesNotRecordRejections(t *testing.T) {
	calls := 0
	fail := booking.ErrDateConflict
	store := &mapStore{}
	bus := ChainCommands(newEchoBus(&calls, &fail), Idempotency(store, nil))
	ctx := context.Background()

	_, err := commands.Dispatch[echoCommand, *echoResult](ctx, bus, echoCommand{Value: "a", IdemKey: "k-1"})
	assert.ErrorIs(t, err, booking.ErrDateConflict)

	fail = nil
	res, err := commands.Dispatch[echoCommand, *echoResult](ctx, bus, echoCommand{Value: "a", IdemKey: "k-1"})
	require.NoError(t, err)
	assert.Equal(t, "a", res.Value)
	assert.Equal(t, 2, calls)
}

func TestRoleAuthorizer(t *testing.T) {
	calls := 0
	bus := ChainCommands(newEchoBus(&calls, nil), Authorization(RoleAuthorizer{}))
	admin := auth.ContextWithIdentity(context.Background(), auth.Identity{UserID: "a", Role: user.RoleAdmin})
	member := auth.ContextWithIdentity(context.Background(), auth.Identity{UserID: "u", Role: user.RoleUser})

	_, err := bus.Dispatch(context.Background(), echoCommand{Value: "x", Role: user.RoleAdmin})
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)

	_, err = bus.Dispatch(member, echoCommand{Value: "x", Role: user.RoleAdmin})
	assert.ErrorIs(t, err, auth.ErrForbidden)

	_, err = bus.Dispatch(admin, echoCommand{Value: "x", Role: user.RoleAdmin})
	assert.NoError(t, err)

	_, err = bus.Dispatch(context.Background(), echoCommand{Value: "x"})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestStructValidation(t *testing.T) {
	calls := 0
	bus := ChainCommands(newEchoBus(&calls, nil), Validation(NewStructValidator()))

	_, err := bus.Dispatch(context.Background(), echoCommand{})
	assert.ErrorIs(t, err, ErrValidationFailed)
	assert.Equal(t, 0, calls)

	_, err = bus.Dispatch(context.Background(), echoCommand{Value: "ok"})
	assert.NoError(t, err)
}

type recordingUnit struct {
	committed  bool
	rolledBack bool
}

func (u *recordingUnit) Properties() properties.Repository                 { return nil }
func (u *recordingUnit) Bookings() booking.Repository                      { return nil }
func (u *recordingUnit) Users() user.Repository                            { return nil }
func (u *recordingUnit) LockProperty(context.Context, properties.ID) error { return nil }
func (u *recordingUnit) Commit(context.Context) error                      { u.committed = true; return nil }
func (u *recordingUnit) Rollback(context.Context) error                    { u.rolledBack = true; return nil }

type recordingFactory struct {
	units []*recordingUnit
}

func (f *recordingFactory) Begin(context.Context, uow.TxOptions) (uow.UnitOfWork, error) {
	u := &recordingUnit{}
	f.units = append(f.units, u)
	return u, nil
}

func TestTransactionCommitsOnSuccessOnly(t *testing.T) {
	calls := 0
	var fail error
	factory := &recordingFactory{}
	bus := ChainCommands(newEchoBus(&calls, &fail), Transaction(factory, nil))

	_, err := bus.Dispatch(context.Background(), echoCommand{Value: "x"})
	require.NoError(t, err)

	fail = errors.New("boom")
	_, err = bus.Dispatch(context.Background(), echoCommand{Value: "x"})
	require.Error(t, err)

	require.Len(t, factory.units, 2)
	assert.True(t, factory.units[0].committed)
	assert.False(t, factory.units[0].rolledBack)
	assert.False(t, factory.units[1].committed)
	assert.True(t, factory.units[1].rolledBack)
}

type flakyOutbox struct {
	flushes int
	err     error
}

func (o *flakyOutbox) Add(context.Context, outbox.EventRecord) error { return nil }

func (o *flakyOutbox) Flush(context.Context) error {
	o.flushes++
	return o.err
}

func TestOutboxFlushRunsAfterSuccessOnly(t *testing.T) {
	calls := 0
	var fail error
	box := &flakyOutbox{err: errors.New("relay down")}
	bus := ChainCommands(newEchoBus(&calls, &fail), OutboxFlush(box, nil))

	res, err := bus.Dispatch(context.Background(), echoCommand{Value: "x"})
	require.NoError(t, err, "a committed command must not fail on a flush error")
	assert.Equal(t, &echoResult{Value: "x"}, res)
	assert.Equal(t, 1, box.flushes)

	fail = errors.New("boom")
	_, err = bus.Dispatch(context.Background(), echoCommand{Value: "x"})
	require.Error(t, err)
	assert.Equal(t, 1, box.flushes)
}

func TestChainCommandsSkipsNilStages(t *testing.T) {
	calls := 0
	bus := ChainCommands(newEchoBus(&calls, nil), nil, Validation(NewStructValidator()), nil)

	_, err := bus.Dispatch(context.Background(), echoCommand{Value: "x"})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}
