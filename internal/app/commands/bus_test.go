package commands_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staywise/internal/app/commands"
)

type pingCommand struct{}

func (pingCommand) Key() string { return "test.ping" }

type otherCommand struct{}

func (otherCommand) Key() string { return "test.other" }

func newPingBus() *commands.InMemoryBus {
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler[pingCommand, string](bus, pingCommand{}.Key(), commands.HandlerFunc[pingCommand, string](
		func(context.Context, pingCommand) (string, error) { return "pong", nil }))
	return bus
}

func TestDispatchReturnsTypedResult(t *testing.T) {
	res, err := commands.Dispatch[pingCommand, string](context.Background(), newPingBus(), pingCommand{})
	require.NoError(t, err)
	assert.Equal(t, "pong", res)
}

func TestDispatchNamesCommandOnTypeMismatch(t *testing.T) {
	_, err := commands.Dispatch[pingCommand, int](context.Background(), newPingBus(), pingCommand{})
	require.ErrorIs(t, err, commands.ErrResultType)
	assert.Contains(t, err.Error(), "test.ping returned string, want int")
}

func TestDispatchFailures(t *testing.T) {
	_, err := commands.Dispatch[otherCommand, string](context.Background(), newPingBus(), otherCommand{})
	assert.ErrorIs(t, err, commands.ErrHandlerNotFound)

	_, err = commands.Dispatch[pingCommand, string](context.Background(), nil, pingCommand{})
	assert.True(t, errors.Is(err, commands.ErrNilBus))
	assert.Contains(t, err.Error(), "test.ping")
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	bus := newPingBus()
	assert.Panics(t, func() {
		commands.RegisterHandler[pingCommand, string](bus, pingCommand{}.Key(), commands.HandlerFunc[pingCommand, string](
			func(context.Context, pingCommand) (string, error) { return "", nil }))
	})
}
