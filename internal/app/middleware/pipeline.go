package middleware

import (
	"context"

	"staywise/internal/app/commands"
	"staywise/internal/app/queries"
)

// CommandMiddleware decorates the command bus. The production order is
// Logging, Validation, Authorization, Idempotency, OutboxFlush, Transaction.
type CommandMiddleware func(next commands.Bus) commands.Bus

type QueryMiddleware func(next queries.Bus) queries.Bus

// ChainCommands wraps base so that mws[0] sees a command first. Nil entries
// are skipped, which lets callers leave optional stages out.
func ChainCommands(base commands.Bus, mws ...CommandMiddleware) commands.Bus {
	bus := base
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			bus = mws[i](bus)
		}
	}
	return bus
}

func ChainQueries(base queries.Bus, mws ...QueryMiddleware) queries.Bus {
	bus := base
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			bus = mws[i](bus)
		}
	}
	return bus
}

type commandFunc func(ctx context.Context, cmd commands.Command) (any, error)

func (f commandFunc) Dispatch(ctx context.Context, cmd commands.Command) (any, error) {
	return f(ctx, cmd)
}

type queryFunc func(ctx context.Context, query queries.Query) (any, error)

func (f queryFunc) Ask(ctx context.Context, q queries.Query) (any, error) {
	return f(ctx, q)
}
