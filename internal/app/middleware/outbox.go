package middleware

import (
	"context"
	"log/slog"

	"staywise/internal/app/commands"
	"staywise/internal/app/outbox"
)

// OutboxFlush wakes the relay once a command has committed. It sits outside
// Transaction, so by the time Flush runs the records are durable and the
// worker's poll will pick them up anyway: a failed flush is logged and the
// command still reports success.
func OutboxFlush(box outbox.Outbox, logger *slog.Logger) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := next.Dispatch(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if err := box.Flush(ctx); err != nil && logger != nil {
				logger.WarnContext(ctx, "outbox flush failed", "command", cmd.Key(), "error", err)
			}
			return res, nil
		})
	}
}
