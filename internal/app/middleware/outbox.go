package middleware

import (
	"context"
	"log/slog"

	"unimate/internal/app/commands"
	"unimate/internal/app/outbox"
)

// OutboxFlush flushes recorded events after a successful command. The write
// has already committed by then, so a flush failure is only logged.
func OutboxFlush(box outbox.Outbox, logger *slog.Logger) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := nextFn(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if err := box.Flush(ctx); err != nil {
				logger.Warn("outbox flush failed", "command", cmd.Key(), "err", err)
			}
			return res, nil
		})
	}
}
