package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"unimate/internal/app/commands"
	"unimate/internal/app/queries"
)

type CommandMiddleware func(next commands.Bus) commands.Bus

type QueryMiddleware func(next queries.Bus) queries.Bus

// ChainCommands wraps base with mws, outermost first. Nil entries are skipped
// so optional stages can be passed unconditionally.
func ChainCommands(base commands.Bus, mws ...CommandMiddleware) commands.Bus {
	wrapped := base
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] == nil {
			continue
		}
		wrapped = mws[i](wrapped)
	}
	return wrapped
}

// ChainQueries is ChainCommands for the read side.
func ChainQueries(base queries.Bus, mws ...QueryMiddleware) queries.Bus {
	wrapped := base
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] == nil {
			continue
		}
		wrapped = mws[i](wrapped)
	}
	return wrapped
}

// Logging records each command with its actor and duration. Caller mistakes
// (validation, auth) log at Debug, other failures at Warn.
func Logging(logger *slog.Logger) CommandMiddleware {
	if logger == nil {
		return nil
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			start := time.Now()
			res, err := nextFn(ctx, cmd)
			logOutcome(ctx, logger, "command", cmd.Key(), actorOf(cmd), time.Since(start), err)
			return res, err
		})
	}
}

// QueryLogging logs failed queries only; reads are frequent.
func QueryLogging(logger *slog.Logger) QueryMiddleware {
	if logger == nil {
		return nil
	}
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			start := time.Now()
			res, err := nextFn(ctx, q)
			if err != nil {
				logOutcome(ctx, logger, "query", q.Key(), actorOf(q), time.Since(start), err)
			}
			return res, err
		})
	}
}

func logOutcome(ctx context.Context, logger *slog.Logger, kind, key, actor string, took time.Duration, err error) {
	attrs := []any{kind, key, "actor_id", actor, "duration", took}
	switch {
	case err == nil:
		logger.DebugContext(ctx, kind+" handled", attrs...)
	case IsValidation(err), errors.Is(err, ErrUnauthenticated):
		logger.DebugContext(ctx, kind+" rejected", append(attrs, "err", err)...)
	default:
		logger.WarnContext(ctx, kind+" failed", append(attrs, "err", err)...)
	}
}

func actorOf(msg any) string {
	if a, ok := msg.(ActorMessage); ok {
		return a.ActorID()
	}
	return ""
}

type commandFunc func(ctx context.Context, cmd commands.Command) (any, error)

func (f commandFunc) Dispatch(ctx context.Context, cmd commands.Command) (any, error) {
	return f(ctx, cmd)
}

func wrapCommand(next commands.Bus) commandFunc {
	return func(ctx context.Context, cmd commands.Command) (any, error) {
		return next.Dispatch(ctx, cmd)
	}
}

type queryFunc func(ctx context.Context, query queries.Query) (any, error)

func (f queryFunc) Ask(ctx context.Context, q queries.Query) (any, error) {
	return f(ctx, q)
}

func wrapQuery(next queries.Bus) queryFunc {
	return func(ctx context.Context, q queries.Query) (any, error) {
		return next.Ask(ctx, q)
	}
}
