package middleware

import (
	"context"

	"unimate/internal/app/busy"
	"unimate/internal/app/commands"
	"unimate/internal/app/queries"
)

// Busy holds the tracker for the whole dispatch, including failures.
func Busy(tracker *busy.Tracker) CommandMiddleware {
	if tracker == nil {
		panic("middleware: busy tracker required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			release := tracker.Acquire()
			defer release()
			return nextFn(ctx, cmd)
		})
	}
}

func QueryBusy(tracker *busy.Tracker) QueryMiddleware {
	if tracker == nil {
		panic("middleware: busy tracker required")
	}
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			release := tracker.Acquire()
			defer release()
			return nextFn(ctx, q)
		})
	}
}
