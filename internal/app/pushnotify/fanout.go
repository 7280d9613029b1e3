// Package pushnotify delivers web push notifications to every browser a user
// has registered.
package pushnotify

import (
	"context"
	"errors"
	"log/slog"

	"unimate/internal/app/policies"
	domainpush "unimate/internal/domain/push"
)

var ErrNotConfigured = errors.New("pushnotify: subscriptions and sender are required")

// Fanout sends one payload to all subscriptions of a user. Endpoints that
// answer 410 Gone are removed; other failures are logged and skipped.
type Fanout struct {
	Subscriptions domainpush.Repository
	Sender        domainpush.Sender
	Logger        *slog.Logger
}

// NotifyUser returns the number of successful deliveries.
func (f *Fanout) NotifyUser(ctx context.Context, userID string, payload domainpush.Payload) (int, error) {
	if f.Subscriptions == nil || f.Sender == nil {
		return 0, ErrNotConfigured
	}
	subs, err := f.Subscriptions.ListByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, sub := range subs {
		err := f.Sender.Send(ctx, sub, payload)
		switch {
		case err == nil:
			sent++
		case errors.Is(err, domainpush.ErrGone):
			if delErr := f.Subscriptions.DeleteByEndpoint(ctx, sub.Endpoint); delErr != nil {
				f.log().Error("remove expired push subscription", "user_id", userID, "err", delErr)
				continue
			}
			f.log().Info("expired push subscription removed", "user_id", userID)
		default:
			f.log().Warn("push delivery failed", "user_id", userID, "err", err)
		}
	}
	return sent, nil
}

func (f *Fanout) log() *slog.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return slog.Default()
}

var _ policies.Notifier = (*Fanout)(nil)
