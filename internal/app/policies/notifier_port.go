package policies

import (
	"context"

	domainpush "unimate/internal/domain/push"
)

// Notifier delivers a push payload to every device of a user and reports how
// many deliveries succeeded.
type Notifier interface {
	NotifyUser(ctx context.Context, userID string, payload domainpush.Payload) (int, error)
}
