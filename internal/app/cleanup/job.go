// Package cleanup purges expired listings and warns sellers whose listings are
// about to expire. It is meant to run once a day.
package cleanup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"unimate/internal/app/outbox"
	"unimate/internal/app/policies"
	"unimate/internal/app/uow"
	"unimate/internal/domain/expiry"
	domainlistings "unimate/internal/domain/listings"
	domainpush "unimate/internal/domain/push"
	"unimate/internal/domain/shared/events"
)

const (
	DefaultBatchSize = 100
	// ExpiringTitle and DashboardURL shape the warning push payload.
	ExpiringTitle = "Listing expiring soon"
	DashboardURL  = "/my-listings"
)

var ErrUnitOfWorkRequired = errors.New("cleanup: unit of work factory required")

// Report is printed by the job binary.
type Report struct {
	Success      bool   `json:"success"`
	Deleted      int    `json:"deleted"`
	WarningsSent int    `json:"warnings_sent"`
	Error        string `json:"error,omitempty"`
}

type Job struct {
	UoWFactory uow.UoWFactory
	Notifier   policies.Notifier
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Policy     expiry.Policy
	BatchSize  int
	Logger     *slog.Logger
}

// Run performs one pass. Failure to fetch candidates aborts the pass; failure
// to delete or notify is logged and reflected in the counts only.
func (j *Job) Run(ctx context.Context, now time.Time) (Report, error) {
	if j.UoWFactory == nil {
		return failed(ErrUnitOfWorkRequired)
	}
	now = now.UTC()

	deleted, err := j.purge(ctx, now)
	if err != nil {
		return failed(err)
	}
	warned, err := j.warn(ctx, now)
	if err != nil {
		return failed(err)
	}
	j.log().Info("listings cleanup finished", "deleted", deleted, "warnings_sent", warned)
	return Report{Success: true, Deleted: deleted, WarningsSent: warned}, nil
}

func failed(err error) (Report, error) {
	return Report{Success: false, Error: err.Error()}, err
}

func (j *Job) purge(ctx context.Context, now time.Time) (int, error) {
	unit, err := j.UoWFactory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(ctx)
		}
	}()

	expired, err := unit.Listings().CreatedBefore(ctx, j.policy().DeleteCutoff(now), j.batchSize())
	if err != nil {
		return 0, fmt.Errorf("cleanup: fetch expired listings: %w", err)
	}
	if len(expired) == 0 {
		return 0, nil
	}
	j.log().Info("expired listings found", "count", len(expired))

	evs := make([]events.DomainEvent, 0, len(expired))
	for _, listing := range expired {
		if err := unit.Listings().Delete(ctx, listing.ID); err != nil {
			j.log().Error("delete expired listings", "err", err)
			return 0, nil
		}
		evs = append(evs, domainlistings.ListingDeletedEvent{
			ListingID: listing.ID,
			SellerID:  listing.Seller,
			Reason:    "expired",
			At:        now,
		})
	}
	if err := outbox.RecordDomainEvents(ctx, j.Outbox, j.encoder(), evs); err != nil {
		j.log().Error("record listing deletions", "err", err)
		return 0, nil
	}
	if err := unit.Commit(ctx); err != nil {
		j.log().Error("commit expired listing deletion", "err", err)
		return 0, nil
	}
	committed = true
	j.flush(ctx)
	return len(expired), nil
}

func (j *Job) warn(ctx context.Context, now time.Time) (int, error) {
	unit, err := j.UoWFactory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return 0, err
	}
	defer func() { _ = unit.Rollback(ctx) }()

	policy := j.policy()
	from, to := policy.WarningWindow(now)
	expiring, err := unit.Listings().CreatedBetween(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("cleanup: fetch expiring listings: %w", err)
	}
	if len(expiring) == 0 {
		return 0, nil
	}
	j.log().Info("listings expiring soon", "count", len(expiring))

	sent := 0
	evs := make([]events.DomainEvent, 0, len(expiring))
	for _, listing := range expiring {
		evs = append(evs, domainlistings.ListingExpiringEvent{
			ListingID: listing.ID,
			SellerID:  listing.Seller,
			Title:     listing.Title,
			ExpiresAt: policy.ExpiresAt(listing.CreatedAt),
			At:        now,
		})
		if j.Notifier == nil {
			continue
		}
		payload := domainpush.Payload{Title: ExpiringTitle, Body: policy.WarningText(listing.Title), URL: DashboardURL}
		if _, err := j.Notifier.NotifyUser(ctx, string(listing.Seller), payload); err != nil {
			j.log().Error("send expiry warning", "listing_id", listing.ID, "seller_id", listing.Seller, "err", err)
			continue
		}
		sent++
	}
	if err := outbox.RecordDomainEvents(ctx, j.Outbox, j.encoder(), evs); err != nil {
		j.log().Error("record expiry warnings", "err", err)
	} else {
		j.flush(ctx)
	}
	return sent, nil
}

func (j *Job) flush(ctx context.Context) {
	if j.Outbox == nil {
		return
	}
	if err := j.Outbox.Flush(ctx); err != nil {
		j.log().Warn("flush cleanup events", "err", err)
	}
}

func (j *Job) policy() expiry.Policy {
	if j.Policy == (expiry.Policy{}) {
		return expiry.Default()
	}
	return j.Policy
}

func (j *Job) batchSize() int {
	if j.BatchSize <= 0 {
		return DefaultBatchSize
	}
	return j.BatchSize
}

func (j *Job) encoder() outbox.EventEncoder {
	if j.Encoder != nil {
		return j.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (j *Job) log() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
