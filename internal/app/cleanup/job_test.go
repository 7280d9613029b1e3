package cleanup

import (
	"context"
	"errors"
	"testing"
	"time"

	domainlistings "unimate/internal/domain/listings"
	domainpush "unimate/internal/domain/push"
	"unimate/internal/domain/shared/money"
	"unimate/internal/infra/storage/memory"
)

type notification struct {
	user    string
	payload domainpush.Payload
}

type recordingNotifier struct {
	fail map[string]bool
	got  []notification
}

func (n *recordingNotifier) NotifyUser(_ context.Context, userID string, payload domainpush.Payload) (int, error) {
	if n.fail[userID] {
		return 0, errors.New("push unavailable")
	}
	n.got = append(n.got, notification{user: userID, payload: payload})
	return 1, nil
}

var now = time.Date(2025, 6, 1, 3, 0, 0, 0, time.UTC)

func seedListing(t *testing.T, f memory.Factory, id, seller string, age time.Duration) {
	t.Helper()
	category, err := domainlistings.CategoryByID("books")
	if err != nil {
		t.Fatalf("category: %v", err)
	}
	listing, err := domainlistings.NewListing(domainlistings.CreateParams{
		ID:       domainlistings.ListingID(id),
		Seller:   domainlistings.SellerID(seller),
		Title:    "Listing " + id,
		Price:    money.Must(1000, money.DefaultCurrency),
		Category: category,
		Now:      now.Add(-age),
	})
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if err := f.ListingsRepo.Save(context.Background(), listing); err != nil {
		t.Fatalf("save: %v", err)
	}
}

const day = 24 * time.Hour

func TestJobDeletesExpiredAndWarnsSellers(t *testing.T) {
	factory := memory.NewFactory()
	seedListing(t, factory, "old", "s1", 31*day)
	seedListing(t, factory, "exact", "s1", 30*day+time.Second)
	seedListing(t, factory, "warn", "s2", 27*day+time.Hour)
	seedListing(t, factory, "warned-yesterday", "s3", 28*day+time.Hour)
	seedListing(t, factory, "fresh", "s4", 2*day)

	notifier := &recordingNotifier{}
	box := memory.NewOutbox()
	job := &Job{UoWFactory: factory, Notifier: notifier, Outbox: box}

	report, err := job.Run(context.Background(), now)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !report.Success || report.Deleted != 2 || report.WarningsSent != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if len(notifier.got) != 1 || notifier.got[0].user != "s2" {
		t.Fatalf("expected one warning for s2, got %+v", notifier.got)
	}
	want := "Your listing \"Listing warn\" will expire and be deleted in 3 days."
	if notifier.got[0].payload.Body != want {
		t.Fatalf("body = %q", notifier.got[0].payload.Body)
	}
	for _, id := range []string{"old", "exact"} {
		if _, err := factory.ListingsRepo.ByID(context.Background(), domainlistings.ListingID(id)); !errors.Is(err, domainlistings.ErrNotFound) {
			t.Fatalf("listing %s should be deleted, err=%v", id, err)
		}
	}
	if _, err := factory.ListingsRepo.ByID(context.Background(), "fresh"); err != nil {
		t.Fatalf("fresh listing must survive: %v", err)
	}
}

func TestJobRespectsBatchSize(t *testing.T) {
	factory := memory.NewFactory()
	for _, id := range []string{"a", "b", "c"} {
		seedListing(t, factory, id, "s", 40*day)
	}
	job := &Job{UoWFactory: factory, BatchSize: 2}
	report, err := job.Run(context.Background(), now)
	if err != nil || report.Deleted != 2 {
		t.Fatalf("report=%+v err=%v", report, err)
	}
	report, _ = job.Run(context.Background(), now)
	if report.Deleted != 1 {
		t.Fatalf("second pass should delete the rest, got %+v", report)
	}
}

func TestJobCountsOnlyDeliveredWarnings(t *testing.T) {
	factory := memory.NewFactory()
	seedListing(t, factory, "w1", "ok", 27*day+time.Minute)
	seedListing(t, factory, "w2", "broken", 27*day+2*time.Minute)
	job := &Job{UoWFactory: factory, Notifier: &recordingNotifier{fail: map[string]bool{"broken": true}}}

	report, err := job.Run(context.Background(), now)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.WarningsSent != 1 || report.Deleted != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestJobWithoutFactoryFails(t *testing.T) {
	report, err := (&Job{}).Run(context.Background(), now)
	if !errors.Is(err, ErrUnitOfWorkRequired) || report.Success || report.Error == "" {
		t.Fatalf("report=%+v err=%v", report, err)
	}
}
