package memory

import (
	"context"
	"sync"

	appoutbox "unimate/internal/app/outbox"
)

// Dispatcher receives flushed records in-process when no broker is configured.
type Dispatcher func(ctx context.Context, record appoutbox.EventRecord)

// Outbox keeps events in memory until flushed, then hands them to the
// registered dispatchers.
type Outbox struct {
	mu          sync.Mutex
	records     []appoutbox.EventRecord
	dispatchers []Dispatcher
}

func NewOutbox(dispatchers ...Dispatcher) *Outbox {
	return &Outbox{dispatchers: dispatchers}
}

// AddDispatcher registers d for records flushed from now on.
func (o *Outbox) AddDispatcher(d Dispatcher) {
	if d == nil {
		return
	}
	o.mu.Lock()
	o.dispatchers = append(o.dispatchers, d)
	o.mu.Unlock()
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, record)
	return nil
}

func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	pending := o.records
	o.records = nil
	dispatchers := o.dispatchers
	o.mu.Unlock()

	for _, rec := range pending {
		for _, d := range dispatchers {
			d(ctx, rec)
		}
	}
	return nil
}

// Pending returns a copy of the records added since the last flush.
func (o *Outbox) Pending() []appoutbox.EventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]appoutbox.EventRecord(nil), o.records...)
}

var _ appoutbox.Outbox = (*Outbox)(nil)
