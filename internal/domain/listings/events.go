package listings

import (
	"time"
)

type ListingCreatedEvent struct {
	ListingID ListingID
	SellerID  SellerID
	At        time.Time
}

func (e ListingCreatedEvent) EventName() string     { return "listing.created" }
func (e ListingCreatedEvent) AggregateID() string   { return string(e.ListingID) }
func (e ListingCreatedEvent) OccurredAt() time.Time { return e.At }

type ListingUpdatedEvent struct {
	ListingID ListingID
	At        time.Time
}

func (e ListingUpdatedEvent) EventName() string     { return "listing.updated" }
func (e ListingUpdatedEvent) AggregateID() string   { return string(e.ListingID) }
func (e ListingUpdatedEvent) OccurredAt() time.Time { return e.At }

type ListingRemovedEvent struct {
	ListingID ListingID
	At        time.Time
}

func (e ListingRemovedEvent) EventName() string     { return "listing.removed" }
func (e ListingRemovedEvent) AggregateID() string   { return string(e.ListingID) }
func (e ListingRemovedEvent) OccurredAt() time.Time { return e.At }

// ListingDeletedEvent is emitted when a listing row is purged, by its seller or by expiry.
type ListingDeletedEvent struct {
	ListingID ListingID
	SellerID  SellerID
	Reason    string
	At        time.Time
}

func (e ListingDeletedEvent) EventName() string     { return "listing.deleted" }
func (e ListingDeletedEvent) AggregateID() string   { return string(e.ListingID) }
func (e ListingDeletedEvent) OccurredAt() time.Time { return e.At }

// ListingExpiringEvent announces that a listing enters its warning lead.
type ListingExpiringEvent struct {
	ListingID ListingID
	SellerID  SellerID
	Title     string
	ExpiresAt time.Time
	At        time.Time
}

func (e ListingExpiringEvent) EventName() string     { return "listing.expiring" }
func (e ListingExpiringEvent) AggregateID() string   { return string(e.ListingID) }
func (e ListingExpiringEvent) OccurredAt() time.Time { return e.At }
