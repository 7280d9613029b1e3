// Package inbox records which broker events a consumer already handled so
// redelivered events can be skipped across restarts.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collectionName = "consumer_inbox"
	// DefaultRetention bounds how long handled event ids are remembered.
	DefaultRetention = 7 * 24 * time.Hour
)

var ErrConsumerRequired = errors.New("inbox: consumer name required")

type Store struct {
	col      *mongo.Collection
	consumer string
	now      func() time.Time
}

type entry struct {
	EventID    string    `bson:"event_id"`
	Consumer   string    `bson:"consumer"`
	ReceivedAt time.Time `bson:"received_at"`
}

// NewStore creates the unique (event_id, consumer) index and a TTL index on
// received_at. A non-positive retention selects DefaultRetention.
func NewStore(ctx context.Context, db *mongo.Database, consumer string, retention time.Duration) (*Store, error) {
	consumer = strings.TrimSpace(consumer)
	if consumer == "" {
		return nil, ErrConsumerRequired
	}
	if retention <= 0 {
		retention = DefaultRetention
	}
	col := db.Collection(collectionName)
	_, err := col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "event_id", Value: 1}, {Key: "consumer", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("event_consumer_unique"),
		},
		{
			Keys:    bson.D{{Key: "received_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(retention / time.Second)).SetName("received_at_ttl"),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("inbox: create indexes: %w", err)
	}
	return &Store{col: col, consumer: consumer, now: time.Now}, nil
}

// Seen marks eventID as handled and reports whether it had been handled before.
func (s *Store) Seen(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return false, nil
	}
	_, err := s.col.InsertOne(ctx, entry{EventID: eventID, Consumer: s.consumer, ReceivedAt: s.now().UTC()})
	if err == nil {
		return false, nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return true, nil
	}
	return false, fmt.Errorf("inbox: record %s: %w", eventID, err)
}

// Forget removes the mark so a failed delivery can be retried on redelivery.
func (s *Store) Forget(ctx context.Context, eventID string) error {
	if eventID == "" {
		return nil
	}
	if _, err := s.col.DeleteOne(ctx, bson.M{"event_id": eventID, "consumer": s.consumer}); err != nil {
		return fmt.Errorf("inbox: forget %s: %w", eventID, err)
	}
	return nil
}
