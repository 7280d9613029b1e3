package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainpush "unimate/internal/domain/push"
)

const pushCollection = "push_subscriptions"

// PushSubscriptionRepository keys documents by endpoint, so an upsert from a
// new user takes the endpoint over.
type PushSubscriptionRepository struct {
	col *mongo.Collection
}

func NewPushSubscriptionRepository(db *mongo.Database) *PushSubscriptionRepository {
	return &PushSubscriptionRepository{col: db.Collection(pushCollection)}
}

func (r *PushSubscriptionRepository) Upsert(ctx context.Context, sub domainpush.Subscription) error {
	now := sub.UpdatedAt.UTC()
	if now.IsZero() {
		now = time.Now().UTC()
	}
	created := sub.CreatedAt.UTC()
	if created.IsZero() {
		created = now
	}
	update := bson.M{
		"$set": bson.M{
			"user_id":    sub.UserID,
			"p256dh":     sub.P256dh,
			"auth":       sub.Auth,
			"user_agent": sub.UserAgent,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{"created_at": created},
	}
	_, err := r.col.UpdateByID(ctx, sub.Endpoint, update, options.Update().SetUpsert(true))
	return err
}

func (r *PushSubscriptionRepository) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"_id": endpoint})
	return err
}

func (r *PushSubscriptionRepository) ListByUser(ctx context.Context, userID string) ([]domainpush.Subscription, error) {
	cur, err := r.col.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var docs []pushDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domainpush.Subscription, 0, len(docs))
	for _, d := range docs {
		out = append(out, domainpush.Subscription{
			UserID:    d.UserID,
			Endpoint:  d.Endpoint,
			P256dh:    d.P256dh,
			Auth:      d.Auth,
			UserAgent: d.UserAgent,
			CreatedAt: d.CreatedAt.UTC(),
			UpdatedAt: d.UpdatedAt.UTC(),
		})
	}
	return out, nil
}

type pushDocument struct {
	Endpoint  string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	P256dh    string    `bson:"p256dh"`
	Auth      string    `bson:"auth"`
	UserAgent string    `bson:"user_agent"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

var _ domainpush.Repository = (*PushSubscriptionRepository)(nil)
