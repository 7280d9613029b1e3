package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainsaved "unimate/internal/domain/saved"
)

const savedCollection = "saved_items"

// SavedRepository relies on the unique (user_id, listing_id) index.
type SavedRepository struct {
	col *mongo.Collection
}

func NewSavedRepository(db *mongo.Database) *SavedRepository {
	return &SavedRepository{col: db.Collection(savedCollection)}
}

func (r *SavedRepository) Add(ctx context.Context, item domainsaved.Item) error {
	doc := savedDocument{UserID: item.UserID, ListingID: item.ListingID, CreatedAt: item.CreatedAt.UTC()}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainsaved.ErrAlreadySaved
		}
		return err
	}
	return nil
}

func (r *SavedRepository) Remove(ctx context.Context, userID, listingID string) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"user_id": userID, "listing_id": listingID})
	return err
}

func (r *SavedRepository) ListByUser(ctx context.Context, userID string) ([]domainsaved.Item, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var docs []savedDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domainsaved.Item, 0, len(docs))
	for _, doc := range docs {
		out = append(out, domainsaved.Item{UserID: doc.UserID, ListingID: doc.ListingID, CreatedAt: doc.CreatedAt.UTC()})
	}
	return out, nil
}

func (r *SavedRepository) Exists(ctx context.Context, userID, listingID string) (bool, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{"user_id": userID, "listing_id": listingID}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

type savedDocument struct {
	UserID    string    `bson:"user_id"`
	ListingID string    `bson:"listing_id"`
	CreatedAt time.Time `bson:"created_at"`
}

var _ domainsaved.Repository = (*SavedRepository)(nil)
