package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainlistings "unimate/internal/domain/listings"
	"unimate/internal/domain/shared/money"
)

const listingsCollection = "listings"

// ListingRepository stores listings with their images and videos embedded.
type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{col: db.Collection(listingsCollection)}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	var doc listingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainlistings.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate()
}

func (r *ListingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	doc := newListingDocument(listing)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return err
}

func (r *ListingRepository) Delete(ctx context.Context, id domainlistings.ListingID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domainlistings.ErrNotFound
	}
	return nil
}

func (r *ListingRepository) ListActive(ctx context.Context) ([]*domainlistings.Listing, error) {
	return r.find(ctx, bson.M{"status": string(domainlistings.StatusActive)}, newestFirst())
}

func (r *ListingRepository) ListBySeller(ctx context.Context, seller domainlistings.SellerID) ([]*domainlistings.Listing, error) {
	return r.find(ctx, bson.M{"seller_id": string(seller)}, newestFirst())
}

func (r *ListingRepository) Related(ctx context.Context, category domainlistings.CategoryID, exclude domainlistings.ListingID, limit int) ([]*domainlistings.Listing, error) {
	filter := bson.M{
		"status":      string(domainlistings.StatusActive),
		"category_id": string(category),
		"_id":         bson.M{"$ne": string(exclude)},
	}
	return r.find(ctx, filter, newestFirst().SetLimit(int64(limit)))
}

func (r *ListingRepository) CreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*domainlistings.Listing, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return r.find(ctx, bson.M{"created_at": bson.M{"$lt": cutoff.UTC()}}, opts)
}

func (r *ListingRepository) CreatedBetween(ctx context.Context, from, to time.Time) ([]*domainlistings.Listing, error) {
	filter := bson.M{"created_at": bson.M{"$gt": from.UTC(), "$lte": to.UTC()}}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
}

func (r *ListingRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domainlistings.Listing, error) {
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var docs []listingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainlistings.Listing, 0, len(docs))
	for _, doc := range docs {
		listing, err := doc.toAggregate()
		if err != nil {
			return nil, err
		}
		out = append(out, listing)
	}
	return out, nil
}

func newestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
}

type listingDocument struct {
	ID           string            `bson:"_id"`
	SellerID     string            `bson:"seller_id"`
	Title        string            `bson:"title"`
	Description  string            `bson:"description"`
	PriceAmount  int64             `bson:"price_amount"`
	Currency     string            `bson:"currency"`
	Condition    string            `bson:"condition"`
	Negotiable   bool              `bson:"negotiable"`
	Location     string            `bson:"location"`
	CategoryID   string            `bson:"category_id"`
	CategoryName string            `bson:"category_name"`
	Attributes   map[string]string `bson:"attributes,omitempty"`
	Status       string            `bson:"status"`
	Stock        *int              `bson:"stock,omitempty"`
	InStock      *bool             `bson:"in_stock,omitempty"`
	Rating       *float64          `bson:"rating,omitempty"`
	ImageURL     string            `bson:"image_url,omitempty"`
	Images       []imageDocument   `bson:"images"`
	Videos       []videoDocument   `bson:"videos"`
	CreatedAt    time.Time         `bson:"created_at"`
	UpdatedAt    time.Time         `bson:"updated_at"`
}

type imageDocument struct {
	ID        string `bson:"id"`
	URL       string `bson:"url"`
	SortOrder int    `bson:"sort_order"`
	IsPrimary bool   `bson:"is_primary"`
}

type videoDocument struct {
	ID        string `bson:"id"`
	URL       string `bson:"url"`
	SortOrder int    `bson:"sort_order"`
}

func newListingDocument(l *domainlistings.Listing) listingDocument {
	doc := listingDocument{
		ID:           string(l.ID),
		SellerID:     string(l.Seller),
		Title:        l.Title,
		Description:  l.Description,
		PriceAmount:  l.Price.Amount,
		Currency:     l.Price.Currency,
		Condition:    string(l.Condition),
		Negotiable:   l.Negotiable,
		Location:     l.Location,
		CategoryID:   string(l.Category.ID),
		CategoryName: l.Category.Name,
		Status:       string(l.Status),
		Stock:        l.Stock,
		InStock:      l.InStock,
		Rating:       l.Rating,
		ImageURL:     l.ImageURL,
		Images:       make([]imageDocument, 0, len(l.Images)),
		Videos:       make([]videoDocument, 0, len(l.Videos)),
		CreatedAt:    l.CreatedAt.UTC(),
		UpdatedAt:    l.UpdatedAt.UTC(),
	}
	if l.Attributes != nil {
		doc.Attributes = l.Attributes.Fields()
	}
	for _, img := range l.Images {
		doc.Images = append(doc.Images, imageDocument{ID: img.ID, URL: img.URL, SortOrder: img.SortOrder, IsPrimary: img.IsPrimary})
	}
	for _, v := range l.Videos {
		doc.Videos = append(doc.Videos, videoDocument{ID: v.ID, URL: v.URL, SortOrder: v.SortOrder})
	}
	return doc
}

func (d listingDocument) toAggregate() (*domainlistings.Listing, error) {
	category := domainlistings.Category{ID: domainlistings.CategoryID(d.CategoryID), Name: d.CategoryName}
	attrs, err := domainlistings.ParseAttributes(category.Kind(), d.Attributes)
	if err != nil {
		return nil, fmt.Errorf("mongo: listing %s attributes: %w", d.ID, err)
	}
	listing := &domainlistings.Listing{
		ID:          domainlistings.ListingID(d.ID),
		Seller:      domainlistings.SellerID(d.SellerID),
		Title:       d.Title,
		Description: d.Description,
		Price:       money.Money{Amount: d.PriceAmount, Currency: d.Currency},
		Condition:   domainlistings.Condition(d.Condition),
		Negotiable:  d.Negotiable,
		Location:    d.Location,
		Category:    category,
		Attributes:  attrs,
		Status:      domainlistings.Status(d.Status),
		Stock:       d.Stock,
		InStock:     d.InStock,
		Rating:      d.Rating,
		ImageURL:    d.ImageURL,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
	for _, img := range d.Images {
		listing.Images = append(listing.Images, domainlistings.Image{ID: img.ID, URL: img.URL, SortOrder: img.SortOrder, IsPrimary: img.IsPrimary})
	}
	for _, v := range d.Videos {
		listing.Videos = append(listing.Videos, domainlistings.Video{ID: v.ID, URL: v.URL, SortOrder: v.SortOrder})
	}
	return listing, nil
}

var _ domainlistings.Repository = (*ListingRepository)(nil)
