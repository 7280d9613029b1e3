package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"unimate/internal/domain/listings"
	"unimate/internal/domain/shared/money"
)

type listingFixture struct {
	ID          string            `json:"id"`
	Seller      string            `json:"seller"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Price       float64           `json:"price"`
	Currency    string            `json:"currency"`
	Condition   string            `json:"condition"`
	Negotiable  bool              `json:"negotiable"`
	Location    string            `json:"location"`
	CategoryID  string            `json:"category_id"`
	Attributes  map[string]string `json:"attributes"`
	Stock       *int              `json:"stock"`
	Images      []string          `json:"images"`
	// AgeDays backdates creation so the expiry countdown and cleanup job have data.
	AgeDays int `json:"age_days"`
}

func loadListingFixtures(ctx context.Context, repo listings.Repository, path string, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("listing fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	if len(data) == 0 {
		logger.Warn("listing fixtures file empty", "path", path)
		return nil
	}

	var fixtures []listingFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	now := time.Now().UTC()
	for _, fx := range fixtures {
		listing, err := fx.build(now)
		if err != nil {
			logger.Error("fixture invalid", "listing_id", fx.ID, "error", err)
			continue
		}
		if err := repo.Save(ctx, listing); err != nil {
			logger.Error("cannot store fixture listing", "listing_id", fx.ID, "error", err)
			continue
		}
		logger.Info("listing fixture imported", "listing_id", listing.ID)
	}
	return nil
}

func (fx listingFixture) build(now time.Time) (*listings.Listing, error) {
	price, err := money.FromMajor(fx.Price, fx.Currency)
	if err != nil {
		return nil, err
	}
	condition, err := listings.ParseCondition(fx.Condition)
	if err != nil {
		return nil, err
	}
	category, err := listings.CategoryByID(fx.CategoryID)
	if err != nil {
		return nil, err
	}
	created := now.Add(-time.Duration(fx.AgeDays) * 24 * time.Hour)
	listing, err := listings.NewListing(listings.CreateParams{
		ID:          listings.ListingID(fx.ID),
		Seller:      listings.SellerID(fx.Seller),
		Title:       fx.Title,
		Description: fx.Description,
		Price:       price,
		Condition:   condition,
		Negotiable:  fx.Negotiable,
		Location:    fx.Location,
		Category:    category,
		Attributes:  fx.Attributes,
		Stock:       fx.Stock,
		Now:         created,
	})
	if err != nil {
		return nil, err
	}
	for _, url := range fx.Images {
		if _, err := listing.AddImage(uuid.NewString(), strings.TrimSpace(url), created); err != nil {
			return nil, err
		}
	}
	return listing, nil
}

func defaultListingFixturesPath() string {
	candidates := []string{
		filepath.Join("data", "listings.json"),
		filepath.Join("..", "..", "data", "listings.json"),
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return candidates[0]
}
