// Package discovery filters, sorts and counts facets over an in-memory set of
// marketplace listings.
package discovery

import (
	"sort"
	"strings"
	"time"

	"unimate/internal/domain/expiry"
	"unimate/internal/domain/listings"
	"unimate/internal/domain/shared/money"
)

type SortMode string

const (
	SortRating    SortMode = "rating"
	SortLatest    SortMode = "latest"
	SortPriceLow  SortMode = "price_low"
	SortPriceHigh SortMode = "price_high"
)

// ParseSort falls back to rating for unknown values.
func ParseSort(raw string) SortMode {
	switch m := SortMode(strings.ToLower(strings.TrimSpace(raw))); m {
	case SortLatest, SortPriceLow, SortPriceHigh:
		return m
	default:
		return SortRating
	}
}

// Filter is the user-selected facet state. Zero values mean "no selection".
type Filter struct {
	Search     string
	InStock    bool
	OutOfStock bool
	Types      []string
	Colors     []string
	Materials  []string
	Sizes      []string
	PriceMin   *money.Money
	PriceMax   *money.Money
	Sort       SortMode
}

type Result struct {
	Items  []*listings.Listing
	Facets Facets
	Count  int
}

// Engine applies filters using the shared expiry policy.
type Engine struct {
	Expiry expiry.Policy
}

func New() Engine {
	return Engine{Expiry: expiry.Default()}
}

// Apply keeps the input order (expected latest first) unless a sort applies.
func (e Engine) Apply(all []*listings.Listing, f Filter, now time.Time) Result {
	facets := BuildFacets(all)
	pred := newPredicate(f)

	items := make([]*listings.Listing, 0, len(all))
	for _, l := range all {
		if l == nil {
			continue
		}
		if e.Expiry.Expired(l.CreatedAt, now) {
			continue
		}
		if !pred.match(l) {
			continue
		}
		items = append(items, l)
	}
	sortListings(items, f.Sort)
	return Result{Items: items, Facets: facets, Count: len(items)}
}

type predicate struct {
	search    string
	stock     *bool
	types     map[string]struct{}
	colors    map[string]struct{}
	materials map[string]struct{}
	sizes     map[string]struct{}
	priceMin  *money.Money
	priceMax  *money.Money
}

func newPredicate(f Filter) predicate {
	p := predicate{
		search:    strings.ToLower(strings.TrimSpace(f.Search)),
		types:     toSet(f.Types),
		colors:    toSet(f.Colors),
		materials: toSet(f.Materials),
		sizes:     toSet(f.Sizes),
		priceMin:  f.PriceMin,
		priceMax:  f.PriceMax,
	}
	// Both boxes checked behaves like none checked.
	if f.InStock != f.OutOfStock {
		want := f.InStock
		p.stock = &want
	}
	return p
}

func (p predicate) match(l *listings.Listing) bool {
	if p.search != "" {
		if !strings.Contains(strings.ToLower(l.Title), p.search) &&
			!strings.Contains(strings.ToLower(l.Description), p.search) {
			return false
		}
	}
	if p.stock != nil && l.InStockNow() != *p.stock {
		return false
	}
	if !member(p.types, TypeOf(l)) {
		return false
	}
	if !member(p.colors, Attr(l, "color")) {
		return false
	}
	if !member(p.materials, Attr(l, "material")) {
		return false
	}
	if !member(p.sizes, Attr(l, "size")) {
		return false
	}
	if p.priceMin != nil && l.Price.Compare(*p.priceMin) < 0 {
		return false
	}
	if p.priceMax != nil && l.Price.Compare(*p.priceMax) > 0 {
		return false
	}
	return true
}

func sortListings(items []*listings.Listing, mode SortMode) {
	switch mode {
	case SortPriceLow:
		sort.SliceStable(items, func(i, j int) bool { return items[i].Price.Compare(items[j].Price) < 0 })
	case SortPriceHigh:
		sort.SliceStable(items, func(i, j int) bool { return items[i].Price.Compare(items[j].Price) > 0 })
	case SortLatest:
		sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	default:
		if !anyRated(items) {
			return
		}
		sort.SliceStable(items, func(i, j int) bool { return rating(items[i]) > rating(items[j]) })
	}
}

func anyRated(items []*listings.Listing) bool {
	for _, l := range items {
		if l.Rating != nil {
			return true
		}
	}
	return false
}

func rating(l *listings.Listing) float64 {
	if l.Rating == nil {
		return 0
	}
	return *l.Rating
}

// TypeOf is the product type facet value (category name).
func TypeOf(l *listings.Listing) string {
	return strings.TrimSpace(l.Category.Name)
}

// Attr reads a trimmed attribute; empty means absent.
func Attr(l *listings.Listing, key string) string {
	if l.Attributes == nil {
		return ""
	}
	return strings.TrimSpace(l.Attributes.Value(key))
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			set[v] = struct{}{}
		}
	}
	if len(set) == 0 {
		return nil
	}
	return set
}

// member passes when no selection exists; otherwise value must be non-empty and selected.
func member(set map[string]struct{}, value string) bool {
	if len(set) == 0 {
		return true
	}
	if value == "" {
		return false
	}
	_, ok := set[value]
	return ok
}
