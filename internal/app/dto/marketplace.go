package dto

import "unimate/internal/domain/discovery"

type FacetValue struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

type Facets struct {
	Types      []FacetValue `json:"types"`
	Colors     []FacetValue `json:"colors"`
	Materials  []FacetValue `json:"materials"`
	Sizes      []FacetValue `json:"sizes"`
	InStock    int          `json:"in_stock"`
	OutOfStock int          `json:"out_of_stock"`
	PriceMin   float64      `json:"price_min"`
	PriceMax   float64      `json:"price_max"`
	Currency   string       `json:"currency"`
}

// Marketplace is the filtered listing page plus facets over all listings.
type Marketplace struct {
	Items  []Listing `json:"items"`
	Facets Facets    `json:"facets"`
	Count  int       `json:"count"`
}

func MapFacets(f discovery.Facets) Facets {
	return Facets{
		Types:      mapFacetValues(f.Types),
		Colors:     mapFacetValues(f.Colors),
		Materials:  mapFacetValues(f.Materials),
		Sizes:      mapFacetValues(f.Sizes),
		InStock:    f.InStock,
		OutOfStock: f.OutOfStock,
		PriceMin:   f.PriceMin.Major(),
		PriceMax:   f.PriceMax.Major(),
		Currency:   f.PriceMin.Currency,
	}
}

func mapFacetValues(values []discovery.FacetValue) []FacetValue {
	out := make([]FacetValue, 0, len(values))
	for _, v := range values {
		out = append(out, FacetValue{Value: v.Value, Count: v.Count})
	}
	return out
}
