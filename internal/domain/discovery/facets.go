package discovery

import (
	"sort"

	"unimate/internal/domain/listings"
	"unimate/internal/domain/shared/money"
)

type FacetValue struct {
	Value string
	Count int
}

// Facets are computed over the full listing set, before filtering.
type Facets struct {
	Types      []FacetValue
	Colors     []FacetValue
	Materials  []FacetValue
	Sizes      []FacetValue
	InStock    int
	OutOfStock int
	PriceMin   money.Money
	PriceMax   money.Money
}

func BuildFacets(all []*listings.Listing) Facets {
	types := map[string]int{}
	colors := map[string]int{}
	materials := map[string]int{}
	sizes := map[string]int{}
	var f Facets
	first := true
	for _, l := range all {
		if l == nil {
			continue
		}
		bump(types, TypeOf(l))
		bump(colors, Attr(l, "color"))
		bump(materials, Attr(l, "material"))
		bump(sizes, Attr(l, "size"))
		if l.InStockNow() {
			f.InStock++
		} else {
			f.OutOfStock++
		}
		if first {
			f.PriceMin, f.PriceMax = l.Price, l.Price
			first = false
			continue
		}
		if l.Price.Compare(f.PriceMin) < 0 {
			f.PriceMin = l.Price
		}
		if l.Price.Compare(f.PriceMax) > 0 {
			f.PriceMax = l.Price
		}
	}
	if first {
		f.PriceMin = money.Money{Currency: money.DefaultCurrency}
		f.PriceMax = money.Money{Currency: money.DefaultCurrency}
	}
	f.Types = ranked(types)
	f.Colors = ranked(colors)
	f.Materials = ranked(materials)
	f.Sizes = ranked(sizes)
	return f
}

func bump(m map[string]int, v string) {
	if v == "" {
		return
	}
	m[v]++
}

// ranked orders by count desc, then value asc for stable output.
func ranked(m map[string]int) []FacetValue {
	out := make([]FacetValue, 0, len(m))
	for v, c := range m {
		out = append(out, FacetValue{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}
