// Package query computes the visible product list from the catalogue and
// a filter. Everything here is pure: inputs are never modified and equal
// inputs give equal outputs.
package query

import (
	"sort"
	"strings"

	"go-catalogue-ws/internal/model"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// VisibleProducts applies the filter pipeline in a fixed order: search,
// category, cluster, price range, availability, then a stable sort. The
// result holds copies; products with equal sort keys keep their input
// order.
func VisibleProducts(products []model.Product, f model.FilterSpec) []model.Product {
	f = f.Normalize()
	search := strings.ToLower(f.Search)

	out := make([]model.Product, 0, len(products))
	for _, p := range products {
		if search != "" && !matchesSearch(p, search) {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.Cluster != "" && p.Cluster != f.Cluster {
			continue
		}
		if !f.PriceRange.Contains(p.Price) {
			continue
		}
		if !matchesAvailability(p, f.Availability) {
			continue
		}
		out = append(out, p.Clone())
	}

	sortProducts(out, f.Sort)
	return out
}

func matchesSearch(p model.Product, lowered string) bool {
	return strings.Contains(strings.ToLower(p.Name), lowered) ||
		strings.Contains(strings.ToLower(p.Description), lowered) ||
		strings.Contains(strings.ToLower(p.Material), lowered)
}

func matchesAvailability(p model.Product, a model.Availability) bool {
	switch a {
	case model.AvailabilityAvailable:
		return p.Available
	case model.AvailabilityUnavailable:
		return !p.Available
	default:
		return true
	}
}

func sortProducts(ps []model.Product, by model.SortOption) {
	switch by {
	case model.SortPriceAsc:
		sort.SliceStable(ps, func(i, j int) bool { return ps[i].Price < ps[j].Price })
	case model.SortPriceDesc:
		sort.SliceStable(ps, func(i, j int) bool { return ps[i].Price > ps[j].Price })
	case model.SortNameAsc, model.SortNameDesc:
		// a Collator is not safe for concurrent use
		col := collate.New(language.English)
		desc := by == model.SortNameDesc
		sort.SliceStable(ps, func(i, j int) bool {
			c := col.CompareString(ps[i].Name, ps[j].Name)
			if desc {
				return c > 0
			}
			return c < 0
		})
	default:
		sort.SliceStable(ps, func(i, j int) bool { return ps[i].CreatedAt.After(ps[j].CreatedAt) })
	}
}
