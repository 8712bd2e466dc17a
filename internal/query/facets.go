package query

import "go-catalogue-ws/internal/model"

// Facets summarises a product list for filter controls.
type Facets struct {
	Count       int            `json:"count"`
	MinPrice    float64        `json:"minPrice"`
	MaxPrice    float64        `json:"maxPrice"`
	Available   int            `json:"available"`
	Unavailable int            `json:"unavailable"`
	ByCategory  map[string]int `json:"byCategory"`
	ByCluster   map[string]int `json:"byCluster"`
}

// ComputeFacets counts products per availability, category and cluster and
// reports the price bounds. An empty list yields zero bounds.
func ComputeFacets(products []model.Product) Facets {
	f := Facets{
		Count:      len(products),
		ByCategory: map[string]int{},
		ByCluster:  map[string]int{},
	}
	for i, p := range products {
		if i == 0 || p.Price < f.MinPrice {
			f.MinPrice = p.Price
		}
		if i == 0 || p.Price > f.MaxPrice {
			f.MaxPrice = p.Price
		}
		if p.Available {
			f.Available++
		} else {
			f.Unavailable++
		}
		if p.Category != "" {
			f.ByCategory[p.Category]++
		}
		if p.Cluster != "" {
			f.ByCluster[p.Cluster]++
		}
	}
	return f
}
