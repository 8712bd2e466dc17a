package model

// SortOption orders the visible product list.
type SortOption string

const (
	SortNewest    SortOption = "newest"
	SortPriceAsc  SortOption = "price-asc"
	SortPriceDesc SortOption = "price-desc"
	SortNameAsc   SortOption = "name-asc"
	SortNameDesc  SortOption = "name-desc"
)

func (s SortOption) Valid() bool {
	switch s {
	case SortNewest, SortPriceAsc, SortPriceDesc, SortNameAsc, SortNameDesc:
		return true
	}
	return false
}

// Availability is the tri-state availability filter.
type Availability string

const (
	AvailabilityAll         Availability = "all"
	AvailabilityAvailable   Availability = "available"
	AvailabilityUnavailable Availability = "unavailable"
)

func (a Availability) Valid() bool {
	switch a {
	case AvailabilityAll, AvailabilityAvailable, AvailabilityUnavailable:
		return true
	}
	return false
}

// PriceRange is a closed interval [Min, Max].
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether p lies inside the range, both ends inclusive.
func (r PriceRange) Contains(p float64) bool {
	return p >= r.Min && p <= r.Max
}

// Default price bounds offered by the storefront filter.
const (
	DefaultPriceMin = 0
	DefaultPriceMax = 100000
)

// FilterSpec selects and orders the visible products. It is never
// persisted.
type FilterSpec struct {
	Category     string       `json:"category"`
	Cluster      string       `json:"cluster"`
	PriceRange   PriceRange   `json:"priceRange"`
	Availability Availability `json:"availability"`
	Search       string       `json:"search"`
	Sort         SortOption   `json:"sort"`
}

// DefaultFilter returns the filter a new session starts with.
func DefaultFilter() FilterSpec {
	return FilterSpec{
		PriceRange:   PriceRange{Min: DefaultPriceMin, Max: DefaultPriceMax},
		Availability: AvailabilityAll,
		Sort:         SortNewest,
	}
}

// Normalize replaces unknown enum values with defaults and swaps an
// inverted price range so that Min <= Max.
func (f FilterSpec) Normalize() FilterSpec {
	if !f.Availability.Valid() {
		f.Availability = AvailabilityAll
	}
	if !f.Sort.Valid() {
		f.Sort = SortNewest
	}
	if f.PriceRange.Min > f.PriceRange.Max {
		f.PriceRange.Min, f.PriceRange.Max = f.PriceRange.Max, f.PriceRange.Min
	}
	return f
}

// WithCategory changes the category and resets the cluster, which only
// makes sense inside the previous category.
func (f FilterSpec) WithCategory(category string) FilterSpec {
	if f.Category != category {
		f.Cluster = ""
	}
	f.Category = category
	return f
}
