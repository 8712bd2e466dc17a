package query

import (
	"testing"
	"time"

	"go-catalogue-ws/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func product(id, name string, price float64, available bool, age time.Duration) model.Product {
	return model.Product{
		ID:        id,
		Name:      name,
		Price:     price,
		Available: available,
		MOQ:       1,
		Images:    []string{},
		CreatedAt: base.Add(-age),
		UpdatedAt: base.Add(-age),
	}
}

func ids(ps []model.Product) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func fixture() []model.Product {
	a := product("1", "Saree A", 500, true, 3*time.Hour)
	a.Category, a.Cluster, a.Material, a.Description = "c1", "k1", "Silk", "Handwoven in Kanchipuram"
	b := product("2", "Saree B", 1500, false, 2*time.Hour)
	b.Category, b.Cluster, b.Material = "c1", "k2", "Cotton"
	c := product("3", "bangle", 500, true, time.Hour)
	c.Category, c.Material = "c2", "Glass"
	d := product("4", "Ébène stole", 80, true, 4*time.Hour)
	d.Category, d.Description = "c2", "Soft silk blend"
	return []model.Product{a, b, c, d}
}

func TestVisibleProducts_DefaultFilterKeepsEverything(t *testing.T) {
	products := fixture()
	for _, sortBy := range []model.SortOption{model.SortNewest, model.SortPriceAsc, model.SortPriceDesc, model.SortNameAsc, model.SortNameDesc} {
		t.Run(string(sortBy), func(t *testing.T) {
			f := model.DefaultFilter()
			f.Sort = sortBy
			assert.Len(t, VisibleProducts(products, f), len(products))
		})
	}
}

func TestVisibleProducts_Scenario(t *testing.T) {
	products := []model.Product{
		product("a", "Saree A", 500, true, 0),
		product("b", "Saree B", 1500, false, 0),
	}
	f := model.DefaultFilter()
	f.Availability = model.AvailabilityAvailable
	f.PriceRange = model.PriceRange{Min: 0, Max: 1000}

	got := VisibleProducts(products, f)
	require.Len(t, got, 1)
	assert.Equal(t, "Saree A", got[0].Name)
}

func TestVisibleProducts_Filters(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*model.FilterSpec)
		want   []string
	}{
		{"search matches name case-insensitively", func(f *model.FilterSpec) { f.Search = "SAREE" }, []string{"2", "1"}},
		{"search matches material", func(f *model.FilterSpec) { f.Search = "glass" }, []string{"3"}},
		{"search matches description", func(f *model.FilterSpec) { f.Search = "silk" }, []string{"1", "4"}},
		{"search without match", func(f *model.FilterSpec) { f.Search = "lehenga" }, []string{}},
		{"category", func(f *model.FilterSpec) { f.Category = "c2" }, []string{"3", "4"}},
		{"category and cluster", func(f *model.FilterSpec) { f.Category, f.Cluster = "c1", "k2" }, []string{"2"}},
		{"price range is inclusive", func(f *model.FilterSpec) { f.PriceRange = model.PriceRange{Min: 80, Max: 500} }, []string{"3", "1", "4"}},
		{"inverted price range is swapped", func(f *model.FilterSpec) { f.PriceRange = model.PriceRange{Min: 1500, Max: 1000} }, []string{"2"}},
		{"unavailable", func(f *model.FilterSpec) { f.Availability = model.AvailabilityUnavailable }, []string{"2"}},
		{"combined", func(f *model.FilterSpec) {
			f.Search = "saree"
			f.Availability = model.AvailabilityAvailable
			f.PriceRange = model.PriceRange{Min: 0, Max: 1000}
		}, []string{"1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := model.DefaultFilter()
			tt.modify(&f)
			assert.Equal(t, tt.want, ids(VisibleProducts(fixture(), f)))
		})
	}
}

func TestVisibleProducts_Sorting(t *testing.T) {
	tests := []struct {
		sort model.SortOption
		want []string
	}{
		{model.SortNewest, []string{"3", "2", "1", "4"}},
		{model.SortPriceAsc, []string{"4", "1", "3", "2"}},
		{model.SortPriceDesc, []string{"2", "1", "3", "4"}},
		{model.SortNameAsc, []string{"3", "4", "1", "2"}},
		{model.SortNameDesc, []string{"2", "1", "4", "3"}},
		{model.SortOption("random"), []string{"3", "2", "1", "4"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.sort), func(t *testing.T) {
			f := model.DefaultFilter()
			f.Sort = tt.sort
			assert.Equal(t, tt.want, ids(VisibleProducts(fixture(), f)))
		})
	}
}

func TestVisibleProducts_StableForEqualKeys(t *testing.T) {
	products := []model.Product{
		product("x", "Same", 700, true, 0),
		product("y", "Same", 700, true, 0),
		product("z", "Same", 700, true, 0),
	}
	for _, sortBy := range []model.SortOption{model.SortNewest, model.SortPriceAsc, model.SortPriceDesc, model.SortNameAsc, model.SortNameDesc} {
		f := model.DefaultFilter()
		f.Sort = sortBy
		assert.Equal(t, []string{"x", "y", "z"}, ids(VisibleProducts(products, f)), sortBy)
	}
}

func TestVisibleProducts_IsPure(t *testing.T) {
	products := fixture()
	before := make([]model.Product, len(products))
	for i, p := range products {
		before[i] = p.Clone()
	}

	f := model.DefaultFilter()
	f.Sort = model.SortPriceAsc
	first := VisibleProducts(products, f)
	second := VisibleProducts(products, f)

	assert.Equal(t, first, second)
	assert.Equal(t, before, products, "input must not be reordered or modified")

	first[0].Images = append(first[0].Images, "https://cdn.example/x.jpg")
	first[0].Name = "changed"
	assert.Equal(t, before, products, "results must not alias the input")
}

func TestComputeFacets(t *testing.T) {
	f := ComputeFacets(fixture())
	assert.Equal(t, 4, f.Count)
	assert.Equal(t, 80.0, f.MinPrice)
	assert.Equal(t, 1500.0, f.MaxPrice)
	assert.Equal(t, 3, f.Available)
	assert.Equal(t, 1, f.Unavailable)
	assert.Equal(t, map[string]int{"c1": 2, "c2": 2}, f.ByCategory)
	assert.Equal(t, map[string]int{"k1": 1, "k2": 1}, f.ByCluster)

	empty := ComputeFacets(nil)
	assert.Equal(t, 0, empty.Count)
	assert.Zero(t, empty.MinPrice)
	assert.Zero(t, empty.MaxPrice)
}
