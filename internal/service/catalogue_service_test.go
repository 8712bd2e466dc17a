package service

import (
	"context"
	"testing"

	"go-catalogue-ws/internal/catalogue"
	"go-catalogue-ws/internal/model"
	"go-catalogue-ws/internal/remote"
	"go-catalogue-ws/internal/upload"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngData = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)

type okHost struct{}

func (okHost) Upload(_ context.Context, name, _ string, _ []byte) (string, error) {
	return "https://media.example/" + name, nil
}

func actor(uid string, role model.Role) Actor {
	return Actor{UID: uid, Role: role, Capabilities: model.CapabilitiesFor(role)}
}

func newCatalogue(t *testing.T) (CatalogueService, model.Category, model.Cluster) {
	t.Helper()
	store := catalogue.NewStore()
	svc := NewCatalogueService(store, remote.Unconfigured{}, upload.NewGateway(okHost{}, nil), nil)

	cat, err := svc.CreateCategory(model.CategoryInput{Name: "Ceramics"})
	require.NoError(t, err)
	k, err := svc.CreateCluster(model.ClusterInput{Name: "Glazed", CategoryID: cat.ID})
	require.NoError(t, err)
	return svc, cat, k
}

func TestListProducts_DropsClusterOutsideCategory(t *testing.T) {
	svc, cat, k := newCatalogue(t)
	other, err := svc.CreateCategory(model.CategoryInput{Name: "Textiles"})
	require.NoError(t, err)

	_, err = svc.CreateProduct(actor("r1", model.RoleRetailer), model.ProductInput{
		Name: "Bowl", Category: cat.ID, Cluster: k.ID, Price: 12,
	})
	require.NoError(t, err)

	f := model.DefaultFilter()
	f.Category = cat.ID
	f.Cluster = k.ID
	assert.Len(t, svc.ListProducts(f), 1)

	// a stale cluster from another category is ignored, not an empty result
	f.Category = other.ID
	assert.Empty(t, svc.ListProducts(f))
	f.Category = ""
	assert.Len(t, svc.ListProducts(f), 1)
}

func TestCreateProduct_Ownership(t *testing.T) {
	svc, cat, k := newCatalogue(t)
	in := model.ProductInput{Name: "Vase", Category: cat.ID, Cluster: k.ID, Price: 30, RetailerID: "someone-else"}

	p, err := svc.CreateProduct(actor("r1", model.RoleRetailer), in)
	require.NoError(t, err)
	assert.Equal(t, "r1", p.RetailerID)

	p, err = svc.CreateProduct(actor("a1", model.RoleAdmin), in)
	require.NoError(t, err)
	assert.Equal(t, "someone-else", p.RetailerID)

	_, err = svc.CreateProduct(actor("c1", model.RoleCustomer), in)
	assert.ErrorIs(t, err, ErrForbidden)

	other, err := svc.CreateCategory(model.CategoryInput{Name: "Other"})
	require.NoError(t, err)
	in.Category = other.ID
	_, err = svc.CreateProduct(actor("r1", model.RoleRetailer), in)
	assert.ErrorIs(t, err, ErrClusterMismatch)
}

func TestUpdateProduct_RetailerCannotReassign(t *testing.T) {
	svc, cat, k := newCatalogue(t)
	p, err := svc.CreateProduct(actor("r1", model.RoleRetailer), model.ProductInput{
		Name: "Cup", Category: cat.ID, Cluster: k.ID, Price: 8,
	})
	require.NoError(t, err)

	thief := "r2"
	price := 9.5
	updated, err := svc.UpdateProduct(actor("r1", model.RoleRetailer), p.ID, model.ProductPatch{Price: &price, RetailerID: &thief})
	require.NoError(t, err)
	assert.Equal(t, 9.5, updated.Price)
	assert.Equal(t, "r1", updated.RetailerID)

	_, err = svc.UpdateProduct(actor("r2", model.RoleRetailer), p.ID, model.ProductPatch{Price: &price})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, svc.DeleteProduct(actor("r2", model.RoleRetailer), p.ID), ErrForbidden)
	_, err = svc.UpdateProduct(actor("r1", model.RoleRetailer), "nope", model.ProductPatch{})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestUploadImages_AppendsToProduct(t *testing.T) {
	svc, cat, k := newCatalogue(t)
	p, err := svc.CreateProduct(actor("r1", model.RoleRetailer), model.ProductInput{
		Name: "Plate", Category: cat.ID, Cluster: k.ID, Price: 15,
		Images: []string{"https://media.example/a.png", "https://media.example/b.png", "https://media.example/c.png", "https://media.example/d.png"},
	})
	require.NoError(t, err)

	files := []upload.File{
		{Name: "e.png", ContentType: "image/png", Data: pngData},
		{Name: "f.png", ContentType: "image/png", Data: pngData},
	}
	results, updated, err := svc.UploadImages(context.Background(), actor("r1", model.RoleRetailer), p.ID, files)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, upload.ErrTooManyImages)
	require.NotNil(t, updated)
	assert.Len(t, updated.Images, 5)

	_, _, err = svc.UploadImages(context.Background(), actor("c1", model.RoleCustomer), p.ID, files)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestSync_Unconfigured(t *testing.T) {
	svc, _, _ := newCatalogue(t)
	stats, err := svc.Sync(context.Background())
	assert.ErrorIs(t, err, remote.ErrNotConfigured)
	assert.Equal(t, 1, stats.Categories)
	assert.Equal(t, 1, stats.Clusters)
}

func TestOwnProducts(t *testing.T) {
	svc, cat, k := newCatalogue(t)
	for _, uid := range []string{"r1", "r1", "r2"} {
		_, err := svc.CreateProduct(actor(uid, model.RoleRetailer), model.ProductInput{
			Name: "Jug", Category: cat.ID, Cluster: k.ID, Price: 20, Available: uid == "r1",
		})
		require.NoError(t, err)
	}

	products, facets, err := svc.OwnProducts(actor("r1", model.RoleRetailer), model.DefaultFilter())
	require.NoError(t, err)
	assert.Len(t, products, 2)
	assert.Equal(t, 2, facets.Available)
	assert.Equal(t, 0, facets.Unavailable)

	_, _, err = svc.OwnProducts(actor("c1", model.RoleCustomer), model.DefaultFilter())
	assert.ErrorIs(t, err, ErrForbidden)
	_, _, err = svc.OwnProducts(actor("", model.RoleRetailer), model.DefaultFilter())
	assert.ErrorIs(t, err, ErrForbidden)
}
