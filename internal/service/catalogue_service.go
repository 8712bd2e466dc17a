package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go-catalogue-ws/internal/catalogue"
	"go-catalogue-ws/internal/model"
	"go-catalogue-ws/internal/query"
	"go-catalogue-ws/internal/remote"
	"go-catalogue-ws/internal/rows"
	"go-catalogue-ws/internal/upload"
	"go-catalogue-ws/pkg/validator"

	"go.uber.org/zap"
)

var (
	ErrForbidden        = errors.New("forbidden")
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrClusterNotFound  = errors.New("cluster not found")
	ErrClusterMismatch  = errors.New("cluster does not belong to the category")
)

// ValidationError carries the failing fields of a rejected payload.
type ValidationError struct {
	Fields []*validator.ErrorResponse
}

func (e *ValidationError) Error() string {
	return "validation failed: " + validator.Message(e.Fields)
}

// Actor is the principal performing a mutation, as resolved for the
// current request.
type Actor struct {
	UID          string
	Role         model.Role
	Capabilities model.Capabilities
}

type CatalogueService interface {
	ListProducts(filter model.FilterSpec) []model.Product
	GetProduct(id string) (model.Product, error)
	Facets() query.Facets
	OwnProducts(actor Actor, filter model.FilterSpec) ([]model.Product, query.Facets, error)
	ExportCSV(w io.Writer, filter model.FilterSpec) error
	CreateProduct(actor Actor, in model.ProductInput) (model.Product, error)
	UpdateProduct(actor Actor, id string, patch model.ProductPatch) (model.Product, error)
	DeleteProduct(actor Actor, id string) error
	UploadImages(ctx context.Context, actor Actor, productID string, files []upload.File) ([]upload.Result, *model.Product, error)

	Categories() []model.Category
	CreateCategory(in model.CategoryInput) (model.Category, error)
	DeleteCategory(id string) (removedClusters int, err error)
	Clusters(categoryID string) []model.Cluster
	CreateCluster(in model.ClusterInput) (model.Cluster, error)
	DeleteCluster(id string) (nullified int, err error)

	Sync(ctx context.Context) (catalogue.Stats, error)
	Stats() catalogue.Stats
}

type catalogueService struct {
	store   *catalogue.Store
	rows    remote.RowService
	gateway *upload.Gateway
	log     *zap.Logger
}

func NewCatalogueService(store *catalogue.Store, rs remote.RowService, gateway *upload.Gateway, log *zap.Logger) CatalogueService {
	if log == nil {
		log = zap.NewNop()
	}
	return &catalogueService{store: store, rows: rs, gateway: gateway, log: log}
}

func validate(v interface{}) error {
	if errs := validator.ValidateStruct(v); len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

// sanitizeFilter normalizes f and drops a cluster that is not part of the
// category.
func (s *catalogueService) sanitizeFilter(f model.FilterSpec) model.FilterSpec {
	f = f.Normalize()
	if f.Cluster == "" {
		return f
	}
	k, ok := s.store.Cluster(f.Cluster)
	if ok && f.Category != "" && k.CategoryID != f.Category {
		f.Cluster = ""
	}
	return f
}

func (s *catalogueService) ListProducts(filter model.FilterSpec) []model.Product {
	return s.store.Visible(s.sanitizeFilter(filter))
}

func (s *catalogueService) GetProduct(id string) (model.Product, error) {
	p, ok := s.store.Product(id)
	if !ok {
		return model.Product{}, ErrProductNotFound
	}
	return p, nil
}

func (s *catalogueService) Facets() query.Facets {
	return s.store.Facets()
}

// OwnProducts lists the actor's own products through filter. The facets
// summarise all of them, regardless of the filter.
func (s *catalogueService) OwnProducts(actor Actor, filter model.FilterSpec) ([]model.Product, query.Facets, error) {
	if !actor.Capabilities.CanEditOwnProduct || actor.UID == "" {
		return nil, query.Facets{}, ErrForbidden
	}
	var own []model.Product
	for _, p := range s.store.Products() {
		if p.RetailerID == actor.UID {
			own = append(own, p)
		}
	}
	return query.VisibleProducts(own, s.sanitizeFilter(filter)), query.ComputeFacets(own), nil
}

func (s *catalogueService) ExportCSV(w io.Writer, filter model.FilterSpec) error {
	return rows.WriteProductsCSV(w, s.ListProducts(filter))
}

// checkTaxonomy verifies that category exists and, when set, that cluster
// lives inside it.
func (s *catalogueService) checkTaxonomy(category, cluster string) error {
	if _, ok := s.store.Category(category); !ok {
		return ErrCategoryNotFound
	}
	if cluster == "" {
		return nil
	}
	k, ok := s.store.Cluster(cluster)
	if !ok {
		return ErrClusterNotFound
	}
	if k.CategoryID != category {
		return ErrClusterMismatch
	}
	return nil
}

func (s *catalogueService) CreateProduct(actor Actor, in model.ProductInput) (model.Product, error) {
	if !actor.Capabilities.CanEditOwnProduct && !actor.Capabilities.CanEditAnyProduct {
		return model.Product{}, ErrForbidden
	}
	if err := validate(in); err != nil {
		return model.Product{}, err
	}
	if err := s.checkTaxonomy(in.Category, in.Cluster); err != nil {
		return model.Product{}, err
	}
	// only admins may create on behalf of another retailer
	if !actor.Capabilities.CanEditAnyProduct || in.RetailerID == "" {
		in.RetailerID = actor.UID
	}
	p := s.store.AddProduct(in)
	s.log.Info("product created", zap.String("id", p.ID), zap.String("by", actor.UID))
	return p, nil
}

func (s *catalogueService) UpdateProduct(actor Actor, id string, patch model.ProductPatch) (model.Product, error) {
	current, ok := s.store.Product(id)
	if !ok {
		return model.Product{}, ErrProductNotFound
	}
	if !actor.Capabilities.CanEditProduct(actor.UID, current.RetailerID) {
		return model.Product{}, ErrForbidden
	}
	if err := validate(patch); err != nil {
		return model.Product{}, err
	}
	if !actor.Capabilities.CanEditAnyProduct {
		patch.RetailerID = nil
	}

	merged := current.Merge(patch, current.UpdatedAt)
	if patch.Category != nil || patch.Cluster != nil {
		if err := s.checkTaxonomy(merged.Category, merged.Cluster); err != nil {
			return model.Product{}, err
		}
	}

	updated, ok := s.store.UpdateProduct(id, patch)
	if !ok {
		return model.Product{}, ErrProductNotFound
	}
	return updated, nil
}

func (s *catalogueService) DeleteProduct(actor Actor, id string) error {
	current, ok := s.store.Product(id)
	if !ok {
		return ErrProductNotFound
	}
	if !actor.Capabilities.CanEditProduct(actor.UID, current.RetailerID) {
		return ErrForbidden
	}
	if !s.store.DeleteProduct(id) {
		return ErrProductNotFound
	}
	return nil
}

// UploadImages uploads a batch. With a productID the slots already used by
// that product count against the limit and the new URLs are appended to it.
func (s *catalogueService) UploadImages(ctx context.Context, actor Actor, productID string, files []upload.File) ([]upload.Result, *model.Product, error) {
	if !actor.Capabilities.CanUploadImages {
		return nil, nil, ErrForbidden
	}

	existing := 0
	var current model.Product
	if productID != "" {
		var ok bool
		current, ok = s.store.Product(productID)
		if !ok {
			return nil, nil, ErrProductNotFound
		}
		if !actor.Capabilities.CanEditProduct(actor.UID, current.RetailerID) {
			return nil, nil, ErrForbidden
		}
		existing = len(current.Images)
	}

	results := s.gateway.UploadBatch(ctx, existing, files)
	urls := upload.URLs(results)
	if productID == "" || len(urls) == 0 {
		return results, nil, nil
	}

	images := append(current.Images, urls...)
	updated, ok := s.store.UpdateProduct(productID, model.ProductPatch{Images: &images})
	if !ok {
		return results, nil, ErrProductNotFound
	}
	return results, &updated, nil
}

func (s *catalogueService) Categories() []model.Category {
	return s.store.Categories()
}

func (s *catalogueService) CreateCategory(in model.CategoryInput) (model.Category, error) {
	if err := validate(in); err != nil {
		return model.Category{}, err
	}
	return s.store.AddCategory(in), nil
}

func (s *catalogueService) DeleteCategory(id string) (int, error) {
	removed, ok := s.store.DeleteCategory(id)
	if !ok {
		return 0, ErrCategoryNotFound
	}
	return removed, nil
}

func (s *catalogueService) Clusters(categoryID string) []model.Cluster {
	if categoryID == "" {
		return s.store.Clusters()
	}
	return s.store.ClustersByCategory(categoryID)
}

func (s *catalogueService) CreateCluster(in model.ClusterInput) (model.Cluster, error) {
	if err := validate(in); err != nil {
		return model.Cluster{}, err
	}
	k, err := s.store.AddCluster(in)
	if errors.Is(err, catalogue.ErrCategoryNotFound) {
		return model.Cluster{}, ErrCategoryNotFound
	}
	return k, err
}

func (s *catalogueService) DeleteCluster(id string) (int, error) {
	n, ok := s.store.DeleteCluster(id)
	if !ok {
		return 0, ErrClusterNotFound
	}
	return n, nil
}

// Sync reloads the catalogue from the row service. On failure the current
// data is kept and the error is returned for reporting.
func (s *catalogueService) Sync(ctx context.Context) (catalogue.Stats, error) {
	if err := s.store.Load(ctx, s.rows); err != nil {
		return s.store.Stats(), fmt.Errorf("sync: %w", err)
	}
	stats := s.store.Stats()
	s.log.Info("catalogue synced",
		zap.Int("products", stats.Products),
		zap.Int("categories", stats.Categories),
		zap.Int("clusters", stats.Clusters))
	return stats, nil
}

func (s *catalogueService) Stats() catalogue.Stats {
	return s.store.Stats()
}
