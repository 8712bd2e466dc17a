// Package catalogue owns the authoritative in-memory collections of
// products, categories and clusters.
package catalogue

import (
	"errors"
	"sync"
	"time"

	"go-catalogue-ws/internal/model"
	"go-catalogue-ws/internal/query"
	"go-catalogue-ws/pkg/metrics"

	"go.uber.org/zap"
)

var ErrCategoryNotFound = errors.New("category not found")

// Store holds the catalogue. It does not check roles; callers gate
// mutations. Every mutation, cascades included, runs under one write lock,
// so readers never see a half-applied change.
type Store struct {
	mu         sync.RWMutex
	products   []model.Product
	categories []model.Category
	clusters   []model.Cluster
	loadedAt   time.Time

	ids      IDGenerator
	now      func() time.Time
	notifier Notifier
	log      *zap.Logger
}

type Option func(*Store)

func WithIDGenerator(g IDGenerator) Option {
	return func(s *Store) { s.ids = g }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.log = l }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		products:   []model.Product{},
		categories: []model.Category{},
		clusters:   []model.Cluster{},
		now:        func() time.Time { return time.Now().UTC() },
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ids == nil {
		s.ids = MustSnowflakeIDs(1)
	}
	return s
}

// AddProduct stores a new product with a fresh id and
// createdAt = updatedAt = now. Input is assumed to be validated.
func (s *Store) AddProduct(in model.ProductInput) model.Product {
	s.mu.Lock()
	p := model.NewProduct(s.ids.NextID(), in, s.now())
	s.products = append(s.products, p)
	s.afterWrite()
	s.mu.Unlock()

	s.publish(Event{Type: EntityProduct, Action: ActionCreated, ID: p.ID})
	return p.Clone()
}

// UpdateProduct merges patch into the product with the given id and
// refreshes updatedAt. Unknown ids are ignored and report false.
func (s *Store) UpdateProduct(id string, patch model.ProductPatch) (model.Product, bool) {
	s.mu.Lock()
	i := s.productIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return model.Product{}, false
	}
	p := s.products[i].Merge(patch, s.now())
	s.products[i] = p
	s.mu.Unlock()

	s.publish(Event{Type: EntityProduct, Action: ActionUpdated, ID: id})
	return p.Clone(), true
}

// DeleteProduct removes a product; absent ids report false.
func (s *Store) DeleteProduct(id string) bool {
	s.mu.Lock()
	i := s.productIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.products = append(s.products[:i:i], s.products[i+1:]...)
	s.afterWrite()
	s.mu.Unlock()

	s.publish(Event{Type: EntityProduct, Action: ActionDeleted, ID: id})
	return true
}

func (s *Store) AddCategory(in model.CategoryInput) model.Category {
	s.mu.Lock()
	c := model.Category{
		ID:          s.ids.NextID(),
		Name:        in.Name,
		Description: in.Description,
		Image:       in.Image,
	}
	s.categories = append(s.categories, c)
	s.afterWrite()
	s.mu.Unlock()

	s.publish(Event{Type: EntityCategory, Action: ActionCreated, ID: c.ID})
	return c
}

// DeleteCategory removes a category together with all of its clusters.
// Products pointing at a removed cluster lose that reference; their
// category reference is kept.
func (s *Store) DeleteCategory(id string) (removedClusters int, ok bool) {
	s.mu.Lock()
	i := s.categoryIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return 0, false
	}
	s.categories = append(s.categories[:i:i], s.categories[i+1:]...)

	removed := map[string]bool{}
	kept := make([]model.Cluster, 0, len(s.clusters))
	for _, k := range s.clusters {
		if k.CategoryID == id {
			removed[k.ID] = true
			continue
		}
		kept = append(kept, k)
	}
	s.clusters = kept
	s.nullifyClusters(removed)
	s.afterWrite()
	s.mu.Unlock()

	s.publish(Event{Type: EntityCategory, Action: ActionDeleted, ID: id})
	return len(removed), true
}

// AddCluster stores a cluster under an existing category.
func (s *Store) AddCluster(in model.ClusterInput) (model.Cluster, error) {
	s.mu.Lock()
	if s.categoryIndex(in.CategoryID) < 0 {
		s.mu.Unlock()
		return model.Cluster{}, ErrCategoryNotFound
	}
	k := model.Cluster{
		ID:          s.ids.NextID(),
		Name:        in.Name,
		Description: in.Description,
		CategoryID:  in.CategoryID,
	}
	s.clusters = append(s.clusters, k)
	s.afterWrite()
	s.mu.Unlock()

	s.publish(Event{Type: EntityCluster, Action: ActionCreated, ID: k.ID})
	return k, nil
}

// DeleteCluster removes a cluster and clears it from every product that
// referenced it, reporting how many products were changed.
func (s *Store) DeleteCluster(id string) (nullified int, ok bool) {
	s.mu.Lock()
	i := s.clusterIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return 0, false
	}
	s.clusters = append(s.clusters[:i:i], s.clusters[i+1:]...)
	nullified = s.nullifyClusters(map[string]bool{id: true})
	s.afterWrite()
	s.mu.Unlock()

	s.publish(Event{Type: EntityCluster, Action: ActionDeleted, ID: id})
	return nullified, true
}

// nullifyClusters must be called with the write lock held.
func (s *Store) nullifyClusters(ids map[string]bool) int {
	if len(ids) == 0 {
		return 0
	}
	now := s.now()
	n := 0
	for i := range s.products {
		if ids[s.products[i].Cluster] {
			s.products[i].Cluster = ""
			s.products[i].Touch(now)
			n++
		}
	}
	return n
}

func (s *Store) Products() []model.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Product, len(s.products))
	for i, p := range s.products {
		out[i] = p.Clone()
	}
	return out
}

func (s *Store) Product(id string) (model.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.productIndex(id); i >= 0 {
		return s.products[i].Clone(), true
	}
	return model.Product{}, false
}

func (s *Store) Categories() []model.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Category{}, s.categories...)
}

func (s *Store) Category(id string) (model.Category, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.categoryIndex(id); i >= 0 {
		return s.categories[i], true
	}
	return model.Category{}, false
}

func (s *Store) Clusters() []model.Cluster {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Cluster{}, s.clusters...)
}

func (s *Store) Cluster(id string) (model.Cluster, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.clusterIndex(id); i >= 0 {
		return s.clusters[i], true
	}
	return model.Cluster{}, false
}

// ClustersByCategory lists the clusters of one category in insertion order.
func (s *Store) ClustersByCategory(categoryID string) []model.Cluster {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Cluster{}
	for _, k := range s.clusters {
		if k.CategoryID == categoryID {
			out = append(out, k)
		}
	}
	return out
}

// Visible runs the query pipeline over the current products.
func (s *Store) Visible(f model.FilterSpec) []model.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return query.VisibleProducts(s.products, f)
}

// Facets summarises the current products.
func (s *Store) Facets() query.Facets {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return query.ComputeFacets(s.products)
}

// Snapshot returns copies of all collections taken under one read lock.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	products := make([]model.Product, len(s.products))
	for i, p := range s.products {
		products[i] = p.Clone()
	}
	return Snapshot{
		Products:   products,
		Categories: append([]model.Category{}, s.categories...),
		Clusters:   append([]model.Cluster{}, s.clusters...),
	}
}

// Stats is a point-in-time size of the store.
type Stats struct {
	Products   int       `json:"products"`
	Categories int       `json:"categories"`
	Clusters   int       `json:"clusters"`
	LoadedAt   time.Time `json:"loadedAt"`
}

func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Products:   len(s.products),
		Categories: len(s.categories),
		Clusters:   len(s.clusters),
		LoadedAt:   s.loadedAt,
	}
}

func (s *Store) productIndex(id string) int {
	for i := range s.products {
		if s.products[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) categoryIndex(id string) int {
	for i := range s.categories {
		if s.categories[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) clusterIndex(id string) int {
	for i := range s.clusters {
		if s.clusters[i].ID == id {
			return i
		}
	}
	return -1
}

// afterWrite must be called with the write lock held.
func (s *Store) afterWrite() {
	metrics.SetCatalogueSize(len(s.products), len(s.categories), len(s.clusters))
}

func (s *Store) publish(e Event) {
	if s.notifier != nil {
		s.notifier.Notify(e)
	}
}
