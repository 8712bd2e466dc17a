package catalogue

import (
	"context"
	"fmt"

	"go-catalogue-ws/internal/model"
	"go-catalogue-ws/internal/remote"
	"go-catalogue-ws/internal/rows"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Snapshot is a full set of collections, as fetched from the row service.
type Snapshot struct {
	Products   []model.Product
	Categories []model.Category
	Clusters   []model.Cluster
}

// invalidator is implemented by caching row services.
type invalidator interface {
	Invalidate(ctx context.Context, sheet string)
}

// Load fetches Products, Categories and Clusters in parallel and replaces
// the collections in one step. On any failure the current data stays in
// place and the error is returned.
func (s *Store) Load(ctx context.Context, rs remote.RowService) error {
	if inv, ok := rs.(invalidator); ok {
		for _, sheet := range []string{rows.SheetProducts, rows.SheetCategories, rows.SheetClusters} {
			inv.Invalidate(ctx, sheet)
		}
	}

	var productRows, categoryRows, clusterRows []rows.Row
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		productRows, err = rs.GetAll(gctx, rows.SheetProducts)
		return err
	})
	g.Go(func() error {
		var err error
		categoryRows, err = rs.GetAll(gctx, rows.SheetCategories)
		return err
	})
	g.Go(func() error {
		var err error
		clusterRows, err = rs.GetAll(gctx, rows.SheetClusters)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Warn("catalogue fetch failed, keeping current data", zap.Error(err))
		return fmt.Errorf("load catalogue: %w", err)
	}

	dropped := s.Replace(Snapshot{
		Products:   rows.ToProducts(productRows),
		Categories: rows.ToCategories(categoryRows),
		Clusters:   rows.ToClusters(clusterRows),
	})
	if dropped > 0 {
		s.log.Warn("dropped clusters without a category", zap.Int("count", dropped))
	}
	return nil
}

// Replace swaps all collections at once. Clusters whose category is not in
// the snapshot are dropped; the count of dropped clusters is returned.
func (s *Store) Replace(snap Snapshot) (droppedClusters int) {
	products := make([]model.Product, 0, len(snap.Products))
	for _, p := range snap.Products {
		products = append(products, p.Clone())
	}
	categories := append([]model.Category{}, snap.Categories...)

	known := make(map[string]bool, len(categories))
	for _, c := range categories {
		known[c.ID] = true
	}
	clusters := make([]model.Cluster, 0, len(snap.Clusters))
	for _, k := range snap.Clusters {
		if !known[k.CategoryID] {
			droppedClusters++
			continue
		}
		clusters = append(clusters, k)
	}

	s.mu.Lock()
	s.products = products
	s.categories = categories
	s.clusters = clusters
	s.loadedAt = s.now()
	s.afterWrite()
	s.mu.Unlock()

	s.publish(Event{Type: EntityCatalogue, Action: ActionLoaded})
	return droppedClusters
}
