package catalog

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"alsaraya/internal/domain"
	"alsaraya/internal/pos"
)

type TokenProvider interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

type MenuClient interface {
	MenuByID(ctx context.Context, token, menuID string) (*pos.Menu, error)
}

type Store interface {
	ListProducts(ctx context.Context, category string) ([]domain.Product, error)
	InsertProduct(ctx context.Context, fields domain.ProductFields) (int, error)
	UpdateProduct(ctx context.Context, id int, fields domain.ProductFields) error
}

// Stats counts only operations that succeeded. Failed rows are counted apart.
type Stats struct {
	Added     int  `json:"added"`
	Updated   int  `json:"updated"`
	Unchanged int  `json:"unchanged"`
	Failed    int  `json:"failed"`
	Skipped   bool `json:"skipped,omitempty"`
}

// Reconciler mirrors the POS menu into the storefront catalog. Cycles never
// overlap: a manual trigger waits for a scheduled run to finish.
type Reconciler struct {
	tokens TokenProvider
	client MenuClient
	store  Store
	menuID string
	logger *zap.Logger
	mu     sync.Mutex
}

func NewReconciler(tokens TokenProvider, client MenuClient, store Store, menuID string, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		tokens: tokens,
		client: client,
		store:  store,
		menuID: menuID,
		logger: logger,
	}
}

// FetchMenu returns the flattened POS menu. A 401 drops the cached token.
func (r *Reconciler) FetchMenu(ctx context.Context) ([]pos.MenuProduct, error) {
	token, err := r.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	menu, err := r.client.MenuByID(ctx, token, r.menuID)
	if err != nil {
		if pos.IsUnauthorized(err) {
			r.tokens.Invalidate()
		}
		return nil, err
	}

	return pos.FlattenMenu(menu), nil
}

// Preview computes the diff without touching the catalog.
func (r *Reconciler) Preview(ctx context.Context) (*Diff, error) {
	menu, err := r.FetchMenu(ctx)
	if err != nil {
		return nil, err
	}

	products, err := r.store.ListProducts(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("listing catalog: %w", err)
	}

	diff := DiffCatalog(menu, products)
	return &diff, nil
}

// Reconcile runs one cycle. A menu or catalog read failure aborts the cycle
// before anything is written; a failed row is logged and the cycle goes on.
func (r *Reconciler) Reconcile(ctx context.Context) (Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	menu, err := r.FetchMenu(ctx)
	if err != nil {
		r.logger.Error("catalog sync aborted: menu fetch failed", zap.Error(err))
		return Stats{}, err
	}

	if len(menu) == 0 {
		r.logger.Warn("catalog sync skipped: pos menu is empty", zap.String("menuId", r.menuID))
		return Stats{Skipped: true}, nil
	}

	products, err := r.store.ListProducts(ctx, "")
	if err != nil {
		r.logger.Error("catalog sync aborted: catalog read failed", zap.Error(err))
		return Stats{}, fmt.Errorf("listing catalog: %w", err)
	}

	diff := DiffCatalog(menu, products)
	stats := Stats{Unchanged: diff.Unchanged}

	for _, add := range diff.Add {
		id, err := r.store.InsertProduct(ctx, add.Fields)
		if err != nil {
			stats.Failed++
			r.logger.Error("failed to add product",
				zap.String("externalProductId", add.ExternalProductID), zap.String("name", add.Name), zap.Error(err))
			continue
		}
		stats.Added++
		r.logger.Debug("product added", zap.Int("productId", id), zap.String("externalProductId", add.ExternalProductID))
	}

	for _, upd := range diff.Update {
		if err := r.store.UpdateProduct(ctx, upd.ProductID, upd.Fields); err != nil {
			stats.Failed++
			r.logger.Error("failed to update product",
				zap.Int("productId", upd.ProductID), zap.Strings("changed", upd.Changed), zap.Error(err))
			continue
		}
		stats.Updated++
		r.logger.Debug("product updated", zap.Int("productId", upd.ProductID), zap.Strings("changed", upd.Changed))
	}

	if len(diff.Dangling) > 0 {
		r.logger.Info("catalog rows missing from pos menu", zap.Ints("productIds", diff.Dangling))
	}

	r.logger.Info("catalog sync finished",
		zap.Int("added", stats.Added),
		zap.Int("updated", stats.Updated),
		zap.Int("unchanged", stats.Unchanged),
		zap.Int("failed", stats.Failed),
	)

	return stats, nil
}
