package usecase

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"alsaraya/internal/domain"
	apperrors "alsaraya/internal/errors"
	"alsaraya/internal/order/submitter"
	"alsaraya/internal/order/translator"
)

type OrderStore interface {
	Create(ctx context.Context, order *domain.Order) (uint, error)
	Load(ctx context.Context, id uint) (*domain.Order, error)
	RecordSubmission(ctx context.Context, id uint, status string, externalOrderID, fallbackReason *string) error
}

type OrderSubmitter interface {
	Submit(ctx context.Context, order *domain.Order) (submitter.Result, error)
}

type StatusCache interface {
	Get(ctx context.Context, orderID uint) (*domain.OrderStatusSnapshot, error)
	Set(ctx context.Context, snap domain.OrderStatusSnapshot) error
}

// ProductCatalog fills in POS mappings the storefront cart did not carry.
type ProductCatalog interface {
	FindByIDs(ctx context.Context, ids []int) ([]domain.Product, error)
}

type Config struct {
	CountryCode      string
	SubmitTimeout    time.Duration
	MaxRetryAttempts int
}

type PlaceOrderResult struct {
	Order  *domain.Order
	Result submitter.Result
}

type PlaceOrderUseCase struct {
	store     OrderStore
	submitter OrderSubmitter
	cache     StatusCache
	catalog   ProductCatalog
	cfg       Config
	now       func() time.Time
	logger    *zap.Logger
}

type Option func(*PlaceOrderUseCase)

func WithCatalog(catalog ProductCatalog) Option {
	return func(uc *PlaceOrderUseCase) {
		uc.catalog = catalog
	}
}

func WithClock(now func() time.Time) Option {
	return func(uc *PlaceOrderUseCase) {
		uc.now = now
	}
}

func NewPlaceOrderUseCase(
	store OrderStore,
	sub OrderSubmitter,
	cache StatusCache,
	cfg Config,
	logger *zap.Logger,
	opts ...Option,
) *PlaceOrderUseCase {
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = 60 * time.Second
	}
	if cfg.MaxRetryAttempts <= 0 {
		cfg.MaxRetryAttempts = 3
	}
	uc := &PlaceOrderUseCase{
		store:     store,
		submitter: sub,
		cache:     cache,
		cfg:       cfg,
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// PlaceOrder stores the order, hands it to the POS and records the outcome.
// Once the order is stored the caller always gets a result, even when the
// status update afterwards fails.
func (uc *PlaceOrderUseCase) PlaceOrder(ctx context.Context, order *domain.Order) (*PlaceOrderResult, error) {
	uc.logger.Info("place order started",
		zap.String("customer", order.CustomerName), zap.Int("itemCount", len(order.Items)))

	if err := order.Validate(); err != nil {
		return nil, err
	}

	uc.applyCatalog(ctx, order)

	order.Phone = translator.NormalizePhone(order.Phone, uc.cfg.CountryCode)
	order.Total = order.ComputeTotal()
	order.Status = domain.OrderStatusNew

	if _, err := uc.createWithRetry(ctx, order); err != nil {
		return nil, err
	}

	// The POS call must outlive a disconnecting client or a shutting down server.
	submitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.cfg.SubmitTimeout)
	defer cancel()

	result, err := uc.submitter.Submit(submitCtx, order)
	if err != nil {
		return nil, err
	}

	order.Status = result.Status()
	order.UpdatedAt = uc.now().UTC()
	switch r := result.(type) {
	case submitter.Confirmed:
		order.ExternalOrderID = &r.ExternalOrderID
	case submitter.Pending:
		if r.ExternalOrderID != "" {
			order.ExternalOrderID = &r.ExternalOrderID
		}
	case submitter.Fallback:
		order.ExternalOrderID = &r.PlaceholderID
		order.FallbackReason = &r.Reason
	}

	if err := uc.store.RecordSubmission(submitCtx, order.ID, order.Status, order.ExternalOrderID, order.FallbackReason); err != nil {
		uc.logger.Error("failed to record submission outcome",
			zap.Uint("orderId", order.ID), zap.String("status", order.Status), zap.Error(err))
	}

	if err := uc.cache.Set(submitCtx, order.Snapshot()); err != nil {
		uc.logger.Warn("failed to cache order status", zap.Uint("orderId", order.ID), zap.Error(err))
	}

	uc.logger.Info("place order finished",
		zap.Uint("orderId", order.ID), zap.String("outcome", string(result.Outcome())), zap.String("status", order.Status))

	return &PlaceOrderResult{Order: order, Result: result}, nil
}

// GetOrder serves the status view, preferring the cache.
func (uc *PlaceOrderUseCase) GetOrder(ctx context.Context, id uint) (*domain.OrderStatusSnapshot, error) {
	snap, err := uc.cache.Get(ctx, id)
	if err != nil {
		uc.logger.Warn("status cache read failed", zap.Uint("orderId", id), zap.Error(err))
	}
	if snap != nil {
		return snap, nil
	}

	order, err := uc.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	fresh := order.Snapshot()
	if err := uc.cache.Set(ctx, fresh); err != nil {
		uc.logger.Warn("failed to cache order status", zap.Uint("orderId", id), zap.Error(err))
	}
	return &fresh, nil
}

// applyCatalog copies the stored POS mapping onto lines that arrived without one.
// A catalog failure leaves the lines untouched; the submitter falls back if needed.
func (uc *PlaceOrderUseCase) applyCatalog(ctx context.Context, order *domain.Order) {
	if uc.catalog == nil {
		return
	}

	var ids []int
	for _, item := range order.Items {
		if !item.ExternalProductID.IsMapped() && item.ProductID > 0 {
			ids = append(ids, item.ProductID)
		}
	}
	if len(ids) == 0 {
		return
	}

	products, err := uc.catalog.FindByIDs(ctx, ids)
	if err != nil {
		uc.logger.Warn("catalog lookup failed", zap.Ints("productIds", ids), zap.Error(err))
		return
	}

	byID := make(map[int]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	for i, item := range order.Items {
		p, ok := byID[item.ProductID]
		if !ok || item.ExternalProductID.IsMapped() {
			continue
		}
		order.Items[i].ExternalProductID = p.ExternalProductID
		if item.Name == "" {
			order.Items[i].Name = p.Name
		}
	}
}

func (uc *PlaceOrderUseCase) createWithRetry(ctx context.Context, order *domain.Order) (uint, error) {
	maxAttempts := uc.cfg.MaxRetryAttempts
	backoffs := []time.Duration{50 * time.Millisecond, 100 * time.Millisecond, 200 * time.Millisecond}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		id, err := uc.store.Create(ctx, order)
		if err == nil {
			return id, nil
		}

		if !isDeadlockError(err) {
			return 0, err
		}
		if attempt == maxAttempts {
			break
		}

		base := backoffs[min(attempt-1, len(backoffs)-1)]
		// ±20% jitter
		jitter := time.Duration(float64(base) * (rand.Float64()*0.4 - 0.2))
		uc.logger.Warn("deadlock detected, retrying", zap.Int("attempt", attempt), zap.Int("maxAttempts", maxAttempts))

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(base + jitter):
		}
	}

	return 0, apperrors.NewDeadlockError("max retries exceeded")
}

func isDeadlockError(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1213 || mysqlErr.Number == 1205
	}
	return false
}
