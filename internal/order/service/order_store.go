package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"alsaraya/internal/domain"
)

type TransactionManager interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

type OrderRepository interface {
	Insert(ctx context.Context, tx *sql.Tx, order *domain.Order) (uint, error)
	FindByID(ctx context.Context, id uint) (*domain.Order, error)
	UpdateSubmission(ctx context.Context, id uint, status string, externalOrderID, fallbackReason *string) error
}

type OrderItemRepository interface {
	Insert(ctx context.Context, tx *sql.Tx, item domain.OrderItem) (uint, error)
	FindByOrderID(ctx context.Context, orderID uint) ([]domain.OrderItem, error)
}

// OrderStore persists an order and its lines atomically.
type OrderStore struct {
	db            TransactionManager
	orderRepo     OrderRepository
	orderItemRepo OrderItemRepository
	txTimeout     time.Duration
	logger        *zap.Logger
}

func NewOrderStore(
	db TransactionManager,
	orderRepo OrderRepository,
	orderItemRepo OrderItemRepository,
	txTimeout time.Duration,
	logger *zap.Logger,
) *OrderStore {
	if txTimeout <= 0 {
		txTimeout = 5 * time.Second
	}
	return &OrderStore{
		db:            db,
		orderRepo:     orderRepo,
		orderItemRepo: orderItemRepo,
		txTimeout:     txTimeout,
		logger:        logger,
	}
}

// Create writes the order header and every item in one transaction and
// stamps the generated ids back onto order.
func (s *OrderStore) Create(ctx context.Context, order *domain.Order) (uint, error) {
	txCtx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(txCtx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		s.logger.Error("failed to begin transaction", zap.Error(err))
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	// MySQL ignores rollback if already committed.
	defer tx.Rollback()

	orderID, err := s.orderRepo.Insert(txCtx, tx, order)
	if err != nil {
		return 0, err
	}

	for i := range order.Items {
		item := order.Items[i]
		item.OrderID = orderID
		itemID, err := s.orderItemRepo.Insert(txCtx, tx, item)
		if err != nil {
			s.logger.Error("failed to insert order item",
				zap.Uint("orderId", orderID), zap.Int("productId", item.ProductID), zap.Error(err))
			return 0, err
		}
		item.ID = itemID
		order.Items[i] = item
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("failed to commit transaction", zap.Uint("orderId", orderID), zap.Error(err))
		return 0, fmt.Errorf("committing order: %w", err)
	}

	order.ID = orderID
	s.logger.Info("order stored",
		zap.Uint("orderId", orderID), zap.Int("itemCount", len(order.Items)), zap.String("total", order.Total.StringFixed(2)))

	return orderID, nil
}

// Load returns the order with its items.
func (s *OrderStore) Load(ctx context.Context, id uint) (*domain.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	items, err := s.orderItemRepo.FindByOrderID(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

func (s *OrderStore) RecordSubmission(ctx context.Context, id uint, status string, externalOrderID, fallbackReason *string) error {
	return s.orderRepo.UpdateSubmission(ctx, id, status, externalOrderID, fallbackReason)
}
