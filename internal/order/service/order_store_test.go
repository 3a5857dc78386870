package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"alsaraya/internal/domain"
	apperrors "alsaraya/internal/errors"
	"alsaraya/internal/order/repository"
	"alsaraya/internal/testutil"
)

type mockTransactionManager struct {
	BeginTxFunc func(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

func (m *mockTransactionManager) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	return m.BeginTxFunc(ctx, opts)
}

type mockOrderRepository struct {
	InsertFunc           func(ctx context.Context, tx *sql.Tx, order *domain.Order) (uint, error)
	FindByIDFunc         func(ctx context.Context, id uint) (*domain.Order, error)
	UpdateSubmissionFunc func(ctx context.Context, id uint, status string, externalOrderID, fallbackReason *string) error
}

func (m *mockOrderRepository) Insert(ctx context.Context, tx *sql.Tx, order *domain.Order) (uint, error) {
	return m.InsertFunc(ctx, tx, order)
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id uint) (*domain.Order, error) {
	return m.FindByIDFunc(ctx, id)
}

func (m *mockOrderRepository) UpdateSubmission(ctx context.Context, id uint, status string, externalOrderID, fallbackReason *string) error {
	return m.UpdateSubmissionFunc(ctx, id, status, externalOrderID, fallbackReason)
}

type mockOrderItemRepository struct {
	InsertFunc        func(ctx context.Context, tx *sql.Tx, item domain.OrderItem) (uint, error)
	FindByOrderIDFunc func(ctx context.Context, orderID uint) ([]domain.OrderItem, error)
}

func (m *mockOrderItemRepository) Insert(ctx context.Context, tx *sql.Tx, item domain.OrderItem) (uint, error) {
	return m.InsertFunc(ctx, tx, item)
}

func (m *mockOrderItemRepository) FindByOrderID(ctx context.Context, orderID uint) ([]domain.OrderItem, error) {
	return m.FindByOrderIDFunc(ctx, orderID)
}

func TestNewOrderStore_DefaultsTimeout(t *testing.T) {
	store := NewOrderStore(&mockTransactionManager{}, &mockOrderRepository{}, &mockOrderItemRepository{}, 0, zap.NewNop())

	assert.Equal(t, 5*time.Second, store.txTimeout)
}

func TestCreate_BeginTxError(t *testing.T) {
	txMgr := &mockTransactionManager{
		BeginTxFunc: func(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)
			return nil, errors.New("connection refused")
		},
	}
	orderRepo := &mockOrderRepository{
		InsertFunc: func(ctx context.Context, tx *sql.Tx, order *domain.Order) (uint, error) {
			t.Fatal("insert must not run without a transaction")
			return 0, nil
		},
	}

	store := NewOrderStore(txMgr, orderRepo, &mockOrderItemRepository{}, time.Second, zap.NewNop())
	id, err := store.Create(context.Background(), &domain.Order{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Zero(t, id)
}

func TestLoad_AttachesItems(t *testing.T) {
	orderRepo := &mockOrderRepository{
		FindByIDFunc: func(ctx context.Context, id uint) (*domain.Order, error) {
			return &domain.Order{ID: id, Status: domain.OrderStatusConfirmed}, nil
		},
	}
	itemRepo := &mockOrderItemRepository{
		FindByOrderIDFunc: func(ctx context.Context, orderID uint) ([]domain.OrderItem, error) {
			return []domain.OrderItem{{ID: 1, OrderID: orderID, Quantity: 2}}, nil
		},
	}

	store := NewOrderStore(&mockTransactionManager{}, orderRepo, itemRepo, time.Second, zap.NewNop())
	order, err := store.Load(context.Background(), 9)

	require.NoError(t, err)
	assert.Equal(t, uint(9), order.ID)
	require.Len(t, order.Items, 1)
	assert.Equal(t, uint(9), order.Items[0].OrderID)
}

func TestLoad_NotFound(t *testing.T) {
	orderRepo := &mockOrderRepository{
		FindByIDFunc: func(ctx context.Context, id uint) (*domain.Order, error) {
			return nil, apperrors.NewNotFoundError("order with id 9 not found")
		},
	}
	itemRepo := &mockOrderItemRepository{
		FindByOrderIDFunc: func(ctx context.Context, orderID uint) ([]domain.OrderItem, error) {
			t.Fatal("items must not be loaded for a missing order")
			return nil, nil
		},
	}

	store := NewOrderStore(&mockTransactionManager{}, orderRepo, itemRepo, time.Second, zap.NewNop())
	_, err := store.Load(context.Background(), 9)

	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestRecordSubmission_Delegates(t *testing.T) {
	var gotStatus string
	var gotExternal *string
	orderRepo := &mockOrderRepository{
		UpdateSubmissionFunc: func(ctx context.Context, id uint, status string, externalOrderID, fallbackReason *string) error {
			gotStatus = status
			gotExternal = externalOrderID
			return nil
		},
	}

	ext := "pos-1"
	store := NewOrderStore(&mockTransactionManager{}, orderRepo, &mockOrderItemRepository{}, time.Second, zap.NewNop())
	err := store.RecordSubmission(context.Background(), 3, domain.OrderStatusConfirmed, &ext, nil)

	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusConfirmed, gotStatus)
	assert.Equal(t, "pos-1", *gotExternal)
}

// Integration Tests

func TestCreate_PersistsOrderAndItems(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	store := NewOrderStore(db, repository.NewMySQLOrderRepository(db), repository.NewMySQLOrderItemRepository(db), 5*time.Second, zap.NewNop())

	order := &domain.Order{
		CustomerName:  "Ahmed Ali",
		Phone:         "+971501234567",
		Address:       "Al Wasl Road",
		Delivery:      domain.DeliveryRequest{Strategy: domain.DeliveryTomorrow},
		OrderType:     domain.OrderTypeDelivery,
		PaymentMethod: domain.PaymentCash,
		Status:        domain.OrderStatusNew,
		Total:         decimal.RequireFromString("90.00"),
		Items: []domain.OrderItem{
			{ProductID: 1, Name: "Lamb Chops", Price: decimal.RequireFromString("45.00"), Quantity: 2, ExternalProductID: domain.NewExternalID("a1")},
		},
	}

	id, err := store.Create(context.Background(), order)
	require.NoError(t, err)
	assert.NotZero(t, id)
	assert.Equal(t, id, order.ID)
	assert.NotZero(t, order.Items[0].ID)

	loaded, err := store.Load(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Ahmed Ali", loaded.CustomerName)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, "a1", loaded.Items[0].ExternalProductID.String())
}
