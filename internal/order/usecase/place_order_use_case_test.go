package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"alsaraya/internal/domain"
	apperrors "alsaraya/internal/errors"
	"alsaraya/internal/order/submitter"
)

func createDeadlockError() error {
	return &mysql.MySQLError{Number: 1213}
}

var fixedNow = time.Date(2025, 7, 1, 6, 0, 0, 0, time.UTC)

type mockOrderStore struct {
	CreateFunc           func(ctx context.Context, order *domain.Order) (uint, error)
	LoadFunc             func(ctx context.Context, id uint) (*domain.Order, error)
	RecordSubmissionFunc func(ctx context.Context, id uint, status string, externalOrderID, fallbackReason *string) error
}

func (m *mockOrderStore) Create(ctx context.Context, order *domain.Order) (uint, error) {
	return m.CreateFunc(ctx, order)
}

func (m *mockOrderStore) Load(ctx context.Context, id uint) (*domain.Order, error) {
	return m.LoadFunc(ctx, id)
}

func (m *mockOrderStore) RecordSubmission(ctx context.Context, id uint, status string, externalOrderID, fallbackReason *string) error {
	return m.RecordSubmissionFunc(ctx, id, status, externalOrderID, fallbackReason)
}

type mockSubmitter struct {
	SubmitFunc func(ctx context.Context, order *domain.Order) (submitter.Result, error)
}

func (m *mockSubmitter) Submit(ctx context.Context, order *domain.Order) (submitter.Result, error) {
	return m.SubmitFunc(ctx, order)
}

type mockStatusCache struct {
	GetFunc func(ctx context.Context, orderID uint) (*domain.OrderStatusSnapshot, error)
	SetFunc func(ctx context.Context, snap domain.OrderStatusSnapshot) error
}

func (m *mockStatusCache) Get(ctx context.Context, orderID uint) (*domain.OrderStatusSnapshot, error) {
	return m.GetFunc(ctx, orderID)
}

func (m *mockStatusCache) Set(ctx context.Context, snap domain.OrderStatusSnapshot) error {
	return m.SetFunc(ctx, snap)
}

type mockCatalog struct {
	FindByIDsFunc func(ctx context.Context, ids []int) ([]domain.Product, error)
}

func (m *mockCatalog) FindByIDs(ctx context.Context, ids []int) ([]domain.Product, error) {
	return m.FindByIDsFunc(ctx, ids)
}

func newTestUseCase(store OrderStore, sub OrderSubmitter, cache StatusCache, opts ...Option) *PlaceOrderUseCase {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewPlaceOrderUseCase(store, sub, cache, Config{CountryCode: "971", SubmitTimeout: 5 * time.Second, MaxRetryAttempts: 3}, zap.NewNop(), opts...)
}

func validOrder() *domain.Order {
	return &domain.Order{
		CustomerName:  "Ahmed Ali",
		Phone:         "050 123 4567",
		Address:       "Al Wasl Road",
		Delivery:      domain.DeliveryRequest{Strategy: domain.DeliveryTomorrow},
		OrderType:     domain.OrderTypeDelivery,
		PaymentMethod: domain.PaymentCash,
		Items: []domain.OrderItem{
			{ProductID: 1, Name: "Lamb Chops", Price: decimal.RequireFromString("45.00"), Quantity: 2, ExternalProductID: domain.NewExternalID("a1")},
			{ProductID: 2, Name: "Beef Mince", Price: decimal.RequireFromString("30.50"), Quantity: 1},
		},
	}
}

func storeReturning(id uint) *mockOrderStore {
	return &mockOrderStore{
		CreateFunc: func(ctx context.Context, order *domain.Order) (uint, error) {
			order.ID = id
			return id, nil
		},
		RecordSubmissionFunc: func(ctx context.Context, id uint, status string, externalOrderID, fallbackReason *string) error {
			return nil
		},
	}
}

func nopCache() *mockStatusCache {
	return &mockStatusCache{
		GetFunc: func(ctx context.Context, orderID uint) (*domain.OrderStatusSnapshot, error) { return nil, nil },
		SetFunc: func(ctx context.Context, snap domain.OrderStatusSnapshot) error { return nil },
	}
}

func TestPlaceOrder_Confirmed(t *testing.T) {
	var recordedStatus string
	var recordedExternal *string
	store := storeReturning(42)
	store.RecordSubmissionFunc = func(ctx context.Context, id uint, status string, externalOrderID, fallbackReason *string) error {
		assert.Equal(t, uint(42), id)
		recordedStatus = status
		recordedExternal = externalOrderID
		assert.Nil(t, fallbackReason)
		return nil
	}

	var cached domain.OrderStatusSnapshot
	cache := nopCache()
	cache.SetFunc = func(ctx context.Context, snap domain.OrderStatusSnapshot) error {
		cached = snap
		return nil
	}

	sub := &mockSubmitter{
		SubmitFunc: func(ctx context.Context, order *domain.Order) (submitter.Result, error) {
			assert.Equal(t, domain.OrderStatusNew, order.Status)
			assert.Equal(t, "+971501234567", order.Phone)
			return submitter.Confirmed{ExternalOrderID: "pos-123"}, nil
		},
	}

	uc := newTestUseCase(store, sub, cache)
	res, err := uc.PlaceOrder(context.Background(), validOrder())

	require.NoError(t, err)
	assert.Equal(t, submitter.OutcomeConfirmed, res.Result.Outcome())
	assert.Equal(t, domain.OrderStatusConfirmed, res.Order.Status)
	assert.True(t, decimal.RequireFromString("120.50").Equal(res.Order.Total))
	assert.Equal(t, domain.OrderStatusConfirmed, recordedStatus)
	require.NotNil(t, recordedExternal)
	assert.Equal(t, "pos-123", *recordedExternal)
	assert.Equal(t, uint(42), cached.OrderID)
	assert.Equal(t, "pos-123", cached.ExternalOrderID)
	assert.Equal(t, fixedNow, cached.UpdatedAt)
}

func TestPlaceOrder_FallbackRecordsReason(t *testing.T) {
	var reason *string
	store := storeReturning(7)
	store.RecordSubmissionFunc = func(ctx context.Context, id uint, status string, externalOrderID, fallbackReason *string) error {
		assert.Equal(t, domain.OrderStatusFallback, status)
		reason = fallbackReason
		return nil
	}
	sub := &mockSubmitter{
		SubmitFunc: func(ctx context.Context, order *domain.Order) (submitter.Result, error) {
			return submitter.Fallback{PlaceholderID: "FALLBACK-1751349600000", Reason: "deliveries/create: status 500"}, nil
		},
	}

	uc := newTestUseCase(store, sub, nopCache())
	res, err := uc.PlaceOrder(context.Background(), validOrder())

	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusFallback, res.Order.Status)
	require.NotNil(t, reason)
	assert.Equal(t, "deliveries/create: status 500", *reason)
	assert.Equal(t, "FALLBACK-1751349600000", *res.Order.ExternalOrderID)
}

func TestPlaceOrder_PendingWithoutID(t *testing.T) {
	sub := &mockSubmitter{
		SubmitFunc: func(ctx context.Context, order *domain.Order) (submitter.Result, error) {
			return submitter.Pending{CorrelationID: "corr-1"}, nil
		},
	}

	uc := newTestUseCase(storeReturning(3), sub, nopCache())
	res, err := uc.PlaceOrder(context.Background(), validOrder())

	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPOSPending, res.Order.Status)
	assert.Nil(t, res.Order.ExternalOrderID)
}

func TestPlaceOrder_ValidationErrorSkipsStore(t *testing.T) {
	store := &mockOrderStore{
		CreateFunc: func(ctx context.Context, order *domain.Order) (uint, error) {
			t.Fatal("invalid order must not be stored")
			return 0, nil
		},
	}

	order := validOrder()
	order.CustomerName = ""
	order.Items = nil

	uc := newTestUseCase(store, &mockSubmitter{}, nopCache())
	_, err := uc.PlaceOrder(context.Background(), order)

	ve, ok := apperrors.IsValidationError(err)
	require.True(t, ok)
	assert.Len(t, ve.Details, 2)
}

func TestPlaceOrder_StoreErrorIsReturned(t *testing.T) {
	store := &mockOrderStore{
		CreateFunc: func(ctx context.Context, order *domain.Order) (uint, error) {
			return 0, errors.New("disk full")
		},
	}
	sub := &mockSubmitter{
		SubmitFunc: func(ctx context.Context, order *domain.Order) (submitter.Result, error) {
			t.Fatal("unsaved order must not be submitted")
			return nil, nil
		},
	}

	uc := newTestUseCase(store, sub, nopCache())
	_, err := uc.PlaceOrder(context.Background(), validOrder())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestPlaceOrder_DeadlockRetry(t *testing.T) {
	calls := 0
	store := storeReturning(5)
	store.CreateFunc = func(ctx context.Context, order *domain.Order) (uint, error) {
		calls++
		if calls == 1 {
			return 0, createDeadlockError()
		}
		order.ID = 5
		return 5, nil
	}
	sub := &mockSubmitter{
		SubmitFunc: func(ctx context.Context, order *domain.Order) (submitter.Result, error) {
			return submitter.Confirmed{ExternalOrderID: "pos-5"}, nil
		},
	}

	uc := newTestUseCase(store, sub, nopCache())
	res, err := uc.PlaceOrder(context.Background(), validOrder())

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, uint(5), res.Order.ID)
}

func TestPlaceOrder_DeadlockMaxRetries(t *testing.T) {
	calls := 0
	store := &mockOrderStore{
		CreateFunc: func(ctx context.Context, order *domain.Order) (uint, error) {
			calls++
			return 0, createDeadlockError()
		},
	}

	uc := newTestUseCase(store, &mockSubmitter{}, nopCache())
	_, err := uc.PlaceOrder(context.Background(), validOrder())

	_, ok := apperrors.IsDeadlockError(err)
	assert.True(t, ok, "expected DeadlockError, got %T", err)
	assert.Equal(t, 3, calls)
}

func TestPlaceOrder_SubmitSurvivesCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	store := storeReturning(8)
	store.CreateFunc = func(c context.Context, order *domain.Order) (uint, error) {
		order.ID = 8
		cancel()
		return 8, nil
	}
	sub := &mockSubmitter{
		SubmitFunc: func(c context.Context, order *domain.Order) (submitter.Result, error) {
			assert.NoError(t, c.Err())
			_, hasDeadline := c.Deadline()
			assert.True(t, hasDeadline)
			return submitter.Confirmed{ExternalOrderID: "pos-8"}, nil
		},
	}

	uc := newTestUseCase(store, sub, nopCache())
	res, err := uc.PlaceOrder(ctx, validOrder())

	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusConfirmed, res.Order.Status)
}

func TestPlaceOrder_RecordFailureStillReturnsResult(t *testing.T) {
	store := storeReturning(9)
	store.RecordSubmissionFunc = func(ctx context.Context, id uint, status string, externalOrderID, fallbackReason *string) error {
		return errors.New("connection reset")
	}
	cache := nopCache()
	cache.SetFunc = func(ctx context.Context, snap domain.OrderStatusSnapshot) error {
		return errors.New("redis down")
	}
	sub := &mockSubmitter{
		SubmitFunc: func(ctx context.Context, order *domain.Order) (submitter.Result, error) {
			return submitter.Confirmed{ExternalOrderID: "pos-9"}, nil
		},
	}

	uc := newTestUseCase(store, sub, cache)
	res, err := uc.PlaceOrder(context.Background(), validOrder())

	require.NoError(t, err)
	assert.Equal(t, "pos-9", *res.Order.ExternalOrderID)
}

func TestPlaceOrder_CatalogFillsMissingMapping(t *testing.T) {
	catalog := &mockCatalog{
		FindByIDsFunc: func(ctx context.Context, ids []int) ([]domain.Product, error) {
			assert.Equal(t, []int{2}, ids)
			return []domain.Product{{ID: 2, Name: "Beef Mince", ExternalProductID: domain.NewExternalID("b2")}}, nil
		},
	}
	var submitted *domain.Order
	sub := &mockSubmitter{
		SubmitFunc: func(ctx context.Context, order *domain.Order) (submitter.Result, error) {
			submitted = order
			return submitter.Confirmed{ExternalOrderID: "pos-1"}, nil
		},
	}

	uc := newTestUseCase(storeReturning(1), sub, nopCache(), WithCatalog(catalog))
	_, err := uc.PlaceOrder(context.Background(), validOrder())

	require.NoError(t, err)
	assert.Equal(t, "a1", submitted.Items[0].ExternalProductID.String())
	assert.Equal(t, "b2", submitted.Items[1].ExternalProductID.String())
}

func TestPlaceOrder_CatalogFailureIsIgnored(t *testing.T) {
	catalog := &mockCatalog{
		FindByIDsFunc: func(ctx context.Context, ids []int) ([]domain.Product, error) {
			return nil, errors.New("timeout")
		},
	}
	sub := &mockSubmitter{
		SubmitFunc: func(ctx context.Context, order *domain.Order) (submitter.Result, error) {
			assert.False(t, order.Items[1].ExternalProductID.IsMapped())
			return submitter.Confirmed{ExternalOrderID: "pos-1"}, nil
		},
	}

	uc := newTestUseCase(storeReturning(1), sub, nopCache(), WithCatalog(catalog))
	_, err := uc.PlaceOrder(context.Background(), validOrder())

	require.NoError(t, err)
}

func TestGetOrder_CacheHit(t *testing.T) {
	cache := nopCache()
	cache.GetFunc = func(ctx context.Context, orderID uint) (*domain.OrderStatusSnapshot, error) {
		return &domain.OrderStatusSnapshot{OrderID: orderID, Status: domain.OrderStatusConfirmed}, nil
	}
	store := &mockOrderStore{
		LoadFunc: func(ctx context.Context, id uint) (*domain.Order, error) {
			t.Fatal("store must not be read on a cache hit")
			return nil, nil
		},
	}

	uc := newTestUseCase(store, &mockSubmitter{}, cache)
	snap, err := uc.GetOrder(context.Background(), 4)

	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusConfirmed, snap.Status)
}

func TestGetOrder_CacheMissLoadsAndCaches(t *testing.T) {
	var cached *domain.OrderStatusSnapshot
	cache := nopCache()
	cache.GetFunc = func(ctx context.Context, orderID uint) (*domain.OrderStatusSnapshot, error) {
		return nil, errors.New("redis down")
	}
	cache.SetFunc = func(ctx context.Context, snap domain.OrderStatusSnapshot) error {
		cached = &snap
		return nil
	}
	ext := "pos-4"
	store := &mockOrderStore{
		LoadFunc: func(ctx context.Context, id uint) (*domain.Order, error) {
			return &domain.Order{ID: id, Status: domain.OrderStatusConfirmed, ExternalOrderID: &ext}, nil
		},
	}

	uc := newTestUseCase(store, &mockSubmitter{}, cache)
	snap, err := uc.GetOrder(context.Background(), 4)

	require.NoError(t, err)
	assert.Equal(t, "pos-4", snap.ExternalOrderID)
	require.NotNil(t, cached)
	assert.Equal(t, uint(4), cached.OrderID)
}

func TestGetOrder_NotFound(t *testing.T) {
	store := &mockOrderStore{
		LoadFunc: func(ctx context.Context, id uint) (*domain.Order, error) {
			return nil, apperrors.NewNotFoundError("order with id 4 not found")
		},
	}

	uc := newTestUseCase(store, &mockSubmitter{}, nopCache())
	_, err := uc.GetOrder(context.Background(), 4)

	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
}
