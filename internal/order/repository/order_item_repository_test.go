package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alsaraya/internal/domain"
	"alsaraya/internal/testutil"
)

// Unit Tests

func TestNewMySQLOrderItemRepository(t *testing.T) {
	db := &sql.DB{}
	repo := NewMySQLOrderItemRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

// Integration Tests

func TestOrderItemRepository_InsertAndFind(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	orderRepo := NewMySQLOrderRepository(db)
	itemRepo := NewMySQLOrderItemRepository(db)

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)

	orderID, err := orderRepo.Insert(context.Background(), tx, &domain.Order{
		CustomerName:  "Noura",
		Phone:         "+971500000002",
		Address:       "Deira",
		OrderType:     domain.OrderTypeDelivery,
		PaymentMethod: domain.PaymentCash,
		Status:        domain.OrderStatusNew,
		Total:         decimal.NewFromInt(150),
	})
	require.NoError(t, err)

	items := []domain.OrderItem{
		{OrderID: orderID, ProductID: 5, Name: "Lamb Chops", Quantity: 2, Price: decimal.NewFromInt(55), ExternalProductID: domain.NewExternalID("ext-5")},
		{OrderID: orderID, ProductID: 6, Name: "Camel Steak", Quantity: 1, Price: decimal.NewFromInt(40)},
	}
	for _, item := range items {
		itemID, err := itemRepo.Insert(context.Background(), tx, item)
		require.NoError(t, err)
		assert.Greater(t, itemID, uint(0))
	}
	require.NoError(t, tx.Commit())

	found, err := itemRepo.FindByOrderID(context.Background(), orderID)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "ext-5", found[0].ExternalProductID.String())
	assert.False(t, found[1].ExternalProductID.IsMapped())
	assert.True(t, decimal.NewFromInt(55).Equal(found[0].Price))
}

func TestOrderItemRepository_Insert_RollbackOnTxFailure(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	itemRepo := NewMySQLOrderItemRepository(db)

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)

	_, err = itemRepo.Insert(context.Background(), tx, domain.OrderItem{OrderID: 9999999, ProductID: 1, Name: "Orphan", Quantity: 1})
	assert.Error(t, err)
	require.NoError(t, tx.Rollback())
}
