package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alsaraya/internal/domain"
	apperrors "alsaraya/internal/errors"
	"alsaraya/internal/testutil"
)

// Unit Tests

func TestNewMySQLRepository(t *testing.T) {
	db := &sql.DB{}
	repo := NewMySQLRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

func TestFindByIDs_EmptyListSkipsQuery(t *testing.T) {
	repo := NewMySQLRepository(nil)

	products, err := repo.FindByIDs(context.Background(), []int{})
	require.NoError(t, err)
	assert.Nil(t, products)
}

// Integration Tests

func seedProducts(t *testing.T, db *sql.DB) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO Product (id, name, description, price, category, externalProductId, externalCategoryId)
		VALUES (1, 'Lamb Chops', 'Fresh', 45.00, 'Lamb', 'a1', 'c1'),
		       (2, 'Beef Mince', NULL, 30.50, 'Beef', 'b2', 'c2'),
		       (3, 'Gift Card', 'Store only', 100.00, 'Other', NULL, NULL)
	`)
	require.NoError(t, err)
}

func TestRepository_ListProducts_All(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)
	seedProducts(t, db)

	repo := NewMySQLRepository(db)
	products, err := repo.ListProducts(context.Background(), "")

	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, "Beef", products[0].Category)
	assert.Equal(t, "", products[0].Description)
	assert.False(t, products[2].ExternalProductID.IsMapped())
}

func TestRepository_ListProducts_ByCategory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)
	seedProducts(t, db)

	repo := NewMySQLRepository(db)
	products, err := repo.ListProducts(context.Background(), "Lamb")

	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "a1", products[0].ExternalProductID.String())
	assert.True(t, decimal.RequireFromString("45").Equal(products[0].Price))
}

func TestRepository_FindByIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)
	seedProducts(t, db)

	repo := NewMySQLRepository(db)
	products, err := repo.FindByIDs(context.Background(), []int{1, 3, 99})

	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, 1, products[0].ID)
	assert.Equal(t, 3, products[1].ID)
}

func TestRepository_InsertAndUpdateProduct(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	repo := NewMySQLRepository(db)
	categoryID := "c9"
	fields := domain.ProductFields{
		Name:               "Goat Leg",
		Description:        "Whole leg",
		Price:              decimal.RequireFromString("80.00"),
		Category:           "Goat",
		ExternalProductID:  domain.NewExternalID("g9"),
		ExternalCategoryID: &categoryID,
	}

	id, err := repo.InsertProduct(context.Background(), fields)
	require.NoError(t, err)
	assert.NotZero(t, id)

	fields.Price = decimal.RequireFromString("85.00")
	require.NoError(t, repo.UpdateProduct(context.Background(), id, fields))

	products, err := repo.FindByIDs(context.Background(), []int{id})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.True(t, decimal.RequireFromString("85").Equal(products[0].Price))
	require.NotNil(t, products[0].ExternalCategoryID)
	assert.Equal(t, "c9", *products[0].ExternalCategoryID)
}

func TestRepository_UpdateProduct_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	repo := NewMySQLRepository(db)
	err := repo.UpdateProduct(context.Background(), 999, domain.ProductFields{Name: "x", Category: "y"})

	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
}
