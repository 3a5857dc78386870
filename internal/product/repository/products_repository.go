package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"alsaraya/internal/domain"
	"alsaraya/internal/errors"
)

const productColumns = `id, name, COALESCE(description, ''), price, category,
		       externalProductId, externalCategoryId, createdAt, updatedAt`

type MySQLRepository struct {
	db *sql.DB
}

func NewMySQLRepository(db *sql.DB) *MySQLRepository {
	return &MySQLRepository{db: db}
}

// ListProducts returns the catalog ordered by category and name. An empty
// category lists everything.
func (r *MySQLRepository) ListProducts(ctx context.Context, category string) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM Product`
	var args []interface{}
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY category, name, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

func (r *MySQLRepository) FindByIDs(ctx context.Context, ids []int) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, 0, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args = append(args, id)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM Product
		WHERE id IN (%s)
		ORDER BY id`,
		productColumns, strings.Join(placeholders, ", "),
	)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying products by ids: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

func (r *MySQLRepository) InsertProduct(ctx context.Context, fields domain.ProductFields) (int, error) {
	query := `
		INSERT INTO Product (name, description, price, category, externalProductId, externalCategoryId)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		fields.Name, fields.Description, fields.Price, fields.Category,
		fields.ExternalProductID, fields.ExternalCategoryID,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting product: %w", err)
	}

	lastInsertID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting last insert id: %w", err)
	}

	return int(lastInsertID), nil
}

func (r *MySQLRepository) UpdateProduct(ctx context.Context, id int, fields domain.ProductFields) error {
	query := `
		UPDATE Product
		SET name = ?, description = ?, price = ?, category = ?,
		    externalProductId = ?, externalCategoryId = ?, updatedAt = NOW()
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		fields.Name, fields.Description, fields.Price, fields.Category,
		fields.ExternalProductID, fields.ExternalCategoryID, id,
	)
	if err != nil {
		return fmt.Errorf("updating product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("product with id %d not found", id))
	}

	return nil
}

func scanProducts(rows *sql.Rows) ([]domain.Product, error) {
	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		err := rows.Scan(
			&p.ID, &p.Name, &p.Description, &p.Price, &p.Category,
			&p.ExternalProductID, &p.ExternalCategoryID, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning product row: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating product rows: %w", err)
	}

	return products, nil
}
