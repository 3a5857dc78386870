package repository

import (
	"context"
	"database/sql"
	"fmt"

	"alsaraya/internal/domain"
	"alsaraya/internal/errors"
)

type MySQLOrderRepository struct {
	db *sql.DB
}

func NewMySQLOrderRepository(db *sql.DB) *MySQLOrderRepository {
	return &MySQLOrderRepository{db: db}
}

func (r *MySQLOrderRepository) Insert(ctx context.Context, tx *sql.Tx, order *domain.Order) (uint, error) {
	query := `
		INSERT INTO Orders (customerName, phone, email, address, houseNumber, notes,
		                    deliveryStrategy, deliveryTime, orderType, paymentMethod,
		                    paymentIntentId, status, totalPrice)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := tx.ExecContext(ctx, query,
		order.CustomerName, order.Phone, order.Email, order.Address, order.HouseNumber, order.Notes,
		string(order.Delivery.Strategy), order.Delivery.At, string(order.OrderType), string(order.PaymentMethod),
		order.PaymentIntentID, order.Status, order.Total,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting order: %w", err)
	}

	lastInsertID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting last insert id: %w", err)
	}

	return uint(lastInsertID), nil
}

func (r *MySQLOrderRepository) FindByID(ctx context.Context, id uint) (*domain.Order, error) {
	query := `
		SELECT id, customerName, phone, email, address, houseNumber, notes,
		       deliveryStrategy, deliveryTime, orderType, paymentMethod, paymentIntentId,
		       status, totalPrice, externalOrderId, fallbackReason, createdAt, updatedAt
		FROM Orders
		WHERE id = ?
	`

	var (
		order                              domain.Order
		strategy, orderType, paymentMethod string
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&order.ID, &order.CustomerName, &order.Phone, &order.Email, &order.Address,
		&order.HouseNumber, &order.Notes, &strategy, &order.Delivery.At, &orderType,
		&paymentMethod, &order.PaymentIntentID, &order.Status, &order.Total,
		&order.ExternalOrderID, &order.FallbackReason, &order.CreatedAt, &order.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("order with id %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying order by id: %w", err)
	}

	order.Delivery.Strategy = domain.DeliveryStrategy(strategy)
	order.OrderType = domain.OrderType(orderType)
	order.PaymentMethod = domain.PaymentMethod(paymentMethod)

	return &order, nil
}

// UpdateSubmission records the POS outcome. externalOrderID and fallbackReason may be nil.
func (r *MySQLOrderRepository) UpdateSubmission(ctx context.Context, id uint, status string, externalOrderID, fallbackReason *string) error {
	query := `UPDATE Orders SET status = ?, externalOrderId = ?, fallbackReason = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, status, externalOrderID, fallbackReason, id)
	if err != nil {
		return fmt.Errorf("updating order submission: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("order with id %d not found", id))
	}

	return nil
}
