package submitter

import (
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"alsaraya/internal/domain"
)

// ManualEntryRecord carries everything staff need to re-create an order in the POS UI.
type ManualEntryRecord struct {
	PlaceholderID   string            `json:"placeholderId"`
	OrderID         uint              `json:"orderId,omitempty"`
	CustomerName    string            `json:"customerName"`
	Phone           string            `json:"phone"`
	Email           string            `json:"email,omitempty"`
	Address         string            `json:"address"`
	HouseNumber     string            `json:"houseNumber,omitempty"`
	Items           []ManualEntryItem `json:"items"`
	Total           decimal.Decimal   `json:"total"`
	Notes           string            `json:"notes,omitempty"`
	PaymentMethod   string            `json:"paymentMethod"`
	PaymentIntentID string            `json:"paymentIntentId,omitempty"`
	OrderType       string            `json:"orderType"`
	DeliveryTime    time.Time         `json:"deliveryTime"`
	Reason          string            `json:"reason"`
	CreatedAt       time.Time         `json:"createdAt"`
}

type ManualEntryItem struct {
	ProductID         int             `json:"productId"`
	Name              string          `json:"name"`
	ExternalProductID string          `json:"externalProductId,omitempty"`
	Quantity          int             `json:"quantity"`
	UnitPrice         decimal.Decimal `json:"unitPrice"`
	LineTotal         decimal.Decimal `json:"lineTotal"`
}

func newManualEntryRecord(order *domain.Order, placeholderID, phone, reason string, deliveryTime, now time.Time) ManualEntryRecord {
	items := make([]ManualEntryItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, ManualEntryItem{
			ProductID:         item.ProductID,
			Name:              item.Name,
			ExternalProductID: item.ExternalProductID.String(),
			Quantity:          item.Quantity,
			UnitPrice:         item.Price,
			LineTotal:         item.LineTotal(),
		})
	}

	total := order.Total
	if total.IsZero() {
		total = order.ComputeTotal()
	}

	return ManualEntryRecord{
		PlaceholderID:   placeholderID,
		OrderID:         order.ID,
		CustomerName:    order.CustomerName,
		Phone:           phone,
		Email:           deref(order.Email),
		Address:         order.Address,
		HouseNumber:     deref(order.HouseNumber),
		Items:           items,
		Total:           total,
		Notes:           order.Notes,
		PaymentMethod:   string(order.PaymentMethod),
		PaymentIntentID: deref(order.PaymentIntentID),
		OrderType:       string(order.OrderType),
		DeliveryTime:    deliveryTime,
		Reason:          reason,
		CreatedAt:       now,
	}
}

func (r ManualEntryRecord) fields() []zap.Field {
	return []zap.Field{
		zap.String("placeholder_id", r.PlaceholderID),
		zap.Uint("order_id", r.OrderID),
		zap.String("customer_name", r.CustomerName),
		zap.String("phone", r.Phone),
		zap.String("email", r.Email),
		zap.String("address", r.Address),
		zap.String("house_number", r.HouseNumber),
		zap.Any("items", r.Items),
		zap.String("total", r.Total.StringFixed(2)),
		zap.String("notes", r.Notes),
		zap.String("payment_method", r.PaymentMethod),
		zap.String("payment_intent_id", r.PaymentIntentID),
		zap.String("order_type", r.OrderType),
		zap.Time("delivery_time", r.DeliveryTime),
		zap.String("reason", r.Reason),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
