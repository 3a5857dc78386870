package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "alsaraya/internal/errors"
)

const (
	OrderStatusNew        = "NEW"
	OrderStatusConfirmed  = "CONFIRMED"
	OrderStatusPOSPending = "POS_PENDING"
	OrderStatusFallback   = "FALLBACK"
)

type DeliveryStrategy string

const (
	DeliveryASAP     DeliveryStrategy = "asap"
	DeliveryToday    DeliveryStrategy = "today"
	DeliveryTomorrow DeliveryStrategy = "tomorrow"
	DeliveryCustom   DeliveryStrategy = "custom"
)

// ParseDeliveryStrategy maps checkout input to a strategy. Unknown or empty
// values fall back to tomorrow, the safest slot.
func ParseDeliveryStrategy(s string) DeliveryStrategy {
	switch DeliveryStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case DeliveryASAP:
		return DeliveryASAP
	case DeliveryToday:
		return DeliveryToday
	case DeliveryCustom:
		return DeliveryCustom
	default:
		return DeliveryTomorrow
	}
}

type DeliveryRequest struct {
	Strategy DeliveryStrategy
	At       *time.Time
}

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentCard PaymentMethod = "card"
)

// ParsePaymentMethod accepts "cod" as cash and defaults an empty value to cash.
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "cash", "cod":
		return PaymentCash, true
	case "card":
		return PaymentCard, true
	default:
		return "", false
	}
}

type OrderType string

const (
	OrderTypeDelivery   OrderType = "delivery"
	OrderTypeCollection OrderType = "collection"
)

func ParseOrderType(s string) OrderType {
	if strings.EqualFold(strings.TrimSpace(s), string(OrderTypeCollection)) {
		return OrderTypeCollection
	}
	return OrderTypeDelivery
}

type Order struct {
	ID              uint
	CustomerName    string
	Phone           string
	Email           *string
	Address         string
	HouseNumber     *string
	Notes           string
	Items           []OrderItem
	Delivery        DeliveryRequest
	OrderType       OrderType
	PaymentMethod   PaymentMethod
	PaymentIntentID *string
	Total           decimal.Decimal
	Status          string
	ExternalOrderID *string
	FallbackReason  *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type OrderItem struct {
	ID                uint
	OrderID           uint
	ProductID         int
	Name              string
	Price             decimal.Decimal
	Quantity          int
	ExternalProductID ExternalID
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// HasMappedItem reports whether at least one item can be recognised by the POS.
func (o *Order) HasMappedItem() bool {
	for _, item := range o.Items {
		if item.ExternalProductID.IsMapped() {
			return true
		}
	}
	return false
}

func (o *Order) ComputeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// Validate collects every missing or malformed field of a checkout order.
func (o *Order) Validate() error {
	var details []apperrors.ValidationDetail

	if strings.TrimSpace(o.CustomerName) == "" {
		details = append(details, apperrors.ValidationDetail{Field: "customerName", Message: "customerName is required"})
	}
	if strings.TrimSpace(o.Phone) == "" {
		details = append(details, apperrors.ValidationDetail{Field: "customerPhone", Message: "customerPhone is required"})
	}
	if strings.TrimSpace(o.Address) == "" {
		details = append(details, apperrors.ValidationDetail{Field: "address", Message: "address is required"})
	}
	if len(o.Items) == 0 {
		details = append(details, apperrors.ValidationDetail{Field: "items", Message: "items must not be empty"})
	}
	for idx, item := range o.Items {
		prefix := "items[" + strconv.Itoa(idx) + "]"
		if item.Quantity < 1 {
			details = append(details, apperrors.ValidationDetail{Field: prefix + ".quantity", Message: "quantity must be at least 1"})
		}
		if item.Price.IsNegative() {
			details = append(details, apperrors.ValidationDetail{Field: prefix + ".price", Message: "price must be non-negative"})
		}
	}
	if o.Delivery.Strategy == DeliveryCustom && o.Delivery.At == nil {
		details = append(details, apperrors.ValidationDetail{Field: "deliveryTime", Message: "deliveryTime is required for custom delivery"})
	}
	if o.PaymentMethod != PaymentCash && o.PaymentMethod != PaymentCard {
		details = append(details, apperrors.ValidationDetail{Field: "paymentMethod", Message: "paymentMethod must be cash or card"})
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("validation failed", details...)
	}
	return nil
}

// OrderStatusSnapshot is the cacheable view of where an order stands with the POS.
type OrderStatusSnapshot struct {
	OrderID         uint            `json:"orderId"`
	Status          string          `json:"status"`
	ExternalOrderID string          `json:"externalOrderId,omitempty"`
	FallbackReason  string          `json:"fallbackReason,omitempty"`
	Total           decimal.Decimal `json:"total"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func (o *Order) Snapshot() OrderStatusSnapshot {
	snap := OrderStatusSnapshot{
		OrderID:   o.ID,
		Status:    o.Status,
		Total:     o.Total,
		UpdatedAt: o.UpdatedAt,
	}
	if o.ExternalOrderID != nil {
		snap.ExternalOrderID = *o.ExternalOrderID
	}
	if o.FallbackReason != nil {
		snap.FallbackReason = *o.FallbackReason
	}
	return snap
}
