package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type PlaceOrderResponse struct {
	TraceID         string          `json:"traceId"`
	OrderID         uint            `json:"orderId"`
	Status          string          `json:"status"`
	ExternalOrderID string          `json:"externalOrderId,omitempty"`
	FallbackMode    bool            `json:"fallbackMode"`
	Warning         string          `json:"warning,omitempty"`
	Total           decimal.Decimal `json:"total"`
	Timestamp       time.Time       `json:"timestamp"`
}

type OrderStatusResponse struct {
	TraceID         string          `json:"traceId"`
	OrderID         uint            `json:"orderId"`
	Status          string          `json:"status"`
	ExternalOrderID string          `json:"externalOrderId,omitempty"`
	FallbackReason  string          `json:"fallbackReason,omitempty"`
	Total           decimal.Decimal `json:"total"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

type ErrorResponse struct {
	TraceID   string    `json:"traceId"`
	Status    int       `json:"status"`
	Message   string    `json:"message"`
	Code      string    `json:"code"`
	Timestamp time.Time `json:"timestamp"`
}
