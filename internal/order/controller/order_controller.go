package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"alsaraya/internal/domain"
	"alsaraya/internal/dto"
	apperrors "alsaraya/internal/errors"
	"alsaraya/internal/order/submitter"
	"alsaraya/internal/order/usecase"
)

const (
	maxItems    = 100
	maxQuantity = 10000

	warningUnmappedProducts = "Products not yet configured in iiko POS. Order saved for manual entry."
	warningPOSUnavailable   = "POS could not take the order right now. Order saved for manual entry."
	warningPOSPending       = "Order sent to POS, confirmation pending."
)

type PlaceOrderUseCase interface {
	PlaceOrder(ctx context.Context, order *domain.Order) (*usecase.PlaceOrderResult, error)
	GetOrder(ctx context.Context, id uint) (*domain.OrderStatusSnapshot, error)
}

type OrderController struct {
	useCase PlaceOrderUseCase
	logger  *zap.Logger
}

func NewOrderController(useCase PlaceOrderUseCase, logger *zap.Logger) *OrderController {
	return &OrderController{
		useCase: useCase,
		logger:  logger,
	}
}

func (c *OrderController) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	var req dto.PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		c.writeValidationError(w, "invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return
	}

	order, err := c.toOrder(req)
	if err != nil {
		ve, _ := apperrors.IsValidationError(err)
		c.writeValidationError(w, ve.Message, ve.Details...)
		return
	}

	result, err := c.useCase.PlaceOrder(r.Context(), order)
	if err != nil {
		c.handleUseCaseError(w, traceID, err, logger)
		return
	}

	c.writePlaceOrderResponse(w, traceID, result)
}

func (c *OrderController) GetOrder(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	orderID, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || orderID == 0 {
		c.writeValidationError(w, "invalid order id", apperrors.ValidationDetail{
			Field:   "id",
			Message: "id must be a positive integer",
		})
		return
	}

	snap, err := c.useCase.GetOrder(r.Context(), uint(orderID))
	if err != nil {
		c.handleUseCaseError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, dto.OrderStatusResponse{
		TraceID:         traceID,
		OrderID:         snap.OrderID,
		Status:          snap.Status,
		ExternalOrderID: snap.ExternalOrderID,
		FallbackReason:  snap.FallbackReason,
		Total:           snap.Total,
		UpdatedAt:       snap.UpdatedAt,
	})
}

// toOrder applies the request-level limits and maps the payload onto the domain order.
// Field presence rules live in domain.Order.Validate.
func (c *OrderController) toOrder(req dto.PlaceOrderRequest) (*domain.Order, error) {
	var details []apperrors.ValidationDetail

	if len(req.Items) > maxItems {
		details = append(details, apperrors.ValidationDetail{
			Field:   "items",
			Message: "items exceeds maximum of 100",
		})
	}

	items := make([]domain.OrderItem, 0, len(req.Items))
	for idx, item := range req.Items {
		if item.Quantity < 1 || item.Quantity > maxQuantity {
			details = append(details, apperrors.ValidationDetail{
				Field:   "items[" + strconv.Itoa(idx) + "].quantity",
				Message: "quantity must be between 1 and 10000",
			})
		}
		if item.Price.IsNegative() {
			details = append(details, apperrors.ValidationDetail{
				Field:   "items[" + strconv.Itoa(idx) + "].price",
				Message: "price must be non-negative",
			})
		}
		items = append(items, domain.OrderItem{
			ProductID:         item.ID,
			Name:              strings.TrimSpace(item.Name),
			Price:             item.Price,
			Quantity:          item.Quantity,
			ExternalProductID: domain.NewExternalID(item.IikoProductID),
		})
	}

	paymentMethod, ok := domain.ParsePaymentMethod(req.PaymentMethod)
	if !ok {
		details = append(details, apperrors.ValidationDetail{
			Field:   "paymentMethod",
			Message: "paymentMethod must be cash, cod or card",
		})
	}

	delivery := domain.DeliveryRequest{Strategy: domain.ParseDeliveryStrategy(req.DeliveryType)}
	if s := strings.TrimSpace(req.DeliveryTime); s != "" {
		at, err := time.Parse(time.RFC3339, s)
		if err != nil {
			details = append(details, apperrors.ValidationDetail{
				Field:   "deliveryTime",
				Message: "deliveryTime must be an RFC 3339 timestamp",
			})
		} else {
			delivery.At = &at
		}
	}

	if len(details) > 0 {
		return nil, apperrors.NewValidationError("validation failed", details...)
	}

	return &domain.Order{
		CustomerName:    strings.TrimSpace(req.CustomerName),
		Phone:           strings.TrimSpace(req.CustomerPhone),
		Email:           optional(req.CustomerEmail),
		Address:         strings.TrimSpace(req.Address),
		HouseNumber:     optional(req.HouseNumber),
		Notes:           strings.TrimSpace(req.Notes),
		Items:           items,
		Delivery:        delivery,
		OrderType:       domain.ParseOrderType(req.OrderType),
		PaymentMethod:   paymentMethod,
		PaymentIntentID: optional(req.PaymentIntentID),
	}, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func (c *OrderController) writePlaceOrderResponse(w http.ResponseWriter, traceID string, result *usecase.PlaceOrderResult) {
	order := result.Order
	response := dto.PlaceOrderResponse{
		TraceID:   traceID,
		OrderID:   order.ID,
		Status:    order.Status,
		Total:     order.Total,
		Timestamp: time.Now().UTC(),
	}
	if order.ExternalOrderID != nil {
		response.ExternalOrderID = *order.ExternalOrderID
	}

	switch r := result.Result.(type) {
	case submitter.Fallback:
		response.FallbackMode = true
		response.Warning = warningPOSUnavailable
		if r.Reason == submitter.ReasonNoMappedProducts {
			response.Warning = warningUnmappedProducts
		}
	case submitter.Pending:
		response.Warning = warningPOSPending
	}

	c.writeJSON(w, http.StatusOK, response)
}

func (c *OrderController) handleUseCaseError(w http.ResponseWriter, traceID string, err error, logger *zap.Logger) {
	if ve, ok := apperrors.IsValidationError(err); ok {
		c.writeValidationError(w, ve.Message, ve.Details...)
		return
	}

	if _, ok := apperrors.IsNotFoundError(err); ok {
		c.writeErrorResponse(w, traceID, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}

	if _, ok := apperrors.IsDeadlockError(err); ok {
		c.writeErrorResponse(w, traceID, http.StatusConflict, "DEADLOCK", err.Error())
		return
	}

	logger.Error("unexpected error", zap.Error(err))
	c.writeErrorResponse(w, traceID, http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred")
}

func (c *OrderController) writeErrorResponse(w http.ResponseWriter, traceID string, statusCode int, code string, message string) {
	c.writeJSON(w, statusCode, dto.ErrorResponse{
		TraceID:   traceID,
		Status:    statusCode,
		Message:   message,
		Code:      code,
		Timestamp: time.Now().UTC(),
	})
}

type validationErrorResponse struct {
	Error   string                       `json:"error"`
	Message string                       `json:"message"`
	Details []apperrors.ValidationDetail `json:"details"`
}

func (c *OrderController) writeValidationError(w http.ResponseWriter, message string, details ...apperrors.ValidationDetail) {
	c.writeJSON(w, http.StatusBadRequest, validationErrorResponse{
		Error:   "VALIDATION_ERROR",
		Message: message,
		Details: details,
	})
}

func (c *OrderController) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		c.logger.Error("failed to encode response", zap.Error(err))
	}
}
