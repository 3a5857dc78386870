package translator

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"alsaraya/internal/config"
	"alsaraya/internal/domain"
	apperrors "alsaraya/internal/errors"
	"alsaraya/internal/pos"
)

const (
	defaultSourceKey   = "website"
	missingHouseNumber = "-"
)

// Translator maps a checkout order onto the POS delivery payload. It is the only
// place that decides what an unmapped product looks like on the wire.
type Translator struct {
	cfg         config.POSConfig
	countryCode string
	policy      DeliveryPolicy
	newID       func() string
}

type Option func(*Translator)

func WithIDGenerator(fn func() string) Option {
	return func(t *Translator) {
		t.newID = fn
	}
}

func New(posCfg config.POSConfig, deliveryCfg config.DeliveryConfig, opts ...Option) *Translator {
	t := &Translator{
		cfg:         posCfg,
		countryCode: deliveryCfg.CountryCode,
		policy:      NewDeliveryPolicy(deliveryCfg),
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Translator) CountryCode() string {
	return t.countryCode
}

func (t *Translator) Policy() DeliveryPolicy {
	return t.policy
}

func (t *Translator) Translate(order *domain.Order, now time.Time) (*pos.CreateOrderRequest, error) {
	if order == nil {
		return nil, apperrors.NewValidationError("order is required")
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}

	phone := NormalizePhone(order.Phone, t.countryCode)

	items := make([]pos.Item, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, pos.Item{
			Type:      pos.ItemTypeProduct,
			ProductID: item.ExternalProductID.OrPlaceholder(),
			Amount:    item.Quantity,
			Comment:   fmt.Sprintf("%s (Qty: %d)", item.Name, item.Quantity),
		})
	}

	total := order.Total
	if total.IsZero() {
		total = order.ComputeTotal()
	}

	house := missingHouseNumber
	if order.HouseNumber != nil && strings.TrimSpace(*order.HouseNumber) != "" {
		house = strings.TrimSpace(*order.HouseNumber)
	}

	sourceKey := t.cfg.SourceKey
	if sourceKey == "" {
		sourceKey = defaultSourceKey
	}

	return &pos.CreateOrderRequest{
		OrganizationID:  t.cfg.OrganizationID,
		TerminalGroupID: t.cfg.TerminalGroupID,
		Order: pos.DeliveryOrder{
			ID:             t.newID(),
			Date:           pos.FormatTimestamp(now),
			Phone:          phone,
			CompleteBefore: pos.FormatTimestamp(t.policy.Resolve(order.Delivery, now)),
			Customer: pos.Customer{
				Name:  strings.TrimSpace(order.CustomerName),
				Phone: phone,
			},
			DeliveryPoint: &pos.DeliveryPoint{
				Address: pos.Address{
					Street: pos.Street{
						ClassifierID: domain.PlaceholderExternalID,
						Name:         strings.TrimSpace(order.Address),
					},
					House: house,
				},
				Comment: order.Notes,
			},
			Items:       items,
			Payments:    []pos.Payment{t.payment(order.PaymentMethod, total.InexactFloat64())},
			Comment:     order.Notes,
			SourceKey:   sourceKey,
			OrderTypeID: t.orderTypeID(order.OrderType),
		},
	}, nil
}

func (t *Translator) payment(method domain.PaymentMethod, sum float64) pos.Payment {
	if method == domain.PaymentCard {
		return pos.Payment{
			PaymentTypeKind:       pos.PaymentKindCard,
			PaymentTypeID:         t.cfg.CardPaymentTypeID,
			Sum:                   sum,
			IsProcessedExternally: true,
		}
	}
	return pos.Payment{
		PaymentTypeKind:       pos.PaymentKindCash,
		PaymentTypeID:         t.cfg.CashPaymentTypeID,
		Sum:                   sum,
		IsProcessedExternally: false,
	}
}

func (t *Translator) orderTypeID(orderType domain.OrderType) string {
	if t.cfg.WebsiteOrderTypeID != "" {
		return t.cfg.WebsiteOrderTypeID
	}
	if orderType == domain.OrderTypeCollection {
		return t.cfg.CollectionOrderTypeID
	}
	return t.cfg.DeliveryOrderTypeID
}
