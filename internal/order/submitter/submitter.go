package submitter

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"alsaraya/internal/domain"
	apperrors "alsaraya/internal/errors"
	"alsaraya/internal/order/translator"
	"alsaraya/internal/pos"
)

const ReasonNoMappedProducts = "no mapped products"

type TokenProvider interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

type POSClient interface {
	CreateDelivery(ctx context.Context, token string, req pos.CreateOrderRequest) (*pos.CreateOrderResponse, error)
	CommandStatus(ctx context.Context, token, correlationID string) (*pos.CommandStatus, error)
}

type OrderTranslator interface {
	Translate(order *domain.Order, now time.Time) (*pos.CreateOrderRequest, error)
	CountryCode() string
	Policy() translator.DeliveryPolicy
}

// FallbackSink receives manual-entry records keyed by placeholder id.
type FallbackSink interface {
	Publish(ctx context.Context, key string, payload interface{}) error
}

type Config struct {
	PollAttempts int
	PollInterval time.Duration
}

// Submitter sends an order to the POS once and turns every upstream failure
// into a Fallback so the customer's order is never lost.
type Submitter struct {
	translator OrderTranslator
	tokens     TokenProvider
	client     POSClient
	sink       FallbackSink
	cfg        Config
	now        func() time.Time
	logger     *zap.Logger
	seq        atomic.Uint64
}

type Option func(*Submitter)

func WithClock(now func() time.Time) Option {
	return func(s *Submitter) {
		s.now = now
	}
}

func New(tr OrderTranslator, tokens TokenProvider, client POSClient, sink FallbackSink, cfg Config, logger *zap.Logger, opts ...Option) *Submitter {
	s := &Submitter{
		translator: tr,
		tokens:     tokens,
		client:     client,
		sink:       sink,
		cfg:        cfg,
		now:        time.Now,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit returns an error only for a malformed order.
func (s *Submitter) Submit(ctx context.Context, order *domain.Order) (Result, error) {
	if order == nil {
		return nil, apperrors.NewValidationError("order is required")
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}

	now := s.now()

	if !order.HasMappedItem() {
		return s.fallback(ctx, order, now, ReasonNoMappedProducts), nil
	}

	req, err := s.translator.Translate(order, now)
	if err != nil {
		return nil, fmt.Errorf("translating order: %w", err)
	}

	token, err := s.tokens.Token(ctx)
	if err != nil {
		return s.fallback(ctx, order, now, err.Error()), nil
	}

	resp, err := s.client.CreateDelivery(ctx, token, *req)
	if err != nil {
		if pos.IsUnauthorized(err) {
			s.tokens.Invalidate()
		}
		return s.fallback(ctx, order, now, err.Error()), nil
	}

	if reason, rejected := pos.CreationError(resp); rejected {
		return s.fallback(ctx, order, now, "pos rejected order: "+reason), nil
	}

	externalID, ok := pos.ExtractOrderID(resp)
	if !ok {
		return s.fallback(ctx, order, now, apperrors.ErrAmbiguousSuccess.Error()), nil
	}

	if s.cfg.PollAttempts > 0 && resp.CorrelationID != "" && creationInProgress(resp) {
		return s.awaitCreation(ctx, order, now, token, resp.CorrelationID, externalID), nil
	}

	s.logger.Info("order confirmed by pos",
		zap.Uint("order_id", order.ID),
		zap.String("external_order_id", externalID),
		zap.String("correlation_id", resp.CorrelationID),
	)
	return Confirmed{ExternalOrderID: externalID}, nil
}

// awaitCreation polls the command status a bounded number of times.
func (s *Submitter) awaitCreation(ctx context.Context, order *domain.Order, now time.Time, token, correlationID, externalID string) Result {
	timer := time.NewTimer(s.cfg.PollInterval)
	defer timer.Stop()

	for attempt := 1; attempt <= s.cfg.PollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return Pending{CorrelationID: correlationID, ExternalOrderID: externalID}
		case <-timer.C:
		}

		status, err := s.client.CommandStatus(ctx, token, correlationID)
		switch {
		case err != nil:
			s.logger.Warn("pos command status failed",
				zap.String("correlation_id", correlationID),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		case status.State == pos.CommandStateSuccess:
			return Confirmed{ExternalOrderID: externalID}
		case status.State == pos.CommandStateError:
			reason := "pos rejected order"
			if status.Exception != nil && status.Exception.Message != "" {
				reason = reason + ": " + status.Exception.Message
			}
			return s.fallback(ctx, order, now, reason)
		}

		timer.Reset(s.cfg.PollInterval)
	}

	s.logger.Warn("pos creation still in progress",
		zap.Uint("order_id", order.ID),
		zap.String("correlation_id", correlationID),
		zap.String("external_order_id", externalID),
	)
	return Pending{CorrelationID: correlationID, ExternalOrderID: externalID}
}

func (s *Submitter) fallback(ctx context.Context, order *domain.Order, now time.Time, reason string) Fallback {
	placeholder := s.placeholderID(now)
	phone := translator.NormalizePhone(order.Phone, s.translator.CountryCode())
	deliveryTime := s.translator.Policy().Resolve(order.Delivery, now)

	record := newManualEntryRecord(order, placeholder, phone, reason, deliveryTime, now)

	s.logger.Warn("order requires manual pos entry", record.fields()...)

	if s.sink != nil {
		if err := s.sink.Publish(ctx, placeholder, record); err != nil {
			s.logger.Error("publishing manual entry record",
				zap.String("placeholder_id", placeholder),
				zap.Error(err),
			)
		}
	}

	return Fallback{PlaceholderID: placeholder, Reason: reason, Record: record}
}

// placeholderID is FALLBACK-<unix millis><4-digit sequence>; the sequence keeps
// fallbacks raised in the same millisecond apart.
func (s *Submitter) placeholderID(now time.Time) string {
	return fmt.Sprintf("FALLBACK-%d%04d", now.UnixMilli(), s.seq.Add(1)%10000)
}

func creationInProgress(resp *pos.CreateOrderResponse) bool {
	return resp.OrderInfo != nil && resp.OrderInfo.CreationStatus == pos.CommandStateInProgress
}
