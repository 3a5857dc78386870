package diagnostics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"alsaraya/internal/catalog"
	apperrors "alsaraya/internal/errors"
	"alsaraya/internal/pos"
)

const (
	DefaultDays  = 7
	MaxDays      = 14
	DefaultLimit = 20
	MaxLimit     = 100
)

type TokenProvider interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

type OrderLookup interface {
	OrdersByID(ctx context.Context, token string, orderIDs []string) ([]pos.OrderSummary, error)
	OrdersByDeliveryDate(ctx context.Context, token string, from, to time.Time, statuses []string) ([]pos.OrderSummary, error)
}

type CatalogSync interface {
	FetchMenu(ctx context.Context) ([]pos.MenuProduct, error)
	Preview(ctx context.Context) (*catalog.Diff, error)
	Reconcile(ctx context.Context) (catalog.Stats, error)
}

type ConnectionReport struct {
	OK              bool   `json:"ok"`
	OrganizationID  string `json:"organizationId"`
	TerminalGroupID string `json:"terminalGroupId"`
	ElapsedMillis   int64  `json:"elapsedMs"`
}

type OrdersQuery struct {
	Days   int
	Page   int
	Limit  int
	Status string
}

type OrdersPage struct {
	Orders []pos.OrderSummary `json:"orders"`
	Total  int                `json:"total"`
	Page   int                `json:"page"`
	Limit  int                `json:"limit"`
	Days   int                `json:"days"`
	From   time.Time          `json:"from"`
	To     time.Time          `json:"to"`
}

// Service bundles the operator views of the POS integration.
type Service struct {
	tokens          TokenProvider
	orders          OrderLookup
	catalog         CatalogSync
	organizationID  string
	terminalGroupID string
	now             func() time.Time
	logger          *zap.Logger
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(tokens TokenProvider, orders OrderLookup, catalog CatalogSync, organizationID, terminalGroupID string, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		tokens:          tokens,
		orders:          orders,
		catalog:         catalog,
		organizationID:  organizationID,
		terminalGroupID: terminalGroupID,
		now:             time.Now,
		logger:          logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TestConnection checks that the configured credentials can obtain a token.
func (s *Service) TestConnection(ctx context.Context) (*ConnectionReport, error) {
	start := s.now()
	if _, err := s.tokens.Token(ctx); err != nil {
		return nil, err
	}
	return &ConnectionReport{
		OK:              true,
		OrganizationID:  s.organizationID,
		TerminalGroupID: s.terminalGroupID,
		ElapsedMillis:   s.now().Sub(start).Milliseconds(),
	}, nil
}

func (s *Service) FetchMenu(ctx context.Context) ([]pos.MenuProduct, error) {
	menu, err := s.catalog.FetchMenu(ctx)
	if err != nil {
		return nil, err
	}
	if menu == nil {
		menu = []pos.MenuProduct{}
	}
	return menu, nil
}

// FetchOrders lists POS deliveries for the last q.Days days, newest order number first.
func (s *Service) FetchOrders(ctx context.Context, q OrdersQuery) (*OrdersPage, error) {
	q = normalizeQuery(q)

	to := s.now().UTC()
	from := to.AddDate(0, 0, -q.Days)

	var statuses []string
	if q.Status != "" {
		statuses = []string{q.Status}
	}

	var orders []pos.OrderSummary
	err := s.withToken(ctx, func(token string) error {
		var err error
		orders, err = s.orders.OrdersByDeliveryDate(ctx, token, from, to, statuses)
		return err
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(orders, func(i, j int) bool { return orders[i].Number() > orders[j].Number() })

	page := &OrdersPage{
		Orders: []pos.OrderSummary{},
		Total:  len(orders),
		Page:   q.Page,
		Limit:  q.Limit,
		Days:   q.Days,
		From:   from,
		To:     to,
	}
	start := (q.Page - 1) * q.Limit
	if start < len(orders) {
		end := min(start+q.Limit, len(orders))
		page.Orders = orders[start:end]
	}
	return page, nil
}

func (s *Service) LookupOrder(ctx context.Context, id string) (*pos.OrderSummary, error) {
	var orders []pos.OrderSummary
	err := s.withToken(ctx, func(token string) error {
		var err error
		orders, err = s.orders.OrdersByID(ctx, token, []string{id})
		return err
	})
	if err != nil {
		return nil, err
	}

	for i := range orders {
		if orders[i].ID == id {
			return &orders[i], nil
		}
	}
	return nil, apperrors.NewNotFoundError(fmt.Sprintf("pos order %s not found", id))
}

func (s *Service) DiffCatalog(ctx context.Context) (*catalog.Diff, error) {
	return s.catalog.Preview(ctx)
}

func (s *Service) SyncCatalog(ctx context.Context) (catalog.Stats, error) {
	return s.catalog.Reconcile(ctx)
}

func (s *Service) withToken(ctx context.Context, call func(token string) error) error {
	token, err := s.tokens.Token(ctx)
	if err != nil {
		return err
	}
	err = call(token)
	if pos.IsUnauthorized(err) {
		s.logger.Warn("pos rejected token, invalidating")
		s.tokens.Invalidate()
	}
	return err
}

func normalizeQuery(q OrdersQuery) OrdersQuery {
	switch {
	case q.Days == 0:
		q.Days = DefaultDays
	case q.Days < 1:
		q.Days = 1
	case q.Days > MaxDays:
		q.Days = MaxDays
	}
	if q.Page < 1 {
		q.Page = 1
	}
	switch {
	case q.Limit <= 0:
		q.Limit = DefaultLimit
	case q.Limit > MaxLimit:
		q.Limit = MaxLimit
	}
	return q
}
