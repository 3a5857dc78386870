package diagnostics

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"alsaraya/internal/catalog"
	apperrors "alsaraya/internal/errors"
	"alsaraya/internal/pos"
)

type Operations interface {
	TestConnection(ctx context.Context) (*ConnectionReport, error)
	FetchMenu(ctx context.Context) ([]pos.MenuProduct, error)
	FetchOrders(ctx context.Context, q OrdersQuery) (*OrdersPage, error)
	LookupOrder(ctx context.Context, id string) (*pos.OrderSummary, error)
	DiffCatalog(ctx context.Context) (*catalog.Diff, error)
	SyncCatalog(ctx context.Context) (catalog.Stats, error)
}

type Controller struct {
	ops    Operations
	logger *zap.Logger
}

func NewController(ops Operations, logger *zap.Logger) *Controller {
	return &Controller{
		ops:    ops,
		logger: logger,
	}
}

// Routes mounts the operator endpoints on r.
func (c *Controller) Routes(r chi.Router) {
	r.Get("/pos/test", c.HandleTestConnection)
	r.Get("/pos/menu", c.HandleMenu)
	r.Get("/pos/orders", c.HandleOrders)
	r.Get("/pos/orders/{id}", c.HandleOrder)
	r.Post("/catalog/sync", c.HandleSync)
	r.Get("/catalog/diff", c.HandleDiff)
}

func (c *Controller) HandleTestConnection(w http.ResponseWriter, r *http.Request) {
	report, err := c.ops.TestConnection(r.Context())
	if err != nil {
		c.writeError(w, err)
		return
	}
	c.writeJSON(w, http.StatusOK, report)
}

func (c *Controller) HandleMenu(w http.ResponseWriter, r *http.Request) {
	menu, err := c.ops.FetchMenu(r.Context())
	if err != nil {
		c.writeError(w, err)
		return
	}
	c.writeJSON(w, http.StatusOK, map[string]interface{}{
		"products": menu,
		"count":    len(menu),
	})
}

func (c *Controller) HandleOrders(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var details []apperrors.ValidationDetail
	q := OrdersQuery{Status: strings.TrimSpace(query.Get("status"))}
	for _, p := range []struct {
		name string
		dst  *int
	}{{"days", &q.Days}, {"page", &q.Page}, {"limit", &q.Limit}} {
		raw := query.Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			details = append(details, apperrors.ValidationDetail{Field: p.name, Message: p.name + " must be an integer"})
			continue
		}
		*p.dst = n
	}
	if len(details) > 0 {
		c.writeError(w, apperrors.NewValidationError("invalid query", details...))
		return
	}

	page, err := c.ops.FetchOrders(r.Context(), q)
	if err != nil {
		c.writeError(w, err)
		return
	}
	c.writeJSON(w, http.StatusOK, page)
}

func (c *Controller) HandleOrder(w http.ResponseWriter, r *http.Request) {
	order, err := c.ops.LookupOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		c.writeError(w, err)
		return
	}
	c.writeJSON(w, http.StatusOK, order)
}

func (c *Controller) HandleSync(w http.ResponseWriter, r *http.Request) {
	stats, err := c.ops.SyncCatalog(r.Context())
	if err != nil {
		c.writeError(w, err)
		return
	}
	c.writeJSON(w, http.StatusOK, stats)
}

func (c *Controller) HandleDiff(w http.ResponseWriter, r *http.Request) {
	diff, err := c.ops.DiffCatalog(r.Context())
	if err != nil {
		c.writeError(w, err)
		return
	}
	c.writeJSON(w, http.StatusOK, diff)
}

type errorResponse struct {
	Error   string                       `json:"error"`
	Message string                       `json:"message"`
	Details []apperrors.ValidationDetail `json:"details,omitempty"`
}

func (c *Controller) writeError(w http.ResponseWriter, err error) {
	if ve, ok := apperrors.IsValidationError(err); ok {
		c.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "VALIDATION_ERROR", Message: ve.Message, Details: ve.Details})
		return
	}
	if _, ok := apperrors.IsNotFoundError(err); ok {
		c.writeJSON(w, http.StatusNotFound, errorResponse{Error: "NOT_FOUND", Message: err.Error()})
		return
	}
	if _, ok := apperrors.IsAuthError(err); ok {
		c.logger.Warn("pos authentication failed", zap.Error(err))
		c.writeJSON(w, http.StatusBadGateway, errorResponse{Error: "POS_AUTH_FAILED", Message: err.Error()})
		return
	}
	if _, ok := apperrors.IsUpstreamError(err); ok {
		c.logger.Warn("pos request failed", zap.Error(err))
		c.writeJSON(w, http.StatusBadGateway, errorResponse{Error: "POS_UNAVAILABLE", Message: err.Error()})
		return
	}

	c.logger.Error("unexpected error", zap.Error(err))
	c.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "INTERNAL_ERROR", Message: "an unexpected error occurred"})
}

func (c *Controller) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		c.logger.Error("failed to encode response", zap.Error(err))
	}
}
