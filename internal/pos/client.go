package pos

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"alsaraya/internal/config"
	apperrors "alsaraya/internal/errors"
)

const (
	pathAccessToken    = "/api/1/access_token"
	pathCreateDelivery = "/api/1/deliveries/create"
	pathCommandStatus  = "/api/1/commands/status"
	pathOrdersByID     = "/api/1/deliveries/by_id"
	pathOrdersByDate   = "/api/1/deliveries/by_delivery_date_and_status"
	pathMenuByID       = "/api/2/menu/by_id"

	// maxErrorBody caps how much of an error response ends up in logs and errors.
	maxErrorBody = 2048
)

// Client talks to the POS vendor API. Every call is bounded by the HTTP client
// timeout and by the caller's context.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiLogin       string
	organizationID string
	logger         *zap.Logger
}

func NewClient(cfg config.POSConfig, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		timeout := cfg.HTTPTimeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		httpClient:     httpClient,
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		apiLogin:       cfg.APILogin,
		organizationID: cfg.OrganizationID,
		logger:         logger,
	}
}

// IssueToken exchanges the API login for a short-lived bearer token.
func (c *Client) IssueToken(ctx context.Context) (string, error) {
	var resp accessTokenResponse
	if err := c.post(ctx, "issue access token", pathAccessToken, "", accessTokenRequest{APILogin: c.apiLogin}, &resp); err != nil {
		return "", apperrors.NewAuthError("issuing pos access token", err)
	}
	if strings.TrimSpace(resp.Token) == "" {
		return "", apperrors.NewAuthError("issuing pos access token", fmt.Errorf("response carried no token"))
	}
	return resp.Token, nil
}

func (c *Client) CreateDelivery(ctx context.Context, token string, req CreateOrderRequest) (*CreateOrderResponse, error) {
	var resp CreateOrderResponse
	if err := c.post(ctx, "create delivery", pathCreateDelivery, token, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) CommandStatus(ctx context.Context, token, correlationID string) (*CommandStatus, error) {
	var resp CommandStatus
	body := commandStatusRequest{OrganizationID: c.organizationID, CorrelationID: correlationID}
	if err := c.post(ctx, "command status", pathCommandStatus, token, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) OrdersByID(ctx context.Context, token string, orderIDs []string) ([]OrderSummary, error) {
	var resp ordersResponse
	body := ordersByIDRequest{OrganizationIDs: []string{c.organizationID}, OrderIDs: orderIDs}
	if err := c.post(ctx, "orders by id", pathOrdersByID, token, body, &resp); err != nil {
		return nil, err
	}
	return resp.all(), nil
}

// OrdersByDeliveryDate lists orders whose delivery date falls in [from, to].
// An empty statuses slice means DefaultOrderStatuses.
func (c *Client) OrdersByDeliveryDate(ctx context.Context, token string, from, to time.Time, statuses []string) ([]OrderSummary, error) {
	if len(statuses) == 0 {
		statuses = DefaultOrderStatuses
	}
	var resp ordersResponse
	body := ordersByDateRequest{
		OrganizationIDs:  []string{c.organizationID},
		DeliveryDateFrom: FormatTimestamp(from),
		DeliveryDateTo:   FormatTimestamp(to),
		Statuses:         statuses,
	}
	if err := c.post(ctx, "orders by delivery date", pathOrdersByDate, token, body, &resp); err != nil {
		return nil, err
	}
	return resp.all(), nil
}

func (c *Client) MenuByID(ctx context.Context, token, menuID string) (*Menu, error) {
	var menu Menu
	body := menuRequest{ExternalMenuID: menuID, OrganizationIDs: []string{c.organizationID}}
	if err := c.post(ctx, "fetch menu", pathMenuByID, token, body, &menu); err != nil {
		return nil, err
	}
	return &menu, nil
}

func (c *Client) post(ctx context.Context, operation, path, token string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling %s request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("pos request failed",
			zap.String("operation", operation),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return apperrors.NewUpstreamError(operation, 0, "", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.NewUpstreamError(operation, resp.StatusCode, "", fmt.Errorf("reading response: %w", err))
	}

	c.logger.Debug("pos request completed",
		zap.String("operation", operation),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apperrors.NewUpstreamError(operation, resp.StatusCode, truncate(string(respBody), maxErrorBody), nil)
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return apperrors.NewUpstreamError(operation, resp.StatusCode, "", fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// IsUnauthorized reports whether the POS rejected the bearer token.
func IsUnauthorized(err error) bool {
	ue, ok := apperrors.IsUpstreamError(err)
	return ok && ue.StatusCode == http.StatusUnauthorized
}
