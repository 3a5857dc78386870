package token

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	apperrors "alsaraya/internal/errors"
)

type Issuer interface {
	IssueToken(ctx context.Context) (string, error)
}

// Cache keeps one POS bearer token per process and refreshes it before expiry.
// Concurrent callers that find it stale share a single issuance.
type Cache struct {
	issuer         Issuer
	ttl            time.Duration
	safetyMargin   time.Duration
	refreshTimeout time.Duration
	now            func() time.Time
	logger         *zap.Logger

	mu     sync.Mutex
	token  string
	expiry time.Time

	group singleflight.Group
}

type Option func(*Cache)

func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// WithRefreshTimeout bounds the shared refresh, which does not follow any single caller's context.
func WithRefreshTimeout(d time.Duration) Option {
	return func(c *Cache) {
		c.refreshTimeout = d
	}
}

func NewCache(issuer Issuer, ttl, safetyMargin time.Duration, logger *zap.Logger, opts ...Option) *Cache {
	c := &Cache{
		issuer:         issuer,
		ttl:            ttl,
		safetyMargin:   safetyMargin,
		refreshTimeout: 15 * time.Second,
		now:            time.Now,
		logger:         logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns a credential that is valid for at least the safety margin.
func (c *Cache) Token(ctx context.Context) (string, error) {
	if tok, ok := c.cached(); ok {
		return tok, nil
	}

	ch := c.group.DoChan("token", func() (interface{}, error) {
		// another flight may have finished between our miss and this call
		if tok, ok := c.cached(); ok {
			return tok, nil
		}
		return c.refresh(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// Invalidate drops the cached token so the next Token call issues a new one.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.token = ""
	c.expiry = time.Time{}
	c.logger.Info("pos token invalidated")
}

func (c *Cache) cached() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token == "" {
		return "", false
	}
	if !c.now().Before(c.expiry.Add(-c.safetyMargin)) {
		return "", false
	}
	return c.token, true
}

func (c *Cache) refresh(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.refreshTimeout)
	defer cancel()

	start := c.now()
	tok, err := c.issuer.IssueToken(ctx)
	if err != nil {
		c.logger.Error("pos token refresh failed", zap.Error(err))
		if _, ok := apperrors.IsAuthError(err); ok {
			return "", err
		}
		return "", apperrors.NewAuthError("refreshing pos token", err)
	}

	c.mu.Lock()
	c.token = tok
	c.expiry = start.Add(c.ttl)
	expiry := c.expiry
	c.mu.Unlock()

	c.logger.Info("pos token refreshed", zap.Time("expires_at", expiry))
	return tok, nil
}
