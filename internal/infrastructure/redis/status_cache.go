package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"alsaraya/internal/config"
	"alsaraya/internal/domain"
)

// KeyOrderStatus maps order_status:{order_id} to a JSON OrderStatusSnapshot.
const KeyOrderStatus = "order_status:%d"

func NewClient(cfg config.RedisConfig) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

type StatusCache struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewStatusCache(client *goredis.Client, ttl time.Duration) *StatusCache {
	return &StatusCache{client: client, ttl: ttl}
}

// Get returns nil without error on a cache miss.
func (c *StatusCache) Get(ctx context.Context, orderID uint) (*domain.OrderStatusSnapshot, error) {
	raw, err := c.client.Get(ctx, fmt.Sprintf(KeyOrderStatus, orderID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading order status %d: %w", orderID, err)
	}

	var snap domain.OrderStatusSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decoding order status %d: %w", orderID, err)
	}
	return &snap, nil
}

func (c *StatusCache) Set(ctx context.Context, snap domain.OrderStatusSnapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding order status %d: %w", snap.OrderID, err)
	}
	if err := c.client.Set(ctx, fmt.Sprintf(KeyOrderStatus, snap.OrderID), b, c.ttl).Err(); err != nil {
		return fmt.Errorf("writing order status %d: %w", snap.OrderID, err)
	}
	return nil
}

// NopStatusCache is installed when no Redis address is configured.
type NopStatusCache struct{}

func (NopStatusCache) Get(context.Context, uint) (*domain.OrderStatusSnapshot, error) {
	return nil, nil
}

func (NopStatusCache) Set(context.Context, domain.OrderStatusSnapshot) error {
	return nil
}
