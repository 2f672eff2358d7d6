package redisclient

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

//go:embed scripts/decrement_stock.lua
var decrementStockScript string

//go:embed scripts/increment_stock.lua
var incrementStockScript string

// Client caches product stock counts for fast-path availability checks.
// The database remains the authority; a cache miss or script error is never
// fatal to the caller.
type Client struct {
	rdb             *redis.Client
	decrementScript *redis.Script
	incrementScript *redis.Script
}

// NewClient creates a new Redis client with Lua scripts loaded
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{
		rdb:             rdb,
		decrementScript: redis.NewScript(decrementStockScript),
		incrementScript: redis.NewScript(incrementStockScript),
	}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// ErrNotCached indicates the product has no stock entry in the cache.
var ErrNotCached = fmt.Errorf("stock not cached")

func stockKey(productID int64) string {
	return fmt.Sprintf("stock:%d", productID)
}

// DecrementStock atomically decrements cached stock via Lua script.
// Returns (true, nil) when the decrement applied, (false, nil) when cached
// stock is insufficient, and ErrNotCached when the product has no cache
// entry.
func (c *Client) DecrementStock(ctx context.Context, productID int64, quantity int) (bool, error) {
	result, err := c.decrementScript.Run(ctx, c.rdb, []string{stockKey(productID)}, quantity).Result()
	if err != nil {
		return false, fmt.Errorf("decrement stock script failed: %w", err)
	}

	code, ok := result.(int64)
	if !ok {
		return false, fmt.Errorf("unexpected script result type")
	}

	switch code {
	case 1:
		return true, nil
	case 0:
		return false, nil
	default:
		return false, ErrNotCached
	}
}

// IncrementStock atomically adds quantity back to cached stock (restock).
func (c *Client) IncrementStock(ctx context.Context, productID int64, quantity int) error {
	_, err := c.incrementScript.Run(ctx, c.rdb, []string{stockKey(productID)}, quantity).Result()
	if err != nil {
		return fmt.Errorf("increment stock script failed: %w", err)
	}
	return nil
}

// GetStock retrieves the cached stock count for a product.
func (c *Client) GetStock(ctx context.Context, productID int64) (int, error) {
	val, err := c.rdb.Get(ctx, stockKey(productID)).Int()
	if err == redis.Nil {
		return 0, ErrNotCached
	}
	return val, err
}

// SetStock overwrites the cached stock count for a product.
func (c *Client) SetStock(ctx context.Context, productID int64, stock int) error {
	return c.rdb.Set(ctx, stockKey(productID), stock, 0).Err()
}

// SetIdempotencyKey stores an idempotency key with TTL
func (c *Client) SetIdempotencyKey(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf("idempotency:%s", key), value, ttl).Err()
}

// CheckIdempotencyKey checks if an idempotency key exists
func (c *Client) CheckIdempotencyKey(ctx context.Context, key string) (bool, error) {
	result, err := c.rdb.Exists(ctx, fmt.Sprintf("idempotency:%s", key)).Result()
	if err != nil {
		return false, err
	}
	return result > 0, nil
}
