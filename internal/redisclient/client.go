package redisclient

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// tableStateTTL bounds staleness if the consumer stops applying events; the
// floor plan then falls back to database state.
const tableStateTTL = 12 * time.Hour

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
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

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func tableKey(mesaID int64) string {
	return fmt.Sprintf("mesa:estado:%d", mesaID)
}

// SetTableState caches a table's occupancy state
func (c *Client) SetTableState(ctx context.Context, mesaID int64, estado string) error {
	return c.rdb.Set(ctx, tableKey(mesaID), estado, tableStateTTL).Err()
}

// GetTableState retrieves a table's cached state, "" when absent
func (c *Client) GetTableState(ctx context.Context, mesaID int64) (string, error) {
	estado, err := c.rdb.Get(ctx, tableKey(mesaID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return estado, err
}

// GetTableStates retrieves cached states for many tables in one round trip.
// Tables without a cached state are absent from the result.
func (c *Client) GetTableStates(ctx context.Context, mesaIDs []int64) (map[int64]string, error) {
	states := make(map[int64]string, len(mesaIDs))
	if len(mesaIDs) == 0 {
		return states, nil
	}

	keys := make([]string, len(mesaIDs))
	for i, id := range mesaIDs {
		keys[i] = tableKey(id)
	}

	values, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	for i, v := range values {
		if estado, ok := v.(string); ok && estado != "" {
			states[mesaIDs[i]] = estado
		}
	}
	return states, nil
}

// WarmTableStates primes the cache from database state at startup
func (c *Client) WarmTableStates(ctx context.Context, states map[int64]string) error {
	pipe := c.rdb.Pipeline()
	for mesaID, estado := range states {
		pipe.Set(ctx, tableKey(mesaID), estado, tableStateTTL)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// DeleteTableState evicts a table's cached state
func (c *Client) DeleteTableState(ctx context.Context, mesaID int64) error {
	return c.rdb.Del(ctx, tableKey(mesaID)).Err()
}

// AcquireLock acquires the scheduler lock so only one instance transitions
// blocks at a time
func (c *Client) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, "lock:"+lockKey, strconv.FormatInt(time.Now().UnixNano(), 10), ttl).Result()
}

// ReleaseLock releases a distributed lock
func (c *Client) ReleaseLock(ctx context.Context, lockKey string) error {
	return c.rdb.Del(ctx, "lock:"+lockKey).Err()
}
