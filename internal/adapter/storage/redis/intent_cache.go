package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"intent-gateway/internal/core/domain"

	goredis "github.com/redis/go-redis/v9"
)

// IntentCache implements ports.IntentCache using Redis. Only intents in
// terminal states belong here; those rows are immutable, so a cached copy
// can never diverge from storage.
type IntentCache struct {
	client *goredis.Client
	prefix string
}

// NewIntentCache creates a new Redis-backed intent cache.
func NewIntentCache(client *goredis.Client) *IntentCache {
	return &IntentCache{
		client: client,
		prefix: "intent:",
	}
}

// Get retrieves a cached intent by id. Returns nil, nil on miss.
func (c *IntentCache) Get(ctx context.Context, id string) (*domain.PaymentIntent, error) {
	val, err := c.client.Get(ctx, c.prefix+id).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis intent get: %w", err)
	}

	intent := &domain.PaymentIntent{}
	if err := json.Unmarshal(val, intent); err != nil {
		return nil, fmt.Errorf("unmarshal cached intent: %w", err)
	}
	return intent, nil
}

// Set stores a terminal intent with TTL.
func (c *IntentCache) Set(ctx context.Context, intent *domain.PaymentIntent, ttl time.Duration) error {
	val, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("marshal intent: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+intent.ID, val, ttl).Err(); err != nil {
		return fmt.Errorf("redis intent set: %w", err)
	}
	return nil
}
