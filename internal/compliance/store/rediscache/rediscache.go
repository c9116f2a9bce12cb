// Package rediscache caches finished runs in Redis. Runs are immutable once
// written, so entries never need invalidation, only expiry.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"conforma/internal/compliance"
	id "conforma/pkg/domain"
)

const keyPrefix = "conforma:run:"

// Cache implements compliance.ResultCache over a Redis client.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) Get(ctx context.Context, runID id.RunID) (*compliance.Run, bool, error) {
	data, err := c.client.Get(ctx, keyPrefix+runID.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache get: %w", err)
	}

	var run compliance.Run
	if err := json.Unmarshal(data, &run); err != nil {
		// A corrupt entry is a miss; the store remains authoritative.
		return nil, false, nil
	}
	return &run, true, nil
}

func (c *Cache) Set(ctx context.Context, run *compliance.Run) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}
	if err := c.client.Set(ctx, keyPrefix+run.ID.String(), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}
