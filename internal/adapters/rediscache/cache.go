// Package rediscache caches rendered report documents in Redis. Reports are
// pure derivations of stored data, so the cache is best effort: a miss or a
// Redis failure just means re-rendering.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"lumen/internal/ports"
)

type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(url string, ttl time.Duration) (*Cache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &Cache{client: redis.NewClient(opts), ttl: ttl}, nil
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Cache) Close() error { return c.client.Close() }

func key(productID string) string { return "report:html:" + productID }

func (c *Cache) Get(ctx context.Context, productID string) (ports.ReportDocument, bool, error) {
	raw, err := c.client.Get(ctx, key(productID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ports.ReportDocument{}, false, nil
	}
	if err != nil {
		return ports.ReportDocument{}, false, err
	}
	var doc ports.ReportDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		// A corrupt entry is a miss; the caller re-renders and overwrites it.
		return ports.ReportDocument{}, false, nil
	}
	return doc, true, nil
}

func (c *Cache) Set(ctx context.Context, productID string, doc ports.ReportDocument) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key(productID), raw, c.ttl).Err()
}
