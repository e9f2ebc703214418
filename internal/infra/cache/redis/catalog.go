package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"staywise/internal/app/dto"
	propertyhandlers "staywise/internal/app/handlers/properties"
)

const (
	catalogPrefix    = "staywise:catalog:"
	catalogScanCount = 100
)

// CatalogCache memoizes catalog search pages. Any property write drops every
// cached page.
type CatalogCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewCatalogCache(client redis.Cmdable, ttl time.Duration) *CatalogCache {
	return &CatalogCache{client: client, ttl: ttl}
}

func (c *CatalogCache) Get(ctx context.Context, key string) (*dto.PropertyCatalog, bool, error) {
	raw, err := c.client.Get(ctx, catalogPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var catalog dto.PropertyCatalog
	if err := json.Unmarshal(raw, &catalog); err != nil {
		return nil, false, err
	}
	return &catalog, true, nil
}

func (c *CatalogCache) Set(ctx context.Context, key string, catalog *dto.PropertyCatalog) error {
	raw, err := json.Marshal(catalog)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, catalogPrefix+key, raw, c.ttl).Err()
}

func (c *CatalogCache) Invalidate(ctx context.Context) error {
	var (
		cursor uint64
		keys   []string
	)
	for {
		batch, next, err := c.client.Scan(ctx, cursor, catalogPrefix+"*", catalogScanCount).Result()
		if err != nil {
			return err
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

var _ propertyhandlers.CatalogCache = (*CatalogCache)(nil)
