package properties

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"

	"staywise/internal/app/dto"
	domainproperties "staywise/internal/domain/properties"
)

// CatalogCache stores rendered catalog pages keyed by filter.
type CatalogCache interface {
	Get(ctx context.Context, key string) (*dto.PropertyCatalog, bool, error)
	Set(ctx context.Context, key string, catalog *dto.PropertyCatalog) error
	Invalidate(ctx context.Context) error
}

// CatalogCacheKey hashes a normalized filter into a stable cache key.
func CatalogCacheKey(f domainproperties.Filter) string {
	upper := "none"
	if f.MaxPriceCents != nil {
		upper = strconv.FormatInt(*f.MaxPriceCents, 10)
	}
	raw := fmt.Sprintf("q=%s&type=%s&min=%d&max=%s&cap=%d&city=%s&active=%t&page=%d&limit=%d",
		f.Search, f.Type, f.MinPriceCents, upper, f.MinCapacity, f.City, f.OnlyActive, f.Page, f.Limit)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func invalidateCatalog(ctx context.Context, cache CatalogCache, logger *slog.Logger) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx); err != nil && logger != nil {
		logger.WarnContext(ctx, "catalog cache invalidation failed", "error", err)
	}
}
