package properties

import (
	"context"
	"log/slog"

	"staywise/internal/app/dto"
	handlersupport "staywise/internal/app/handlers/support"
	"staywise/internal/app/queries"
	"staywise/internal/app/uow"
	domainproperties "staywise/internal/domain/properties"
)

const searchCatalogKey = "properties.catalog"

// SearchCatalogQuery carries the public catalog filter.
type SearchCatalogQuery struct {
	Filter domainproperties.Filter
}

func (q SearchCatalogQuery) Key() string { return searchCatalogKey }

type SearchCatalogHandler struct {
	UoWFactory uow.UoWFactory
	Cache      CatalogCache
	Logger     *slog.Logger
}

func (h *SearchCatalogHandler) Handle(ctx context.Context, q SearchCatalogQuery) (*dto.PropertyCatalog, error) {
	filter := q.Filter.Normalized()
	var cacheKey string
	if h.Cache != nil {
		cacheKey = CatalogCacheKey(filter)
		cached, ok, err := h.Cache.Get(ctx, cacheKey)
		if err != nil {
			h.warn(ctx, "catalog cache read failed", err)
		} else if ok {
			return cached, nil
		}
	}

	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	page, err := unit.Properties().Search(execCtx, filter)
	if err != nil {
		return nil, err
	}
	catalog := dto.MapCatalog(page)
	if err := attachOwners(execCtx, handlersupport.NewRelations(unit), catalog.Properties, false); err != nil {
		return nil, err
	}
	if h.Cache != nil {
		if err := h.Cache.Set(ctx, cacheKey, &catalog); err != nil {
			h.warn(ctx, "catalog cache write failed", err)
		}
	}
	return &catalog, nil
}

func (h *SearchCatalogHandler) warn(ctx context.Context, msg string, err error) {
	if h.Logger != nil {
		h.Logger.WarnContext(ctx, msg, "error", err)
	}
}

var _ queries.Handler[SearchCatalogQuery, *dto.PropertyCatalog] = (*SearchCatalogHandler)(nil)
