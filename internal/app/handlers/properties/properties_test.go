package properties_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staywise/internal/app/dto"
	propertyapp "staywise/internal/app/handlers/properties"
	domainproperties "staywise/internal/domain/properties"
	"staywise/internal/domain/shared/money"
	domainuser "staywise/internal/domain/user"
	"staywise/internal/infra/storage/memory"
)

type fakeCache struct {
	mu          sync.Mutex
	entries     map[string]*dto.PropertyCatalog
	hits        int
	invalidated int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]*dto.PropertyCatalog{}}
}

func (c *fakeCache) Get(_ context.Context, key string) (*dto.PropertyCatalog, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	if ok {
		c.hits++
	}
	return v, ok, nil
}

func (c *fakeCache) Set(_ context.Context, key string, catalog *dto.PropertyCatalog) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = catalog
	return nil
}

func (c *fakeCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string]*dto.PropertyCatalog{}
	c.invalidated++
	return nil
}

type recordingImages struct {
	keys []string
	body []byte
}

func (r *recordingImages) Upload(_ context.Context, key string, body io.Reader, _ int64, _ string) (string, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	r.keys = append(r.keys, key)
	r.body = raw
	return "https://cdn.test/" + key, nil
}

func seedProperties(t *testing.T, factory *memory.Factory) {
	t.Helper()
	items := []struct {
		id    string
		title string
		city  string
		cents int64
		kind  domainproperties.Type
	}{
		{"villa", "Luxury Beach Villa", "Malibu", 45000, domainproperties.TypeVilla},
		{"studio", "Modern Studio", "Portland", 9500, domainproperties.TypeStudio},
		{"cabin", "Mountain Cabin", "Aspen", 22000, domainproperties.TypeHouse},
	}
	for _, it := range items {
		p, err := domainproperties.New(domainproperties.CreateParams{
			ID:       domainproperties.ID(it.id),
			Title:    it.title,
			Location: domainproperties.Location{City: it.city},
			Price:    money.Cents(it.cents),
			Capacity: 4,
			Type:     it.kind,
			OwnerID:  "admin",
		})
		require.NoError(t, err)
		require.NoError(t, factory.Properties.Save(context.Background(), p))
	}
}

func TestSearchCatalogUsesCache(t *testing.T) {
	factory := memory.NewFactory()
	seedProperties(t, factory)
	cache := newFakeCache()
	search := &propertyapp.SearchCatalogHandler{UoWFactory: factory, Cache: cache}
	update := &propertyapp.UpdatePropertyHandler{UoWFactory: factory, Cache: cache}
	ctx := context.Background()
	query := propertyapp.SearchCatalogQuery{Filter: domainproperties.Filter{OnlyActive: true}}

	first, err := search.Handle(ctx, query)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Pagination.TotalProperties)

	_, err = search.Handle(ctx, query)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)

	inactive := false
	_, err = update.Handle(ctx, propertyapp.UpdatePropertyCommand{PropertyID: "villa", Active: &inactive})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.invalidated)

	after, err := search.Handle(ctx, query)
	require.NoError(t, err)
	assert.Equal(t, 2, after.Pagination.TotalProperties)
}

func TestSearchCatalogFilters(t *testing.T) {
	factory := memory.NewFactory()
	seedProperties(t, factory)
	search := &propertyapp.SearchCatalogHandler{UoWFactory: factory}

	tests := []struct {
		name   string
		filter domainproperties.Filter
		ids    []string
	}{
		{"price band", domainproperties.Filter{MinPriceCents: 10000, MaxPriceCents: domainproperties.PriceBound(30000)}, []string{"cabin"}},
		{"zero max price", domainproperties.Filter{MaxPriceCents: domainproperties.PriceBound(0)}, []string{}},
		{"type", domainproperties.Filter{Type: domainproperties.TypeStudio}, []string{"studio"}},
		{"city substring", domainproperties.Filter{City: "MALI"}, []string{"villa"}},
		{"search title", domainproperties.Filter{Search: "mountain"}, []string{"cabin"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := search.Handle(context.Background(), propertyapp.SearchCatalogQuery{Filter: tt.filter})
			require.NoError(t, err)
			ids := make([]string, 0, len(res.Properties))
			for _, p := range res.Properties {
				ids = append(ids, p.ID)
			}
			assert.ElementsMatch(t, tt.ids, ids)
		})
	}
}

func TestGetAndListProperties(t *testing.T) {
	factory := memory.NewFactory()
	seedProperties(t, factory)
	ctx := context.Background()

	view, err := (&propertyapp.GetPropertyHandler{UoWFactory: factory}).Handle(ctx, propertyapp.GetPropertyQuery{ID: "villa"})
	require.NoError(t, err)
	assert.Equal(t, float64(450), view.Price)

	_, err = (&propertyapp.GetPropertyHandler{UoWFactory: factory}).Handle(ctx, propertyapp.GetPropertyQuery{ID: "nope"})
	assert.ErrorIs(t, err, domainproperties.ErrNotFound)

	all, err := (&propertyapp.ListPropertiesHandler{UoWFactory: factory}).Handle(ctx, propertyapp.ListPropertiesQuery{})
	require.NoError(t, err)
	assert.Len(t, all.Properties, 3)
}

func TestAttachImage(t *testing.T) {
	factory := memory.NewFactory()
	seedProperties(t, factory)
	images := &recordingImages{}
	cache := newFakeCache()
	h := &propertyapp.AttachImageHandler{UoWFactory: factory, Images: images, Cache: cache}
	ctx := context.Background()

	view, err := h.Handle(ctx, propertyapp.AttachImageCommand{
		PropertyID:  "villa",
		FileName:    "Front.JPG",
		ContentType: "image/jpeg",
		Size:        4,
		Body:        bytes.NewReader([]byte("jpeg")),
	})
	require.NoError(t, err)
	require.Len(t, images.keys, 1)
	assert.True(t, strings.HasPrefix(images.keys[0], "properties/villa/"))
	assert.True(t, strings.HasSuffix(images.keys[0], ".jpg"))
	assert.Equal(t, []string{"https://cdn.test/" + images.keys[0]}, view.Images)
	assert.Equal(t, 1, cache.invalidated)

	_, err = h.Handle(ctx, propertyapp.AttachImageCommand{
		PropertyID: "villa", FileName: "notes.txt", ContentType: "text/plain", Size: 4, Body: strings.NewReader("text"),
	})
	assert.ErrorIs(t, err, propertyapp.ErrUnsupportedImage)

	_, err = (&propertyapp.AttachImageHandler{UoWFactory: factory}).Handle(ctx, propertyapp.AttachImageCommand{
		PropertyID: "villa", FileName: "a.png", ContentType: "image/png", Size: 1, Body: strings.NewReader("x"),
	})
	assert.ErrorIs(t, err, propertyapp.ErrImageStorageUnavailable)
}

func TestPropertyReadsExpandOwner(t *testing.T) {
	factory := memory.NewFactory()
	ctx := context.Background()
	owner, err := domainuser.NewUser(domainuser.CreateParams{
		ID: "admin", Email: "admin@staywise.com", FirstName: "Ada", LastName: "Admin", PasswordHash: "hash",
	})
	require.NoError(t, err)
	require.NoError(t, factory.Users.Save(ctx, owner))
	seedProperties(t, factory)

	catalog, err := (&propertyapp.SearchCatalogHandler{UoWFactory: factory}).Handle(ctx, propertyapp.SearchCatalogQuery{})
	require.NoError(t, err)
	require.NotEmpty(t, catalog.Properties)
	assert.Equal(t, &dto.OwnerView{ID: "admin", FirstName: "Ada", LastName: "Admin"}, catalog.Properties[0].Owner)

	full := &dto.OwnerView{ID: "admin", FirstName: "Ada", LastName: "Admin", Email: "admin@staywise.com"}
	view, err := (&propertyapp.GetPropertyHandler{UoWFactory: factory}).Handle(ctx, propertyapp.GetPropertyQuery{ID: "villa"})
	require.NoError(t, err)
	assert.Equal(t, full, view.Owner)

	all, err := (&propertyapp.ListPropertiesHandler{UoWFactory: factory}).Handle(ctx, propertyapp.ListPropertiesQuery{})
	require.NoError(t, err)
	for _, p := range all.Properties {
		assert.Equal(t, full, p.Owner)
	}

	approved := true
	updated, err := (&propertyapp.UpdatePropertyHandler{UoWFactory: factory}).Handle(ctx, propertyapp.UpdatePropertyCommand{PropertyID: "studio", Approved: &approved})
	require.NoError(t, err)
	assert.Equal(t, full, updated.Owner)
}
