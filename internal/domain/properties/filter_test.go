package properties

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staywise/internal/domain/shared/money"
)

func newProperty(t *testing.T, id string, mutate func(*CreateParams)) *Property {
	t.Helper()
	params := CreateParams{
		ID:          ID(id),
		Title:       "Cozy Studio",
		Description: "Quiet place near the park",
		Location:    Location{City: "Portland", Country: "USA"},
		Price:       money.Cents(9500),
		Capacity:    2,
		Type:        TypeStudio,
		OwnerID:     "owner-1",
		CreatedAt:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if mutate != nil {
		mutate(&params)
	}
	p, err := New(params)
	require.NoError(t, err)
	return p
}

func TestNormalizedDefaults(t *testing.T) {
	f := Filter{Search: "  Villa ", City: " Malibu", Type: "VILLA", Page: 0, Limit: 500}.Normalized()
	assert.Equal(t, "villa", f.Search)
	assert.Equal(t, "malibu", f.City)
	assert.Equal(t, TypeVilla, f.Type)
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, MaxPageSize, f.Limit)

	f = Filter{}.Normalized()
	assert.Equal(t, DefaultPageSize, f.Limit)
	assert.Equal(t, 0, f.Offset())
}

func TestMatches(t *testing.T) {
	villa := newProperty(t, "p-1", func(p *CreateParams) {
		p.Title = "Luxury Beach Villa"
		p.Type = TypeVilla
		p.Price = money.Cents(45000)
		p.Capacity = 8
		p.Location.City = "Malibu"
	})

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty filter", Filter{}, true},
		{"search title", Filter{Search: "beach"}, true},
		{"search description", Filter{Search: "PARK"}, true},
		{"search miss", Filter{Search: "cabin"}, false},
		{"type match", Filter{Type: TypeVilla}, true},
		{"type miss", Filter{Type: TypeHouse}, false},
		{"min price inclusive", Filter{MinPriceCents: 45000}, true},
		{"max price below", Filter{MaxPriceCents: PriceBound(40000)}, false},
		{"max price inclusive", Filter{MaxPriceCents: PriceBound(45000)}, true},
		{"max price zero", Filter{MaxPriceCents: PriceBound(0)}, false},
		{"capacity ok", Filter{MinCapacity: 8}, true},
		{"capacity too high", Filter{MinCapacity: 9}, false},
		{"city substring", Filter{City: "mali"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Normalized().Matches(villa))
		})
	}

	villa.SetActive(false, time.Now())
	assert.False(t, Filter{OnlyActive: true}.Normalized().Matches(villa))
	assert.True(t, Filter{}.Normalized().Matches(villa))
}

func TestPaginate(t *testing.T) {
	items := make([]*Property, 0, 25)
	for i := 0; i < 25; i++ {
		items = append(items, newProperty(t, fmt.Sprintf("p-%02d", i), nil))
	}

	page := Paginate(items, Filter{Page: 3, Limit: 10}.Normalized())
	assert.Len(t, page.Items, 5)
	assert.Equal(t, 25, page.Total)
	assert.Equal(t, 3, page.TotalPages())
	assert.False(t, page.HasNext())
	assert.True(t, page.HasPrev())

	first := Paginate(items, Filter{}.Normalized())
	assert.Len(t, first.Items, 10)
	assert.True(t, first.HasNext())
	assert.False(t, first.HasPrev())

	beyond := Paginate(items, Filter{Page: 9}.Normalized())
	assert.Empty(t, beyond.Items)

	empty := Paginate(nil, Filter{}.Normalized())
	assert.Equal(t, 0, empty.TotalPages())
	assert.False(t, empty.HasNext())
}

func TestNewPropertyValidation(t *testing.T) {
	_, err := New(CreateParams{ID: "p", Title: "x", Type: "castle", Capacity: 1, OwnerID: "o"})
	assert.ErrorIs(t, err, ErrInvalidType)
	_, err = New(CreateParams{ID: "p", Title: "x", Type: TypeHouse, Capacity: 0, OwnerID: "o"})
	assert.ErrorIs(t, err, ErrInvalidCapacity)
	_, err = New(CreateParams{ID: "p", Title: "x", Type: TypeHouse, Capacity: 1, OwnerID: "o", Price: money.Cents(-1)})
	assert.ErrorIs(t, err, ErrNegativePrice)

	p := newProperty(t, "p-1", nil)
	assert.True(t, p.Active)
	assert.False(t, p.Approved)
	require.NoError(t, p.AddImage("https://cdn/x.jpg", time.Now()))
	clone := p.Clone()
	clone.Images[0] = "mutated"
	assert.Equal(t, "https://cdn/x.jpg", p.Images[0])
}
