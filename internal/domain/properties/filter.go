package properties

import (
	"strings"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Filter is the catalog query. Zero values mean "not filtered"; prices are in
// cents and both bounds are inclusive. MaxPriceCents is nil when no upper
// bound was asked for, since a bound of zero still filters.
type Filter struct {
	Search        string
	Type          Type
	MinPriceCents int64
	MaxPriceCents *int64
	MinCapacity   int
	City          string
	OnlyActive    bool
	Page          int
	Limit         int
}

// Normalized returns a sanitized copy with paging defaults applied.
func (f Filter) Normalized() Filter {
	n := f
	n.Search = strings.ToLower(strings.TrimSpace(n.Search))
	n.City = strings.ToLower(strings.TrimSpace(n.City))
	n.Type = Type(strings.ToLower(strings.TrimSpace(string(n.Type))))
	if n.MinPriceCents < 0 {
		n.MinPriceCents = 0
	}
	if n.MaxPriceCents != nil {
		bound := *n.MaxPriceCents
		if bound < 0 {
			bound = 0
		}
		n.MaxPriceCents = &bound
	}
	if n.MinCapacity < 0 {
		n.MinCapacity = 0
	}
	if n.Page < 1 {
		n.Page = 1
	}
	if n.Limit <= 0 {
		n.Limit = DefaultPageSize
	}
	if n.Limit > MaxPageSize {
		n.Limit = MaxPageSize
	}
	return n
}

// PriceBound returns a price bound for Filter.MaxPriceCents.
func PriceBound(cents int64) *int64 {
	return &cents
}

func (f Filter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// Matches evaluates the filter against a single property. The filter is
// expected to be normalized.
func (f Filter) Matches(p *Property) bool {
	if p == nil {
		return false
	}
	if f.OnlyActive && !p.Active {
		return false
	}
	if f.Search != "" {
		title := strings.ToLower(p.Title)
		description := strings.ToLower(p.Description)
		if !strings.Contains(title, f.Search) && !strings.Contains(description, f.Search) {
			return false
		}
	}
	if f.Type != "" && p.Type != f.Type {
		return false
	}
	if f.MinPriceCents > 0 && p.Price.Amount < f.MinPriceCents {
		return false
	}
	if f.MaxPriceCents != nil && p.Price.Amount > *f.MaxPriceCents {
		return false
	}
	if f.MinCapacity > 0 && p.Capacity < f.MinCapacity {
		return false
	}
	if f.City != "" && !strings.Contains(strings.ToLower(p.Location.City), f.City) {
		return false
	}
	return true
}

// Page is one slice of a search result.
type Page struct {
	Items []*Property
	Total int
	Page  int
	Limit int
}

func (p Page) TotalPages() int {
	if p.Limit <= 0 || p.Total <= 0 {
		return 0
	}
	return (p.Total + p.Limit - 1) / p.Limit
}

func (p Page) HasNext() bool {
	return p.Page < p.TotalPages()
}

func (p Page) HasPrev() bool {
	return p.Page > 1
}

// Paginate cuts an already filtered and ordered result set.
func Paginate(items []*Property, f Filter) Page {
	page := Page{Total: len(items), Page: f.Page, Limit: f.Limit}
	start := f.Offset()
	if start >= len(items) {
		page.Items = []*Property{}
		return page
	}
	end := start + f.Limit
	if end > len(items) {
		end = len(items)
	}
	page.Items = items[start:end]
	return page
}
