package memory

import (
	"context"
	"sort"
	"sync"

	domainbooking "staywise/internal/domain/booking"
	domainproperties "staywise/internal/domain/properties"
	"staywise/internal/domain/shared/daterange"
	domainuser "staywise/internal/domain/user"
)

// PropertyRepository keeps the catalog in memory. Entities are copied on the
// way in and out so callers never share state with the store.
type PropertyRepository struct {
	mu    sync.RWMutex
	items map[domainproperties.ID]*domainproperties.Property
}

func NewPropertyRepository() *PropertyRepository {
	return &PropertyRepository{items: make(map[domainproperties.ID]*domainproperties.Property)}
}

func (r *PropertyRepository) ByID(ctx context.Context, id domainproperties.ID) (*domainproperties.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[id]
	if !ok {
		return nil, domainproperties.ErrNotFound
	}
	return p.Clone(), nil
}

func (r *PropertyRepository) Save(ctx context.Context, property *domainproperties.Property) error {
	if property == nil || property.ID == "" {
		return domainproperties.ErrIDRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[property.ID] = property.Clone()
	return nil
}

func (r *PropertyRepository) Search(ctx context.Context, filter domainproperties.Filter) (domainproperties.Page, error) {
	filter = filter.Normalized()
	r.mu.RLock()
	matches := make([]*domainproperties.Property, 0, len(r.items))
	for _, p := range r.items {
		if err := ctx.Err(); err != nil {
			r.mu.RUnlock()
			return domainproperties.Page{}, err
		}
		if filter.Matches(p) {
			matches = append(matches, p.Clone())
		}
	}
	r.mu.RUnlock()
	sortPropertiesNewestFirst(matches)
	return domainproperties.Paginate(matches, filter), nil
}

func (r *PropertyRepository) List(ctx context.Context) ([]*domainproperties.Property, error) {
	r.mu.RLock()
	out := make([]*domainproperties.Property, 0, len(r.items))
	for _, p := range r.items {
		out = append(out, p.Clone())
	}
	r.mu.RUnlock()
	sortPropertiesNewestFirst(out)
	return out, nil
}

func (r *PropertyRepository) exists(id domainproperties.ID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.items[id]
	return ok
}

func sortPropertiesNewestFirst(items []*domainproperties.Property) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID > items[j].ID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}

// BookingRepository keeps bookings in memory.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.ID]*domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.ID]*domainbooking.Booking)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.ID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrNotFound
	}
	return b.Clone(), nil
}

func (r *BookingRepository) Save(ctx context.Context, booking *domainbooking.Booking) error {
	if booking == nil || booking.ID == "" {
		return domainbooking.ErrIDRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[booking.ID] = booking.Clone()
	return nil
}

func (r *BookingRepository) FindConflict(ctx context.Context, propertyID domainproperties.ID, dr daterange.DateRange) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.items {
		if b.PropertyID == propertyID && b.Blocks(dr) {
			return b.Clone(), nil
		}
	}
	return nil, nil
}

func (r *BookingRepository) ListByRequester(ctx context.Context, requesterID domainuser.ID) ([]*domainbooking.Booking, error) {
	return r.collect(func(b *domainbooking.Booking) bool { return b.RequesterID == requesterID }), nil
}

func (r *BookingRepository) List(ctx context.Context) ([]*domainbooking.Booking, error) {
	return r.collect(func(*domainbooking.Booking) bool { return true }), nil
}

func (r *BookingRepository) collect(keep func(*domainbooking.Booking) bool) []*domainbooking.Booking {
	r.mu.RLock()
	out := make([]*domainbooking.Booking, 0, len(r.items))
	for _, b := range r.items {
		if keep(b) {
			out = append(out, b.Clone())
		}
	}
	r.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

var (
	_ domainproperties.Repository = (*PropertyRepository)(nil)
	_ domainbooking.Repository    = (*BookingRepository)(nil)
)
