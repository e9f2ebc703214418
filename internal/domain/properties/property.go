package properties

import (
	"context"
	"errors"
	"strings"
	"time"

	"staywise/internal/domain/shared/money"
)

var (
	ErrNotFound         = errors.New("properties: property not found")
	ErrIDRequired       = errors.New("properties: id is required")
	ErrTitleRequired    = errors.New("properties: title is required")
	ErrInvalidType      = errors.New("properties: invalid property type")
	ErrInvalidCapacity  = errors.New("properties: capacity must be at least 1")
	ErrNegativePrice    = errors.New("properties: price must not be negative")
	ErrOwnerRequired    = errors.New("properties: owner is required")
	ErrImageURLRequired = errors.New("properties: image url is required")
)

type ID string

type Type string

const (
	TypeApartment Type = "apartment"
	TypeHouse     Type = "house"
	TypeVilla     Type = "villa"
	TypeStudio    Type = "studio"
)

// Types lists the accepted property types.
var Types = []Type{TypeApartment, TypeHouse, TypeVilla, TypeStudio}

func ParseType(raw string) (Type, error) {
	candidate := Type(strings.ToLower(strings.TrimSpace(raw)))
	for _, t := range Types {
		if t == candidate {
			return t, nil
		}
	}
	return "", ErrInvalidType
}

type Location struct {
	Address string
	City    string
	Country string
	// Coordinates holds longitude then latitude.
	Coordinates [2]float64
}

type Property struct {
	ID          ID
	Title       string
	Description string
	Images      []string
	Location    Location
	Price       money.Money
	Capacity    int
	Amenities   []string
	Type        Type
	OwnerID     string
	Active      bool
	Approved    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*Property, error)
	Save(ctx context.Context, property *Property) error
	// Search applies a normalized filter and returns one page, newest first.
	Search(ctx context.Context, filter Filter) (Page, error)
	// List returns every property regardless of flags, newest first.
	List(ctx context.Context) ([]*Property, error)
}

type CreateParams struct {
	ID          ID
	Title       string
	Description string
	Images      []string
	Location    Location
	Price       money.Money
	Capacity    int
	Amenities   []string
	Type        Type
	OwnerID     string
	Approved    bool
	CreatedAt   time.Time
}

func New(params CreateParams) (*Property, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	kind, err := ParseType(string(params.Type))
	if err != nil {
		return nil, err
	}
	if params.Capacity < 1 {
		return nil, ErrInvalidCapacity
	}
	if params.Price.IsNegative() {
		return nil, ErrNegativePrice
	}
	if strings.TrimSpace(params.OwnerID) == "" {
		return nil, ErrOwnerRequired
	}
	price := params.Price
	if price.Currency == "" {
		price.Currency = money.USD
	}
	now := params.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	return &Property{
		ID:          params.ID,
		Title:       title,
		Description: strings.TrimSpace(params.Description),
		Images:      append([]string(nil), params.Images...),
		Location:    params.Location,
		Price:       price,
		Capacity:    params.Capacity,
		Amenities:   append([]string(nil), params.Amenities...),
		Type:        kind,
		OwnerID:     params.OwnerID,
		Active:      true,
		Approved:    params.Approved,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (p *Property) SetApproved(approved bool, now time.Time) {
	p.Approved = approved
	p.touch(now)
}

func (p *Property) SetActive(active bool, now time.Time) {
	p.Active = active
	p.touch(now)
}

func (p *Property) AddImage(url string, now time.Time) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return ErrImageURLRequired
	}
	p.Images = append(p.Images, url)
	p.touch(now)
	return nil
}

func (p *Property) Clone() *Property {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Images = append([]string(nil), p.Images...)
	cp.Amenities = append([]string(nil), p.Amenities...)
	return &cp
}

func (p *Property) touch(now time.Time) {
	if now.IsZero() {
		now = time.Now()
	}
	p.UpdatedAt = now.UTC()
}
