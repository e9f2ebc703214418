package dto

import (
	"time"

	domainproperties "staywise/internal/domain/properties"
	domainuser "staywise/internal/domain/user"
)

type LocationView struct {
	Address     string     `json:"address"`
	City        string     `json:"city"`
	Country     string     `json:"country"`
	Coordinates [2]float64 `json:"coordinates"`
}

type PropertyView struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Images      []string     `json:"images"`
	Location    LocationView `json:"location"`
	Price       float64      `json:"price"`
	Capacity    int          `json:"capacity"`
	Amenities   []string     `json:"amenities"`
	Type        string       `json:"type"`
	OwnerID     string       `json:"ownerId"`
	Owner       *OwnerView   `json:"owner,omitempty"`
	IsActive    bool         `json:"isActive"`
	IsApproved  bool         `json:"isApproved"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// OwnerView is the owner projection on property reads. The public catalog
// leaves Email out.
type OwnerView struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email,omitempty"`
}

func MapOwner(u *domainuser.User, withEmail bool) *OwnerView {
	if u == nil {
		return nil
	}
	view := &OwnerView{ID: string(u.ID), FirstName: u.FirstName, LastName: u.LastName}
	if withEmail {
		view.Email = u.Email
	}
	return view
}

type Pagination struct {
	CurrentPage     int  `json:"currentPage"`
	TotalPages      int  `json:"totalPages"`
	TotalProperties int  `json:"totalProperties"`
	HasNext         bool `json:"hasNext"`
	HasPrev         bool `json:"hasPrev"`
}

type PropertyCatalog struct {
	Properties []PropertyView `json:"properties"`
	Pagination Pagination     `json:"pagination"`
}

type PropertyList struct {
	Properties []PropertyView `json:"properties"`
}

func MapProperty(p *domainproperties.Property) PropertyView {
	if p == nil {
		return PropertyView{}
	}
	images := p.Images
	if images == nil {
		images = []string{}
	}
	amenities := p.Amenities
	if amenities == nil {
		amenities = []string{}
	}
	return PropertyView{
		ID:          string(p.ID),
		Title:       p.Title,
		Description: p.Description,
		Images:      append([]string(nil), images...),
		Location: LocationView{
			Address:     p.Location.Address,
			City:        p.Location.City,
			Country:     p.Location.Country,
			Coordinates: p.Location.Coordinates,
		},
		Price:      p.Price.Major(),
		Capacity:   p.Capacity,
		Amenities:  append([]string(nil), amenities...),
		Type:       string(p.Type),
		OwnerID:    p.OwnerID,
		IsActive:   p.Active,
		IsApproved: p.Approved,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func MapProperties(items []*domainproperties.Property) []PropertyView {
	out := make([]PropertyView, 0, len(items))
	for _, p := range items {
		out = append(out, MapProperty(p))
	}
	return out
}

func MapCatalog(page domainproperties.Page) PropertyCatalog {
	return PropertyCatalog{
		Properties: MapProperties(page.Items),
		Pagination: Pagination{
			CurrentPage:     page.Page,
			TotalPages:      page.TotalPages(),
			TotalProperties: page.Total,
			HasNext:         page.HasNext(),
			HasPrev:         page.HasPrev(),
		},
	}
}
