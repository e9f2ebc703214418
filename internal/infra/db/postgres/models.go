package postgres

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	domainbooking "staywise/internal/domain/booking"
	domainproperties "staywise/internal/domain/properties"
	"staywise/internal/domain/shared/daterange"
	"staywise/internal/domain/shared/money"
	domainuser "staywise/internal/domain/user"
)

type propertyModel struct {
	ID          string         `gorm:"primaryKey;size:64"`
	Title       string         `gorm:"not null"`
	Description string         `gorm:"type:text"`
	Images      datatypes.JSON `gorm:"type:jsonb"`
	Address     string         `gorm:"size:255"`
	City        string         `gorm:"size:128;index"`
	Country     string         `gorm:"size:128"`
	Longitude   float64        `gorm:"not null;default:0"`
	Latitude    float64        `gorm:"not null;default:0"`
	PriceCents  int64          `gorm:"not null;index"`
	Currency    string         `gorm:"size:3;not null"`
	Capacity    int            `gorm:"not null"`
	Amenities   datatypes.JSON `gorm:"type:jsonb"`
	Type        string         `gorm:"size:16;index"`
	OwnerID     string         `gorm:"size:64"`
	IsActive    bool           `gorm:"index"`
	IsApproved  bool           `gorm:"not null"`
	CreatedAt   time.Time      `gorm:"index;autoCreateTime:false"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime:false"`
}

func (propertyModel) TableName() string { return "properties" }

type bookingModel struct {
	ID              string    `gorm:"primaryKey;size:64"`
	PropertyID      string    `gorm:"size:64;not null;index:idx_bookings_conflict,priority:1"`
	UserID          string    `gorm:"size:64;not null;index"`
	Status          string    `gorm:"size:16;not null;index:idx_bookings_conflict,priority:2"`
	CheckIn         time.Time `gorm:"not null;index:idx_bookings_conflict,priority:3"`
	CheckOut        time.Time `gorm:"not null"`
	Guests          int       `gorm:"not null"`
	TotalPriceCents int64     `gorm:"not null"`
	Currency        string    `gorm:"size:3;not null"`
	CreatedAt       time.Time `gorm:"index;autoCreateTime:false"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime:false"`
}

func (bookingModel) TableName() string { return "bookings" }

type userModel struct {
	ID           string    `gorm:"primaryKey;size:64"`
	Email        string    `gorm:"uniqueIndex;not null"`
	FirstName    string    `gorm:"size:128"`
	LastName     string    `gorm:"size:128"`
	PasswordHash string    `gorm:"not null"`
	Role         string    `gorm:"size:16;not null"`
	IsActive     bool      `gorm:"not null"`
	CreatedAt    time.Time `gorm:"index;autoCreateTime:false"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime:false"`
}

func (userModel) TableName() string { return "users" }

func newPropertyModel(p *domainproperties.Property) propertyModel {
	return propertyModel{
		ID:          string(p.ID),
		Title:       p.Title,
		Description: p.Description,
		Images:      jsonStrings(p.Images),
		Address:     p.Location.Address,
		City:        p.Location.City,
		Country:     p.Location.Country,
		Longitude:   p.Location.Coordinates[0],
		Latitude:    p.Location.Coordinates[1],
		PriceCents:  p.Price.Amount,
		Currency:    p.Price.Currency,
		Capacity:    p.Capacity,
		Amenities:   jsonStrings(p.Amenities),
		Type:        string(p.Type),
		OwnerID:     p.OwnerID,
		IsActive:    p.Active,
		IsApproved:  p.Approved,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (m propertyModel) toDomain() *domainproperties.Property {
	return &domainproperties.Property{
		ID:          domainproperties.ID(m.ID),
		Title:       m.Title,
		Description: m.Description,
		Images:      stringsFromJSON(m.Images),
		Location: domainproperties.Location{
			Address:     m.Address,
			City:        m.City,
			Country:     m.Country,
			Coordinates: [2]float64{m.Longitude, m.Latitude},
		},
		Price:     money.Money{Amount: m.PriceCents, Currency: m.Currency},
		Capacity:  m.Capacity,
		Amenities: stringsFromJSON(m.Amenities),
		Type:      domainproperties.Type(m.Type),
		OwnerID:   m.OwnerID,
		Active:    m.IsActive,
		Approved:  m.IsApproved,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

func newBookingModel(b *domainbooking.Booking) bookingModel {
	return bookingModel{
		ID:              string(b.ID),
		PropertyID:      string(b.PropertyID),
		UserID:          string(b.RequesterID),
		Status:          string(b.Status),
		CheckIn:         b.Range.CheckIn,
		CheckOut:        b.Range.CheckOut,
		Guests:          b.Guests,
		TotalPriceCents: b.TotalPrice.Amount,
		Currency:        b.TotalPrice.Currency,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

func (m bookingModel) toDomain() *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:          domainbooking.ID(m.ID),
		PropertyID:  domainproperties.ID(m.PropertyID),
		RequesterID: domainuser.ID(m.UserID),
		Range:       daterange.DateRange{CheckIn: m.CheckIn.UTC(), CheckOut: m.CheckOut.UTC()},
		Guests:      m.Guests,
		TotalPrice:  money.Money{Amount: m.TotalPriceCents, Currency: m.Currency},
		Status:      domainbooking.Status(m.Status),
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

func newUserModel(u *domainuser.User) userModel {
	return userModel{
		ID:           string(u.ID),
		Email:        domainuser.NormalizeEmail(u.Email),
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		IsActive:     u.Active,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (m userModel) toDomain() *domainuser.User {
	return &domainuser.User{
		ID:           domainuser.ID(m.ID),
		Email:        m.Email,
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		PasswordHash: m.PasswordHash,
		Role:         domainuser.Role(m.Role),
		Active:       m.IsActive,
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

func jsonStrings(values []string) datatypes.JSON {
	if values == nil {
		values = []string{}
	}
	raw, _ := json.Marshal(values)
	return datatypes.JSON(raw)
}

func stringsFromJSON(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
