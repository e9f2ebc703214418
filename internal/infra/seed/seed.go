// Package seed loads demo users, properties and bookings from a TOML file.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"

	"staywise/internal/app/uow"
	domainbooking "staywise/internal/domain/booking"
	domainproperties "staywise/internal/domain/properties"
	"staywise/internal/domain/shared/daterange"
	"staywise/internal/domain/shared/money"
	domainuser "staywise/internal/domain/user"
)

var ErrUnknownReference = errors.New("seed: unknown reference")

type File struct {
	Users      []User     `toml:"users"`
	Properties []Property `toml:"properties"`
	Bookings   []Booking  `toml:"bookings"`
}

type User struct {
	Key       string `toml:"key"`
	Email     string `toml:"email"`
	Password  string `toml:"password"`
	FirstName string `toml:"first_name"`
	LastName  string `toml:"last_name"`
	Role      string `toml:"role"`
}

type Property struct {
	Key         string     `toml:"key"`
	Owner       string     `toml:"owner"`
	Title       string     `toml:"title"`
	Description string     `toml:"description"`
	Images      []string   `toml:"images"`
	Address     string     `toml:"address"`
	City        string     `toml:"city"`
	Country     string     `toml:"country"`
	Coordinates [2]float64 `toml:"coordinates"`
	Price       float64    `toml:"price"`
	Capacity    int        `toml:"capacity"`
	Amenities   []string   `toml:"amenities"`
	Type        string     `toml:"type"`
	Approved    bool       `toml:"approved"`
}

type Booking struct {
	Property string `toml:"property"`
	User     string `toml:"user"`
	CheckIn  string `toml:"check_in"`
	CheckOut string `toml:"check_out"`
	Guests   int    `toml:"guests"`
	Status   string `toml:"status"`
}

// Load decodes a seed file.
func Load(path string) (*File, error) {
	var f File
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("seed: decode %s: %w", path, err)
	}
	return &f, nil
}

type PasswordHasher interface {
	Hash(password string) (string, error)
}

// Seeder writes a seed file through a unit of work.
type Seeder struct {
	UoWFactory uow.UoWFactory
	Passwords  PasswordHasher
	Logger     *slog.Logger
	Now        func() time.Time
}

// Result counts the records written by Apply.
type Result struct {
	Users      int
	Properties int
	Bookings   int
	Skipped    bool
}

// Apply inserts the file's records unless the store already has users.
// Bookings are priced with the same rules as live requests.
func (s *Seeder) Apply(ctx context.Context, f *File) (Result, error) {
	if s.UoWFactory == nil || s.Passwords == nil {
		return Result{}, errors.New("seed: unit of work factory and password hasher required")
	}
	unit, err := s.UoWFactory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return Result{}, err
	}
	ctx = uow.Enter(ctx, unit)
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(ctx)
		}
	}()

	existing, err := unit.Users().List(ctx)
	if err != nil {
		return Result{}, err
	}
	if len(existing) > 0 {
		return Result{Skipped: true}, nil
	}

	now := s.now()
	var res Result
	users := make(map[string]*domainuser.User, len(f.Users))
	for i, entry := range f.Users {
		u, err := s.buildUser(entry, now.Add(time.Duration(i)*time.Second))
		if err != nil {
			return Result{}, err
		}
		if err := unit.Users().Save(ctx, u); err != nil {
			return Result{}, fmt.Errorf("seed: user %s: %w", entry.Key, err)
		}
		users[entry.Key] = u
		res.Users++
	}

	props := make(map[string]*domainproperties.Property, len(f.Properties))
	for i, entry := range f.Properties {
		owner, ok := users[entry.Owner]
		if !ok {
			return Result{}, fmt.Errorf("%w: property %s owner %q", ErrUnknownReference, entry.Key, entry.Owner)
		}
		p, err := buildProperty(entry, owner.ID, now.Add(time.Duration(i)*time.Second))
		if err != nil {
			return Result{}, fmt.Errorf("seed: property %s: %w", entry.Key, err)
		}
		if err := unit.Properties().Save(ctx, p); err != nil {
			return Result{}, err
		}
		props[entry.Key] = p
		res.Properties++
	}

	for i, entry := range f.Bookings {
		b, err := buildBooking(entry, props, users, now.Add(time.Duration(i)*time.Second))
		if err != nil {
			return Result{}, err
		}
		if err := unit.Bookings().Save(ctx, b); err != nil {
			return Result{}, err
		}
		res.Bookings++
	}

	if err := unit.Commit(ctx); err != nil {
		return Result{}, err
	}
	committed = true
	if s.Logger != nil {
		s.Logger.InfoContext(ctx, "seed data loaded", "users", res.Users, "properties", res.Properties, "bookings", res.Bookings)
	}
	return res, nil
}

func (s *Seeder) buildUser(entry User, created time.Time) (*domainuser.User, error) {
	role := domainuser.RoleUser
	if entry.Role != "" {
		parsed, err := domainuser.ParseRole(entry.Role)
		if err != nil {
			return nil, fmt.Errorf("seed: user %s: %w", entry.Key, err)
		}
		role = parsed
	}
	hash, err := s.Passwords.Hash(entry.Password)
	if err != nil {
		return nil, err
	}
	return domainuser.NewUser(domainuser.CreateParams{
		ID:           domainuser.ID(stableID("user", entry.Key)),
		Email:        entry.Email,
		FirstName:    entry.FirstName,
		LastName:     entry.LastName,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    created,
	})
}

func buildProperty(entry Property, owner domainuser.ID, created time.Time) (*domainproperties.Property, error) {
	price, err := money.FromMajor(entry.Price)
	if err != nil {
		return nil, err
	}
	return domainproperties.New(domainproperties.CreateParams{
		ID:          domainproperties.ID(stableID("property", entry.Key)),
		Title:       entry.Title,
		Description: entry.Description,
		Images:      entry.Images,
		Location: domainproperties.Location{
			Address:     entry.Address,
			City:        entry.City,
			Country:     entry.Country,
			Coordinates: entry.Coordinates,
		},
		Price:     price,
		Capacity:  entry.Capacity,
		Amenities: entry.Amenities,
		Type:      domainproperties.Type(entry.Type),
		OwnerID:   string(owner),
		Approved:  entry.Approved,
		CreatedAt: created,
	})
}

func buildBooking(entry Booking, props map[string]*domainproperties.Property, users map[string]*domainuser.User, created time.Time) (*domainbooking.Booking, error) {
	property, ok := props[entry.Property]
	if !ok {
		return nil, fmt.Errorf("%w: booking property %q", ErrUnknownReference, entry.Property)
	}
	requester, ok := users[entry.User]
	if !ok {
		return nil, fmt.Errorf("%w: booking user %q", ErrUnknownReference, entry.User)
	}
	checkIn, err := daterange.ParseTime(entry.CheckIn)
	if err != nil {
		return nil, err
	}
	checkOut, err := daterange.ParseTime(entry.CheckOut)
	if err != nil {
		return nil, err
	}
	quote, err := domainbooking.Evaluate(property, daterange.DateRange{CheckIn: checkIn, CheckOut: checkOut}, entry.Guests)
	if err != nil {
		return nil, fmt.Errorf("seed: booking %s/%s: %w", entry.Property, entry.User, err)
	}
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:          domainbooking.ID(stableID("booking", entry.Property+"/"+entry.User+"/"+entry.CheckIn)),
		RequesterID: requester.ID,
		Quote:       quote,
		CreatedAt:   created,
	})
	if err != nil {
		return nil, err
	}
	if entry.Status != "" {
		if err := b.SetStatus(domainbooking.Status(entry.Status), created); err != nil {
			return nil, err
		}
	}
	b.ClearEvents()
	return b, nil
}

// stableID derives a UUID from the seed key so reseeding an empty store
// yields the same identifiers.
func stableID(kind, key string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("staywise:"+kind+":"+key)).String()
}

func (s *Seeder) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
