package postgres

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domainbooking "staywise/internal/domain/booking"
	domainproperties "staywise/internal/domain/properties"
	"staywise/internal/domain/shared/daterange"
	domainuser "staywise/internal/domain/user"
)

const newestFirst = "created_at DESC, id DESC"

type PropertyRepository struct {
	db *gorm.DB
}

func NewPropertyRepository(db *gorm.DB) *PropertyRepository {
	return &PropertyRepository{db: db}
}

func (r *PropertyRepository) ByID(ctx context.Context, id domainproperties.ID) (*domainproperties.Property, error) {
	var m propertyModel
	if err := conn(ctx, r.db).Where("id = ?", string(id)).Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainproperties.ErrNotFound
		}
		return nil, err
	}
	return m.toDomain(), nil
}

func (r *PropertyRepository) Save(ctx context.Context, p *domainproperties.Property) error {
	if p == nil || p.ID == "" {
		return domainproperties.ErrIDRequired
	}
	m := newPropertyModel(p)
	return conn(ctx, r.db).Save(&m).Error
}

func (r *PropertyRepository) Search(ctx context.Context, filter domainproperties.Filter) (domainproperties.Page, error) {
	filter = filter.Normalized()
	var total int64
	if err := searchScope(conn(ctx, r.db).Model(&propertyModel{}), filter).Count(&total).Error; err != nil {
		return domainproperties.Page{}, err
	}
	var rows []propertyModel
	err := searchScope(conn(ctx, r.db), filter).
		Order(newestFirst).
		Offset(filter.Offset()).
		Limit(filter.Limit).
		Find(&rows).Error
	if err != nil {
		return domainproperties.Page{}, err
	}
	return domainproperties.Page{Items: propertiesFromRows(rows), Total: int(total), Page: filter.Page, Limit: filter.Limit}, nil
}

func (r *PropertyRepository) List(ctx context.Context) ([]*domainproperties.Property, error) {
	var rows []propertyModel
	if err := conn(ctx, r.db).Order(newestFirst).Find(&rows).Error; err != nil {
		return nil, err
	}
	return propertiesFromRows(rows), nil
}

func searchScope(db *gorm.DB, f domainproperties.Filter) *gorm.DB {
	if f.OnlyActive {
		db = db.Where("is_active = ?", true)
	}
	if f.Search != "" {
		pattern := likePattern(f.Search)
		db = db.Where("(title ILIKE ? OR description ILIKE ?)", pattern, pattern)
	}
	if f.Type != "" {
		db = db.Where("type = ?", string(f.Type))
	}
	if f.MinPriceCents > 0 {
		db = db.Where("price_cents >= ?", f.MinPriceCents)
	}
	if f.MaxPriceCents != nil {
		db = db.Where("price_cents <= ?", *f.MaxPriceCents)
	}
	if f.MinCapacity > 0 {
		db = db.Where("capacity >= ?", f.MinCapacity)
	}
	if f.City != "" {
		db = db.Where("city ILIKE ?", likePattern(f.City))
	}
	return db
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(substr string) string {
	return "%" + likeEscaper.Replace(substr) + "%"
}

func propertiesFromRows(rows []propertyModel) []*domainproperties.Property {
	out := make([]*domainproperties.Property, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out
}

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.ID) (*domainbooking.Booking, error) {
	var m bookingModel
	if err := conn(ctx, r.db).Where("id = ?", string(id)).Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainbooking.ErrNotFound
		}
		return nil, err
	}
	return m.toDomain(), nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	if b == nil || b.ID == "" {
		return domainbooking.ErrIDRequired
	}
	m := newBookingModel(b)
	return conn(ctx, r.db).Save(&m).Error
}

func (r *BookingRepository) FindConflict(ctx context.Context, propertyID domainproperties.ID, dr daterange.DateRange) (*domainbooking.Booking, error) {
	var m bookingModel
	err := conflictScope(conn(ctx, r.db), propertyID, dr).Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return m.toDomain(), nil
}

func conflictScope(db *gorm.DB, propertyID domainproperties.ID, dr daterange.DateRange) *gorm.DB {
	statuses := make([]string, 0, len(domainbooking.BlockingStatuses))
	for _, s := range domainbooking.BlockingStatuses {
		statuses = append(statuses, string(s))
	}
	return db.
		Where("property_id = ?", string(propertyID)).
		Where("status IN ?", statuses).
		Where("check_in < ? AND check_out > ?", dr.CheckOut, dr.CheckIn)
}

func (r *BookingRepository) ListByRequester(ctx context.Context, requesterID domainuser.ID) ([]*domainbooking.Booking, error) {
	return r.find(conn(ctx, r.db).Where("user_id = ?", string(requesterID)))
}

func (r *BookingRepository) List(ctx context.Context) ([]*domainbooking.Booking, error) {
	return r.find(conn(ctx, r.db))
}

func (r *BookingRepository) find(db *gorm.DB) ([]*domainbooking.Booking, error) {
	var rows []bookingModel
	if err := db.Order(newestFirst).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*domainbooking.Booking, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) ByID(ctx context.Context, id domainuser.ID) (*domainuser.User, error) {
	return r.take(conn(ctx, r.db).Where("id = ?", string(id)))
}

func (r *UserRepository) ByEmail(ctx context.Context, email string) (*domainuser.User, error) {
	return r.take(conn(ctx, r.db).Where("email = ?", domainuser.NormalizeEmail(email)))
}

func (r *UserRepository) Save(ctx context.Context, u *domainuser.User) error {
	if u == nil || u.ID == "" {
		return domainuser.ErrIDRequired
	}
	m := newUserModel(u)
	err := conn(ctx, r.db).Save(&m).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domainuser.ErrEmailAlreadyUsed
	}
	return err
}

func (r *UserRepository) List(ctx context.Context) ([]*domainuser.User, error) {
	var rows []userModel
	if err := conn(ctx, r.db).Order(newestFirst).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*domainuser.User, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *UserRepository) take(db *gorm.DB) (*domainuser.User, error) {
	var m userModel
	if err := db.Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainuser.ErrNotFound
		}
		return nil, err
	}
	return m.toDomain(), nil
}

func lockingClause() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}

// lockPropertyRow takes a row lock on the property for the rest of the transaction.
func lockPropertyRow(tx *gorm.DB, id domainproperties.ID) error {
	var m propertyModel
	err := tx.Clauses(lockingClause()).
		Select("id").
		Where("id = ?", string(id)).
		Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainproperties.ErrNotFound
	}
	return err
}

var (
	_ domainproperties.Repository = (*PropertyRepository)(nil)
	_ domainbooking.Repository    = (*BookingRepository)(nil)
	_ domainuser.Repository       = (*UserRepository)(nil)
)
