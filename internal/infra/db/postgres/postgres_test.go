package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	domainbooking "staywise/internal/domain/booking"
	domainproperties "staywise/internal/domain/properties"
	"staywise/internal/domain/shared/daterange"
	"staywise/internal/domain/shared/money"
)

// dryRun builds statements without a server.
func dryRun(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=localhost dbname=staywise_test"}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)
	return db
}

func TestConflictScopeIsHalfOpen(t *testing.T) {
	db := dryRun(t)
	dr := daterange.DateRange{
		CheckIn:  time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2024, 12, 20, 0, 0, 0, 0, time.UTC),
	}
	var m bookingModel
	stmt := conflictScope(db.Session(&gorm.Session{}), "p-1", dr).Take(&m).Statement
	sql := stmt.SQL.String()

	assert.Contains(t, sql, "property_id = $1")
	assert.Contains(t, sql, "status IN ($2,$3)")
	assert.Contains(t, sql, "check_in < $4 AND check_out > $5")
	require.Len(t, stmt.Vars, 5)
	assert.Equal(t, "p-1", stmt.Vars[0])
	assert.Equal(t, string(domainbooking.StatusPending), stmt.Vars[1])
	assert.Equal(t, dr.CheckOut, stmt.Vars[3])
	assert.Equal(t, dr.CheckIn, stmt.Vars[4])
}

func TestSearchScopeAppliesFilters(t *testing.T) {
	db := dryRun(t)
	f := domainproperties.Filter{Search: "50%_off", City: "Aspen", MinCapacity: 2, OnlyActive: true, Type: domainproperties.TypeHouse}.Normalized()
	var rows []propertyModel
	stmt := searchScope(db.Session(&gorm.Session{}), f).Find(&rows).Statement
	sql := stmt.SQL.String()

	assert.Contains(t, sql, "is_active = $1")
	assert.Contains(t, sql, "(title ILIKE $2 OR description ILIKE $3)")
	assert.Contains(t, sql, "type = $4")
	assert.Contains(t, sql, "capacity >= $5")
	assert.Contains(t, sql, "city ILIKE $6")
	assert.Equal(t, `%50\%\_off%`, stmt.Vars[1])
	assert.Equal(t, "%aspen%", stmt.Vars[5])
}

func TestSearchScopeKeepsZeroMaxPrice(t *testing.T) {
	db := dryRun(t)
	f := domainproperties.Filter{MaxPriceCents: domainproperties.PriceBound(0)}.Normalized()
	var rows []propertyModel
	stmt := searchScope(db.Session(&gorm.Session{}), f).Find(&rows).Statement

	assert.Contains(t, stmt.SQL.String(), "price_cents <= $1")
	require.Len(t, stmt.Vars, 1)
	assert.Equal(t, int64(0), stmt.Vars[0])
}

func TestLockPropertyRowUsesForUpdate(t *testing.T) {
	db := dryRun(t)
	tx := db.Session(&gorm.Session{}).WithContext(context.Background())
	var m propertyModel
	res := tx.Clauses(lockingClause()).Select("id").Where("id = ?", "p-1").Take(&m)
	assert.Contains(t, res.Statement.SQL.String(), "FOR UPDATE")
}

func TestModelRoundTrip(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	p, err := domainproperties.New(domainproperties.CreateParams{
		ID:        "p-1",
		Title:     "Loft",
		Images:    []string{"a.jpg"},
		Location:  domainproperties.Location{City: "Boston", Coordinates: [2]float64{-71.05, 42.36}},
		Price:     money.Cents(27500),
		Capacity:  6,
		Amenities: []string{"WiFi"},
		Type:      domainproperties.TypeHouse,
		OwnerID:   "admin",
		CreatedAt: created,
	})
	require.NoError(t, err)

	back := newPropertyModel(p).toDomain()
	assert.Equal(t, p.Images, back.Images)
	assert.Equal(t, p.Amenities, back.Amenities)
	assert.Equal(t, p.Location.Coordinates, back.Location.Coordinates)
	assert.Equal(t, int64(27500), back.Price.Amount)
	assert.True(t, back.Active)
	assert.True(t, created.Equal(back.CreatedAt))
}
