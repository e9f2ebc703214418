package seed

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainbooking "staywise/internal/domain/booking"
	domainproperties "staywise/internal/domain/properties"
	"staywise/internal/infra/storage/memory"
)

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func repoSeedFile(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "data", "seed.toml")
}

func TestApplyDefaultSeed(t *testing.T) {
	f, err := Load(repoSeedFile(t))
	require.NoError(t, err)

	factory := memory.NewFactory()
	seeder := &Seeder{UoWFactory: factory, Passwords: plainHasher{}, Now: func() time.Time {
		return time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)
	}}
	ctx := context.Background()

	res, err := seeder.Apply(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, Result{Users: 4, Properties: 6, Bookings: 3}, res)

	admin, err := factory.Users.ByEmail(ctx, "admin@staywise.com")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())
	assert.Equal(t, "hashed:admin123", admin.PasswordHash)

	page, err := factory.Properties.Search(ctx, domainproperties.Filter{City: "malibu", OnlyActive: true})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, int64(45000), page.Items[0].Price.Amount)

	bookings, err := factory.Bookings.List(ctx)
	require.NoError(t, err)
	require.Len(t, bookings, 3)
	totals := map[domainbooking.Status]int{}
	var malibuTotal int64
	for _, b := range bookings {
		totals[b.Status]++
		if b.PropertyID == page.Items[0].ID {
			malibuTotal = b.TotalPrice.Amount
		}
		assert.Empty(t, b.PendingEvents())
	}
	assert.Equal(t, 2, totals[domainbooking.StatusConfirmed])
	assert.Equal(t, 1, totals[domainbooking.StatusPending])
	assert.Equal(t, int64(450*5*100), malibuTotal)

	again, err := seeder.Apply(ctx, f)
	require.NoError(t, err)
	assert.True(t, again.Skipped)
}

func TestApplyRejectsUnknownReferences(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.toml")
	body := `
[[users]]
key = "a"
email = "a@example.com"
password = "secret1"
first_name = "A"
last_name = "B"

[[properties]]
key = "p"
owner = "ghost"
title = "Nowhere"
price = 10
capacity = 1
type = "studio"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	f, err := Load(path)
	require.NoError(t, err)

	seeder := &Seeder{UoWFactory: memory.NewFactory(), Passwords: plainHasher{}}
	_, err = seeder.Apply(context.Background(), f)
	assert.ErrorIs(t, err, ErrUnknownReference)
}

func TestStableID(t *testing.T) {
	assert.Equal(t, stableID("user", "admin"), stableID("user", "admin"))
	assert.NotEqual(t, stableID("user", "admin"), stableID("property", "admin"))
}
