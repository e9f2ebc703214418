package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staywise/internal/app/dto"
)

func writeEnvelope(w http.ResponseWriter, status int, payload map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func newAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["password"] != "password123" {
			writeEnvelope(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Invalid credentials"})
			return
		}
		writeEnvelope(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Login successful",
			"data": dto.AuthResponse{
				Token: "token-1",
				User:  dto.UserProfile{ID: "u-1", Email: body["email"], Role: "admin"},
			},
		})
	})
	mux.HandleFunc("/api/properties", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "villa", q.Get("type"))
		assert.Equal(t, "150.5", q.Get("minPrice"))
		assert.Equal(t, "", q.Get("maxPrice"))
		writeEnvelope(w, http.StatusOK, map[string]any{
			"success": true,
			"data": dto.PropertyCatalog{
				Properties: []dto.PropertyView{{ID: "p-1", Price: 450}},
				Pagination: dto.Pagination{CurrentPage: 1, TotalPages: 1, TotalProperties: 1},
			},
		})
	})
	mux.HandleFunc("/api/bookings", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		assert.Equal(t, "key-1", r.Header.Get("Idempotency-Key"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["guests"].(float64) > 4 {
			writeEnvelope(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Property capacity is 4 guests"})
			return
		}
		if body["guests"].(float64) < 1 {
			writeEnvelope(w, http.StatusBadRequest, map[string]any{
				"success": false,
				"message": "Validation failed",
				"errors":  []map[string]string{{"field": "guests", "message": "must be at least 1"}},
			})
			return
		}
		writeEnvelope(w, http.StatusCreated, map[string]any{
			"success": true,
			"message": "Booking created successfully",
			"data":    map[string]any{"booking": dto.BookingView{ID: "b-1", TotalPrice: 900, Status: "pending"}},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestLoginStoresSession(t *testing.T) {
	srv := newAPI(t)
	path := filepath.Join(t.TempDir(), "session.json")
	session, err := LoadSession(path)
	require.NoError(t, err)
	assert.False(t, session.LoggedIn())

	c, err := New(srv.URL+"/", session)
	require.NoError(t, err)

	_, err = c.Login(context.Background(), "admin@staywise.com", "nope")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Invalid credentials", apiErr.Message)
	assert.False(t, session.LoggedIn())

	res, err := c.Login(context.Background(), "admin@staywise.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "token-1", res.Token)
	assert.True(t, session.IsAdmin())
	require.NoError(t, session.Save())

	reloaded, err := LoadSession(path)
	require.NoError(t, err)
	assert.Equal(t, "token-1", reloaded.Token)
	assert.Equal(t, "u-1", reloaded.User.ID)

	require.NoError(t, reloaded.Clear())
	assert.NoFileExists(t, path)
	again, err := LoadSession(path)
	require.NoError(t, err)
	assert.False(t, again.LoggedIn())
}

func TestAuthenticatedCallsRequireSession(t *testing.T) {
	srv := newAPI(t)
	c, err := New(srv.URL, nil)
	require.NoError(t, err)

	_, err = c.MyBookings(context.Background())
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestCreateBooking(t *testing.T) {
	srv := newAPI(t)
	session := &Session{}
	session.Set("token-1", dto.UserProfile{ID: "u-1", Role: "user"})
	c, err := New(srv.URL, session)
	require.NoError(t, err)

	in := BookingInput{
		PropertyID:     "p-1",
		CheckIn:        time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC),
		CheckOut:       time.Date(2024, 12, 17, 0, 0, 0, 0, time.UTC),
		Guests:         2,
		IdempotencyKey: "key-1",
	}
	b, err := c.CreateBooking(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "b-1", b.ID)
	assert.Equal(t, float64(900), b.TotalPrice)

	in.Guests = 6
	_, err = c.CreateBooking(context.Background(), in)
	assert.EqualError(t, err, "api: 400 Property capacity is 4 guests")

	in.Guests = 0
	_, err = c.CreateBooking(context.Background(), in)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Len(t, apiErr.Fields, 1)
	assert.Equal(t, "guests", apiErr.Fields[0].Field)
}

func TestPropertiesEncodesFilter(t *testing.T) {
	srv := newAPI(t)
	c, err := New(srv.URL, nil)
	require.NoError(t, err)

	catalog, err := c.Properties(context.Background(), CatalogFilter{Type: "villa", MinPrice: 150.5})
	require.NoError(t, err)
	require.Len(t, catalog.Properties, 1)
	assert.Equal(t, 1, catalog.Pagination.TotalProperties)
}

func TestCatalogFilterSendsZeroMaxPrice(t *testing.T) {
	zero := 0.0
	assert.Equal(t, "0", CatalogFilter{MaxPrice: &zero}.values().Get("maxPrice"))
	assert.False(t, CatalogFilter{}.values().Has("maxPrice"))
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New("  ", nil)
	assert.ErrorIs(t, err, ErrBaseURLRequired)
}
