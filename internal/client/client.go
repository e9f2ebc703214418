package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"staywise/internal/app/dto"
)

var (
	ErrBaseURLRequired = errors.New("client: base url is required")
	ErrNotLoggedIn     = errors.New("client: not logged in")
)

// FieldError is one entry of a validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Message string
	Fields  []FieldError
}

func (e *APIError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("api: %d %s", e.Status, e.Message)
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Message)
	}
	return fmt.Sprintf("api: %d %s (%s)", e.Status, e.Message, strings.Join(parts, "; "))
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []FieldError    `json:"errors"`
}

// Client talks to the StayWise API. The session is passed in explicitly;
// Login and Signup fill it, Logout clears it.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Session *Session
}

func New(baseURL string, session *Session) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return nil, ErrBaseURLRequired
	}
	if session == nil {
		session = &Session{}
	}
	return &Client{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
		Session: session,
	}, nil
}

type SignupInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (c *Client) Signup(ctx context.Context, in SignupInput) (*dto.AuthResponse, error) {
	var out dto.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/signup", nil, in, &out, false); err != nil {
		return nil, err
	}
	c.Session.Set(out.Token, out.User)
	return &out, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*dto.AuthResponse, error) {
	var out dto.AuthResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, body, &out, false); err != nil {
		return nil, err
	}
	c.Session.Set(out.Token, out.User)
	return &out, nil
}

// Logout forgets the credential locally; the API keeps no session state.
func (c *Client) Logout() error {
	return c.Session.Clear()
}

func (c *Client) Me(ctx context.Context) (*dto.UserProfile, error) {
	var out struct {
		User dto.UserProfile `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, nil, &out, true); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// CatalogFilter is the public property search. Prices are in major units;
// a nil MaxPrice sends no upper bound.
type CatalogFilter struct {
	Search   string
	Type     string
	MinPrice float64
	MaxPrice *float64
	Capacity int
	City     string
	Page     int
	Limit    int
}

func (f CatalogFilter) values() url.Values {
	v := url.Values{}
	set := func(key, value string) {
		if value != "" {
			v.Set(key, value)
		}
	}
	set("search", f.Search)
	set("type", f.Type)
	set("city", f.City)
	if f.MinPrice > 0 {
		v.Set("minPrice", strconv.FormatFloat(f.MinPrice, 'f', -1, 64))
	}
	if f.MaxPrice != nil {
		v.Set("maxPrice", strconv.FormatFloat(*f.MaxPrice, 'f', -1, 64))
	}
	if f.Capacity > 0 {
		v.Set("capacity", strconv.Itoa(f.Capacity))
	}
	if f.Page > 0 {
		v.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		v.Set("limit", strconv.Itoa(f.Limit))
	}
	return v
}

func (c *Client) Properties(ctx context.Context, f CatalogFilter) (*dto.PropertyCatalog, error) {
	var out dto.PropertyCatalog
	if err := c.do(ctx, http.MethodGet, "/api/properties", f.values(), nil, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Property(ctx context.Context, id string) (*dto.PropertyView, error) {
	var out struct {
		Property dto.PropertyView `json:"property"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/properties/"+url.PathEscape(id), nil, nil, &out, false); err != nil {
		return nil, err
	}
	return &out.Property, nil
}

type BookingInput struct {
	PropertyID string
	CheckIn    time.Time
	CheckOut   time.Time
	Guests     int
	// IdempotencyKey is sent as a header when set.
	IdempotencyKey string
}

func (c *Client) CreateBooking(ctx context.Context, in BookingInput) (*dto.BookingView, error) {
	body := map[string]any{
		"propertyId": in.PropertyID,
		"checkIn":    in.CheckIn.UTC().Format(time.RFC3339),
		"checkOut":   in.CheckOut.UTC().Format(time.RFC3339),
		"guests":     in.Guests,
	}
	var headers []string
	if in.IdempotencyKey != "" {
		headers = append(headers, "Idempotency-Key", in.IdempotencyKey)
	}
	var out struct {
		Booking dto.BookingView `json:"booking"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/bookings", nil, body, &out, true, headers...); err != nil {
		return nil, err
	}
	return &out.Booking, nil
}

func (c *Client) MyBookings(ctx context.Context) ([]dto.BookingView, error) {
	var out dto.BookingList
	if err := c.do(ctx, http.MethodGet, "/api/bookings/my-bookings", nil, nil, &out, true); err != nil {
		return nil, err
	}
	return out.Bookings, nil
}

func (c *Client) AllBookings(ctx context.Context) ([]dto.BookingView, error) {
	var out dto.BookingList
	if err := c.do(ctx, http.MethodGet, "/api/bookings", nil, nil, &out, true); err != nil {
		return nil, err
	}
	return out.Bookings, nil
}

func (c *Client) UpdateBookingStatus(ctx context.Context, id, status string) (*dto.BookingView, error) {
	var out struct {
		Booking dto.BookingView `json:"booking"`
	}
	body := map[string]string{"status": status}
	if err := c.do(ctx, http.MethodPut, "/api/bookings/"+url.PathEscape(id), nil, body, &out, true); err != nil {
		return nil, err
	}
	return &out.Booking, nil
}

func (c *Client) Users(ctx context.Context) ([]dto.UserProfile, error) {
	var out dto.UserList
	if err := c.do(ctx, http.MethodGet, "/api/users", nil, nil, &out, true); err != nil {
		return nil, err
	}
	return out.Users, nil
}

type UserUpdate struct {
	Role     *string `json:"role,omitempty"`
	IsActive *bool   `json:"isActive,omitempty"`
}

func (c *Client) UpdateUser(ctx context.Context, id string, in UserUpdate) (*dto.UserProfile, error) {
	var out struct {
		User dto.UserProfile `json:"user"`
	}
	if err := c.do(ctx, http.MethodPut, "/api/users/"+url.PathEscape(id), nil, in, &out, true); err != nil {
		return nil, err
	}
	return &out.User, nil
}

type PropertyUpdate struct {
	IsApproved *bool `json:"isApproved,omitempty"`
	IsActive   *bool `json:"isActive,omitempty"`
}

func (c *Client) UpdateProperty(ctx context.Context, id string, in PropertyUpdate) (*dto.PropertyView, error) {
	var out struct {
		Property dto.PropertyView `json:"property"`
	}
	if err := c.do(ctx, http.MethodPut, "/api/properties/"+url.PathEscape(id), nil, in, &out, true); err != nil {
		return nil, err
	}
	return &out.Property, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any, auth bool, headers ...string) error {
	if c == nil || c.BaseURL == "" {
		return ErrBaseURLRequired
	}
	target := c.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		if !c.Session.LoggedIn() {
			return ErrNotLoggedIn
		}
		req.Header.Set("Authorization", "Bearer "+c.Session.Token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, 8<<20)).Decode(&env); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return fmt.Errorf("client: decode %s %s: %w", method, path, err)
	}
	if resp.StatusCode >= http.StatusBadRequest || !env.Success {
		return &APIError{Status: resp.StatusCode, Message: env.Message, Fields: env.Errors}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("client: decode %s %s: %w", method, path, err)
	}
	return nil
}
