package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "staywise/internal/domain/booking"
	domainproperties "staywise/internal/domain/properties"
	"staywise/internal/domain/shared/daterange"
	"staywise/internal/domain/shared/money"
	domainuser "staywise/internal/domain/user"
)

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection(bookingsCollection)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.ID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	if b == nil || b.ID == "" {
		return domainbooking.ErrIDRequired
	}
	doc := newBookingDocument(b)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return mapWriteError(err)
}

// FindConflict runs the half-open overlap query against active bookings.
func (r *BookingRepository) FindConflict(ctx context.Context, propertyID domainproperties.ID, dr daterange.DateRange) (*domainbooking.Booking, error) {
	query := bson.M{
		"property_id": string(propertyID),
		"status":      bson.M{"$in": blockingStatuses()},
		"check_in":    bson.M{"$lt": dr.CheckOut.UnixMilli()},
		"check_out":   bson.M{"$gt": dr.CheckIn.UnixMilli()},
	}
	var doc bookingDocument
	if err := r.col.FindOne(ctx, query).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *BookingRepository) ListByRequester(ctx context.Context, requesterID domainuser.ID) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{"user_id": string(requesterID)})
}

func (r *BookingRepository) List(ctx context.Context) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{})
}

func (r *BookingRepository) find(ctx context.Context, query bson.M) ([]*domainbooking.Booking, error) {
	cur, err := r.col.Find(ctx, query, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var docs []bookingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainbooking.Booking, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toDomain())
	}
	return out, nil
}

func blockingStatuses() bson.A {
	out := bson.A{}
	for _, s := range domainbooking.BlockingStatuses {
		out = append(out, string(s))
	}
	return out
}

type bookingDocument struct {
	ID              string `bson:"_id"`
	PropertyID      string `bson:"property_id"`
	UserID          string `bson:"user_id"`
	CheckIn         int64  `bson:"check_in"`
	CheckOut        int64  `bson:"check_out"`
	Guests          int    `bson:"guests"`
	TotalPriceCents int64  `bson:"total_price_cents"`
	Currency        string `bson:"currency"`
	Status          string `bson:"status"`
	CreatedAt       int64  `bson:"created_at"`
	UpdatedAt       int64  `bson:"updated_at"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:              string(b.ID),
		PropertyID:      string(b.PropertyID),
		UserID:          string(b.RequesterID),
		CheckIn:         b.Range.CheckIn.UnixMilli(),
		CheckOut:        b.Range.CheckOut.UnixMilli(),
		Guests:          b.Guests,
		TotalPriceCents: b.TotalPrice.Amount,
		Currency:        b.TotalPrice.Currency,
		Status:          string(b.Status),
		CreatedAt:       b.CreatedAt.UnixMilli(),
		UpdatedAt:       b.UpdatedAt.UnixMilli(),
	}
}

func (d bookingDocument) toDomain() *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:          domainbooking.ID(d.ID),
		PropertyID:  domainproperties.ID(d.PropertyID),
		RequesterID: domainuser.ID(d.UserID),
		Range:       daterange.DateRange{CheckIn: timestampToTime(d.CheckIn), CheckOut: timestampToTime(d.CheckOut)},
		Guests:      d.Guests,
		TotalPrice:  money.Money{Amount: d.TotalPriceCents, Currency: d.Currency},
		Status:      domainbooking.Status(d.Status),
		CreatedAt:   timestampToTime(d.CreatedAt),
		UpdatedAt:   timestampToTime(d.UpdatedAt),
	}
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
