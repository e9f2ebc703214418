package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	propertiesCollection   = "properties"
	bookingsCollection     = "bookings"
	usersCollection        = "users"
	bookingLocksCollection = "booking_locks"
	idempotencyCollection  = "app_idempotency"
)

type Client struct {
	DB *mongo.Database
}

func New(ctx context.Context, uri, database string) (*Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	opts := options.Client().ApplyURI(uri).SetRetryWrites(true)
	m, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := m.Ping(ctx, nil); err != nil {
		_ = m.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return &Client{DB: m.Database(database)}, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.DB.Client().Ping(ctx, nil)
}

func (c *Client) Close(ctx context.Context) error {
	return c.DB.Client().Disconnect(ctx)
}

// EnsureIndexes creates the indexes the repositories rely on. Transactions
// cannot create collections implicitly on older servers, so the lock
// collection is touched here as well.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	specs := []struct {
		collection string
		models     []mongo.IndexModel
	}{
		{propertiesCollection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
			{Keys: bson.D{{Key: "is_active", Value: 1}, {Key: "type", Value: 1}, {Key: "price_cents", Value: 1}}},
		}},
		{bookingsCollection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "property_id", Value: 1}, {Key: "status", Value: 1}, {Key: "check_in", Value: 1}, {Key: "check_out", Value: 1}}},
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		}},
		{usersCollection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		}},
	}
	for _, spec := range specs {
		if _, err := c.DB.Collection(spec.collection).Indexes().CreateMany(ctx, spec.models); err != nil {
			return fmt.Errorf("indexes %s: %w", spec.collection, err)
		}
	}
	names, err := c.DB.ListCollectionNames(ctx, bson.M{"name": bookingLocksCollection})
	if err != nil {
		return err
	}
	if len(names) == 0 {
		if err := c.DB.CreateCollection(ctx, bookingLocksCollection); err != nil {
			return fmt.Errorf("create %s: %w", bookingLocksCollection, err)
		}
	}
	return nil
}
