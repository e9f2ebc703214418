package mongo

import (
	"context"
	"errors"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainproperties "staywise/internal/domain/properties"
	"staywise/internal/domain/shared/money"
)

type PropertyRepository struct {
	col *mongo.Collection
}

func NewPropertyRepository(db *mongo.Database) *PropertyRepository {
	return &PropertyRepository{col: db.Collection(propertiesCollection)}
}

func (r *PropertyRepository) ByID(ctx context.Context, id domainproperties.ID) (*domainproperties.Property, error) {
	var doc propertyDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainproperties.ErrNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *PropertyRepository) Save(ctx context.Context, p *domainproperties.Property) error {
	if p == nil || p.ID == "" {
		return domainproperties.ErrIDRequired
	}
	doc := newPropertyDocument(p)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return err
}

func (r *PropertyRepository) Search(ctx context.Context, filter domainproperties.Filter) (domainproperties.Page, error) {
	filter = filter.Normalized()
	query := searchQuery(filter)
	total, err := r.col.CountDocuments(ctx, query)
	if err != nil {
		return domainproperties.Page{}, err
	}
	opts := options.Find().
		SetSort(newestFirst).
		SetSkip(int64(filter.Offset())).
		SetLimit(int64(filter.Limit))
	items, err := r.find(ctx, query, opts)
	if err != nil {
		return domainproperties.Page{}, err
	}
	return domainproperties.Page{Items: items, Total: int(total), Page: filter.Page, Limit: filter.Limit}, nil
}

func (r *PropertyRepository) List(ctx context.Context) ([]*domainproperties.Property, error) {
	return r.find(ctx, bson.M{}, options.Find().SetSort(newestFirst))
}

func (r *PropertyRepository) find(ctx context.Context, query bson.M, opts *options.FindOptions) ([]*domainproperties.Property, error) {
	cur, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var docs []propertyDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainproperties.Property, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toDomain())
	}
	return out, nil
}

var newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

func searchQuery(f domainproperties.Filter) bson.M {
	query := bson.M{}
	if f.OnlyActive {
		query["is_active"] = true
	}
	if f.Search != "" {
		pattern := primitiveRegex(f.Search)
		query["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"description": pattern},
		}
	}
	if f.Type != "" {
		query["type"] = string(f.Type)
	}
	price := bson.M{}
	if f.MinPriceCents > 0 {
		price["$gte"] = f.MinPriceCents
	}
	if f.MaxPriceCents != nil {
		price["$lte"] = *f.MaxPriceCents
	}
	if len(price) > 0 {
		query["price_cents"] = price
	}
	if f.MinCapacity > 0 {
		query["capacity"] = bson.M{"$gte": f.MinCapacity}
	}
	if f.City != "" {
		query["location.city"] = primitiveRegex(f.City)
	}
	return query
}

func primitiveRegex(substr string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(substr), "$options": "i"}
}

type propertyDocument struct {
	ID          string           `bson:"_id"`
	Title       string           `bson:"title"`
	Description string           `bson:"description"`
	Images      []string         `bson:"images"`
	Location    locationDocument `bson:"location"`
	PriceCents  int64            `bson:"price_cents"`
	Currency    string           `bson:"currency"`
	Capacity    int              `bson:"capacity"`
	Amenities   []string         `bson:"amenities"`
	Type        string           `bson:"type"`
	OwnerID     string           `bson:"owner_id"`
	IsActive    bool             `bson:"is_active"`
	IsApproved  bool             `bson:"is_approved"`
	CreatedAt   int64            `bson:"created_at"`
	UpdatedAt   int64            `bson:"updated_at"`
}

type locationDocument struct {
	Address     string     `bson:"address"`
	City        string     `bson:"city"`
	Country     string     `bson:"country"`
	Coordinates [2]float64 `bson:"coordinates"`
}

func newPropertyDocument(p *domainproperties.Property) propertyDocument {
	return propertyDocument{
		ID:          string(p.ID),
		Title:       p.Title,
		Description: p.Description,
		Images:      p.Images,
		Location: locationDocument{
			Address:     p.Location.Address,
			City:        p.Location.City,
			Country:     p.Location.Country,
			Coordinates: p.Location.Coordinates,
		},
		PriceCents: p.Price.Amount,
		Currency:   p.Price.Currency,
		Capacity:   p.Capacity,
		Amenities:  p.Amenities,
		Type:       string(p.Type),
		OwnerID:    p.OwnerID,
		IsActive:   p.Active,
		IsApproved: p.Approved,
		CreatedAt:  p.CreatedAt.UnixMilli(),
		UpdatedAt:  p.UpdatedAt.UnixMilli(),
	}
}

func (d propertyDocument) toDomain() *domainproperties.Property {
	return &domainproperties.Property{
		ID:          domainproperties.ID(d.ID),
		Title:       d.Title,
		Description: d.Description,
		Images:      d.Images,
		Location: domainproperties.Location{
			Address:     d.Location.Address,
			City:        d.Location.City,
			Country:     d.Location.Country,
			Coordinates: d.Location.Coordinates,
		},
		Price:     money.Money{Amount: d.PriceCents, Currency: d.Currency},
		Capacity:  d.Capacity,
		Amenities: d.Amenities,
		Type:      domainproperties.Type(d.Type),
		OwnerID:   d.OwnerID,
		Active:    d.IsActive,
		Approved:  d.IsApproved,
		CreatedAt: timestampToTime(d.CreatedAt),
		UpdatedAt: timestampToTime(d.UpdatedAt),
	}
}

var _ domainproperties.Repository = (*PropertyRepository)(nil)
