package repo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/arshitcc/rablo-api/internal/domain"
)

func (s *Store) CreateProduct(ctx context.Context, p *domain.Product) error {
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if _, err := s.DB.Collection(productsColl).InsertOne(ctx, p); err != nil {
		return storeErr(err)
	}
	return nil
}

func (s *Store) UpdateProduct(ctx context.Context, id primitive.ObjectID, upd domain.ProductUpdate) (*domain.Product, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Price != nil {
		set["price"] = *upd.Price
	}
	if upd.Company != nil {
		set["company"] = *upd.Company
	}
	if upd.IsFeatured != nil {
		set["is_featured"] = *upd.IsFeatured
	}
	if upd.Rating != nil {
		set["rating"] = *upd.Rating
	}

	res := s.DB.Collection(productsColl).FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var p domain.Product
	if err := res.Decode(&p); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrNotFound
		}
		return nil, storeErr(err)
	}
	return &p, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.DB.Collection(productsColl).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return storeErr(err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListProducts returns one page sorted by rating, then recency.
func (s *Store) ListProducts(ctx context.Context, f domain.ProductFilter, page domain.PageRequest) ([]domain.Product, error) {
	filter := bson.M{}
	if f.Featured != nil {
		filter["is_featured"] = *f.Featured
	}
	if f.MaxPrice != nil {
		filter["price"] = bson.M{"$lte": *f.MaxPrice}
	}
	if f.MinRating != nil {
		filter["rating"] = bson.M{"$gte": *f.MinRating}
	}

	opts := options.Find().
		SetSort(bson.D{
			{Key: "rating", Value: -1},
			{Key: "updated_at", Value: -1},
			{Key: "created_at", Value: -1},
		}).
		SetSkip(page.Skip()).
		SetLimit(page.Limit())

	cur, err := s.DB.Collection(productsColl).Find(ctx, filter, opts)
	if err != nil {
		return nil, storeErr(err)
	}
	defer cur.Close(ctx)

	products := []domain.Product{}
	if err := cur.All(ctx, &products); err != nil {
		return nil, storeErr(err)
	}
	return products, nil
}
