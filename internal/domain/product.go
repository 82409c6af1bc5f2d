package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Product struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name       string             `bson:"name"        json:"name"`
	Price      float64            `bson:"price"       json:"price"`
	Company    string             `bson:"company"     json:"company"`
	IsFeatured bool               `bson:"is_featured" json:"is_featured"`
	Rating     float64            `bson:"rating"      json:"rating"`
	CreatedAt  time.Time          `bson:"created_at"  json:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at"  json:"updated_at"`
}

// ProductFilter narrows a catalog listing. Nil fields are ignored.
type ProductFilter struct {
	Featured  *bool
	MaxPrice  *float64
	MinRating *float64
}

// ProductUpdate carries the mutable fields of a product; nil means
// "leave unchanged".
type ProductUpdate struct {
	Name       *string
	Price      *float64
	Company    *string
	IsFeatured *bool
	Rating     *float64
}

// PageRequest selects one page of a listing. Page is 1-based; Offset is
// the page size (the upstream API calls it "offset", kept for client
// compatibility).
type PageRequest struct {
	Page   int64
	Offset int64
}

func (p PageRequest) Skip() int64 {
	page := p.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * p.Limit()
}

func (p PageRequest) Limit() int64 {
	if p.Offset < 1 {
		return 10
	}
	return p.Offset
}
