package service

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/arshitcc/rablo-api/internal/domain"
)

// Products is the catalog collaborator; it trusts the identity resolved
// by the authorization gate and adds no auth logic of its own.
type Products struct {
	store ProductStore
}

func NewProducts(store ProductStore) *Products {
	return &Products{store: store}
}

func (p *Products) Create(ctx context.Context, prod *domain.Product) error {
	return p.store.CreateProduct(ctx, prod)
}

func (p *Products) Update(ctx context.Context, id primitive.ObjectID, upd domain.ProductUpdate) (*domain.Product, error) {
	return p.store.UpdateProduct(ctx, id, upd)
}

func (p *Products) Delete(ctx context.Context, id primitive.ObjectID) error {
	return p.store.DeleteProduct(ctx, id)
}

func (p *Products) List(ctx context.Context, f domain.ProductFilter, page domain.PageRequest) ([]domain.Product, error) {
	return p.store.ListProducts(ctx, f, page)
}
