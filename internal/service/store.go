package service

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/arshitcc/rablo-api/internal/domain"
)

// UserStore is the credential store contract; satisfied by repo.Store
// (mongo) and repo.Memory.
type UserStore interface {
	CreateUser(ctx context.Context, u *domain.User) error
	FindUserByIdentity(ctx context.Context, identity string) (*domain.User, error)
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	FindUserByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)

	SetRefreshHash(ctx context.Context, id primitive.ObjectID, hash string) error
	RotateRefreshHash(ctx context.Context, id primitive.ObjectID, oldHash, newHash string) error
	ClearRefreshHash(ctx context.Context, id primitive.ObjectID) error

	SetVerifyToken(ctx context.Context, id primitive.ObjectID, hash string, expiry time.Time) error
	ConsumeVerifyToken(ctx context.Context, hash string) (*domain.User, error)

	SetResetToken(ctx context.Context, id primitive.ObjectID, hash string, expiry time.Time) error
	ResetPasswordByToken(ctx context.Context, hash, newPasswordHash string) (*domain.User, error)
	UpdatePasswordHash(ctx context.Context, id primitive.ObjectID, newHash string) error
}

// ProductStore is the catalog contract guarded by the authorization gate.
type ProductStore interface {
	CreateProduct(ctx context.Context, p *domain.Product) error
	UpdateProduct(ctx context.Context, id primitive.ObjectID, upd domain.ProductUpdate) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id primitive.ObjectID) error
	ListProducts(ctx context.Context, f domain.ProductFilter, page domain.PageRequest) ([]domain.Product, error)
}
