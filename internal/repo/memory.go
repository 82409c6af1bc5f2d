package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/arshitcc/rablo-api/internal/domain"
)

// Memory is an in-process store with the same method set as Store. It
// backs the tests and keeps them deterministic and daemon-free.
type Memory struct {
	mu       sync.Mutex
	users    map[primitive.ObjectID]*domain.User
	products map[primitive.ObjectID]*domain.Product

	// FailWrites makes every mutation report ErrStoreUnavailable,
	// for exercising degraded-store paths.
	FailWrites bool
}

func NewMemory() *Memory {
	return &Memory{
		users:    make(map[primitive.ObjectID]*domain.User),
		products: make(map[primitive.ObjectID]*domain.Product),
	}
}

// Ping satisfies the healthcheck contract; memory is always live.
func (m *Memory) Ping(_ context.Context) error { return nil }

func (m *Memory) writeErr() error {
	if m.FailWrites {
		return domain.ErrStoreUnavailable
	}
	return nil
}

func (m *Memory) CreateUser(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeErr(); err != nil {
		return err
	}
	for _, e := range m.users {
		if e.Username == u.Username || e.Email == u.Email {
			return domain.ErrDuplicateIdentity
		}
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *Memory) FindUserByIdentity(_ context.Context, identity string) (*domain.User, error) {
	identity = domain.NormalizeIdentity(identity)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == identity || u.Email == identity {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *Memory) FindUserByEmail(_ context.Context, email string) (*domain.User, error) {
	email = domain.NormalizeIdentity(email)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *Memory) FindUserByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *Memory) SetRefreshHash(_ context.Context, id primitive.ObjectID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeErr(); err != nil {
		return err
	}
	u, ok := m.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.RefreshTokenHash = hash
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *Memory) RotateRefreshHash(_ context.Context, id primitive.ObjectID, oldHash, newHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeErr(); err != nil {
		return err
	}
	u, ok := m.users[id]
	if !ok || u.RefreshTokenHash != oldHash {
		return domain.ErrSessionMismatch
	}
	u.RefreshTokenHash = newHash
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *Memory) ClearRefreshHash(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeErr(); err != nil {
		return err
	}
	u, ok := m.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.RefreshTokenHash = ""
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *Memory) SetVerifyToken(_ context.Context, id primitive.ObjectID, hash string, expiry time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeErr(); err != nil {
		return err
	}
	u, ok := m.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.VerifyTokenHash = hash
	u.VerifyTokenExpiry = &expiry
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *Memory) ConsumeVerifyToken(_ context.Context, hash string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeErr(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	for _, u := range m.users {
		if u.VerifyTokenHash == hash && u.VerifyTokenExpiry != nil && u.VerifyTokenExpiry.After(now) {
			u.Verified = true
			u.VerifyTokenHash = ""
			u.VerifyTokenExpiry = nil
			u.UpdatedAt = now
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *Memory) SetResetToken(_ context.Context, id primitive.ObjectID, hash string, expiry time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeErr(); err != nil {
		return err
	}
	u, ok := m.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.ResetTokenHash = hash
	u.ResetTokenExpiry = &expiry
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *Memory) ResetPasswordByToken(_ context.Context, hash, newPasswordHash string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeErr(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	for _, u := range m.users {
		if u.ResetTokenHash == hash && u.ResetTokenExpiry != nil && u.ResetTokenExpiry.After(now) {
			u.PasswordHash = newPasswordHash
			u.ResetTokenHash = ""
			u.ResetTokenExpiry = nil
			u.RefreshTokenHash = ""
			u.UpdatedAt = now
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *Memory) UpdatePasswordHash(_ context.Context, id primitive.ObjectID, newHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeErr(); err != nil {
		return err
	}
	u, ok := m.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.PasswordHash = newHash
	u.RefreshTokenHash = ""
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *Memory) CreateProduct(_ context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeErr(); err != nil {
		return err
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *Memory) UpdateProduct(_ context.Context, id primitive.ObjectID, upd domain.ProductUpdate) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeErr(); err != nil {
		return nil, err
	}
	p, ok := m.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Price != nil {
		p.Price = *upd.Price
	}
	if upd.Company != nil {
		p.Company = *upd.Company
	}
	if upd.IsFeatured != nil {
		p.IsFeatured = *upd.IsFeatured
	}
	if upd.Rating != nil {
		p.Rating = *upd.Rating
	}
	p.UpdatedAt = time.Now().UTC()
	cp := *p
	return &cp, nil
}

func (m *Memory) DeleteProduct(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeErr(); err != nil {
		return err
	}
	if _, ok := m.products[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *Memory) ListProducts(_ context.Context, f domain.ProductFilter, page domain.PageRequest) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Product{}
	for _, p := range m.products {
		if f.Featured != nil && p.IsFeatured != *f.Featured {
			continue
		}
		if f.MaxPrice != nil && p.Price > *f.MaxPrice {
			continue
		}
		if f.MinRating != nil && p.Rating < *f.MinRating {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	skip, limit := page.Skip(), page.Limit()
	if skip >= int64(len(out)) {
		return []domain.Product{}, nil
	}
	out = out[skip:]
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}
