package repo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/arshitcc/rablo-api/internal/domain"
)

func storeErr(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}

func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if _, err := s.DB.Collection(usersColl).InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateIdentity
		}
		return storeErr(err)
	}
	return nil
}

// FindUserByIdentity looks up by username or email; missing user is
// (nil, nil) so callers cannot tell it apart from a bad password.
func (s *Store) FindUserByIdentity(ctx context.Context, identity string) (*domain.User, error) {
	identity = domain.NormalizeIdentity(identity)
	return s.findUser(ctx, bson.M{"$or": bson.A{
		bson.M{"username": identity},
		bson.M{"email": identity},
	}})
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.findUser(ctx, bson.M{"email": domain.NormalizeIdentity(email)})
}

func (s *Store) FindUserByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	return s.findUser(ctx, bson.M{"_id": id})
}

func (s *Store) findUser(ctx context.Context, filter bson.M) (*domain.User, error) {
	var u domain.User
	err := s.DB.Collection(usersColl).FindOne(ctx, filter).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr(err)
	}
	return &u, nil
}

// SetRefreshHash overwrites the active session digest (login).
func (s *Store) SetRefreshHash(ctx context.Context, id primitive.ObjectID, hash string) error {
	return s.updateUser(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"refresh_token_hash": hash, "updated_at": time.Now().UTC()},
	})
}

// RotateRefreshHash swaps oldHash for newHash in one conditional update.
// Two concurrent rotations with the same stale token get exactly one
// winner; the loser sees ErrSessionMismatch.
func (s *Store) RotateRefreshHash(ctx context.Context, id primitive.ObjectID, oldHash, newHash string) error {
	sp, ctx := tracer.StartSpanFromContext(ctx, "mongo.user.rotate_refresh",
		tracer.Tag("user_id", id.Hex()),
	)
	defer sp.Finish()

	res, err := s.DB.Collection(usersColl).UpdateOne(ctx,
		bson.M{"_id": id, "refresh_token_hash": oldHash},
		bson.M{"$set": bson.M{"refresh_token_hash": newHash, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		sp.SetTag("error", err)
		return storeErr(err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrSessionMismatch
	}
	return nil
}

func (s *Store) ClearRefreshHash(ctx context.Context, id primitive.ObjectID) error {
	return s.updateUser(ctx, bson.M{"_id": id}, bson.M{
		"$unset": bson.M{"refresh_token_hash": ""},
		"$set":   bson.M{"updated_at": time.Now().UTC()},
	})
}

func (s *Store) SetVerifyToken(ctx context.Context, id primitive.ObjectID, hash string, expiry time.Time) error {
	return s.updateUser(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"verify_token_hash":   hash,
			"verify_token_expiry": expiry,
			"updated_at":          time.Now().UTC(),
		},
	})
}

// ConsumeVerifyToken marks the matching user verified and clears the
// token pair in one atomic step, so a token validates at most once.
func (s *Store) ConsumeVerifyToken(ctx context.Context, hash string) (*domain.User, error) {
	sp, ctx := tracer.StartSpanFromContext(ctx, "mongo.user.consume_verify")
	defer sp.Finish()

	now := time.Now().UTC()
	res := s.DB.Collection(usersColl).FindOneAndUpdate(ctx,
		bson.M{"verify_token_hash": hash, "verify_token_expiry": bson.M{"$gt": now}},
		bson.M{
			"$set":   bson.M{"verified": true, "updated_at": now},
			"$unset": bson.M{"verify_token_hash": "", "verify_token_expiry": ""},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var u domain.User
	if err := res.Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		sp.SetTag("error", err)
		return nil, storeErr(err)
	}
	return &u, nil
}

func (s *Store) SetResetToken(ctx context.Context, id primitive.ObjectID, hash string, expiry time.Time) error {
	return s.updateUser(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"reset_token_hash":   hash,
			"reset_token_expiry": expiry,
			"updated_at":         time.Now().UTC(),
		},
	})
}

// ResetPasswordByToken installs the new hash, clears the reset pair and
// revokes the active session, all in one conditional update.
func (s *Store) ResetPasswordByToken(ctx context.Context, hash, newPasswordHash string) (*domain.User, error) {
	sp, ctx := tracer.StartSpanFromContext(ctx, "mongo.user.reset_password")
	defer sp.Finish()

	now := time.Now().UTC()
	res := s.DB.Collection(usersColl).FindOneAndUpdate(ctx,
		bson.M{"reset_token_hash": hash, "reset_token_expiry": bson.M{"$gt": now}},
		bson.M{
			"$set":   bson.M{"password_hash": newPasswordHash, "updated_at": now},
			"$unset": bson.M{"reset_token_hash": "", "reset_token_expiry": "", "refresh_token_hash": ""},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var u domain.User
	if err := res.Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		sp.SetTag("error", err)
		return nil, storeErr(err)
	}
	return &u, nil
}

// UpdatePasswordHash is the authenticated change-password path; the
// active session is revoked alongside.
func (s *Store) UpdatePasswordHash(ctx context.Context, id primitive.ObjectID, newHash string) error {
	return s.updateUser(ctx, bson.M{"_id": id}, bson.M{
		"$set":   bson.M{"password_hash": newHash, "updated_at": time.Now().UTC()},
		"$unset": bson.M{"refresh_token_hash": ""},
	})
}

func (s *Store) updateUser(ctx context.Context, filter, update bson.M) error {
	res, err := s.DB.Collection(usersColl).UpdateOne(ctx, filter, update)
	if err != nil {
		return storeErr(err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
