package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/arshitcc/rablo-api/internal/domain"
	"github.com/arshitcc/rablo-api/internal/log"
	"github.com/arshitcc/rablo-api/internal/queue"
	"github.com/arshitcc/rablo-api/internal/security"
)

// Auth orchestrates signup, login, logout and refresh rotation against
// the credential store, the password hasher and the token issuer.
type Auth struct {
	store   UserStore
	issuer  *security.TokenIssuer
	tempTTL time.Duration
	events  queue.Publisher
}

func NewAuth(store UserStore, issuer *security.TokenIssuer, tempTTL time.Duration, events queue.Publisher) *Auth {
	return &Auth{store: store, issuer: issuer, tempTTL: tempTTL, events: events}
}

// TokenPair is a freshly issued access+refresh set.
type TokenPair struct {
	Access  string
	Refresh string
}

// hashRefresh is the at-rest digest of an issued refresh JWT; the store
// never holds the replayable value.
func hashRefresh(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// Signup registers a credentials account. It does not authenticate the
// caller; login is a separate step. The raw verification token goes out
// on the event bus for mail delivery and is not returned.
func (a *Auth) Signup(ctx context.Context, username, fullname, email, password string, reqID string) (*domain.User, error) {
	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		Username:     domain.NormalizeIdentity(username),
		Email:        domain.NormalizeIdentity(email),
		Fullname:     strings.TrimSpace(fullname),
		PasswordHash: hash,
		Role:         domain.RoleUser,
		LoginType:    domain.LoginCredentials,
	}
	if err := a.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	et, err := security.NewEphemeralToken(a.tempTTL)
	if err != nil {
		return nil, err
	}
	if err := a.store.SetVerifyToken(ctx, u.ID, et.Hashed, et.Expiry); err != nil {
		// account exists; verification can be re-requested later
		log.WithDD(ctx, log.L).Warn("verify token persist failed",
			zap.String("user_id", u.ID.Hex()), zap.Error(err))
	} else {
		a.publish(ctx, queue.KeyVerifyRequested, queue.VerifyRequested{
			UserID: u.ID.Hex(), Email: u.Email, Token: et.Raw, ExpiresAt: et.Expiry,
		}, reqID)
	}

	a.publish(ctx, queue.KeyUserRegistered, queue.UserRegistered{
		UserID: u.ID.Hex(), Email: u.Email, Username: u.Username, Fullname: u.Fullname,
	}, reqID)
	return u, nil
}

// Login accepts username or email. Unknown identity and wrong password
// collapse into the same ErrInvalidCredentials.
func (a *Auth) Login(ctx context.Context, identity, password string, reqID string) (*domain.User, TokenPair, error) {
	u, err := a.store.FindUserByIdentity(ctx, identity)
	if err != nil {
		return nil, TokenPair{}, err
	}
	if u == nil || u.PasswordHash == "" || !security.CheckPassword(u.PasswordHash, password) {
		return nil, TokenPair{}, domain.ErrInvalidCredentials
	}

	pair, err := a.issuePair(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	a.publish(ctx, queue.KeyUserLoggedIn, queue.UserLoggedIn{UserID: u.ID.Hex(), Email: u.Email}, reqID)
	return u, pair, nil
}

func (a *Auth) issuePair(ctx context.Context, u *domain.User) (TokenPair, error) {
	access, err := a.issuer.IssueAccess(u)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := a.issuer.IssueRefresh(u)
	if err != nil {
		return TokenPair{}, err
	}
	if err := a.store.SetRefreshHash(ctx, u.ID, hashRefresh(refresh)); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// Logout clears the stored refresh digest. A store failure is returned
// for bookkeeping only; callers must still drop client-held tokens.
func (a *Auth) Logout(ctx context.Context, userID string) error {
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return domain.ErrUnauthenticated
	}
	return a.store.ClearRefreshHash(ctx, id)
}

// Refresh rotates the presented refresh token for a fresh pair. A token
// that verifies but no longer matches the stored digest is a reuse of a
// rotated or revoked session.
func (a *Auth) Refresh(ctx context.Context, presented string) (TokenPair, error) {
	claims, err := a.issuer.ParseRefresh(presented)
	if err != nil {
		return TokenPair{}, err
	}
	id, err := primitive.ObjectIDFromHex(claims.UID)
	if err != nil {
		return TokenPair{}, domain.ErrInvalidToken
	}
	u, err := a.store.FindUserByID(ctx, id)
	if err != nil {
		return TokenPair{}, err
	}
	if u == nil {
		return TokenPair{}, domain.ErrInvalidToken
	}

	access, err := a.issuer.IssueAccess(u)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := a.issuer.IssueRefresh(u)
	if err != nil {
		return TokenPair{}, err
	}
	// conditional swap is the authority on reuse; the old token dies here
	if err := a.store.RotateRefreshHash(ctx, id, hashRefresh(presented), hashRefresh(refresh)); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// ResolveUser loads the identity behind verified access-token claims.
func (a *Auth) ResolveUser(ctx context.Context, uid string) (*domain.User, error) {
	id, err := primitive.ObjectIDFromHex(uid)
	if err != nil {
		return nil, domain.ErrUnauthenticated
	}
	u, err := a.store.FindUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrUnauthenticated
	}
	return u, nil
}

// VerifyEmail consumes a raw verification token.
func (a *Auth) VerifyEmail(ctx context.Context, raw string) (*domain.User, error) {
	u, err := a.store.ConsumeVerifyToken(ctx, security.HashEphemeral(raw))
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrInvalidToken
	}
	return u, nil
}

// ForgotPassword issues a reset token when the account exists. It always
// succeeds from the caller's point of view; an unknown email publishes
// nothing but reveals nothing either.
func (a *Auth) ForgotPassword(ctx context.Context, email string, reqID string) error {
	u, err := a.store.FindUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u == nil {
		return nil
	}
	et, err := security.NewEphemeralToken(a.tempTTL)
	if err != nil {
		return err
	}
	if err := a.store.SetResetToken(ctx, u.ID, et.Hashed, et.Expiry); err != nil {
		return err
	}
	a.publish(ctx, queue.KeyResetRequested, queue.ResetRequested{
		UserID: u.ID.Hex(), Email: u.Email, Token: et.Raw, ExpiresAt: et.Expiry,
	}, reqID)
	return nil
}

// ResetPassword consumes a raw reset token, rehashes and revokes the
// active session.
func (a *Auth) ResetPassword(ctx context.Context, raw, newPassword string, reqID string) error {
	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}
	u, err := a.store.ResetPasswordByToken(ctx, security.HashEphemeral(raw), hash)
	if err != nil {
		return err
	}
	if u == nil {
		return domain.ErrInvalidToken
	}
	a.publish(ctx, queue.KeyPasswordChanged, queue.PasswordChanged{UserID: u.ID.Hex(), Email: u.Email}, reqID)
	return nil
}

// ChangePassword is the authenticated path; the old password gates it.
func (a *Auth) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string, reqID string) error {
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return domain.ErrUnauthenticated
	}
	u, err := a.store.FindUserByID(ctx, id)
	if err != nil {
		return err
	}
	if u == nil {
		return domain.ErrUnauthenticated
	}
	if u.PasswordHash == "" || !security.CheckPassword(u.PasswordHash, oldPassword) {
		return domain.ErrInvalidCredentials
	}
	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := a.store.UpdatePasswordHash(ctx, id, hash); err != nil {
		return err
	}
	a.publish(ctx, queue.KeyPasswordChanged, queue.PasswordChanged{UserID: u.ID.Hex(), Email: u.Email}, reqID)
	return nil
}

// LoginGoogle upserts a verified google-typed account for the exchanged
// identity and issues a pair.
func (a *Auth) LoginGoogle(ctx context.Context, email, fullname string, reqID string) (*domain.User, TokenPair, error) {
	email = domain.NormalizeIdentity(email)
	u, err := a.store.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, TokenPair{}, err
	}
	if u == nil {
		u = &domain.User{
			Username:  googleUsername(email),
			Email:     email,
			Fullname:  strings.TrimSpace(fullname),
			Role:      domain.RoleUser,
			LoginType: domain.LoginGoogle,
			Verified:  true,
		}
		if err := a.store.CreateUser(ctx, u); err != nil {
			return nil, TokenPair{}, err
		}
		a.publish(ctx, queue.KeyUserRegistered, queue.UserRegistered{
			UserID: u.ID.Hex(), Email: u.Email, Username: u.Username, Fullname: u.Fullname,
		}, reqID)
	}
	pair, err := a.issuePair(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	a.publish(ctx, queue.KeyUserLoggedIn, queue.UserLoggedIn{UserID: u.ID.Hex(), Email: u.Email}, reqID)
	return u, pair, nil
}

// googleUsername derives a unique-ish handle from the mail local part;
// collisions surface as ErrDuplicateIdentity on insert.
func googleUsername(email string) string {
	local := email
	if i := strings.IndexByte(email, '@'); i > 0 {
		local = email[:i]
	}
	suffix := hashRefresh(email)
	if len(suffix) > 6 {
		suffix = suffix[:6]
	}
	return domain.NormalizeIdentity(local + "_" + suffix)
}

func (a *Auth) publish(ctx context.Context, key string, event any, reqID string) {
	if err := a.events.Publish(ctx, key, event, reqID); err != nil {
		log.WithDD(ctx, log.L).Warn("event publish failed", zap.String("key", key), zap.Error(err))
	}
}
