package domain

import "errors"

var (
	// ErrDuplicateIdentity means username or email is already taken.
	ErrDuplicateIdentity = errors.New("username or email already registered")
	// ErrInvalidCredentials covers both unknown identity and wrong
	// password so responses cannot be used for account enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated means no usable identity on the request.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden means the identity's role is not in the allow-list.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidToken means malformed structure or bad signature.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken means a structurally valid token past its expiry.
	ErrExpiredToken = errors.New("token expired")
	// ErrSessionMismatch means a refresh token that verified but is not
	// the one currently stored on the user: rotated or reused.
	ErrSessionMismatch = errors.New("refresh token superseded")
	// ErrStoreUnavailable wraps backing-store failures; the only class
	// a caller may retry.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrNotFound is a missing record other than a login lookup.
	ErrNotFound = errors.New("not found")
)
