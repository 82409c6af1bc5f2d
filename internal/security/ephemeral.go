package security

import (
	"crypto/rand"
	"crypto/sha512"
	"encoding/hex"
	"time"
)

// EphemeralToken is a one-time random credential for email verification
// and password reset. Raw is delivered to the user exactly once; only
// Hashed is ever persisted.
type EphemeralToken struct {
	Raw    string
	Hashed string
	Expiry time.Time
}

// NewEphemeralToken draws 32 bytes of entropy and pairs the hex token
// with its sha512 digest and an absolute expiry.
func NewEphemeralToken(ttl time.Duration) (EphemeralToken, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return EphemeralToken{}, err
	}
	raw := hex.EncodeToString(b)
	return EphemeralToken{
		Raw:    raw,
		Hashed: HashEphemeral(raw),
		Expiry: time.Now().Add(ttl).UTC(),
	}, nil
}

// HashEphemeral recomputes the at-rest digest for a presented token.
func HashEphemeral(raw string) string {
	sum := sha512.Sum512([]byte(raw))
	return hex.EncodeToString(sum[:])
}
