package auth

import (
	"time"

	"github.com/google/uuid"
)

// User is an account that owns activity records and the stored media
// referenced by them. The user's id doubles as the storage namespace for
// every object uploaded on their behalf.
type User struct {
	ID           uuid.UUID
	Email        string
	DisplayName  *string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Sanitized strips credential material for response payloads.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	return u
}

// RefreshToken is a stored refresh credential. Only the HMAC hash of the
// client token is persisted.
type RefreshToken struct {
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

// Usable reports whether the token can still be redeemed at the given instant.
func (t RefreshToken) Usable(now time.Time) bool {
	return t.RevokedAt == nil && t.ExpiresAt.After(now)
}

// TokenPair bundles a short-lived access token with its refresh counterpart.
type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}
