package domain

import "time"

// RefreshToken is an opaque credential that lets a client mint new access
// tokens. Only a hash of the token ever touches the database.
type RefreshToken struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TokenHash string    `json:"token_hash,omitempty"` // Stored hashed, filter from API responses
	ExpiresAt time.Time `json:"expires_at"`
	Revoked   bool      `json:"revoked"`
	CreatedAt time.Time `json:"created_at"`
}

// IsExpired returns true if the token is past its expiry.
func (t *RefreshToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// IsValid returns true if the token can still be redeemed.
func (t *RefreshToken) IsValid() bool {
	return !t.Revoked && !t.IsExpired()
}
