package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims represents the claims carried in a signed access token.
// The subject is the username; ID and Role identify the account without
// a database lookup.
type AccessClaims struct {
	UserID string `json:"id"`
	Role   string `json:"role"`

	jwt.RegisteredClaims
}

// Username returns the token subject.
func (c *AccessClaims) Username() string {
	return c.Subject
}
