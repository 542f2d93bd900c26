package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims are the claims carried by a signed access token: the
// registered set plus the authorities derived from the subject's role.
type AccessClaims struct {
	jwt.RegisteredClaims
	Authorities []string `json:"authorities,omitempty"`
}

// Subject returns the subject claim, the user's login identifier.
func (c *AccessClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// Expires returns the expiry instant, zero if the claim is absent.
func (c *AccessClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// Issued returns the issued-at instant, zero if the claim is absent.
func (c *AccessClaims) Issued() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
