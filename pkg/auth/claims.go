package auth

import (
	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
)

// IdentityPayload captures the data used when minting an identity token.
type IdentityPayload struct {
	UserID     string
	Email      string
	Name       string
	Role       enums.Role
	BusinessID string
	JTI        string
}

// IdentityClaims is the typed JWT issued by the identity provider.
type IdentityClaims struct {
	Email      string     `json:"email,omitempty"`
	Name       string     `json:"name,omitempty"`
	Role       enums.Role `json:"role"`
	BusinessID string     `json:"business_id,omitempty"`
	jwt.RegisteredClaims
}

// UserID is the token subject.
func (c *IdentityClaims) UserID() string {
	return c.Subject
}
