package jwt

import "github.com/golang-jwt/jwt"

// Payload defines the JWT claims for a PeerChat account session.
// It embeds the standard claims required for validity checks plus the custom
// claims identifying the account on REST endpoints.
type Payload struct {
	// StandardClaims embeds Exp, Iat and Iss, used for token validity checks.
	jwt.StandardClaims `json:"standard_claims"`

	// ID is the account's numeric identifier rendered as a string.
	ID string `json:"id"`

	// Email is the account's verified email address.
	Email string `json:"email"`

	// Nickname is the account's registered display name.
	Nickname string `json:"nickname"`
}
