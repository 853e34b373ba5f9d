package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims is the subset of the identity provider's access token the
// gateway reads. The token is verified by the upstream API, not here.
type TokenClaims struct {
	PreferredUsername string `json:"preferred_username"`
	Email             string `json:"email"`
	jwt.RegisteredClaims
}
