package auth

import "github.com/golang-jwt/jwt/v5"

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID   string
	ClientID string
	JTI      string
}

// AccessTokenClaims binds a logged-in user to the client that owns the
// session and cart records.
type AccessTokenClaims struct {
	UserID   string `json:"user_id"`
	ClientID string `json:"client_id"`
	jwt.RegisteredClaims
}
