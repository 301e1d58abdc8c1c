package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// AccessTokenPayload is what the caller decides when minting; the issuer
// fills in timestamps.
type AccessTokenPayload struct {
	Subject string
	Role    enums.ActorRole
	JTI     string
}

// AccessTokenClaims is the JWT body issued to the admin panel. The jti doubles
// as the revocable session id.
type AccessTokenClaims struct {
	Role enums.ActorRole `json:"role"`
	jwt.RegisteredClaims
}
