package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// withJWTExpiry fills token expiry from the exp claim when the server did not return expires_in.
// The signature is not verified: the value only drives client side refresh decisions.
func withJWTExpiry(token *oauth2.Token) *oauth2.Token {
	if token == nil || !token.Expiry.IsZero() || token.AccessToken == "" {
		return token
	}
	if expiry, ok := jwtExpiry(token.AccessToken); ok {
		token.Expiry = expiry
	}
	return token
}

func jwtExpiry(raw string) (time.Time, bool) {
	parsed, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
