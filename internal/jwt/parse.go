package jwt

import (
	"crypto/ed25519"
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// ParseEdDSA valida firma EdDSA con pub, chequea iss (si expectedIss != "")
// y exp/nbf con 30s de tolerancia. Devuelve las claims como map.
func ParseEdDSA(token string, pub ed25519.PublicKey, expectedIss string) (map[string]any, error) {
	tok, err := jwtv5.Parse(token, func(*jwtv5.Token) (any, error) { return pub, nil },
		jwtv5.WithValidMethods([]string{"EdDSA"}),
		jwtv5.WithLeeway(30*time.Second),
	)
	if err != nil || !tok.Valid {
		return nil, errors.New("invalid_jwt")
	}
	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, errors.New("claims_type")
	}
	if expectedIss != "" {
		if iss, _ := claims["iss"].(string); iss != expectedIss {
			return nil, ErrInvalidIssuer
		}
	}
	return map[string]any(claims), nil
}
