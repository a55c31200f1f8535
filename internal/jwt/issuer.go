// Package jwt firma los conjuntos de claims divulgados como JWT EdDSA.
package jwt

import (
	"crypto/ed25519"
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

var ErrInvalidIssuer = errors.New("invalid_issuer")

// Issuer firma claim tokens con la clave activa.
type Issuer struct {
	Iss  string
	Keys *KeySet
	TTL  time.Duration
	now  func() time.Time
}

func NewIssuer(iss string, keys *KeySet, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Issuer{Iss: iss, Keys: keys, TTL: ttl, now: time.Now}
}

// SignRaw firma un MapClaims arbitrario, setea header kid/typ.
func (i *Issuer) SignRaw(claims jwtv5.MapClaims) (string, error) {
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodEdDSA, claims)
	tk.Header["kid"] = i.Keys.KID
	tk.Header["typ"] = "JWT"
	return tk.SignedString(i.Keys.Priv)
}

// IssueClaims emite un token con los claims divulgados bajo "claims" y el
// policyID como nonce. Nunca incluye atributos fuera de claims.
func (i *Issuer) IssueClaims(sub, policyID string, claims map[string]any) (string, time.Time, error) {
	now := i.now().UTC()
	exp := now.Add(i.TTL)
	mc := jwtv5.MapClaims{
		"iss":    i.Iss,
		"sub":    sub,
		"iat":    now.Unix(),
		"nbf":    now.Unix(),
		"exp":    exp.Unix(),
		"claims": claims,
	}
	if policyID != "" {
		mc["nonce"] = policyID
	}
	signed, err := i.SignRaw(mc)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Keyfunc resuelve la pública por kid (sólo la activa).
func (i *Issuer) Keyfunc() jwtv5.Keyfunc {
	return func(t *jwtv5.Token) (any, error) {
		if kid, _ := t.Header["kid"].(string); kid != "" && kid != i.Keys.KID {
			return nil, errors.New("unknown_kid")
		}
		return ed25519.PublicKey(i.Keys.Pub), nil
	}
}
