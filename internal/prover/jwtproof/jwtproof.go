// Package jwtproof es un IdentityProver que acepta pruebas de identidad como
// JWT EdDSA firmados por un emisor confiable (ej: un verificador KYC).
//
// Formato del proof:
//
//	{"iss": "...", "sub": "<username>", "exp": ..., "attributes": {"age": {"type": "INTEGER", "value": 25}}}
package jwtproof

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/dropDatabas3/olympus/internal/domain/repository"
	"github.com/dropDatabas3/olympus/internal/domain/types"
	"github.com/dropDatabas3/olympus/internal/jwt"
)

var ErrInvalidProof = errors.New("jwtproof: invalid proof")

// Prover valida proofs contra la pública de un único emisor.
type Prover struct {
	attrs  repository.AttributeRepository
	pub    ed25519.PublicKey
	issuer string
}

func New(attrs repository.AttributeRepository, trusted ed25519.PublicKey, issuer string) *Prover {
	return &Prover{attrs: attrs, pub: trusted, issuer: issuer}
}

// IsValid: firma válida, emisor esperado, sub == username y atributos parseables.
func (p *Prover) IsValid(_ context.Context, proof, username string) (bool, error) {
	_, err := p.parse(proof, username)
	return err == nil, nil
}

// AddAttributes re-valida el proof y mergea sus atributos.
func (p *Prover) AddAttributes(ctx context.Context, proof, username string) error {
	attrs, err := p.parse(proof, username)
	if err != nil {
		return err
	}
	return p.attrs.AddAttributes(ctx, username, attrs)
}

func (p *Prover) parse(proof, username string) (map[string]types.Attribute, error) {
	claims, err := jwt.ParseEdDSA(proof, p.pub, p.issuer)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}
	if sub, _ := claims["sub"].(string); sub != username {
		return nil, fmt.Errorf("%w: subject mismatch", ErrInvalidProof)
	}
	raw, ok := claims["attributes"].(map[string]any)
	if !ok || len(raw) == 0 {
		return nil, fmt.Errorf("%w: no attributes", ErrInvalidProof)
	}

	out := make(map[string]types.Attribute, len(raw))
	for k, v := range raw {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: attribute %q", ErrInvalidProof, k)
		}
		var a types.Attribute
		if err := json.Unmarshal(b, &a); err != nil || a.IsZero() {
			return nil, fmt.Errorf("%w: attribute %q", ErrInvalidProof, k)
		}
		out[types.NormalizeKey(k)] = a
	}
	return out, nil
}

// Sign emite un proof. Lo usan los emisores de prueba y los tests.
func Sign(keys *jwt.KeySet, issuer, username string, attrs map[string]types.Attribute, ttl time.Duration) (string, error) {
	now := time.Now()
	iss := jwt.NewIssuer(issuer, keys, ttl)
	return iss.SignRaw(jwtv5.MapClaims{
		"iss":        issuer,
		"sub":        username,
		"iat":        now.Unix(),
		"exp":        now.Add(ttl).Unix(),
		"attributes": attrs,
	})
}
