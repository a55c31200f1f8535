// Package totp implementa el autenticador MFA GOOGLE_AUTHENTICATOR (RFC 6238)
// sobre github.com/pquerna/otp.
package totp

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// Type es el nombre de tipo MFA que registra este autenticador.
const Type = "GOOGLE_AUTHENTICATOR"

const period = 30

var ErrInvalidSecret = errors.New("totp: secret is not valid base32")

// Authenticator valida códigos de 6 dígitos SHA1 con período de 30s.
type Authenticator struct {
	issuer  string
	skew    uint
	timeout time.Duration
	now     func() time.Time
}

// Option configura el Authenticator.
type Option func(*Authenticator)

// WithSkew acepta ±n períodos alrededor de now. Default 1.
func WithSkew(n uint) Option { return func(a *Authenticator) { a.skew = n } }

// WithClock reemplaza time.Now (tests).
func WithClock(now func() time.Time) Option { return func(a *Authenticator) { a.now = now } }

// New crea el autenticador. timeout es el factor del backoff MFA.
func New(issuer string, timeout time.Duration, opts ...Option) *Authenticator {
	a := &Authenticator{issuer: issuer, skew: 1, timeout: timeout, now: time.Now}
	for _, o := range opts {
		o(a)
	}
	return a
}

// IsValid valida token contra secret (base32). Un secreto mal formado es
// simplemente inválido, no un error del colaborador.
func (a *Authenticator) IsValid(_ context.Context, token, secret string) (bool, error) {
	token = strings.TrimSpace(token)
	if len(token) != 6 || secret == "" {
		return false, nil
	}
	ok, err := totp.ValidateCustom(token, secret, a.now().UTC(), totp.ValidateOpts{
		Period:    period,
		Skew:      a.skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return false, nil
	}
	return ok, nil
}

func (a *Authenticator) TimeoutPeriod() time.Duration { return a.timeout }

// GenerateSecret genera un secreto base32 de 20 bytes.
func (a *Authenticator) GenerateSecret(username string) (string, error) {
	key, err := a.generate(username)
	if err != nil {
		return "", err
	}
	return key.Secret(), nil
}

// OTPAuthURL construye otpauth:// para QR a partir de un secreto existente.
func (a *Authenticator) OTPAuthURL(username, secret string) (string, error) {
	raw := decodeSecret(secret)
	if len(raw) == 0 {
		return "", ErrInvalidSecret
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      a.issuer,
		AccountName: username,
		Period:      period,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
		Secret:      raw,
	})
	if err != nil {
		return "", err
	}
	return key.URL(), nil
}

// Code genera el código vigente para secret (tests y herramientas).
func (a *Authenticator) Code(secret string) (string, error) {
	return totp.GenerateCodeCustom(secret, a.now().UTC(), totp.ValidateOpts{
		Period:    period,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
}

func (a *Authenticator) generate(username string) (*otp.Key, error) {
	return totp.Generate(totp.GenerateOpts{
		Issuer:      a.issuer,
		AccountName: username,
		Period:      period,
		SecretSize:  20,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
}
