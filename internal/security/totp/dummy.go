package totp

import (
	"context"
	"time"
)

// DummyType es el tipo MFA del autenticador de prueba.
const DummyType = "dummy"

// Dummy acepta un token sólo si es igual al secreto. Útil para entornos de
// desarrollo y tests de integración sin reloj.
type Dummy struct {
	Timeout time.Duration
}

func (d Dummy) IsValid(_ context.Context, token, secret string) (bool, error) {
	return secret != "" && token == secret, nil
}

func (d Dummy) TimeoutPeriod() time.Duration { return d.Timeout }

// GenerateSecret devuelve un secreto fijo derivado del usuario.
func (d Dummy) GenerateSecret(username string) (string, error) {
	return "dummy-" + username, nil
}
