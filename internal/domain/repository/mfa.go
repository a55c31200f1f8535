package repository

import (
	"context"
	"time"

	"github.com/dropDatabas3/olympus/internal/domain/types"
)

// MFARepository gestiona los registros MFA por (usuario, tipo).
type MFARepository interface {
	// GetMFAInformation retorna los registros del usuario indexados por tipo.
	// Un usuario sin registros retorna un mapa vacío.
	GetMFAInformation(ctx context.Context, username string) (map[string]types.MFAInformation, error)

	// AssignMFASecret crea o reemplaza el registro (queda PENDING).
	AssignMFASecret(ctx context.Context, username, mfaType, secret string) error

	// ActivateMFA marca el tipo como activado.
	ActivateMFA(ctx context.Context, username, mfaType string) error

	// DeleteMFA elimina el registro del tipo.
	DeleteMFA(ctx context.Context, username, mfaType string) error
}

// ThrottleRepository guarda los dos contadores de intentos fallidos por usuario
// (MFA y autenticación). Increment y Clear deben ser atómicos por usuario.
type ThrottleRepository interface {
	// FailedAttempt incrementa el contador y registra el instante del intento.
	FailedAttempt(ctx context.Context, username string, kind types.AttemptKind, at time.Time) error

	// ClearFailedAttempts vuelve el contador a cero.
	ClearFailedAttempts(ctx context.Context, username string, kind types.AttemptKind) error

	// GetThrottle lee el contador. Un usuario sin intentos retorna el valor cero.
	GetThrottle(ctx context.Context, username string, kind types.AttemptKind) (types.ThrottleCounter, error)
}
