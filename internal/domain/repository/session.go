package repository

import (
	"context"

	"github.com/dropDatabas3/olympus/internal/domain/types"
)

// SessionRepository mapea cookie -> Authorization (1:1).
type SessionRepository interface {
	// StoreCookie guarda la autorización bajo la cookie.
	StoreCookie(ctx context.Context, cookie string, auth types.Authorization) error

	// LookupCookie retorna ErrNotFound si la cookie no existe.
	LookupCookie(ctx context.Context, cookie string) (types.Authorization, error)

	// DeleteCookie elimina la cookie. No falla si no existía.
	DeleteCookie(ctx context.Context, cookie string) error
}

// Store agrupa todos los contratos que implementa un backend completo.
type Store interface {
	UserRepository
	AttributeRepository
	MFARepository
	ThrottleRepository
	Close() error
}
