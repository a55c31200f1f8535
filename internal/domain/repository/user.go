package repository

import (
	"context"

	"github.com/dropDatabas3/olympus/internal/domain/types"
)

// UserRepository gestiona la existencia de usuarios y su credencial local.
type UserRepository interface {
	// HasUser indica si el usuario existe.
	HasUser(ctx context.Context, username string) (bool, error)

	// AddUser crea el usuario. passwordHash puede ser vacío (esquemas sin
	// credencial local). Retorna ErrConflict si ya existe.
	AddUser(ctx context.Context, username, passwordHash string) error

	// GetPasswordHash retorna ErrNotFound si el usuario no existe.
	GetPasswordHash(ctx context.Context, username string) (string, error)

	// SetPasswordHash reemplaza la credencial local.
	SetPasswordHash(ctx context.Context, username, passwordHash string) error

	// DeleteUser elimina el usuario con sus atributos, MFA y contadores.
	// Retorna false si no existía.
	DeleteUser(ctx context.Context, username string) (bool, error)
}

// AttributeRepository gestiona los atributos por (usuario, clave).
type AttributeRepository interface {
	// GetAttributes retorna una copia de los atributos del usuario.
	GetAttributes(ctx context.Context, username string) (map[string]types.Attribute, error)

	// AddAttributes mergea attrs sobre los existentes (mismo key => reemplaza).
	AddAttributes(ctx context.Context, username string, attrs map[string]types.Attribute) error

	// DeleteAttribute retorna false si el usuario o la clave no existían.
	DeleteAttribute(ctx context.Context, username, key string) (bool, error)
}
