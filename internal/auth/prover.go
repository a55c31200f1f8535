package auth

import "context"

// IdentityProver valida una prueba de identidad y, si corresponde, mergea los
// atributos que contiene en el store del usuario.
type IdentityProver interface {
	IsValid(ctx context.Context, proof, username string) (bool, error)
	AddAttributes(ctx context.Context, proof, username string) error
}
