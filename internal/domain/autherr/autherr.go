// Package autherr define la taxonomía de errores del núcleo de autorización.
//
// Hay tres tipos de fallo:
//
//   - PolicyUnfulfilled: un requisito de divulgación no se pudo cumplir.
//   - AuthenticationFailed: cookie inválida, expirada o sin privilegios, o MFA rechazado.
//   - OperationFailed: falla del almacenamiento o de otro colaborador.
//
// Los valores base son globales; WithDetail y WithCause devuelven copias para no
// mutarlos. errors.Is compara por Kind, así que un error con detalle sigue
// matcheando contra su valor base.
package autherr

import (
	"errors"
	"fmt"
)

// Kind es la etiqueta de la taxonomía.
type Kind string

const (
	KindPolicyUnfulfilled    Kind = "POLICY_UNFULFILLED"
	KindAuthenticationFailed Kind = "AUTHENTICATION_FAILED"
	KindOperationFailed      Kind = "OPERATION_FAILED"
)

// Error es el error tipado que cruza el borde del núcleo.
type Error struct {
	Kind    Kind
	Message string
	Detail  string
	Err     error
}

// Error implementa la interfaz error.
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap permite acceder a la causa.
func (e *Error) Unwrap() error { return e.Err }

// Is matchea por Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// WithDetail devuelve una COPIA con detalle adicional.
func (e *Error) WithDetail(detail string) *Error {
	n := *e
	n.Detail = detail
	return &n
}

// WithCause devuelve una COPIA con la causa original.
func (e *Error) WithCause(err error) *Error {
	n := *e
	n.Err = err
	return &n
}

var (
	ErrPolicyUnfulfilled = &Error{
		Kind:    KindPolicyUnfulfilled,
		Message: "policy could not be satisfied",
	}

	ErrAuthenticationFailed = &Error{
		Kind:    KindAuthenticationFailed,
		Message: "authentication failed",
	}

	ErrOperationFailed = &Error{
		Kind:    KindOperationFailed,
		Message: "operation failed",
	}
)

// KindOf devuelve el Kind de err, o "" si no es un *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Operation envuelve una falla de colaborador como OperationFailed.
// Si err ya es un *Error se devuelve tal cual.
func Operation(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return ErrOperationFailed.WithCause(err)
}
