// Package errors traduce los errores del núcleo a respuestas HTTP JSON.
//
//	PolicyUnfulfilled    -> 403
//	AuthenticationFailed -> 401
//	OperationFailed      -> 500 (409 / 400 para conflictos y validaciones conocidas)
package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/dropDatabas3/olympus/internal/domain/autherr"
	"github.com/dropDatabas3/olympus/internal/domain/repository"
	"github.com/dropDatabas3/olympus/internal/mfa"
	"github.com/dropDatabas3/olympus/internal/security/password"
)

type errorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// FromError convierte cualquier error en un *AppError.
func FromError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	switch {
	case stderrors.Is(err, repository.ErrConflict):
		return ErrAlreadyExists.WithCause(err)
	case stderrors.Is(err, password.ErrWeak):
		return ErrWeakPassword.WithDetail(detailOf(err)).WithCause(err)
	case stderrors.Is(err, mfa.ErrAlreadyActive):
		return ErrAlreadyExists.WithDetail(detailOf(err)).WithCause(err)
	case stderrors.Is(err, mfa.ErrUnknownType), stderrors.Is(err, mfa.ErrNoneType):
		return ErrUnsupportedMFAType.WithCause(err)
	}

	switch autherr.KindOf(err) {
	case autherr.KindPolicyUnfulfilled:
		return ErrPolicyUnfulfilled.WithDetail(detailOf(err)).WithCause(err)
	case autherr.KindAuthenticationFailed:
		return ErrAuthenticationFailed.WithCause(err)
	case autherr.KindOperationFailed:
		return ErrOperationFailed.WithDetail(detailOf(err)).WithCause(err)
	}
	return ErrInternalServerError.WithCause(err)
}

// detailOf expone sólo el detalle propio del núcleo, nunca la causa.
func detailOf(err error) string {
	var e *autherr.Error
	if stderrors.As(err, &e) {
		return e.Detail
	}
	return ""
}

// WriteError escribe err como JSON con el status correspondiente.
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)
	resp := errorResponse{
		Code:      appErr.Code,
		Message:   appErr.Message,
		Detail:    appErr.Detail,
		RequestID: w.Header().Get("X-Request-ID"),
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(resp)
}
