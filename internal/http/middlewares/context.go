package middlewares

import (
	"context"

	"github.com/dropDatabas3/olympus/internal/domain/types"
)

type ctxKey string

const (
	ctxRequestIDKey ctxKey = "request_id"
	ctxSessionKey   ctxKey = "session"
)

type sessionValue struct {
	cookie string
	auth   types.Authorization
}

func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// WithSession inyecta la cookie validada y su autorización.
func WithSession(ctx context.Context, cookie string, auth types.Authorization) context.Context {
	return context.WithValue(ctx, ctxSessionKey, sessionValue{cookie: cookie, auth: auth})
}

// GetRequestID obtiene el request ID del contexto, o "".
func GetRequestID(ctx context.Context) string {
	if s, ok := ctx.Value(ctxRequestIDKey).(string); ok {
		return s
	}
	return ""
}

// GetSession devuelve la cookie y la autorización puestas por RequireSession.
func GetSession(ctx context.Context) (string, types.Authorization, bool) {
	v, ok := ctx.Value(ctxSessionKey).(sessionValue)
	return v.cookie, v.auth, ok
}

// GetUsername es un atajo para el usuario de la sesión, o "".
func GetUsername(ctx context.Context) string {
	_, auth, _ := GetSession(ctx)
	return auth.Username
}
