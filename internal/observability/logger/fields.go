package logger

import (
	"time"

	"go.uber.org/zap"
)

// ─── HTTP ───

func RequestID(v string) zap.Field       { return zap.String("request_id", v) }
func Method(v string) zap.Field          { return zap.String("method", v) }
func Path(v string) zap.Field            { return zap.String("path", v) }
func Status(v int) zap.Field             { return zap.Int("status", v) }
func Duration(v time.Duration) zap.Field { return zap.Duration("duration", v) }
func ClientIP(v string) zap.Field        { return zap.String("client_ip", v) }

// ─── Negocio ───

// Username crea un campo para el nombre de usuario.
func Username(v string) zap.Field {
	return zap.String("username", v)
}

// MFAType crea un campo para el tipo de MFA.
func MFAType(v string) zap.Field {
	return zap.String("mfa_type", v)
}

// PolicyID crea un campo para el id de política (nonce de login).
func PolicyID(v string) zap.Field {
	return zap.String("policy_id", v)
}

// Scheme crea un campo para el esquema de autenticación.
func Scheme(v string) zap.Field {
	return zap.String("scheme", v)
}

// Masked loguea sólo los primeros 6 caracteres de un valor sensible
// (cookies, tokens).
func Masked(key, v string) zap.Field {
	if len(v) <= 6 {
		return zap.String(key, "***")
	}
	return zap.String(key, v[:6]+"***")
}

// ─── Sistema ───

// Op crea un campo para la operación actual.
func Op(v string) zap.Field {
	return zap.String("op", v)
}

// Layer crea un campo para la capa (handler, service, repository).
func Layer(v string) zap.Field {
	return zap.String("layer", v)
}

// Component crea un campo para el componente/módulo.
func Component(v string) zap.Field {
	return zap.String("component", v)
}

func Err(err error) zap.Field         { return zap.Error(err) }
func Count(v int) zap.Field           { return zap.Int("count", v) }
func Key(v string) zap.Field          { return zap.String("key", v) }
func String(k, v string) zap.Field    { return zap.String(k, v) }
func Int(k string, v int) zap.Field   { return zap.Int(k, v) }
func Bool(k string, v bool) zap.Field { return zap.Bool(k, v) }
func Any(k string, v any) zap.Field   { return zap.Any(k, v) }
