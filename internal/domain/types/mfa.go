package types

import "time"

// MFATypeNone representa "sin MFA". Es un centinela siempre activo que queda
// implícitamente superado cuando cualquier otro tipo se activa.
const MFATypeNone = "NONE"

// MFAInformation es el registro MFA de un (usuario, tipo).
type MFAInformation struct {
	Type      string    `json:"type"`
	Secret    string    `json:"secret"`
	Activated bool      `json:"activated"`
	CreatedAt time.Time `json:"createdAt"`
}

// MFAState es el estado derivado de un registro.
type MFAState string

const (
	MFAUnregistered MFAState = "UNREGISTERED"
	MFAPending      MFAState = "PENDING"
	MFAActive       MFAState = "ACTIVE"
)

// StateOf devuelve el estado de mfaType dentro de info.
func StateOf(info map[string]MFAInformation, mfaType string) MFAState {
	rec, ok := info[mfaType]
	switch {
	case !ok:
		return MFAUnregistered
	case rec.Activated:
		return MFAActive
	default:
		return MFAPending
	}
}

// AttemptKind separa los dos contadores de throttling de un usuario.
type AttemptKind string

const (
	AttemptMFA  AttemptKind = "mfa"
	AttemptAuth AttemptKind = "auth"
)

// ThrottleCounter guarda el último intento y la cantidad de fallos.
// Sólo un clear explícito lo vuelve a cero.
type ThrottleCounter struct {
	LastAttempt    time.Time `json:"lastAttempt"`
	FailedAttempts int       `json:"failedAttempts"`
}
