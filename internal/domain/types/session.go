package types

import "time"

// Role es un rol concedido a una sesión.
type Role string

const (
	RoleUser   Role = "USER"
	RoleAdmin  Role = "ADMIN"
	RoleServer Role = "SERVER"
)

// Authorization es inmutable una vez emitida. Un refresh crea un valor nuevo
// con los mismos roles y la misma expiración.
type Authorization struct {
	Username   string    `json:"username"`
	Roles      []Role    `json:"roles"`
	Expiration time.Time `json:"expiration"`
}

// Copy devuelve una copia profunda.
func (a Authorization) Copy() Authorization {
	roles := make([]Role, len(a.Roles))
	copy(roles, a.Roles)
	return Authorization{Username: a.Username, Roles: roles, Expiration: a.Expiration}
}

// Expired indica si la expiración quedó atrás respecto de now.
func (a Authorization) Expired(now time.Time) bool {
	return a.Expiration.Before(now)
}

// GrantsAny es true si al menos uno de los roles pedidos está concedido (OR).
func (a Authorization) GrantsAny(required []Role) bool {
	for _, want := range required {
		for _, have := range a.Roles {
			if want == have {
				return true
			}
		}
	}
	return false
}
