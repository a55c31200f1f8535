package types

// Operation es la operación de un predicado.
type Operation string

const (
	OpEQ                 Operation = "EQ"
	OpLessThanOrEqual    Operation = "LESSTHANOREQUAL"
	OpGreaterThanOrEqual Operation = "GREATERTHANOREQUAL"
	OpInRange            Operation = "INRANGE"
	OpReveal             Operation = "REVEAL"
)

// Predicate es un test sobre un único atributo.
// ExtraValue sólo se usa en INRANGE (cota superior).
type Predicate struct {
	AttributeName string     `json:"attributeName"`
	Operation     Operation  `json:"operation"`
	Value         Attribute  `json:"value"`
	ExtraValue    *Attribute `json:"extraValue,omitempty"`
}

// Policy es una secuencia ordenada de predicados. Todos deben cumplirse.
// PolicyID correlaciona la política con una transacción de login (ej: nonce).
type Policy struct {
	Predicates []Predicate `json:"predicates"`
	PolicyID   string      `json:"policyId"`
}

// Claims es el conjunto divulgado: nombre de claim -> valor (booleano o atributo revelado).
type Claims map[string]Attribute

// Values aplana los claims a valores serializables (para tokens y respuestas).
func (c Claims) Values() map[string]any {
	out := make(map[string]any, len(c))
	for k, v := range c {
		out[k] = v.Value()
	}
	return out
}
