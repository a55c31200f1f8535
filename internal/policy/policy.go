// Package policy evalúa una Policy contra los atributos de un usuario y produce
// el conjunto mínimo de claims a divulgar.
//
// La evaluación es todo-o-nada: el primer predicado insatisfecho aborta y no se
// devuelve ningún claim parcial. Los nombres de claims son un contrato con los
// tokens ya emitidos:
//
//	EQ                 <key>EQUALS<value>
//	LESSTHANOREQUAL    <key>LT<value>
//	GREATERTHANOREQUAL <key>GT<value>
//	INRANGE            <key>INRANGE<value>-<extra>
//	REVEAL             <key>
//
// Las fechas se renderizan dd.MM.yy (ver types.Attribute.String).
package policy

import (
	"fmt"

	"github.com/dropDatabas3/olympus/internal/domain/autherr"
	"github.com/dropDatabas3/olympus/internal/domain/types"
)

// Evaluate es una función pura. attrs puede venir con claves en cualquier
// capitalización; se normalizan antes de buscar.
func Evaluate(attrs map[string]types.Attribute, p types.Policy) (types.Claims, error) {
	normalized := make(map[string]types.Attribute, len(attrs))
	for k, v := range attrs {
		normalized[types.NormalizeKey(k)] = v
	}

	claims := make(types.Claims, len(p.Predicates))
	for i, pred := range p.Predicates {
		name, value, ok := evaluatePredicate(normalized, pred)
		if !ok {
			// el índice identifica el predicado sin revelar valores del usuario
			return nil, autherr.ErrPolicyUnfulfilled.WithDetail(fmt.Sprintf("predicate %d (%s %s)", i, types.NormalizeKey(pred.AttributeName), pred.Operation))
		}
		claims[name] = value
	}
	return claims, nil
}

// ClaimName devuelve el nombre de claim que produciría pred si se cumple.
func ClaimName(pred types.Predicate) string {
	key := types.NormalizeKey(pred.AttributeName)
	switch pred.Operation {
	case types.OpReveal:
		return key
	case types.OpEQ:
		return key + "EQUALS" + pred.Value.String()
	case types.OpLessThanOrEqual:
		return key + "LT" + pred.Value.String()
	case types.OpGreaterThanOrEqual:
		return key + "GT" + pred.Value.String()
	case types.OpInRange:
		extra := ""
		if pred.ExtraValue != nil {
			extra = pred.ExtraValue.String()
		}
		return key + "INRANGE" + pred.Value.String() + "-" + extra
	}
	return ""
}

func evaluatePredicate(attrs map[string]types.Attribute, pred types.Predicate) (string, types.Attribute, bool) {
	attr, ok := attrs[types.NormalizeKey(pred.AttributeName)]
	if !ok {
		return "", types.Attribute{}, false
	}

	var satisfied bool
	switch pred.Operation {
	case types.OpReveal:
		return ClaimName(pred), attr, true
	case types.OpEQ:
		satisfied = attr.Equal(pred.Value)
	case types.OpLessThanOrEqual:
		satisfied = lessOrEqual(attr, pred.Value)
	case types.OpGreaterThanOrEqual:
		satisfied = lessOrEqual(pred.Value, attr)
	case types.OpInRange:
		satisfied = pred.ExtraValue != nil &&
			lessOrEqual(pred.Value, attr) &&
			lessOrEqual(attr, *pred.ExtraValue)
	}
	if !satisfied {
		return "", types.Attribute{}, false
	}
	return ClaimName(pred), types.NewBoolean(true), true
}

// lessOrEqual compara a <= b para INTEGER y DATE (inclusive). Cualquier otro
// tipo, o tipos distintos entre sí, no se puede ordenar.
func lessOrEqual(a, b types.Attribute) bool {
	if a.Type() != b.Type() {
		return false
	}
	switch a.Type() {
	case types.AttributeInteger:
		x, _ := a.IntValue()
		y, _ := b.IntValue()
		return x <= y
	case types.AttributeDate:
		x, _ := a.DateValue()
		y, _ := b.DateValue()
		return !x.After(y)
	}
	return false
}
