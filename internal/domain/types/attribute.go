// Package types contiene el modelo de datos del núcleo de autorización:
// atributos tipados, predicados, políticas, claims, registros MFA,
// contadores de throttling y autorizaciones de sesión.
package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// AttributeType identifica el tipo de un Attribute.
type AttributeType string

const (
	AttributeString  AttributeType = "STRING"
	AttributeInteger AttributeType = "INTEGER"
	AttributeDate    AttributeType = "DATE"
	AttributeBoolean AttributeType = "BOOLEAN"
)

// claimDateLayout es el formato corto de fecha (dd.MM.yy) usado en los nombres
// de claims. Los tokens emitidos dependen de él: no cambiar.
const claimDateLayout = "02.01.06"

// Attribute es un valor tipado. Comparar atributos de tipos distintos es inválido.
type Attribute struct {
	typ AttributeType
	s   string
	i   int64
	d   time.Time
	b   bool
}

// NewString, NewInteger, NewBoolean y NewDate construyen atributos tipados.
func NewString(v string) Attribute  { return Attribute{typ: AttributeString, s: v} }
func NewInteger(v int64) Attribute  { return Attribute{typ: AttributeInteger, i: v} }
func NewBoolean(v bool) Attribute   { return Attribute{typ: AttributeBoolean, b: v} }
func NewDate(v time.Time) Attribute { return Attribute{typ: AttributeDate, d: v} }

// Type devuelve el tipo del atributo.
func (a Attribute) Type() AttributeType { return a.typ }

// IsZero indica si el atributo no fue inicializado.
func (a Attribute) IsZero() bool { return a.typ == "" }

// StringValue, IntValue, DateValue y BoolValue devuelven el valor y si el tipo coincide.
func (a Attribute) StringValue() (string, bool)  { return a.s, a.typ == AttributeString }
func (a Attribute) IntValue() (int64, bool)      { return a.i, a.typ == AttributeInteger }
func (a Attribute) DateValue() (time.Time, bool) { return a.d, a.typ == AttributeDate }
func (a Attribute) BoolValue() (bool, bool)      { return a.b, a.typ == AttributeBoolean }

// Equal compara tipo y valor. Las fechas se comparan por instante.
func (a Attribute) Equal(o Attribute) bool {
	if a.typ != o.typ {
		return false
	}
	switch a.typ {
	case AttributeString:
		return a.s == o.s
	case AttributeInteger:
		return a.i == o.i
	case AttributeDate:
		return a.d.Equal(o.d)
	case AttributeBoolean:
		return a.b == o.b
	}
	return true
}

// String devuelve la forma natural del valor. Las fechas se renderizan con el
// formato corto estable que consumen los nombres de claims.
func (a Attribute) String() string {
	switch a.typ {
	case AttributeString:
		return a.s
	case AttributeInteger:
		return strconv.FormatInt(a.i, 10)
	case AttributeDate:
		return a.d.Format(claimDateLayout)
	case AttributeBoolean:
		return strconv.FormatBool(a.b)
	}
	return ""
}

// Value devuelve el valor subyacente como any (útil para serializar claims).
func (a Attribute) Value() any {
	switch a.typ {
	case AttributeString:
		return a.s
	case AttributeInteger:
		return a.i
	case AttributeDate:
		return a.d.UTC().Format(time.RFC3339)
	case AttributeBoolean:
		return a.b
	}
	return nil
}

// ─── JSON ───

type attributeJSON struct {
	Type  AttributeType   `json:"type"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON serializa como {"type":"INTEGER","value":25}. Las fechas van en RFC3339.
func (a Attribute) MarshalJSON() ([]byte, error) {
	if a.typ == "" {
		return []byte("null"), nil
	}
	v, err := json.Marshal(a.Value())
	if err != nil {
		return nil, err
	}
	return json.Marshal(attributeJSON{Type: a.typ, Value: v})
}

func (a *Attribute) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*a = Attribute{}
		return nil
	}
	var raw attributeJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := ParseAttribute(raw.Type, raw.Value)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAttribute construye un Attribute a partir de un tipo y un valor JSON crudo.
func ParseAttribute(typ AttributeType, value json.RawMessage) (Attribute, error) {
	switch AttributeType(strings.ToUpper(string(typ))) {
	case AttributeString:
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return Attribute{}, fmt.Errorf("attribute: string value: %w", err)
		}
		return NewString(s), nil
	case AttributeInteger:
		var i int64
		if err := json.Unmarshal(value, &i); err != nil {
			return Attribute{}, fmt.Errorf("attribute: integer value: %w", err)
		}
		return NewInteger(i), nil
	case AttributeBoolean:
		var v bool
		if err := json.Unmarshal(value, &v); err != nil {
			return Attribute{}, fmt.Errorf("attribute: boolean value: %w", err)
		}
		return NewBoolean(v), nil
	case AttributeDate:
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return Attribute{}, fmt.Errorf("attribute: date value: %w", err)
		}
		d, err := parseDate(s)
		if err != nil {
			return Attribute{}, err
		}
		return NewDate(d), nil
	}
	return Attribute{}, fmt.Errorf("attribute: unknown type %q", typ)
}

// parseDate acepta RFC3339 o YYYY-MM-DD (UTC).
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("attribute: invalid date %q", s)
	}
	return t, nil
}

// NormalizeKey pasa una clave de atributo a minúsculas. Toda lectura y
// escritura de atributos pasa por acá.
func NormalizeKey(k string) string {
	return strings.ToLower(k)
}
