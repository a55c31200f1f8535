package totp

import (
	"encoding/base32"
	"strings"
)

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// EncodeSecret codifica bytes crudos como secreto base32 sin padding.
func EncodeSecret(raw []byte) string {
	return b32.EncodeToString(raw)
}

// decodeSecret devuelve los bytes crudos de un secreto base32 (con o sin
// padding). Vacío si no es base32 válido.
func decodeSecret(secret string) []byte {
	s := strings.ToUpper(strings.TrimRight(strings.TrimSpace(secret), "="))
	raw, err := b32.DecodeString(s)
	if err != nil {
		return nil
	}
	return raw
}
