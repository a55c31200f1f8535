// Package tokens provee la fuente aleatoria segura y la generación de tokens
// opacos (cookies de sesión).
package tokens

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
)

// RandomSource entrega n bytes de un CSPRNG.
type RandomSource interface {
	Bytes(n int) ([]byte, error)
}

// CryptoSource lee de crypto/rand.
type CryptoSource struct{}

func (CryptoSource) Bytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, err
	}
	return b, nil
}

var ErrShortRead = errors.New("tokens: random source returned fewer bytes than requested")

// GenerateOpaqueToken genera un token opaco aleatorio (base64url sin padding).
func GenerateOpaqueToken(src RandomSource, nBytes int) (string, error) {
	if src == nil {
		src = CryptoSource{}
	}
	b, err := src.Bytes(nBytes)
	if err != nil {
		return "", err
	}
	if len(b) != nBytes {
		return "", ErrShortRead
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// SHA256Base64URL devuelve sha256(input) en base64url sin padding. Se usa para
// guardar cookies hasheadas en stores remotos.
func SHA256Base64URL(s string) string {
	sum := sha256.Sum256([]byte(s))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
