package auth

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"
)

// SignatureBackend es un ThresholdBackend mínimo: el cliente deriva un par
// Ed25519 de la salida OPRF, registra la pública y se autentica firmando
// "username|salt", con salt = unix millis dentro de una ventana.
type SignatureBackend struct {
	mu     sync.RWMutex
	keys   map[string]ed25519.PublicKey
	window time.Duration
	now    func() time.Time
}

func NewSignatureBackend(window time.Duration) *SignatureBackend {
	if window <= 0 {
		window = time.Minute
	}
	return &SignatureBackend{keys: map[string]ed25519.PublicKey{}, window: window, now: time.Now}
}

var ErrBadPublicKey = errors.New("auth: credential is not a base64 ed25519 public key")

// FinishRegistration espera la pública en base64 (std).
func (b *SignatureBackend) FinishRegistration(_ context.Context, username string, credential []byte) error {
	pub, err := base64.StdEncoding.DecodeString(string(credential))
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return ErrBadPublicKey
	}
	b.mu.Lock()
	b.keys[username] = ed25519.PublicKey(pub)
	b.mu.Unlock()
	return nil
}

// Verify espera "<salt>.<base64 firma>". Un formato inválido es simplemente false.
func (b *SignatureBackend) Verify(_ context.Context, username string, proof []byte) (bool, error) {
	b.mu.RLock()
	pub, ok := b.keys[username]
	b.mu.RUnlock()
	if !ok {
		return false, nil
	}
	saltStr, sigB64, found := strings.Cut(string(proof), ".")
	if !found {
		return false, nil
	}
	salt, err := strconv.ParseInt(saltStr, 10, 64)
	if err != nil {
		return false, nil
	}
	age := b.now().Sub(time.UnixMilli(salt))
	if age < -b.window || age > b.window {
		return false, nil
	}
	sig, err := base64.StdEncoding.DecodeString(sigB64)
	if err != nil {
		return false, nil
	}
	return ed25519.Verify(pub, SignatureMessage(username, salt), sig), nil
}

// SignatureMessage es lo que firma el cliente.
func SignatureMessage(username string, salt int64) []byte {
	return []byte(username + "|" + strconv.FormatInt(salt, 10))
}
