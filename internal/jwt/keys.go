package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// KeySet mantiene una sola clave de firma activa.
type KeySet struct {
	Priv ed25519.PrivateKey
	Pub  ed25519.PublicKey
	KID  string
}

// NewEd25519 genera una clave Ed25519 en memoria. El KID se deriva de la pública.
func NewEd25519() (*KeySet, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return fromPrivate(priv), nil
}

func fromPrivate(priv ed25519.PrivateKey) *KeySet {
	pub := priv.Public().(ed25519.PublicKey)
	sum := sha256.Sum256(pub)
	return &KeySet{Priv: priv, Pub: pub, KID: base64.RawURLEncoding.EncodeToString(sum[:8])}
}

// WritePEM guarda la clave privada (PKCS#8) con permisos 0600.
func (k *KeySet) WritePEM(path string) error {
	der, err := x509.MarshalPKCS8PrivateKey(k.Priv)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), 0o600)
}

// LoadPEM lee una clave Ed25519 PKCS#8.
func LoadPEM(path string) (*KeySet, error) {
	b, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(b)
	if block == nil {
		return nil, fmt.Errorf("jwt: %s no contiene un bloque PEM", path)
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	priv, ok := key.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("jwt: la clave no es Ed25519")
	}
	return fromPrivate(priv), nil
}

// PublicPEM devuelve la clave pública en PEM (PKIX).
func (k *KeySet) PublicPEM() ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(k.Pub)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}

// LoadPublicPEM lee una clave pública Ed25519. Acepta también un PEM privado
// PKCS#8, del que sólo se toma la pública.
func LoadPublicPEM(path string) (ed25519.PublicKey, error) {
	b, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(b)
	if block == nil {
		return nil, fmt.Errorf("jwt: %s no contiene un bloque PEM", path)
	}
	if block.Type == "PRIVATE KEY" {
		ks, err := LoadPEM(path)
		if err != nil {
			return nil, err
		}
		return ks.Pub, nil
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	pub, ok := key.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("jwt: la clave no es Ed25519")
	}
	return pub, nil
}

// LoadOrGenerate carga la clave de path. Si path es vacío genera una efímera;
// si el archivo no existe lo crea.
func LoadOrGenerate(path string) (*KeySet, error) {
	if path == "" {
		return NewEd25519()
	}
	ks, err := LoadPEM(path)
	if err == nil {
		return ks, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	ks, err = NewEd25519()
	if err != nil {
		return nil, err
	}
	return ks, ks.WritePEM(path)
}

type jwk struct {
	Kty string `json:"kty"` // "OKP"
	Crv string `json:"crv"` // "Ed25519"
	Kid string `json:"kid"`
	Alg string `json:"alg"` // "EdDSA"
	Use string `json:"use"` // "sig"
	X   string `json:"x"`   // base64url(pub)
}

// JWKSJSON devuelve el JWKS (sólo la pública) en JSON.
func (k *KeySet) JWKSJSON() []byte {
	b, _ := json.Marshal(struct {
		Keys []jwk `json:"keys"`
	}{Keys: []jwk{{
		Kty: "OKP",
		Crv: "Ed25519",
		Kid: k.KID,
		Alg: "EdDSA",
		Use: "sig",
		X:   base64.RawURLEncoding.EncodeToString(k.Pub),
	}}})
	return b
}
