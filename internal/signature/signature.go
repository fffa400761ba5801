// Package signature recovers the plaintext of a certificate signed with the
// issuer's RSA private key. Recovery uses the public key only. A successful
// PKCS#1 v1.5 unpadding is the signature check.
package signature

import (
	"crypto/rsa"
	"crypto/x509"
	_ "embed"
	"encoding/pem"
	"fmt"
	"math/big"
	"os"
	"unicode/utf8"

	"github.com/a3tai/mcp-covid-qr/internal/errors"
)

//go:embed keys/default_public.pem
var defaultPublicKeyPEM []byte

// minPadding is the shortest run of 0xff bytes allowed in a type 1 block.
const minPadding = 8

// Verifier holds the public half of the issuer key.
type Verifier struct {
	key *rsa.PublicKey
}

// New creates a verifier for the given key.
func New(key *rsa.PublicKey) *Verifier {
	return &Verifier{key: key}
}

// Default creates a verifier for the key compiled into the binary.
func Default() (*Verifier, error) {
	key, err := ParsePublicKeyPEM(defaultPublicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("embedded public key: %w", err)
	}
	return New(key), nil
}

// FromFile creates a verifier from a PEM file, or the embedded key when path
// is empty.
func FromFile(path string) (*Verifier, error) {
	if path == "" {
		return Default()
	}
	key, err := LoadPublicKey(path)
	if err != nil {
		return nil, err
	}
	return New(key), nil
}

// LoadPublicKey reads an RSA public key from a PEM file.
func LoadPublicKey(path string) (*rsa.PublicKey, error) {
	pemBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	key, err := ParsePublicKeyPEM(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return key, nil
}

// ParsePublicKeyPEM accepts a "PUBLIC KEY" (PKIX) or "RSA PUBLIC KEY"
// (PKCS#1) block.
func ParsePublicKeyPEM(pemBytes []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM block containing public key")
	}

	switch block.Type {
	case "RSA PUBLIC KEY":
		return x509.ParsePKCS1PublicKey(block.Bytes)
	case "PUBLIC KEY":
		pub, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		key, ok := pub.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("public key is %T, not RSA", pub)
		}
		return key, nil
	default:
		return nil, fmt.Errorf("unsupported PEM block type %q", block.Type)
	}
}

// Size returns the modulus length in bytes, which is also the only valid
// ciphertext length.
func (v *Verifier) Size() int {
	return v.key.Size()
}

// Decrypt applies the public key to ciphertext and strips the PKCS#1 v1.5
// type 1 padding. Any corruption, tampering or key mismatch fails as
// errors.KindCryptoFailed.
func (v *Verifier) Decrypt(ciphertext []byte) (string, error) {
	k := v.key.Size()
	if len(ciphertext) != k {
		return "", errors.Newf(errors.KindCryptoFailed,
			"ciphertext is %d bytes, key modulus is %d", len(ciphertext), k)
	}

	c := new(big.Int).SetBytes(ciphertext)
	if c.Cmp(v.key.N) >= 0 {
		return "", errors.New(errors.KindCryptoFailed, "ciphertext out of range for key")
	}

	m := new(big.Int).Exp(c, big.NewInt(int64(v.key.E)), v.key.N)
	em := m.FillBytes(make([]byte, k))

	data, err := unpad(em)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", errors.New(errors.KindCryptoEmpty, "signature recovered no data")
	}
	if !utf8.Valid(data) {
		return "", errors.New(errors.KindCryptoInvalidUTF8, "recovered data is not valid UTF-8")
	}
	return string(data), nil
}

// unpad strips 00 01 FF..FF 00 from an encoded block.
func unpad(em []byte) ([]byte, error) {
	if len(em) < 2+minPadding+1 || em[0] != 0x00 || em[1] != 0x01 {
		return nil, errors.New(errors.KindCryptoFailed, "invalid signature padding")
	}

	sep := -1
	for i := 2; i < len(em); i++ {
		if em[i] != 0xff {
			sep = i
			break
		}
	}
	if sep < 0 || em[sep] != 0x00 || sep-2 < minPadding {
		return nil, errors.New(errors.KindCryptoFailed, "invalid signature padding")
	}
	return em[sep+1:], nil
}
