package signature

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-covid-qr/internal/errors"
)

func testVerifier(t *testing.T) *Verifier {
	t.Helper()
	v, err := FromFile(filepath.Join("testdata", "test_public.pem"))
	require.NoError(t, err)
	return v
}

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func TestDecryptFixtures(t *testing.T) {
	v := testVerifier(t)
	require.Equal(t, 256, v.Size())

	for _, name := range []string{"1", "2"} {
		t.Run(name, func(t *testing.T) {
			got, err := v.Decrypt(readFixture(t, name+".cipher"))
			require.NoError(t, err)
			assert.Equal(t, string(readFixture(t, name+".plain")), got)
		})
	}
}

func TestDecryptFailures(t *testing.T) {
	v := testVerifier(t)

	tests := []struct {
		name       string
		ciphertext []byte
		want       errors.Kind
	}{
		{name: "corrupted block", ciphertext: readFixture(t, "malformed.cipher"), want: errors.KindCryptoFailed},
		{name: "empty plaintext", ciphertext: readFixture(t, "empty.cipher"), want: errors.KindCryptoEmpty},
		{name: "invalid utf-8", ciphertext: readFixture(t, "invalid_utf8.cipher"), want: errors.KindCryptoInvalidUTF8},
		{name: "too short", ciphertext: readFixture(t, "1.cipher")[:255], want: errors.KindCryptoFailed},
		{name: "too long", ciphertext: append(readFixture(t, "1.cipher"), 0), want: errors.KindCryptoFailed},
		{name: "nil", ciphertext: nil, want: errors.KindCryptoFailed},
		{name: "all zero", ciphertext: make([]byte, 256), want: errors.KindCryptoFailed},
		{name: "above modulus", ciphertext: bytesOf(0xff, 256), want: errors.KindCryptoFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Decrypt(tt.ciphertext)
			require.Error(t, err)
			assert.Empty(t, got)
			assert.Equal(t, tt.want, errors.KindOf(err))
		})
	}
}

func TestDecryptWrongKey(t *testing.T) {
	v, err := Default()
	require.NoError(t, err)

	_, err = v.Decrypt(readFixture(t, "1.cipher"))
	assert.True(t, errors.HasKind(err, errors.KindCryptoFailed))
}

func TestDecryptRoundTripWithGeneratedKey(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	v := New(&priv.PublicKey)

	for _, msg := range []string{
		"x",
		"123;1;01-01-2021;A;B;01-01;01-01-2022;X",
		"zażółć gęślą jaźń",
	} {
		sig, err := rsa.SignPKCS1v15(nil, priv, crypto.Hash(0), []byte(msg))
		require.NoError(t, err)

		got, err := v.Decrypt(sig)
		require.NoError(t, err)
		assert.Equal(t, msg, got)
	}
}

func TestParsePublicKeyPEM(t *testing.T) {
	pkix, err := ParsePublicKeyPEM(readFixture(t, "test_public.pem"))
	require.NoError(t, err)

	pkcs1, err := ParsePublicKeyPEM(readFixture(t, "test_public_pkcs1.pem"))
	require.NoError(t, err)

	assert.True(t, pkix.Equal(pkcs1))

	_, err = ParsePublicKeyPEM([]byte("not pem"))
	assert.Error(t, err)

	_, err = ParsePublicKeyPEM([]byte("-----BEGIN CERTIFICATE-----\nAAAA\n-----END CERTIFICATE-----\n"))
	assert.ErrorContains(t, err, "unsupported PEM block type")
}

func TestLoadPublicKeyMissing(t *testing.T) {
	_, err := LoadPublicKey(filepath.Join(t.TempDir(), "nope.pem"))
	assert.Error(t, err)

	_, err = FromFile(filepath.Join(t.TempDir(), "nope.pem"))
	assert.Error(t, err)
}

func TestDefaultKeyEmbedded(t *testing.T) {
	v, err := Default()
	require.NoError(t, err)
	assert.Equal(t, 256, v.Size())

	fromEmpty, err := FromFile("")
	require.NoError(t, err)
	assert.True(t, v.key.Equal(fromEmpty.key))
}

func bytesOf(b byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}
