package account

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cg505/ocflib/params"
)

func generateKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 4096)
	require.NoError(t, err)
	return key
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := generateKey(t)

	blob, err := EncryptPassword("correct horse battery staple", &key.PublicKey)
	require.NoError(t, err)
	// A 4096-bit key always produces a blob of the stored column size.
	assert.Len(t, blob, params.EncryptedPasswordLength)

	plain, err := DecryptPassword(blob, key)
	require.NoError(t, err)
	assert.Equal(t, "correct horse battery staple", plain)
}

func TestDecryptWithWrongKeyFails(t *testing.T) {
	key := generateKey(t)
	other := generateKey(t)

	blob, err := EncryptPassword("hunter2", &key.PublicKey)
	require.NoError(t, err)

	_, err = DecryptPassword(blob, other)
	require.Error(t, err)
}

func TestParsePrivateKeyPKCS1(t *testing.T) {
	key := generateKey(t)
	data := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})

	parsed, err := ParsePrivateKey(data)
	require.NoError(t, err)
	assert.True(t, key.Equal(parsed))
}

func TestParsePrivateKeyPKCS8(t *testing.T) {
	key := generateKey(t)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	data := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})

	parsed, err := ParsePrivateKey(data)
	require.NoError(t, err)
	assert.True(t, key.Equal(parsed))
}

func TestParsePublicKeyPKIX(t *testing.T) {
	key := generateKey(t)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	data := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})

	parsed, err := ParsePublicKey(data)
	require.NoError(t, err)
	assert.True(t, key.PublicKey.Equal(parsed))
}

func TestParseKeyRejectsGarbage(t *testing.T) {
	_, err := ParsePrivateKey([]byte("not a pem block"))
	require.ErrorIs(t, err, ErrNotRSAKey)

	_, err = ParsePublicKey([]byte("not a pem block"))
	require.ErrorIs(t, err, ErrNotRSAKey)
}

func TestLoadPrivateKey(t *testing.T) {
	key := generateKey(t)
	path := filepath.Join(t.TempDir(), "create.key")
	data := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	require.NoError(t, os.WriteFile(path, data, 0o600))

	loaded, err := LoadPrivateKey(path)
	require.NoError(t, err)
	assert.True(t, key.Equal(loaded))

	_, err = LoadPrivateKey(filepath.Join(t.TempDir(), "missing.key"))
	require.Error(t, err)
}
