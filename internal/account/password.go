package account

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

var ErrNotRSAKey = errors.New("account: PEM block does not contain an RSA key")

// EncryptPassword seals a cleartext password with the creation host's
// public key. Front-ends call this so the cleartext never leaves the
// submitting process.
func EncryptPassword(password string, pub *rsa.PublicKey) ([]byte, error) {
	blob, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, []byte(password), nil)
	if err != nil {
		return nil, fmt.Errorf("account: encrypt password: %w", err)
	}
	return blob, nil
}

// DecryptPassword recovers the cleartext password from a request blob.
func DecryptPassword(blob []byte, priv *rsa.PrivateKey) (string, error) {
	plain, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, priv, blob, nil)
	if err != nil {
		return "", fmt.Errorf("account: decrypt password: %w", err)
	}
	return string(plain), nil
}

// LoadPrivateKey reads a PEM-encoded RSA private key from disk.
func LoadPrivateKey(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParsePrivateKey(data)
}

// ParsePrivateKey parses a PEM-encoded RSA private key in either PKCS#1
// or PKCS#8 form.
func ParsePrivateKey(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, ErrNotRSAKey
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("account: parse private key: %w", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, ErrNotRSAKey
	}
	return key, nil
}

// ParsePublicKey parses a PEM-encoded RSA public key in either PKCS#1 or
// PKIX form.
func ParsePublicKey(data []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, ErrNotRSAKey
	}
	if key, err := x509.ParsePKCS1PublicKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("account: parse public key: %w", err)
	}
	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, ErrNotRSAKey
	}
	return key, nil
}
