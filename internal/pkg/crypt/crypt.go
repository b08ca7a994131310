package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

var (
	ErrKeyMissing    = errors.New("encryption key missing")
	ErrMalformed     = errors.New("malformed ciphertext")
	ErrDecryptFailed = errors.New("decrypt failed")
)

const (
	envelopeVersion = "v1"
	keyInfo         = "shortlets card metadata"
)

// Cipher seals short strings with AES-256-GCM. Output is
// "v1.<nonce>.<ciphertext>" in unpadded base64url.
type Cipher struct {
	aead cipher.AEAD
}

// New builds a Cipher from secret. A 64-character hex secret is used as the
// raw 32-byte key; anything else is stretched through HKDF-SHA256.
func New(secret string) (*Cipher, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrKeyMissing
	}

	key, err := deriveKey(secret)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Cipher{aead: aead}, nil
}

func deriveKey(secret string) ([]byte, error) {
	if len(secret) == 64 {
		if raw, err := hex.DecodeString(secret); err == nil {
			return raw, nil
		}
	}

	key := make([]byte, 32)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(keyInfo))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return key, nil
}

// Encrypt seals plaintext bound to associatedData. The same associatedData
// must be supplied to Decrypt.
func (c *Cipher) Encrypt(plaintext, associatedData string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	sealed := c.aead.Seal(nil, nonce, []byte(plaintext), []byte(associatedData))
	return strings.Join([]string{
		envelopeVersion,
		base64.RawURLEncoding.EncodeToString(nonce),
		base64.RawURLEncoding.EncodeToString(sealed),
	}, "."), nil
}

func (c *Cipher) Decrypt(envelope, associatedData string) (string, error) {
	parts := strings.Split(envelope, ".")
	if len(parts) != 3 || parts[0] != envelopeVersion {
		return "", ErrMalformed
	}

	nonce, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil || len(nonce) != c.aead.NonceSize() {
		return "", ErrMalformed
	}
	sealed, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return "", ErrMalformed
	}

	plain, err := c.aead.Open(nil, nonce, sealed, []byte(associatedData))
	if err != nil {
		return "", ErrDecryptFailed
	}
	return string(plain), nil
}
