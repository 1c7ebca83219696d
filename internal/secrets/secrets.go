package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha512"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltLength = 64
	ivLength   = 16
	tagLength  = 16
	iterations = 100000
	keyLength  = 32
)

var ErrInvalidCiphertext = errors.New("invalid ciphertext")

// Box encrypts and decrypts small secrets (API keys, OAuth tokens) with
// AES-256-GCM. The key is derived per message with PBKDF2-SHA512 and the
// envelope is base64(salt || iv || tag || ciphertext).
type Box struct {
	key string
}

func NewBox(encryptionKey string) (*Box, error) {
	if len(encryptionKey) < 32 {
		return nil, errors.New("encryption key must be at least 32 characters")
	}
	return &Box{key: encryptionKey}, nil
}

func (b *Box) Encrypt(plaintext string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	iv := make([]byte, ivLength)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("generate iv: %w", err)
	}

	gcm, err := b.cipherFor(salt)
	if err != nil {
		return "", err
	}

	// Seal appends ciphertext||tag; the envelope stores the tag before the
	// ciphertext, so split and reorder.
	sealed := gcm.Seal(nil, iv, []byte(plaintext), nil)
	ciphertext := sealed[:len(sealed)-tagLength]
	tag := sealed[len(sealed)-tagLength:]

	out := make([]byte, 0, saltLength+ivLength+tagLength+len(ciphertext))
	out = append(out, salt...)
	out = append(out, iv...)
	out = append(out, tag...)
	out = append(out, ciphertext...)

	return base64.StdEncoding.EncodeToString(out), nil
}

func (b *Box) Decrypt(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}

	if len(raw) < saltLength+ivLength+tagLength {
		return "", ErrInvalidCiphertext
	}

	salt := raw[:saltLength]
	iv := raw[saltLength : saltLength+ivLength]
	tag := raw[saltLength+ivLength : saltLength+ivLength+tagLength]
	ciphertext := raw[saltLength+ivLength+tagLength:]

	gcm, err := b.cipherFor(salt)
	if err != nil {
		return "", err
	}

	sealed := make([]byte, 0, len(ciphertext)+tagLength)
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := gcm.Open(nil, iv, sealed, nil)
	if err != nil {
		return "", ErrInvalidCiphertext
	}

	return string(plaintext), nil
}

func (b *Box) cipherFor(salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(b.key), salt, iterations, keyLength, sha512.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	gcm, err := cipher.NewGCMWithNonceSize(block, ivLength)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}

	return gcm, nil
}
