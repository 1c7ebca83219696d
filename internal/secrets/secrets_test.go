package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdef0123456789abcdef"

func TestBox_RoundTrip(t *testing.T) {
	box, err := NewBox(testKey)
	require.NoError(t, err)

	tests := []string{
		"sk_live_abc123",
		"",
		"token with spaces and unicode: héllo wörld",
	}

	for _, plaintext := range tests {
		encrypted, err := box.Encrypt(plaintext)
		require.NoError(t, err)
		assert.NotEqual(t, plaintext, encrypted)

		decrypted, err := box.Decrypt(encrypted)
		require.NoError(t, err)
		assert.Equal(t, plaintext, decrypted)
	}
}

func TestBox_EncryptNotDeterministic(t *testing.T) {
	box, err := NewBox(testKey)
	require.NoError(t, err)

	first, err := box.Encrypt("same input")
	require.NoError(t, err)
	second, err := box.Encrypt("same input")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestBox_DecryptRejectsTampering(t *testing.T) {
	box, err := NewBox(testKey)
	require.NoError(t, err)

	encrypted, err := box.Encrypt("secret")
	require.NoError(t, err)

	_, err = box.Decrypt(encrypted[:len(encrypted)-8] + "AAAAAAA=")
	assert.Error(t, err)

	_, err = box.Decrypt("not base64!!!")
	assert.Error(t, err)

	_, err = box.Decrypt("c2hvcnQ=")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestBox_WrongKeyFails(t *testing.T) {
	box, err := NewBox(testKey)
	require.NoError(t, err)

	other, err := NewBox("ffffffffffffffffffffffffffffffff")
	require.NoError(t, err)

	encrypted, err := box.Encrypt("secret")
	require.NoError(t, err)

	_, err = other.Decrypt(encrypted)
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestNewBox_ShortKey(t *testing.T) {
	_, err := NewBox("too-short")
	assert.Error(t, err)
}
