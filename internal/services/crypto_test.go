package services

import (
	"crypto/rand"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCryptoService(t *testing.T) *CryptoService {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)

	log := logrus.New()
	svc, err := NewCryptoService(key, log)
	require.NoError(t, err)
	return svc
}

func TestCryptoService_RoundTrip(t *testing.T) {
	svc := setupCryptoService(t)

	cases := []string{
		"hunter2",
		"p@ssw0rd with spaces",
		"ünïcödé-日本語-секрет",
		`{"clientSecret":"abc123"}`,
	}

	for _, plaintext := range cases {
		ciphertext, err := svc.Encrypt(plaintext)
		require.NoError(t, err)
		assert.NotEqual(t, plaintext, ciphertext)

		decrypted, err := svc.Decrypt(ciphertext)
		require.NoError(t, err)
		assert.Equal(t, plaintext, decrypted)
	}
}

func TestCryptoService_EncryptIsNonDeterministic(t *testing.T) {
	svc := setupCryptoService(t)

	a, err := svc.Encrypt("same value")
	require.NoError(t, err)
	b, err := svc.Encrypt("same value")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestCryptoService_RejectsEmptyPlaintext(t *testing.T) {
	svc := setupCryptoService(t)

	_, err := svc.Encrypt("")
	assert.ErrorIs(t, err, ErrEmptySecret)
}

func TestCryptoService_DecryptGarbage(t *testing.T) {
	svc := setupCryptoService(t)

	_, err := svc.Decrypt("not base64 at all!!!")
	assert.ErrorIs(t, err, ErrCryptoFailure)

	_, err = svc.Decrypt("dG9vc2hvcnQ=")
	assert.ErrorIs(t, err, ErrCryptoFailure)
}

func TestCryptoService_DecryptWithWrongKey(t *testing.T) {
	svc := setupCryptoService(t)
	other := setupCryptoService(t)

	ciphertext, err := svc.Encrypt("secret")
	require.NoError(t, err)

	_, err = other.Decrypt(ciphertext)
	assert.ErrorIs(t, err, ErrCryptoFailure)
}

func TestNewCryptoService_RejectsShortKey(t *testing.T) {
	_, err := NewCryptoService([]byte("too short"), logrus.New())
	assert.Error(t, err)
}
