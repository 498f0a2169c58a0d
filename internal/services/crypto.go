package services

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"

	"github.com/sirupsen/logrus"
)

var (
	ErrEmptySecret   = errors.New("secret value must not be empty")
	ErrCryptoFailure = errors.New("failed to process secret material")
)

// CryptoService encrypts credential values for at-rest storage with
// AES-256-GCM. Ciphertext is base64(nonce || sealed). Failures are
// logged without the value involved and surface as ErrCryptoFailure.
type CryptoService struct {
	key []byte
	log *logrus.Logger
}

func NewCryptoService(key []byte, log *logrus.Logger) (*CryptoService, error) {
	if len(key) != 32 {
		return nil, errors.New("encryption key must be 32 bytes")
	}
	return &CryptoService{key: key, log: log}, nil
}

func (s *CryptoService) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptySecret
	}

	block, err := aes.NewCipher(s.key)
	if err != nil {
		s.log.WithError(err).Error("failed to create cipher")
		return "", ErrCryptoFailure
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		s.log.WithError(err).Error("failed to create gcm")
		return "", ErrCryptoFailure
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		s.log.WithError(err).Error("failed to read nonce")
		return "", ErrCryptoFailure
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (s *CryptoService) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		s.log.Error("stored ciphertext is not valid base64")
		return "", ErrCryptoFailure
	}

	block, err := aes.NewCipher(s.key)
	if err != nil {
		s.log.WithError(err).Error("failed to create cipher")
		return "", ErrCryptoFailure
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		s.log.WithError(err).Error("failed to create gcm")
		return "", ErrCryptoFailure
	}

	if len(raw) < gcm.NonceSize() {
		s.log.Error("stored ciphertext is truncated")
		return "", ErrCryptoFailure
	}

	nonce, sealed := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		s.log.Error("failed to decrypt secret material")
		return "", ErrCryptoFailure
	}
	return string(plaintext), nil
}
