// AngelaMos | 2026
// security.go

package core

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	saltLength   = 16
)

// Sealer encrypts values at rest with XChaCha20-Poly1305. The key is derived
// from a passphrase with argon2id; the salt travels with every sealed blob
// as salt || nonce || ciphertext.
type Sealer struct {
	passphrase []byte
}

func NewSealer(passphrase string) (*Sealer, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("new sealer: empty passphrase: %w", ErrInvalidInput)
	}
	return &Sealer{passphrase: []byte(passphrase)}, nil
}

func (s *Sealer) deriveKey(salt []byte) []byte {
	return argon2.IDKey(
		s.passphrase,
		salt,
		argonTime,
		argonMemory,
		argonThreads,
		chacha20poly1305.KeySize,
	)
}

func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	aead, err := chacha20poly1305.NewX(s.deriveKey(salt))
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	out := make([]byte, 0, saltLength+len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, plaintext, nil), nil
}

func (s *Sealer) Open(sealed []byte) ([]byte, error) {
	if len(sealed) < saltLength+chacha20poly1305.NonceSizeX {
		return nil, fmt.Errorf("open sealed value: %w", ErrStorageFormat)
	}

	salt := sealed[:saltLength]
	nonce := sealed[saltLength : saltLength+chacha20poly1305.NonceSizeX]
	ciphertext := sealed[saltLength+chacha20poly1305.NonceSizeX:]

	aead, err := chacha20poly1305.NewX(s.deriveKey(salt))
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("open sealed value: %w", ErrStorageFormat)
	}

	return plaintext, nil
}

// HashToken fingerprints a bearer token for logs without leaking it.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])[:12]
}
