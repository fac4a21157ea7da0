package store

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/pbkdf2"
)

const (
	nonceSize = 24

	// Key derivation parameters for the profile secret. Changing either
	// makes existing sealed values unreadable.
	kdfSalt       = "dbconsole-profile"
	kdfIterations = 4096
)

// ErrUnseal is returned when a stored value cannot be decrypted, usually
// because the secret changed.
var ErrUnseal = errors.New("store: cannot unseal value")

// SealedStorage encrypts every value with NaCl secretbox before handing it to
// the wrapped Storage. Keys are stored in clear.
type SealedStorage struct {
	inner Storage
	key   [32]byte
}

// Sealed wraps inner so values are encrypted with a key derived from secret
// by PBKDF2-SHA256.
func Sealed(inner Storage, secret string) *SealedStorage {
	s := &SealedStorage{inner: inner}
	copy(s.key[:], pbkdf2.Key([]byte(secret), []byte(kdfSalt), kdfIterations, len(s.key), sha256.New))
	return s
}

// Get implements Storage.
func (s *SealedStorage) Get(key string) (string, bool, error) {
	raw, ok, err := s.inner.Get(key)
	if err != nil || !ok {
		return "", ok, err
	}

	box, err := base64.StdEncoding.DecodeString(raw)
	if err != nil || len(box) < nonceSize {
		return "", false, fmt.Errorf("%w: %q is not a sealed value", ErrUnseal, key)
	}

	var nonce [nonceSize]byte
	copy(nonce[:], box[:nonceSize])
	plain, ok := secretbox.Open(nil, box[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", false, fmt.Errorf("%w: %q", ErrUnseal, key)
	}
	return string(plain), true, nil
}

// Set implements Storage.
func (s *SealedStorage) Set(key, value string) error {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return fmt.Errorf("generating nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], []byte(value), &nonce, &s.key)
	return s.inner.Set(key, base64.StdEncoding.EncodeToString(box))
}

// Remove implements Storage.
func (s *SealedStorage) Remove(key string) error {
	return s.inner.Remove(key)
}
