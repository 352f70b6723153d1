package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"github.com/mdouchement/safehaven/internal/model"
	argon2 "github.com/mdouchement/simple-argon2"
	"github.com/pkg/errors"
)

// A Hasher hashes and verifies passwords.
type Hasher interface {
	// Name returns the algorithm name stored along the hashes.
	Name() string
	// Hash returns the hash of the given password.
	Hash(password string) (string, error)
	// Compare returns true if the password matches the hash.
	Compare(hash, password string) (bool, error)
}

// NewHasher returns the Hasher for the given algorithm name.
func NewHasher(name string) (Hasher, error) {
	switch name {
	case "", model.PasswordArgon2:
		return Argon2{}, nil
	case model.PasswordSHA256:
		return SHA256{}, nil
	}
	return nil, errors.Errorf("unsupported password hash %q", name)
}

// Argon2 hashes passwords with salted argon2id.
type Argon2 struct{}

// Name implements Hasher.
func (Argon2) Name() string {
	return model.PasswordArgon2
}

// Hash implements Hasher.
func (Argon2) Hash(password string) (string, error) {
	hash, err := argon2.GenerateFromPasswordString(password, argon2.Default)
	return hash, errors.Wrap(err, "could not store password safe")
}

// Compare implements Hasher.
func (Argon2) Compare(hash, password string) (bool, error) {
	if err := argon2.CompareHashAndPasswordString(hash, password); err != nil {
		if err == argon2.ErrMismatchedHashAndPassword {
			return false, nil
		}
		return false, errors.Wrap(err, "could not validate password")
	}
	return true, nil
}

// SHA256 hashes passwords with unsalted SHA-256.
// It only exists to read profiles created with the legacy format.
type SHA256 struct{}

// Name implements Hasher.
func (SHA256) Name() string {
	return model.PasswordSHA256
}

// Hash implements Hasher.
func (SHA256) Hash(password string) (string, error) {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:]), nil
}

// Compare implements Hasher.
func (h SHA256) Compare(hash, password string) (bool, error) {
	candidate, _ := h.Hash(password)
	return subtle.ConstantTimeCompare([]byte(hash), []byte(candidate)) == 1, nil
}
