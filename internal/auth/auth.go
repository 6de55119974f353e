// Package auth holds the credential side of tag authentication: the stored
// `salt,hash` pair and the hash of a raw tag string.
//
// It intentionally avoids policy decisions and storage concerns.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const saltBytes = 16

var (
	ErrUnauthorized      = errors.New("auth: unauthorized")
	ErrInvalidCredential = errors.New("auth: invalid credential")
)

// Credential is one user's enrolled tag: the salt and the expected
// hex-encoded SHA-256 of salt followed by the raw tag.
type Credential struct {
	Salt string
	Hash string
}

// ParseCredential parses the `salt,hash` form stored in the config file.
func ParseCredential(s string) (Credential, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 2 {
		return Credential{}, fmt.Errorf("%w: want 2 comma-separated fields, got %d", ErrInvalidCredential, len(parts))
	}
	salt := strings.TrimSpace(parts[0])
	hash := strings.ToLower(strings.TrimSpace(parts[1]))
	if salt == "" || hash == "" {
		return Credential{}, fmt.Errorf("%w: empty salt or hash", ErrInvalidCredential)
	}
	return Credential{Salt: salt, Hash: hash}, nil
}

// NewCredential enrolls rawTag under a fresh random salt.
func NewCredential(rawTag string) (Credential, error) {
	salt, err := NewSalt()
	if err != nil {
		return Credential{}, err
	}
	return Credential{Salt: salt, Hash: HashTag(salt, rawTag)}, nil
}

func NewSalt() (string, error) {
	buf := make([]byte, saltBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("auth: generate salt: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// HashTag returns the lowercase hex SHA-256 of salt || rawTag.
func HashTag(salt, rawTag string) string {
	sum := sha256.Sum256([]byte(salt + rawTag))
	return hex.EncodeToString(sum[:])
}

func (c Credential) Validate(rawTag string) error {
	if c.Salt == "" || c.Hash == "" {
		return ErrUnauthorized
	}
	got := HashTag(c.Salt, rawTag)
	if subtle.ConstantTimeCompare([]byte(c.Hash), []byte(got)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

func (c Credential) String() string {
	return c.Salt + "," + c.Hash
}
