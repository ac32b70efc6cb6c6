package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// secretRandomBytes is the entropy of a freshly generated client secret.
const secretRandomBytes = 32

// NewClientSecret generates a high-entropy, URL-safe client secret. The
// base64 form is stripped of '+', '/' and '=' so the secret survives basic
// auth and query-string transport untouched.
func NewClientSecret() (string, error) {
	buf := make([]byte, secretRandomBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("security: generate secret: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(buf)
	replacer := strings.NewReplacer("+", "", "/", "", "=", "")
	return replacer.Replace(encoded), nil
}

// HashSecret returns the bcrypt hash of a client secret. Only the hash is
// ever persisted.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("security: hash secret: %w", err)
	}
	return string(hash), nil
}

// CompareSecret reports whether the secret matches the stored hash. bcrypt
// comparison is constant-time.
func CompareSecret(hash, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
