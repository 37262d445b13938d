package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2-HMAC-SHA256 parameters. The iteration count is stored inside each
// hash so it can be raised later without invalidating existing hashes.
const (
	hashIterations = 100000
	saltLength     = 16
	keyLength      = 32
)

// HashPassword derives a password hash encoded as
// "<iterations>:<base64(salt)>:<base64(key)>".
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password is empty")
	}
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := pbkdf2.Key([]byte(password), salt, hashIterations, keyLength, sha256.New)
	return fmt.Sprintf("%d:%s:%s",
		hashIterations,
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(key),
	), nil
}

// VerifyPassword checks a password against a stored hash. It re-derives the
// key with the stored iteration count and salt and compares in constant time.
// Malformed input, a wrong field count or any other hash scheme (legacy bcrypt
// included) fails closed: the function returns false and never panics.
func VerifyPassword(password, encoded string) bool {
	parts := strings.Split(encoded, ":")
	if len(parts) != 3 {
		return false
	}
	iterations, err := strconv.Atoi(parts[0])
	if err != nil || iterations <= 0 {
		return false
	}
	salt, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}
	want, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil || len(want) == 0 {
		return false
	}
	got := pbkdf2.Key([]byte(password), salt, iterations, len(want), sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}
