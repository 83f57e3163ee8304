package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// TemporaryToken is a single-use token sent to the user by mail. Only Hashed is stored.
type TemporaryToken struct {
	Unhashed string
	Hashed   string
	Expiry   time.Time
}

// RandomHex returns n random bytes encoded as hex.
func RandomHex(n int) (string, error) {
	bytes := make([]byte, n)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// GenerateTemporaryToken creates a random token valid for ttl.
func GenerateTemporaryToken(ttl time.Duration) (*TemporaryToken, error) {
	raw, err := RandomHex(20)
	if err != nil {
		return nil, err
	}
	return &TemporaryToken{
		Unhashed: raw,
		Hashed:   HashToken(raw),
		Expiry:   time.Now().Add(ttl),
	}, nil
}

// HashToken returns the sha256 hex digest stored in place of a token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
