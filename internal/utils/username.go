package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// UsernameFromEmail derives a username from the local part of an email address.
func UsernameFromEmail(email string) string {
	local := email
	if i := strings.IndexByte(email, '@'); i >= 0 {
		local = email[:i]
	}

	var b strings.Builder
	for _, r := range strings.ToLower(local) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "user"
	}
	return b.String()
}

// UsernameWithSuffix appends a random numeric suffix to base.
func UsernameWithSuffix(base string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("failed to generate username suffix: %w", err)
	}
	return fmt.Sprintf("%s%06d", base, n.Int64()), nil
}
