// Package code mints and checks the one-time codes users place in their
// external profile description.
package code

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Length is the number of characters in a generated code.
const Length = 6

// New returns 3 random bytes rendered as 6 uppercase hex characters.
func New() (string, error) {
	b := make([]byte, Length/2)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}

// Hash returns the bcrypt hash stored in place of the plaintext code.
func Hash(c string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(c), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash code: %w", err)
	}
	return string(h), nil
}

// Matches reports whether c is the code behind hash.
func Matches(hash, c string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(c)) == nil
}

// FoundIn reports whether c appears verbatim (case-sensitive) in description.
func FoundIn(description, c string) bool {
	return c != "" && strings.Contains(description, c)
}
