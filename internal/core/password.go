package core

// password.go generates fallback passwords for rows that left the password
// field empty.

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// passwordAlphabet deliberately excludes visually confusable characters
// (0/O, 1/l/I): administrators may need to read generated passwords aloud
// or copy them by hand.
const passwordAlphabet = "abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GeneratedPasswordLength is the fixed length of generated passwords. It
// comfortably clears MinPasswordLength so a generated password can never
// fail the validation rules enforced elsewhere.
const GeneratedPasswordLength = 10

// GeneratePassword returns a fresh random password drawn uniformly from the
// unambiguous alphabet.
func GeneratePassword() string {
	max := big.NewInt(int64(len(passwordAlphabet)))

	b := make([]byte, GeneratedPasswordLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand failing means the platform's entropy source is
			// broken; there is no sensible fallback.
			panic(fmt.Sprintf("password generation: %v", err))
		}
		b[i] = passwordAlphabet[n.Int64()]
	}
	return string(b)
}
