// Package passcode generates the short codes used by code-gated
// attendance sessions.
package passcode

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Alphabet is the set of characters codes are drawn from.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// DefaultLength is the standard code length.
const DefaultLength = 6

// Generate returns a random attendance code of DefaultLength characters.
func Generate() (string, error) {
	return GenerateN(DefaultLength)
}

// GenerateN returns a random attendance code of n characters, each drawn
// uniformly from Alphabet.
func GenerateN(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("code length must be positive, got %d", n)
	}

	max := big.NewInt(int64(len(Alphabet)))
	buf := make([]byte, n)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to read random source: %w", err)
		}
		buf[i] = Alphabet[idx.Int64()]
	}

	return string(buf), nil
}
