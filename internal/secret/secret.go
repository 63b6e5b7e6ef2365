// Package secret generates the random tokens used for confirmation links,
// password resets, team invitations and judging credentials.
package secret

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// DefaultLength is the length of generated confirmation, reset and join secrets.
const DefaultLength = 30

const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// New returns a random alphanumeric string of the given length drawn from crypto/rand.
func New(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("secret length must be positive, got %d", length)
	}

	max := big.NewInt(int64(len(alphabet)))
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generating random index: %w", err)
		}
		b[i] = alphabet[n.Int64()]
	}
	return string(b), nil
}

// Generator returns a function producing secrets of the given length.
func Generator(length int) func() (string, error) {
	return func() (string, error) {
		return New(length)
	}
}
