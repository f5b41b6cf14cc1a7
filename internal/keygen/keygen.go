// Package keygen produces the short random identifiers used as link codes
// and user IDs. Identifiers are drawn from a fixed 52-letter alphabet;
// uniqueness against a particular store is the caller's duty and is served
// by the bounded collision-retry helper Unique.
package keygen

import (
	"crypto/rand"
	"errors"
	"math/big"
)

// Alphabet is the fixed set of symbols identifiers are built from.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// DefaultLength is the identifier length used when the caller has no
// configured preference.
const DefaultLength = 6

// DefaultMaxAttempts bounds the collision retry loop in Unique.
const DefaultMaxAttempts = 10

// ErrAttemptsExceeded is returned by Unique when every generated candidate
// collided with an existing identifier.
var ErrAttemptsExceeded = errors.New("the number of attempts to generate a unique key has been exceeded")

// Generate returns a string of length random symbols from Alphabet.
// A non-positive length yields an empty string rather than an error.
func Generate(length int) string {
	if length <= 0 {
		return ""
	}

	result := make([]byte, length)
	alphabetSize := big.NewInt(int64(len(Alphabet)))
	for i := range result {
		randomIndex, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return ""
		}
		result[i] = Alphabet[randomIndex.Int64()]
	}

	return string(result)
}

// Unique generates candidates of the given length until exists reports a
// free one, giving up with ErrAttemptsExceeded after maxAttempts tries.
// The exists callback is expected to run under the lock of the store the
// identifier is destined for.
func Unique(length, maxAttempts int, exists func(string) bool) (string, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	for i := 0; i < maxAttempts; i++ {
		candidate := Generate(length)
		if candidate == "" {
			return "", ErrAttemptsExceeded
		}
		if !exists(candidate) {
			return candidate, nil
		}
	}

	return "", ErrAttemptsExceeded
}
