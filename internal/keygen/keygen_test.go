package keygen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateLengthAndAlphabet(t *testing.T) {
	for i := 0; i < 10000; i++ {
		key := Generate(DefaultLength)
		require.Len(t, key, DefaultLength)
		for _, symbol := range key {
			require.True(
				t,
				strings.ContainsRune(Alphabet, symbol),
				"the symbol %q is outside the alphabet", symbol,
			)
		}
	}
}

func TestGenerateFailsClosedOnBadLength(t *testing.T) {
	assert.Equal(t, "", Generate(0))
	assert.Equal(t, "", Generate(-1))
}

func TestAlphabetHas52Letters(t *testing.T) {
	assert.Len(t, Alphabet, 52)
}

func TestUniqueReturnsFreeCandidate(t *testing.T) {
	taken := map[string]bool{}
	key, err := Unique(DefaultLength, DefaultMaxAttempts, func(candidate string) bool {
		return taken[candidate]
	})
	require.NoError(t, err)
	assert.Len(t, key, DefaultLength)
}

func TestUniqueGivesUpOnSaturatedNamespace(t *testing.T) {
	attempts := 0
	_, err := Unique(DefaultLength, 5, func(candidate string) bool {
		attempts++
		return true
	})
	assert.ErrorIs(t, err, ErrAttemptsExceeded)
	assert.Equal(t, 5, attempts)
}

func TestUniqueNeverRepeatsLiveKeys(t *testing.T) {
	taken := map[string]bool{}
	for i := 0; i < 1000; i++ {
		key, err := Unique(DefaultLength, DefaultMaxAttempts, func(candidate string) bool {
			return taken[candidate]
		})
		require.NoError(t, err)
		require.False(t, taken[key], "the key %q was issued twice", key)
		taken[key] = true
	}
}
