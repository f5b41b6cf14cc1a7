package memorystorage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tinylink/internal/keygen"
)

func TestMemoryStorage(t *testing.T) {
	theStorage, err := New(6, 10)
	require.NoError(t, err)
	require.NotNil(t, theStorage)

	ctx := context.Background()

	usr, err := theStorage.CreateUser(ctx, "alice@example.com", "some hash")
	require.NoError(t, err)

	code, err := theStorage.InsertLink(ctx, "http://example.org", usr.ID)
	require.NoError(t, err)

	lnk, found, err := theStorage.FindLinkByCode(ctx, code)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "http://example.org", lnk.TargetURL)

	links, err := theStorage.FindLinksByOwner(ctx, usr.ID)
	require.NoError(t, err)
	assert.Len(t, links, 1)

	assert.NoError(t, theStorage.Ping(ctx))
	assert.NoError(t, theStorage.Close())
}

func TestCodesStayUniqueUnderRepeatedInserts(t *testing.T) {
	// Single-letter codes over the 52-symbol alphabet collide quickly;
	// every successful insert must still produce a fresh code, and the
	// allocator must give up cleanly once the namespace is saturated.
	theStorage, err := New(1, 10)
	require.NoError(t, err)

	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; ; i++ {
		code, err := theStorage.InsertLink(ctx, "http://example.org", "owner")
		if err != nil {
			assert.ErrorIs(t, err, keygen.ErrAttemptsExceeded, "unexpected error kind")
			break
		}
		require.False(t, seen[code], "the code %q was issued twice", code)
		seen[code] = true
		if i > 52 {
			t.Fatal("the allocator must have failed by now")
		}
	}
}
