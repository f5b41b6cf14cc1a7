package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tinylink/internal/db/memorystorage"
	"tinylink/internal/db/storage"
	"tinylink/internal/keygen"
	"tinylink/internal/mockstorage"
)

const shortURLBase = "http://localhost:8080"

func newTestService(t *testing.T) *Service {
	t.Helper()
	theStorage, err := memorystorage.New(6, 10)
	require.NoError(t, err)
	return New(theStorage, shortURLBase)
}

func TestRegisterAndAuthenticate(t *testing.T) {
	theService := newTestService(t)
	ctx := context.Background()

	usr, err := theService.Register(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)
	require.NotNil(t, usr)
	assert.NotEmpty(t, usr.ID)
	assert.NotEqual(t, "secret123", usr.CredentialHash, "the plaintext password must never be stored")

	authenticated, err := theService.Authenticate(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, usr.ID, authenticated.ID)

	_, err = theService.Authenticate(ctx, "alice@example.com", "wrongpass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = theService.Authenticate(ctx, "nobody@example.com", "x")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRegisterRejectsEmptyFields(t *testing.T) {
	theService := newTestService(t)
	ctx := context.Background()

	_, err := theService.Register(ctx, "", "secret123")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = theService.Register(ctx, "alice@example.com", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	theService := newTestService(t)
	ctx := context.Background()

	_, err := theService.Register(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)

	_, err = theService.Register(ctx, "alice@example.com", "другойпароль")
	assert.ErrorIs(t, err, storage.ErrEmailTaken)

	stats, err := theService.GetInternalStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Users)
}

func TestShorteningRequiresIdentity(t *testing.T) {
	theService := newTestService(t)
	ctx := context.Background()

	_, err := theService.ShortenURL(ctx, "http://example.org", "")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = theService.GetUserURLs(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	err = theService.DeleteUserLink(ctx, "abcdef", "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestOwnershipScenario(t *testing.T) {
	theService := newTestService(t)
	ctx := context.Background()

	alice, err := theService.Register(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)
	bob, err := theService.Register(ctx, "bob@example.com", "hunter2hunter2")
	require.NoError(t, err)

	shortURL, err := theService.ShortenURL(ctx, "http://example.org", alice.ID)
	require.NoError(t, err)
	code := theService.GetShortURLKey(shortURL)
	require.NotEmpty(t, code)

	lnk, err := theService.GetUserLink(ctx, code, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "http://example.org", lnk.TargetURL)
	assert.Equal(t, alice.ID, lnk.OwnerID)

	_, err = theService.GetUserLink(ctx, code, bob.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	urls, err := theService.GetUserURLs(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, urls, 1)
	assert.Equal(t, shortURL, urls[0].ShortURL)
	assert.Equal(t, "http://example.org", urls[0].OriginalURL)

	urls, err = theService.GetUserURLs(ctx, bob.ID)
	require.NoError(t, err)
	require.NotNil(t, urls)
	assert.Empty(t, urls)

	err = theService.UpdateUserLink(ctx, code, "http://example.org/v2", bob.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	err = theService.DeleteUserLink(ctx, code, bob.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	err = theService.UpdateUserLink(ctx, code, "http://example.org/v2", alice.ID)
	require.NoError(t, err)
	resolved, err := theService.GetOriginalURL(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, "http://example.org/v2", resolved)

	err = theService.DeleteUserLink(ctx, code, alice.ID)
	require.NoError(t, err)

	_, err = theService.GetUserLink(ctx, code, alice.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	resolved, err = theService.GetOriginalURL(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, "", resolved)
}

func TestNotFoundTakesPrecedenceOverForbidden(t *testing.T) {
	theService := newTestService(t)
	ctx := context.Background()

	alice, err := theService.Register(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)

	err = theService.UpdateUserLink(ctx, "missing", "http://example.org", alice.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	err = theService.DeleteUserLink(ctx, "missing", alice.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = theService.GetUserLink(ctx, "missing", alice.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPublicResolutionNeedsNoIdentity(t *testing.T) {
	theService := newTestService(t)
	ctx := context.Background()

	alice, err := theService.Register(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)

	shortURL, err := theService.ShortenURL(ctx, "http://example.org", alice.ID)
	require.NoError(t, err)
	code := theService.GetShortURLKey(shortURL)

	resolved, err := theService.GetOriginalURL(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, "http://example.org", resolved)
}

func TestExtractFirstURL(t *testing.T) {
	theService := newTestService(t)

	extracted, err := theService.ExtractFirstURL("please shorten http://example.org/page for me")
	require.NoError(t, err)
	assert.Equal(t, "http://example.org/page", extracted)

	_, err = theService.ExtractFirstURL("no urls here")
	assert.ErrorIs(t, err, ErrInvalidURLInRequest)
}

func TestShortenSurfacesAllocatorExhaustion(t *testing.T) {
	theStorage := &mockstorage.StorageMock{}
	theStorage.
		On("InsertLink", mock.Anything, "http://example.org", "alice").
		Return("", keygen.ErrAttemptsExceeded)

	theService := New(theStorage, shortURLBase)

	_, err := theService.ShortenURL(context.Background(), "http://example.org", "alice")
	assert.ErrorIs(t, err, keygen.ErrAttemptsExceeded)
	theStorage.AssertExpectations(t)
}
