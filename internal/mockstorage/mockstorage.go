// Package mockstorage provides a testify-based mock implementation of the
// storage interface. It is used for unit testing the service and handler
// layers by simulating storage behavior, including failure modes the real
// in-memory backends never produce.
package mockstorage

import (
	"context"

	"github.com/stretchr/testify/mock"

	"tinylink/internal/link"
	"tinylink/internal/user"
)

// StorageMock is a testify mock implementing storage.Storage.
type StorageMock struct {
	mock.Mock
}

// CreateUser mocks user registration.
func (m *StorageMock) CreateUser(ctx context.Context, email, credentialHash string) (*user.User, error) {
	args := m.Called(ctx, email, credentialHash)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Error(1)
}

// FindUserByEmail mocks the email index lookup.
func (m *StorageMock) FindUserByEmail(ctx context.Context, email string) (*user.User, bool, error) {
	args := m.Called(ctx, email)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Bool(1), args.Error(2)
}

// FindUserByID mocks fetching a user by their ID.
func (m *StorageMock) FindUserByID(ctx context.Context, userID string) (*user.User, bool, error) {
	args := m.Called(ctx, userID)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Bool(1), args.Error(2)
}

// InsertLink mocks code allocation and insertion.
func (m *StorageMock) InsertLink(ctx context.Context, targetURL, ownerID string) (string, error) {
	args := m.Called(ctx, targetURL, ownerID)
	return args.String(0), args.Error(1)
}

// FindLinkByCode mocks a single link lookup.
func (m *StorageMock) FindLinkByCode(ctx context.Context, code string) (*link.Link, bool, error) {
	args := m.Called(ctx, code)
	lnk, _ := args.Get(0).(*link.Link)
	return lnk, args.Bool(1), args.Error(2)
}

// FindLinksByOwner mocks the owner-scoped listing.
func (m *StorageMock) FindLinksByOwner(ctx context.Context, ownerID string) ([]link.Link, error) {
	args := m.Called(ctx, ownerID)
	links, _ := args.Get(0).([]link.Link)
	return links, args.Error(1)
}

// UpdateLink mocks the guarded target rewrite.
func (m *StorageMock) UpdateLink(ctx context.Context, code, targetURL, owner string) error {
	args := m.Called(ctx, code, targetURL, owner)
	return args.Error(0)
}

// DeleteLink mocks the guarded removal.
func (m *StorageMock) DeleteLink(ctx context.Context, code, owner string) error {
	args := m.Called(ctx, code, owner)
	return args.Error(0)
}

// CountUsers mocks the user total.
func (m *StorageMock) CountUsers(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// CountLinks mocks the link total.
func (m *StorageMock) CountLinks(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// Ping mocks the health check.
func (m *StorageMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close mocks releasing resources.
func (m *StorageMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
