// Package storage declares the interface of the user directory and link
// store, together with the typed error outcomes its operations report. The
// backing maps of an implementation are never exposed to callers; every
// check-then-act sequence (uniqueness before insert, existence and
// ownership before mutation) happens atomically inside the implementation.
package storage

import (
	"context"
	"errors"

	"tinylink/internal/link"
	"tinylink/internal/user"
)

// ErrNotFound is returned when no record exists for the given code or
// user ID.
var ErrNotFound = errors.New("no such record")

// ErrEmailTaken is returned by CreateUser when the email is already
// registered.
var ErrEmailTaken = errors.New("the email is already registered")

// ErrNotOwner is returned by guarded link mutations when the link exists
// but belongs to a different user.
var ErrNotOwner = errors.New("the link belongs to another user")

// Storage combines the user directory and the link store behind one
// memory-resident backend.
type Storage interface {
	// CreateUser allocates a fresh user ID, inserts the record and returns
	// it. The email uniqueness check and the insert are a single atomic
	// step; a duplicate yields ErrEmailTaken.
	CreateUser(ctx context.Context, email, credentialHash string) (*user.User, error)

	FindUserByEmail(ctx context.Context, email string) (*user.User, bool, error)

	FindUserByID(ctx context.Context, userID string) (*user.User, bool, error)

	// InsertLink allocates a fresh unique code for the target URL and
	// returns it. Code allocation retries on collision a bounded number of
	// times before giving up.
	InsertLink(ctx context.Context, targetURL, ownerID string) (string, error)

	FindLinkByCode(ctx context.Context, code string) (*link.Link, bool, error)

	// FindLinksByOwner returns every link owned by ownerID. The result is
	// never nil: an unknown owner and an owner with zero links both yield
	// an empty slice.
	FindLinksByOwner(ctx context.Context, ownerID string) ([]link.Link, error)

	// UpdateLink replaces the target URL of the link with the given code.
	// A non-empty owner makes the call a guarded mutation: the existence
	// check, the ownership check and the write happen under one lock, and
	// ErrNotFound takes precedence over ErrNotOwner. An empty owner skips
	// the ownership guard.
	UpdateLink(ctx context.Context, code, targetURL, owner string) error

	// DeleteLink removes the link with the given code, with the same owner
	// guard semantics as UpdateLink.
	DeleteLink(ctx context.Context, code, owner string) error

	CountUsers(ctx context.Context) (int64, error)

	CountLinks(ctx context.Context) (int64, error)

	Ping(ctx context.Context) error

	Close() error
}
