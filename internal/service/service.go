// Package service is the policy layer between the HTTP boundary and the
// stores. It owns credential hashing, composes the caller's session
// identity with the link store for every mutating operation, and keeps the
// error outcomes typed so the boundary can map them to statuses.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/thoas/go-funk"
	"golang.org/x/crypto/bcrypt"

	"tinylink/internal/db/storage"
	"tinylink/internal/link"
	"tinylink/internal/models"
	"tinylink/internal/user"
)

// ErrInvalidInput is returned when a required field is empty or absent.
var ErrInvalidInput = errors.New("a required field is empty")

// ErrUserNotFound is returned by Authenticate when no user is registered
// under the email. It is kept distinct from ErrInvalidCredentials so the
// two login failures stay distinguishable in the error kind.
var ErrUserNotFound = errors.New("no user with such email")

// ErrInvalidCredentials is returned by Authenticate when the password does
// not match the stored hash.
var ErrInvalidCredentials = errors.New("wrong password")

// ErrUnauthenticated is returned when an operation requiring a session
// identity is attempted anonymously.
var ErrUnauthenticated = errors.New("the operation requires an authenticated caller")

// ErrNotFound mirrors the store's outcome for an unknown code.
var ErrNotFound = storage.ErrNotFound

// ErrForbidden is returned when the caller is authenticated but does not
// own the link.
var ErrForbidden = errors.New("the link belongs to another user")

// ErrInvalidURLInRequest is returned when the request carries no usable
// http(s) URL.
var ErrInvalidURLInRequest = errors.New("there is no valid URL substring in the request")

var urlPattern = regexp.MustCompile(`\bhttps?://\S+\b`)

type userKeeper interface {
	CreateUser(ctx context.Context, email, credentialHash string) (*user.User, error)
	FindUserByEmail(ctx context.Context, email string) (*user.User, bool, error)
	FindUserByID(ctx context.Context, userID string) (*user.User, bool, error)
}

type linksKeeper interface {
	InsertLink(ctx context.Context, targetURL, ownerID string) (string, error)
	FindLinkByCode(ctx context.Context, code string) (*link.Link, bool, error)
	FindLinksByOwner(ctx context.Context, ownerID string) ([]link.Link, error)
	UpdateLink(ctx context.Context, code, targetURL, owner string) error
	DeleteLink(ctx context.Context, code, owner string) error
}

type statsKeeper interface {
	CountUsers(ctx context.Context) (int64, error)
	CountLinks(ctx context.Context) (int64, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type serviceStorage interface {
	userKeeper
	linksKeeper
	statsKeeper
	pinger
}

// Service exposes the application operations to the HTTP boundary.
type Service struct {
	db           serviceStorage
	shortURLBase string
}

func New(db serviceStorage, shortURLBase string) *Service {
	return &Service{
		db:           db,
		shortURLBase: shortURLBase,
	}
}

// Register creates a new account. The password is hashed with bcrypt
// before anything reaches the store; the plaintext is never persisted.
// Both fields are required. A duplicate email yields storage.ErrEmailTaken.
func (s *Service) Register(ctx context.Context, email, password string) (*user.User, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	return s.db.CreateUser(ctx, email, string(hash))
}

// Authenticate verifies the email/password pair against the directory.
// An unknown email yields ErrUserNotFound, a wrong password
// ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*user.User, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidInput
	}

	usr, found, err := s.db.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrUserNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(usr.CredentialHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return usr, nil
}

// ShortenURL creates a link owned by the caller and returns the absolute
// short URL. The owner is always the session identity, never taken from
// the request payload.
func (s *Service) ShortenURL(ctx context.Context, urlToShort, callerID string) (string, error) {
	if callerID == "" {
		return "", ErrUnauthenticated
	}

	code, err := s.db.InsertLink(ctx, urlToShort, callerID)
	if err != nil {
		return "", err
	}

	return s.GetShortURL(code), nil
}

// GetOriginalURL resolves a short code for the public redirect. This is
// the one read path with no authentication and no ownership check: short
// links are meant to be followable by anyone. An unknown code is reported
// as ("", nil), matching the boundary's 404 handling.
func (s *Service) GetOriginalURL(ctx context.Context, code string) (string, error) {
	lnk, found, err := s.db.FindLinkByCode(ctx, code)
	if err != nil {
		return "", err
	}
	if !found {
		return "", nil
	}

	return lnk.TargetURL, nil
}

// GetUserLink returns a single link to its owner. An absent code yields
// ErrNotFound before any ownership consideration; a foreign one
// ErrForbidden.
func (s *Service) GetUserLink(ctx context.Context, code, callerID string) (*link.Link, error) {
	if callerID == "" {
		return nil, ErrUnauthenticated
	}

	lnk, found, err := s.db.FindLinkByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	if lnk.OwnerID != callerID {
		return nil, ErrForbidden
	}

	return lnk, nil
}

// GetUserURLs lists the caller's links for the dashboard. The scope is
// always the caller's own identity. Zero links yield an empty listing,
// never an error.
func (s *Service) GetUserURLs(ctx context.Context, callerID string) (models.UserUrls, error) {
	if callerID == "" {
		return nil, ErrUnauthenticated
	}

	links, err := s.db.FindLinksByOwner(ctx, callerID)
	if err != nil {
		return nil, err
	}

	result := funk.Map(links, func(lnk link.Link) models.UserURL {
		return models.UserURL{
			Code:        lnk.Code,
			ShortURL:    s.GetShortURL(lnk.Code),
			OriginalURL: lnk.TargetURL,
		}
	}).([]models.UserURL)

	return result, nil
}

// UpdateUserLink rewrites the target of a link owned by the caller.
func (s *Service) UpdateUserLink(ctx context.Context, code, targetURL, callerID string) error {
	if callerID == "" {
		return ErrUnauthenticated
	}

	return mapOwnerGuardError(s.db.UpdateLink(ctx, code, targetURL, callerID))
}

// DeleteUserLink removes a link owned by the caller.
func (s *Service) DeleteUserLink(ctx context.Context, code, callerID string) error {
	if callerID == "" {
		return ErrUnauthenticated
	}

	return mapOwnerGuardError(s.db.DeleteLink(ctx, code, callerID))
}

// GetInternalStats returns totals for the trusted-subnet statistics
// endpoint.
func (s *Service) GetInternalStats(ctx context.Context) (models.InternalStatsResponse, error) {
	urls, err := s.db.CountLinks(ctx)
	if err != nil {
		return models.InternalStatsResponse{}, err
	}

	users, err := s.db.CountUsers(ctx)
	if err != nil {
		return models.InternalStatsResponse{}, err
	}

	return models.InternalStatsResponse{
		URLs:  urls,
		Users: users,
	}, nil
}

// Ping checks the health of the storage layer.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// GetShortURL builds the absolute short URL for a code.
func (s *Service) GetShortURL(code string) string {
	return s.shortURLBase + "/" + code
}

// GetShortURLKey strips the configured base from an absolute short URL.
func (s *Service) GetShortURLKey(shortURL string) string {
	if shortURL == "" || s.shortURLBase == "" {
		return ""
	}
	base := strings.TrimRight(s.shortURLBase, "/")
	trimmed := strings.TrimPrefix(shortURL, base)
	return strings.TrimPrefix(trimmed, "/")
}

// ExtractFirstURL pulls the first http(s) URL out of a free-form request
// body and validates it has a scheme and host.
func (s *Service) ExtractFirstURL(urlToShort string) (string, error) {
	match := urlPattern.FindString(urlToShort)
	if match == "" {
		return "", ErrInvalidURLInRequest
	}

	if !isValidURL(match) {
		return "", ErrInvalidURLInRequest
	}

	return match, nil
}

func mapOwnerGuardError(err error) error {
	if errors.Is(err, storage.ErrNotOwner) {
		return ErrForbidden
	}
	return err
}

func isValidURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil &&
		(u.Scheme == "http" || u.Scheme == "https") &&
		u.Host != ""
}
