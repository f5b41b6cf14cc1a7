// Package jsondb implements the user directory and link store on top of
// in-memory maps with a best-effort JSON file snapshot: the file is read
// once at startup and written back on Close. It gives no durability
// guarantee; a crash loses everything since the last snapshot.
package jsondb

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"tinylink/internal/db/storage"
	"tinylink/internal/keygen"
	"tinylink/internal/link"
	"tinylink/internal/user"
)

// CacheStruct is the serialized shape of the whole database. EmailToUserID
// is a secondary index making the registration uniqueness check and email
// lookups constant-time.
type CacheStruct struct {
	Links         map[string]*link.Link
	Users         map[string]*user.User
	EmailToUserID map[string]string
}

// JSONDB holds the cache and the snapshot file name. All operations take
// the mutex; check-then-act sequences never release it in between.
type JSONDB struct {
	fileName    string
	keyLength   int
	maxAttempts int

	mu    sync.RWMutex
	Cache CacheStruct
}

func emptyCache() CacheStruct {
	return CacheStruct{
		Links:         map[string]*link.Link{},
		Users:         map[string]*user.User{},
		EmailToUserID: map[string]string{},
	}
}

func initDBFile(fileName string) error {
	dbFile, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(dbFile, `{
	"Links": {},
	"Users": {},
	"EmailToUserID": {}
}`)
	if err != nil {
		return err
	}
	return dbFile.Close()
}

func writeToJSONFile(fileName string, cache interface{}) error {
	jsonData, err := json.MarshalIndent(cache, "", "\t")
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %s", err)
	}

	file, err2 := os.OpenFile(fileName, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0644)
	if err2 != nil {
		return fmt.Errorf("error opening file: %s", err2)
	}
	defer file.Close()

	_, err = file.Write(jsonData)
	if err != nil {
		return fmt.Errorf("error writing to file: %s", err)
	}

	return nil
}

func parseJSONFile(fileName string, cacheMap *CacheStruct) error {
	file, err := os.Open(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	return decoder.Decode(cacheMap)
}

// NewEmpty builds a database with an empty cache and no snapshot file.
// It backs the memory-only storage; Close must not be called on it.
func NewEmpty(keyLength, maxAttempts int) *JSONDB {
	if keyLength <= 0 {
		keyLength = keygen.DefaultLength
	}
	return &JSONDB{
		keyLength:   keyLength,
		maxAttempts: maxAttempts,
		Cache:       emptyCache(),
	}
}

// New loads the database from fileName, creating an empty one when the
// file does not exist yet. keyLength and maxAttempts parameterize the
// code/ID allocation done by the store.
func New(fileName string, keyLength, maxAttempts int) (*JSONDB, error) {
	if keyLength <= 0 {
		keyLength = keygen.DefaultLength
	}
	db := JSONDB{
		fileName:    fileName,
		keyLength:   keyLength,
		maxAttempts: maxAttempts,
		Cache:       emptyCache(),
	}

	err := parseJSONFile(db.fileName, &db.Cache)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		err := initDBFile(fileName)
		if err != nil {
			return nil, err
		}
		err = parseJSONFile(db.fileName, &db.Cache)
		if err != nil {
			return nil, err
		}
	}
	if db.Cache.Links == nil {
		db.Cache.Links = map[string]*link.Link{}
	}
	if db.Cache.Users == nil {
		db.Cache.Users = map[string]*user.User{}
	}
	if db.Cache.EmailToUserID == nil {
		db.Cache.EmailToUserID = map[string]string{}
	}

	return &db, nil
}

// CreateUser registers a new user. The email uniqueness check, the ID
// allocation and the insert happen under one lock acquisition, so two
// concurrent registrations with the same email cannot both succeed.
func (db *JSONDB) CreateUser(ctx context.Context, email, credentialHash string) (*user.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, taken := db.Cache.EmailToUserID[email]; taken {
		return nil, storage.ErrEmailTaken
	}

	userID, err := keygen.Unique(db.keyLength, db.maxAttempts, func(candidate string) bool {
		_, exists := db.Cache.Users[candidate]
		return exists
	})
	if err != nil {
		return nil, err
	}

	usr := &user.User{
		ID:             userID,
		Email:          email,
		CredentialHash: credentialHash,
	}
	db.Cache.Users[userID] = usr
	db.Cache.EmailToUserID[email] = userID

	return usr, nil
}

// FindUserByEmail looks a user up through the email index. The match is
// exact and case-sensitive.
func (db *JSONDB) FindUserByEmail(ctx context.Context, email string) (*user.User, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	userID, found := db.Cache.EmailToUserID[email]
	if !found {
		return nil, false, nil
	}
	usr, found := db.Cache.Users[userID]

	return usr, found, nil
}

func (db *JSONDB) FindUserByID(ctx context.Context, userID string) (*user.User, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	usr, found := db.Cache.Users[userID]

	return usr, found, nil
}

// InsertLink allocates a fresh code and stores the mapping. The target URL
// is stored verbatim.
func (db *JSONDB) InsertLink(ctx context.Context, targetURL, ownerID string) (string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	code, err := keygen.Unique(db.keyLength, db.maxAttempts, func(candidate string) bool {
		_, exists := db.Cache.Links[candidate]
		return exists
	})
	if err != nil {
		return "", err
	}

	db.Cache.Links[code] = &link.Link{
		Code:      code,
		TargetURL: targetURL,
		OwnerID:   ownerID,
	}

	return code, nil
}

func (db *JSONDB) FindLinkByCode(ctx context.Context, code string) (*link.Link, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	lnk, found := db.Cache.Links[code]
	if !found {
		return nil, false, nil
	}
	copied := *lnk

	return &copied, true, nil
}

// FindLinksByOwner collects the owner's links. The result for an unknown
// owner and for an owner with no links is the same empty slice, never nil.
func (db *JSONDB) FindLinksByOwner(ctx context.Context, ownerID string) ([]link.Link, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	result := []link.Link{}
	for _, lnk := range db.Cache.Links {
		if lnk.OwnerID == ownerID {
			result = append(result, *lnk)
		}
	}

	return result, nil
}

// UpdateLink rewrites the target URL of an existing link. With a non-empty
// owner the existence and ownership checks precede the write under the
// same lock; existence is checked first, so an absent code reports
// ErrNotFound even when the caller would not have owned it.
func (db *JSONDB) UpdateLink(ctx context.Context, code, targetURL, owner string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	lnk, found := db.Cache.Links[code]
	if !found {
		return storage.ErrNotFound
	}
	if owner != "" && lnk.OwnerID != owner {
		return storage.ErrNotOwner
	}
	lnk.TargetURL = targetURL

	return nil
}

// DeleteLink removes an existing link, with the same guard semantics as
// UpdateLink.
func (db *JSONDB) DeleteLink(ctx context.Context, code, owner string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	lnk, found := db.Cache.Links[code]
	if !found {
		return storage.ErrNotFound
	}
	if owner != "" && lnk.OwnerID != owner {
		return storage.ErrNotOwner
	}
	delete(db.Cache.Links, code)

	return nil
}

func (db *JSONDB) CountUsers(ctx context.Context) (int64, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return int64(len(db.Cache.Users)), nil
}

func (db *JSONDB) CountLinks(ctx context.Context) (int64, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return int64(len(db.Cache.Links)), nil
}

func (db *JSONDB) Ping(ctx context.Context) error {
	return nil
}

// Close writes the snapshot back to the file.
func (db *JSONDB) Close() error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return writeToJSONFile(db.fileName, db.Cache)
}
