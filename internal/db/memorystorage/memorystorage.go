// Package memorystorage is the purely memory-resident storage backend:
// the jsondb cache without a snapshot file. All state is lost on restart,
// which is the contract of the default configuration.
package memorystorage

import (
	"context"

	"tinylink/internal/db/jsondb"
)

type MemoryStorage struct {
	*jsondb.JSONDB
}

func New(keyLength, maxAttempts int) (*MemoryStorage, error) {
	return &MemoryStorage{
		JSONDB: jsondb.NewEmpty(keyLength, maxAttempts),
	}, nil
}

func (theStorage *MemoryStorage) Close() error {
	return nil
}

func (theStorage *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}
