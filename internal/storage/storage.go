// Package storage abstracts where a snapshot lives. A Destination is a flat
// keyspace of files ("auth.User/0001.json", "migrations.json"); the local
// directory and S3 implementations are interchangeable, and the in-memory
// implementation backs tests.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key does not exist in the destination.
var ErrNotFound = errors.New("storage: key not found")

// Destination is the snapshot store the export and import paths run against.
// Implementations must allow concurrent use for keys under different
// entity-type prefixes.
type Destination interface {
	// Write stores data under key, replacing any existing object.
	Write(ctx context.Context, key string, data []byte) error
	// Read returns the object stored under key, or ErrNotFound.
	Read(ctx context.Context, key string) ([]byte, error)
	// List returns the keys under the given prefix, sorted lexically.
	List(ctx context.Context, prefix string) ([]string, error)
	// Exists reports whether any key exists under the given prefix.
	Exists(ctx context.Context, prefix string) (bool, error)
}
