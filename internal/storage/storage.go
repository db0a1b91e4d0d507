package storage

import (
	"context"
	"errors"
)

// ErrObjectNotFound is returned when a named source object does not exist.
var ErrObjectNotFound = errors.New("storage: object not found")

// Source reads the raw files that ingestion turns into documents.
type Source interface {
	// Read returns the whole object.
	Read(ctx context.Context, name string) ([]byte, error)
	// List returns object names ending in ext, sorted.
	List(ctx context.Context, ext string) ([]string, error)
	// Location describes where objects come from, for logs and audit rows.
	Location() string
}
