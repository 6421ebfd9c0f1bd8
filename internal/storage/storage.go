package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// Package storage contains the upload storage abstraction and its backends.
// Objects are addressed by flat keys of the form "<category>/<name>"; all
// other metadata lives in the database, never next to the files.

// ErrObjectNotFound is returned by all backends when a key does not resolve
// to a stored object. Callers use it to distinguish a missing file from an
// I/O failure.
var ErrObjectNotFound = errors.New("object not found")

// Storage categories. Each is a flat namespace with no nesting below it.
const (
	CategoryNotes    = "notes"
	CategoryProfiles = "profiles"
)

// PutObjectOptions define optional parameters for storing objects.
// Size should be the exact number of bytes if known; if unknown, set to -1
// and the backend will buffer/chunk as it supports.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// Storage is the backend interface shared by the disk and MinIO
// implementations. Methods use context and streaming readers; a failed Put
// must not leave a partial object behind.
type Storage interface {
	// Put stores an object under the given key from the provided reader.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get retrieves an object's content as a streaming reader alongside its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Stat returns object info without opening the content.
	Stat(ctx context.Context, key string) (ObjectInfo, error)
	// Delete removes an object by key. Deleting a missing object returns
	// ErrObjectNotFound.
	Delete(ctx context.Context, key string) error
}
