package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"noteshare/internal/storage"
	"noteshare/internal/upload"
)

// ErrFileMissing means a record references a stored file that no longer
// resolves on disk. It is distinct from a missing record so callers can
// report the database/filesystem inconsistency.
var ErrFileMissing = errors.New("file missing")

// FileManager owns the lifecycle of uploaded files: it gates every write
// behind the content validator, places accepted uploads through the storage
// backend, and provides the compensating delete used on failed operations.
//
// Per-record file mutations are serialized with an advisory lock keyed by
// record id, so two concurrent replaces on the same record cannot orphan a
// file. Lock entries live for the process lifetime; the key space is record
// ids, which is small enough not to matter.
type FileManager struct {
	store storage.Storage
	locks sync.Map // record id -> *sync.Mutex
}

// NewFileManager constructs a FileManager over the given storage backend.
func NewFileManager(store storage.Storage) *FileManager {
	return &FileManager{store: store}
}

// Attach validates the upload and, only on acceptance, writes it to storage
// under a freshly generated key. A rejected upload never reaches the disk;
// the seekable multipart file is peeked and rewound, so validation does not
// consume the bytes the write needs.
func (m *FileManager) Attach(ctx context.Context, kind upload.Kind, u *upload.Upload) (string, error) {
	head, err := u.Peek(upload.PeekSize)
	if err != nil {
		return "", fmt.Errorf("inspect upload: %w", err)
	}
	if err := upload.Validate(kind, u.ContentType, head); err != nil {
		return "", err
	}

	key := storage.NewObjectKey(kind.Category(), u.Filename)
	if _, err := m.store.Put(ctx, key, u.Reader(), storage.PutObjectOptions{
		Size:        u.Size,
		ContentType: u.ContentType,
		Metadata:    map[string]string{"original-filename": u.Filename},
	}); err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}
	return key, nil
}

// Discard removes a stored file best-effort. Failures are logged and
// swallowed: the caller is already on an error path (or the file is simply
// gone), and the primary outcome dominates the response. An already-missing
// file counts as success, which makes repeated cleanup idempotent.
func (m *FileManager) Discard(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := m.store.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		logFileEvent("file_discard_failed", key, err)
	}
}

// Resolve maps a record's stored key to a streaming reader. An empty key or
// a key that no longer resolves yields ErrFileMissing, which the handler
// layer reports distinctly from a missing record.
func (m *FileManager) Resolve(ctx context.Context, key string) (io.ReadCloser, storage.ObjectInfo, error) {
	if key == "" {
		return nil, storage.ObjectInfo{}, ErrFileMissing
	}
	rc, info, err := m.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			logFileEvent("file_missing", key, err)
			return nil, info, ErrFileMissing
		}
		return nil, info, fmt.Errorf("open stored file: %w", err)
	}
	return rc, info, nil
}

// LockRecord takes the advisory lock for one record's file mutations and
// returns the unlock func.
func (m *FileManager) LockRecord(id string) func() {
	v, _ := m.locks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// logFileEvent emits one JSON log line in the same shape as the request
// logger, carrying the original cause.
func logFileEvent(event, key string, err error) {
	entry := map[string]any{
		"ts":    time.Now().UTC().Format(time.RFC3339Nano),
		"level": "warn",
		"event": event,
		"key":   key,
	}
	if err != nil {
		entry["error"] = err.Error()
	}
	if b, merr := json.Marshal(entry); merr == nil {
		log.SetFlags(0)
		log.Println(string(b))
	}
}
