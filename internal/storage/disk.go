package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"noteshare/internal/config"
)

// diskStorage implements Storage on the local filesystem. Keys map directly
// to paths under the base directory. It is safe for concurrent use: object
// names are unique at creation time and the OS provides atomic unlink.
type diskStorage struct {
	baseDir string
}

// NewDisk creates a filesystem-backed storage rooted at cfg.BaseDir and
// ensures the category directories exist. Directory creation is idempotent,
// so restarting over an existing tree is fine.
func NewDisk(cfg config.DiskConfig) (Storage, error) {
	if cfg.BaseDir == "" {
		return nil, fmt.Errorf("upload base directory is required")
	}
	for _, category := range []string{CategoryNotes, CategoryProfiles} {
		dir := filepath.Join(cfg.BaseDir, category)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create upload directory %s: %w", dir, err)
		}
	}
	return &diskStorage{baseDir: cfg.BaseDir}, nil
}

func (d *diskStorage) path(key string) (string, error) {
	if key == "" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(d.baseDir, filepath.FromSlash(key)), nil
}

// Put writes the object to disk. A write that fails midway removes the
// partial file so no orphan is left behind.
func (d *diskStorage) Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error) {
	p, err := d.path(key)
	if err != nil {
		return ObjectInfo{}, err
	}

	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("create file: %w", err)
	}

	written, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(p)
		return ObjectInfo{}, fmt.Errorf("write file: %w", err)
	}
	if opt.Size >= 0 && written != opt.Size {
		_ = os.Remove(p)
		return ObjectInfo{}, fmt.Errorf("write file: incomplete write (%d of %d bytes)", written, opt.Size)
	}

	info, err := os.Stat(p)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("stat file: %w", err)
	}
	return ObjectInfo{
		Key:          key,
		Size:         info.Size(),
		ContentType:  opt.ContentType,
		LastModified: info.ModTime(),
	}, nil
}

// Get opens the object for streaming.
func (d *diskStorage) Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	p, err := d.path(key)
	if err != nil {
		return nil, ObjectInfo{}, err
	}

	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ObjectInfo{}, ErrObjectNotFound
		}
		return nil, ObjectInfo{}, fmt.Errorf("open file: %w", err)
	}

	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, ObjectInfo{}, fmt.Errorf("stat file: %w", err)
	}

	contentType, err := sniffContentType(f)
	if err != nil {
		f.Close()
		return nil, ObjectInfo{}, err
	}

	return f, ObjectInfo{
		Key:          key,
		Size:         st.Size(),
		ContentType:  contentType,
		LastModified: st.ModTime(),
	}, nil
}

// Stat returns object info without opening the content for streaming.
func (d *diskStorage) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	p, err := d.path(key)
	if err != nil {
		return ObjectInfo{}, err
	}

	st, err := os.Stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return ObjectInfo{}, ErrObjectNotFound
		}
		return ObjectInfo{}, fmt.Errorf("stat file: %w", err)
	}
	return ObjectInfo{
		Key:          key,
		Size:         st.Size(),
		LastModified: st.ModTime(),
	}, nil
}

// Delete removes the object. A missing file maps to ErrObjectNotFound so
// callers can treat repeated deletes as already done.
func (d *diskStorage) Delete(ctx context.Context, key string) error {
	p, err := d.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if os.IsNotExist(err) {
			return ErrObjectNotFound
		}
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

// sniffContentType detects the media type from the file's leading bytes and
// rewinds the handle so streaming starts at offset zero.
func sniffContentType(f *os.File) (string, error) {
	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read file header: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind file: %w", err)
	}
	return http.DetectContentType(buf[:n]), nil
}
