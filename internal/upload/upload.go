package upload

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
)

// File is the seekable content of one upload. multipart.File satisfies it.
type File interface {
	io.Reader
	io.Seeker
	io.Closer
}

// Upload wraps one uploaded file for the duration of a single request.
// The content is seekable, so the validator can inspect leading bytes
// without consuming the stream that is later written to storage.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64

	file File
}

// New wraps an already-open file with its declared metadata.
func New(filename, contentType string, size int64, f File) *Upload {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &Upload{Filename: filename, ContentType: contentType, Size: size, file: f}
}

// FromMultipart opens the multipart part and captures its declared metadata.
// The caller owns the returned Upload and must Close it.
func FromMultipart(fh *multipart.FileHeader) (*Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open uploaded file: %w", err)
	}
	return New(fh.Filename, fh.Header.Get("Content-Type"), fh.Size, f), nil
}

// FromBytes builds an Upload over an in-memory buffer.
func FromBytes(filename, contentType string, data []byte) *Upload {
	return New(filename, contentType, int64(len(data)), nopCloser{bytes.NewReader(data)})
}

// Peek returns up to n leading bytes and rewinds so the next read starts at
// offset zero.
func (u *Upload) Peek(n int) ([]byte, error) {
	buf := make([]byte, n)
	read, err := io.ReadFull(u.file, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("read upload header: %w", err)
	}
	if _, err := u.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind upload: %w", err)
	}
	return buf[:read], nil
}

// Reader exposes the full content for the storage write.
func (u *Upload) Reader() io.Reader { return u.file }

// Close releases the underlying file.
func (u *Upload) Close() error { return u.file.Close() }

type nopCloser struct {
	*bytes.Reader
}

func (nopCloser) Close() error { return nil }
