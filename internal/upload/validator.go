package upload

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"net/http"

	"noteshare/internal/storage"
)

// Sentinel validation errors. Both are client-caused; the handler layer maps
// them to 400 responses with distinct reasons.
var (
	// ErrMediaType means the declared media type is outside the allow-list.
	ErrMediaType = errors.New("invalid media type")
	// ErrSignature means the declared type passed but the leading bytes do
	// not match the expected binary format.
	ErrSignature = errors.New("invalid file signature")
)

// Kind selects the validation rules and storage category for an upload.
type Kind int

const (
	// KindNotePDF accepts only application/pdf content carrying the %PDF-
	// magic bytes.
	KindNotePDF Kind = iota
	// KindProfileImage accepts common web image formats, verified by
	// content sniffing.
	KindProfileImage
)

// PeekSize is how many leading bytes the validator needs. 512 covers both
// the 5-byte PDF magic and http.DetectContentType's sniff window.
const PeekSize = 512

var pdfSignature = []byte("%PDF-")

var allowedTypes = map[Kind]map[string]bool{
	KindNotePDF: {
		"application/pdf": true,
	},
	KindProfileImage: {
		"image/jpeg": true,
		"image/png":  true,
		"image/webp": true,
		"image/gif":  true,
	},
}

// Category returns the storage category for files of this kind.
func (k Kind) Category() string {
	if k == KindProfileImage {
		return storage.CategoryProfiles
	}
	return storage.CategoryNotes
}

// Validate accepts or rejects an upload from its declared media type and
// leading bytes. It never touches the stream or the disk; callers peek the
// head themselves and only write after a nil return.
//
// The declared type is checked first since it is the cheap gate, but it is
// attacker-controlled, so the binary signature is verified as well.
func Validate(kind Kind, declaredType string, head []byte) error {
	mediaType := declaredType
	if mt, _, err := mime.ParseMediaType(declaredType); err == nil {
		mediaType = mt
	}
	if !allowedTypes[kind][mediaType] {
		return fmt.Errorf("%w: %s", ErrMediaType, mediaType)
	}

	switch kind {
	case KindNotePDF:
		if len(head) < len(pdfSignature) || !bytes.HasPrefix(head, pdfSignature) {
			return fmt.Errorf("%w: file is not a valid PDF", ErrSignature)
		}
	case KindProfileImage:
		detected := http.DetectContentType(head)
		if !allowedTypes[kind][detected] {
			return fmt.Errorf("%w: content sniffed as %s", ErrSignature, detected)
		}
	}
	return nil
}
