package storage

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"
)

// nameCounter disambiguates objects created in the same nanosecond tick.
var nameCounter atomic.Uint64

// NewObjectKey generates a collision-resistant key for a new upload:
// "<category>/<unix-nanos>-<counter><ext>" with the original extension
// lower-cased. The counter suffix rules out same-tick collisions within
// the process.
func NewObjectKey(category, originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	name := fmt.Sprintf("%d-%d%s", time.Now().UnixNano(), nameCounter.Add(1), ext)
	return path.Join(category, name)
}

// FileName returns the stored file name portion of a key.
func FileName(key string) string {
	return path.Base(key)
}
