package gitfs

import (
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/umarhashmi9/gitsync/domain"
)

const (
	encodingUTF8   = "utf-8"
	encodingBase64 = "base64"
)

// FileTable is the adapter's in-memory side table: a record of every write
// the engine performed, keyed by absolute sandbox path. It is used to
// reconstruct a path-to-content map after an operation (e.g. a clone)
// completes, and can be discarded wholesale after an aborted one.
type FileTable struct {
	mu      sync.RWMutex
	entries map[string]domain.FileEntry
}

// NewFileTable creates an empty side table.
func NewFileTable() *FileTable {
	return &FileTable{entries: make(map[string]domain.FileEntry)}
}

// Upsert records the content written to path. The encoding is sniffed from
// the content: valid UTF-8 is recorded as text, anything else as base64.
func (t *FileTable) Upsert(path string, content []byte) {
	encoding := encodingBase64
	if utf8.Valid(content) {
		encoding = encodingUTF8
	}

	owned := make([]byte, len(content))
	copy(owned, content)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[path] = domain.FileEntry{Path: path, Content: owned, Encoding: encoding}
}

// Delete drops the record for path, if any.
func (t *FileTable) Delete(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, path)
}

// Rename moves the record for oldPath to newPath.
func (t *FileTable) Rename(oldPath, newPath string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.entries[oldPath]
	if !ok {
		return
	}
	delete(t.entries, oldPath)
	entry.Path = newPath
	t.entries[newPath] = entry
}

// Len returns the number of recorded entries.
func (t *FileTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Reset clears the table. Callers use this to discard the partial state left
// behind by a cancelled operation.
func (t *FileTable) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = make(map[string]domain.FileEntry)
}

// ExportRelative walks the table and re-keys every entry to be relative to
// root, for return to the caller after a clone or checkout.
func (t *FileTable) ExportRelative(root string) map[string]domain.FileEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]domain.FileEntry, len(t.entries))
	for abs, entry := range t.entries {
		rel := domain.RelativePath(root, abs)
		if rel == "" || rel == ".git" || strings.HasPrefix(rel, ".git/") {
			continue
		}
		entry.Path = rel
		out[rel] = entry
	}
	return out
}
