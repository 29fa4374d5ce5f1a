// Package gitfs adapts a sandbox file store to the filesystem contract the
// embedded version-control engine expects, recording every write into an
// in-memory side table for later export.
package gitfs

import (
	"fmt"
	"io"
	"os"
	"syscall"
	"time"

	"github.com/go-git/go-billy/v5"

	"github.com/umarhashmi9/gitsync/domain"
)

// SyncFS implements billy.Filesystem over an underlying sandbox filesystem.
// Every write is additionally upserted into the side table, keyed by the
// absolute path as the engine sees it. The sandbox has no symlink or
// permission model: the symlink family fails with an explicit unsupported
// error and chmod succeeds unconditionally, so the engine degrades
// predictably instead of crashing.
type SyncFS struct {
	under billy.Filesystem
	table *FileTable
	base  string
}

var (
	_ billy.Filesystem = (*SyncFS)(nil)
	_ billy.Change     = (*SyncFS)(nil)
)

// New wraps the given sandbox filesystem.
func New(under billy.Filesystem) *SyncFS {
	return &SyncFS{under: under, table: NewFileTable(), base: "/"}
}

// Table exposes the side table for export and reset.
func (fs *SyncFS) Table() *FileTable { return fs.table }

// abs returns the side-table key for name: absolute within the sandbox
// namespace, including any chroot prefix.
func (fs *SyncFS) abs(name string) string {
	return domain.JoinPath(fs.base, domain.NormalizePath(name))
}

// record reads the current content of name back from the underlying store
// and upserts it into the side table.
func (fs *SyncFS) record(name string) error {
	f, err := fs.under.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return err
	}
	fs.table.Upsert(fs.abs(name), content)
	return nil
}

func (fs *SyncFS) Create(filename string) (billy.File, error) {
	f, err := fs.under.Create(filename)
	if err != nil {
		return nil, err
	}
	return &recordedFile{File: f, fs: fs, path: filename}, nil
}

func (fs *SyncFS) Open(filename string) (billy.File, error) {
	return fs.under.Open(filename)
}

func (fs *SyncFS) OpenFile(filename string, flag int, perm os.FileMode) (billy.File, error) {
	f, err := fs.under.OpenFile(filename, flag, perm)
	if err != nil {
		return nil, err
	}
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE|os.O_TRUNC|os.O_APPEND) == 0 {
		return f, nil
	}
	return &recordedFile{File: f, fs: fs, path: filename}, nil
}

// Stat synthesizes file metadata by listing the parent directory and
// matching on the base name. A miss fails with an ENOENT-coded error, which
// the engine uses to decide whether a path is new.
func (fs *SyncFS) Stat(filename string) (os.FileInfo, error) {
	clean := domain.NormalizePath(filename)
	if clean == "." || clean == "/" {
		return rootInfo{}, nil
	}

	entries, err := fs.under.ReadDir(domain.DirName(clean))
	if err != nil {
		return nil, &os.PathError{Op: "stat", Path: filename, Err: syscall.ENOENT}
	}

	base := domain.BaseName(clean)
	for _, entry := range entries {
		if entry.Name() == base {
			return entry, nil
		}
	}
	return nil, &os.PathError{Op: "stat", Path: filename, Err: syscall.ENOENT}
}

// Lstat is Stat: the sandbox has no symlinks to resolve.
func (fs *SyncFS) Lstat(filename string) (os.FileInfo, error) {
	return fs.Stat(filename)
}

func (fs *SyncFS) Rename(oldpath, newpath string) error {
	if err := fs.under.Rename(oldpath, newpath); err != nil {
		return err
	}
	fs.table.Rename(fs.abs(oldpath), fs.abs(newpath))
	return nil
}

func (fs *SyncFS) Remove(filename string) error {
	if err := fs.under.Remove(filename); err != nil {
		return err
	}
	fs.table.Delete(fs.abs(filename))
	return nil
}

func (fs *SyncFS) Join(elem ...string) string {
	return fs.under.Join(elem...)
}

func (fs *SyncFS) TempFile(dir, prefix string) (billy.File, error) {
	f, err := fs.under.TempFile(dir, prefix)
	if err != nil {
		return nil, err
	}
	return &recordedFile{File: f, fs: fs, path: f.Name()}, nil
}

func (fs *SyncFS) ReadDir(path string) ([]os.FileInfo, error) {
	return fs.under.ReadDir(path)
}

func (fs *SyncFS) MkdirAll(filename string, perm os.FileMode) error {
	return fs.under.MkdirAll(filename, perm)
}

func (fs *SyncFS) Symlink(target, link string) error {
	return fmt.Errorf("symlink %q -> %q: %w", link, target, billy.ErrNotSupported)
}

func (fs *SyncFS) Readlink(link string) (string, error) {
	return "", fmt.Errorf("readlink %q: %w", link, billy.ErrNotSupported)
}

// Chroot returns a view rooted at path that shares this adapter's side
// table, with keys prefixed accordingly.
func (fs *SyncFS) Chroot(path string) (billy.Filesystem, error) {
	under, err := fs.under.Chroot(path)
	if err != nil {
		return nil, err
	}
	return &SyncFS{under: under, table: fs.table, base: fs.abs(path)}, nil
}

func (fs *SyncFS) Root() string {
	return fs.under.Root()
}

// Capabilities excludes locking: the sandbox store has no advisory locks.
func (fs *SyncFS) Capabilities() billy.Capability {
	return billy.WriteCapability | billy.ReadCapability |
		billy.ReadAndWriteCapability | billy.SeekCapability |
		billy.TruncateCapability
}

// Chmod succeeds unconditionally: the sandbox has no permission model.
func (fs *SyncFS) Chmod(_ string, _ os.FileMode) error { return nil }

func (fs *SyncFS) Lchown(_ string, _, _ int) error { return nil }

func (fs *SyncFS) Chown(_ string, _, _ int) error { return nil }

func (fs *SyncFS) Chtimes(_ string, _, _ time.Time) error { return nil }

// recordedFile defers side-table recording to Close, when the full content
// is durable in the underlying store.
type recordedFile struct {
	billy.File
	fs   *SyncFS
	path string
}

func (f *recordedFile) Close() error {
	if err := f.File.Close(); err != nil {
		return err
	}
	return f.fs.record(f.path)
}

// rootInfo is the synthetic metadata for the sandbox root, which has no
// parent directory to list.
type rootInfo struct{}

func (rootInfo) Name() string       { return "/" }
func (rootInfo) Size() int64        { return 0 }
func (rootInfo) Mode() os.FileMode  { return os.ModeDir | 0o755 }
func (rootInfo) ModTime() time.Time { return time.Time{} }
func (rootInfo) IsDir() bool        { return true }
func (rootInfo) Sys() interface{}   { return nil }
