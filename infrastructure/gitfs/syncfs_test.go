package gitfs_test

import (
	"errors"
	"io"
	"os"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umarhashmi9/gitsync/infrastructure/gitfs"
)

func TestSyncFSWrites(t *testing.T) {
	t.Parallel()

	t.Run("should write and read content back byte for byte", func(t *testing.T) {
		t.Parallel()

		// given
		fs := gitfs.New(memfs.New())
		text := []byte("hello, world\n")
		binary := []byte{0x00, 0xFF, 0x1B, 0x80, 0x00}

		// when
		require.NoError(t, util.WriteFile(fs, "notes.txt", text, 0o644))
		require.NoError(t, util.WriteFile(fs, "blob.bin", binary, 0o644))

		// then
		assert.Equal(t, text, readAll(t, fs, "notes.txt"))
		assert.Equal(t, binary, readAll(t, fs, "blob.bin"))
	})

	t.Run("should record writes into the side table with sniffed encodings", func(t *testing.T) {
		t.Parallel()

		// given
		fs := gitfs.New(memfs.New())

		// when
		require.NoError(t, util.WriteFile(fs, "src/main.go", []byte("package main\n"), 0o644))
		require.NoError(t, util.WriteFile(fs, "logo.png", []byte{0x89, 0x50, 0xC0}, 0o644))

		// then
		files := fs.Table().ExportRelative("/")
		require.Len(t, files, 2)
		assert.Equal(t, "utf-8", files["src/main.go"].Encoding)
		assert.Equal(t, []byte("package main\n"), files["src/main.go"].Content)
		assert.Equal(t, "base64", files["logo.png"].Encoding)
	})

	t.Run("should keep the last write for a rewritten path", func(t *testing.T) {
		t.Parallel()

		// given
		fs := gitfs.New(memfs.New())
		require.NoError(t, util.WriteFile(fs, "a.txt", []byte("first"), 0o644))

		// when
		require.NoError(t, util.WriteFile(fs, "a.txt", []byte("second"), 0o644))

		// then
		files := fs.Table().ExportRelative("/")
		require.Len(t, files, 1)
		assert.Equal(t, []byte("second"), files["a.txt"].Content)
	})

	t.Run("should follow renames and removals in the side table", func(t *testing.T) {
		t.Parallel()

		// given
		fs := gitfs.New(memfs.New())
		require.NoError(t, util.WriteFile(fs, "old.txt", []byte("x"), 0o644))
		require.NoError(t, util.WriteFile(fs, "gone.txt", []byte("y"), 0o644))

		// when
		require.NoError(t, fs.Rename("old.txt", "new.txt"))
		require.NoError(t, fs.Remove("gone.txt"))

		// then
		files := fs.Table().ExportRelative("/")
		require.Len(t, files, 1)
		assert.Contains(t, files, "new.txt")
	})

	t.Run("should discard all records on reset", func(t *testing.T) {
		t.Parallel()

		// given
		fs := gitfs.New(memfs.New())
		require.NoError(t, util.WriteFile(fs, "a.txt", []byte("x"), 0o644))
		require.Equal(t, 1, fs.Table().Len())

		// when
		fs.Table().Reset()

		// then
		assert.Equal(t, 0, fs.Table().Len())
		assert.Empty(t, fs.Table().ExportRelative("/"))
	})

	t.Run("should not record read-only opens", func(t *testing.T) {
		t.Parallel()

		// given
		fs := gitfs.New(memfs.New())
		require.NoError(t, util.WriteFile(fs, "a.txt", []byte("x"), 0o644))
		fs.Table().Reset()

		// when
		f, err := fs.OpenFile("a.txt", os.O_RDONLY, 0)
		require.NoError(t, err)
		require.NoError(t, f.Close())

		// then
		assert.Equal(t, 0, fs.Table().Len())
	})
}

func TestSyncFSStat(t *testing.T) {
	t.Parallel()

	t.Run("should synthesize metadata from the parent listing", func(t *testing.T) {
		t.Parallel()

		// given
		fs := gitfs.New(memfs.New())
		require.NoError(t, util.WriteFile(fs, "dir/file.txt", []byte("abc"), 0o644))

		// when
		info, err := fs.Stat("dir/file.txt")

		// then
		require.NoError(t, err)
		assert.Equal(t, "file.txt", info.Name())
		assert.Equal(t, int64(3), info.Size())
		assert.False(t, info.IsDir())
	})

	t.Run("should report the root as a directory", func(t *testing.T) {
		t.Parallel()

		// given
		fs := gitfs.New(memfs.New())

		// when
		info, err := fs.Stat("/")

		// then
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("should fail with ENOENT when the path does not exist", func(t *testing.T) {
		t.Parallel()

		// given
		fs := gitfs.New(memfs.New())

		// when
		_, err := fs.Stat("missing/file.txt")

		// then
		require.Error(t, err)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("should lstat like stat", func(t *testing.T) {
		t.Parallel()

		// given
		fs := gitfs.New(memfs.New())
		require.NoError(t, util.WriteFile(fs, "file.txt", []byte("abc"), 0o644))

		// when
		info, err := fs.Lstat("file.txt")

		// then
		require.NoError(t, err)
		assert.Equal(t, "file.txt", info.Name())
	})
}

func TestSyncFSUnsupported(t *testing.T) {
	t.Parallel()

	t.Run("should refuse symlink operations explicitly", func(t *testing.T) {
		t.Parallel()

		// given
		fs := gitfs.New(memfs.New())

		// when
		symlinkErr := fs.Symlink("target", "link")
		_, readlinkErr := fs.Readlink("link")

		// then
		require.Error(t, symlinkErr)
		assert.True(t, errors.Is(symlinkErr, billy.ErrNotSupported))
		require.Error(t, readlinkErr)
		assert.True(t, errors.Is(readlinkErr, billy.ErrNotSupported))
	})

	t.Run("should treat permission changes as no-ops", func(t *testing.T) {
		t.Parallel()

		// given
		fs := gitfs.New(memfs.New())

		// then
		assert.NoError(t, fs.Chmod("any", 0o755))
		assert.NoError(t, fs.Chown("any", 0, 0))
		assert.NoError(t, fs.Lchown("any", 0, 0))
	})

	t.Run("should not advertise locking", func(t *testing.T) {
		t.Parallel()

		// given
		fs := gitfs.New(memfs.New())

		// then
		assert.Zero(t, fs.Capabilities()&billy.LockCapability)
	})
}

func TestSyncFSChroot(t *testing.T) {
	t.Parallel()

	t.Run("should share the side table with prefixed keys", func(t *testing.T) {
		t.Parallel()

		// given
		fs := gitfs.New(memfs.New())
		sub, err := fs.Chroot("project")
		require.NoError(t, err)

		// when
		require.NoError(t, util.WriteFile(sub, "readme.md", []byte("# hi"), 0o644))

		// then
		files := fs.Table().ExportRelative("/")
		require.Len(t, files, 1)
		assert.Contains(t, files, "project/readme.md")
	})

	t.Run("should exclude repository internals from exports", func(t *testing.T) {
		t.Parallel()

		// given
		fs := gitfs.New(memfs.New())
		require.NoError(t, util.WriteFile(fs, ".git/config", []byte("[core]"), 0o644))
		require.NoError(t, util.WriteFile(fs, ".git/objects/ab/cd", []byte{0x78}, 0o644))
		require.NoError(t, util.WriteFile(fs, "app.ts", []byte("export {}"), 0o644))

		// when
		files := fs.Table().ExportRelative("/")

		// then
		require.Len(t, files, 1)
		assert.Contains(t, files, "app.ts")
	})
}

func readAll(t *testing.T, fs billy.Filesystem, path string) []byte {
	t.Helper()
	f, err := fs.Open(path)
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	return data
}
