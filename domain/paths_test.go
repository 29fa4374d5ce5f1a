package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/umarhashmi9/gitsync/domain"
)

func TestJoinPath(t *testing.T) {
	t.Parallel()

	t.Run("should join and normalize slash paths", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "a/b/c", domain.JoinPath("a", "b", "c"))
		assert.Equal(t, "a/c", domain.JoinPath("a", "b", "..", "c"))
		assert.Equal(t, "/a/b", domain.JoinPath("/a//", "b"))
		assert.Equal(t, "", domain.JoinPath())
	})
}

func TestDirAndBase(t *testing.T) {
	t.Parallel()

	t.Run("should split directory and base", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "a/b", domain.DirName("a/b/c.txt"))
		assert.Equal(t, ".", domain.DirName("c.txt"))
		assert.Equal(t, "/", domain.DirName("/c.txt"))
		assert.Equal(t, "c.txt", domain.BaseName("a/b/c.txt"))
		assert.Equal(t, "/", domain.BaseName("/"))
	})
}

func TestNormalizePath(t *testing.T) {
	t.Parallel()

	t.Run("should clean paths and treat empty as current dir", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, ".", domain.NormalizePath(""))
		assert.Equal(t, ".", domain.NormalizePath("."))
		assert.Equal(t, "/a/b", domain.NormalizePath("/a/b/"))
		assert.Equal(t, "a/b", domain.NormalizePath("a//b"))
		assert.Equal(t, "/", domain.NormalizePath("/"))
	})
}

func TestRelativePath(t *testing.T) {
	t.Parallel()

	t.Run("should strip the root prefix", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "b/c.txt", domain.RelativePath("/a", "/a/b/c.txt"))
		assert.Equal(t, "a/b", domain.RelativePath("/", "/a/b"))
		assert.Equal(t, "", domain.RelativePath("/a", "/a"))
	})

	t.Run("should leave targets outside the root unchanged", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "/other/x", domain.RelativePath("/a", "/other/x"))
		assert.Equal(t, "/ab/x", domain.RelativePath("/a", "/ab/x"))
	})
}
