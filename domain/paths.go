package domain

import (
	"path"
	"strings"
)

// Path helpers over POSIX-style slash paths. Repository paths are always
// slash-separated regardless of the host OS, so these wrap the stdlib path
// package rather than path/filepath.

// JoinPath joins path elements with single slashes and normalizes the result.
func JoinPath(elem ...string) string {
	return path.Join(elem...)
}

// DirName returns all but the last element of p.
func DirName(p string) string {
	return path.Dir(p)
}

// BaseName returns the last element of p.
func BaseName(p string) string {
	return path.Base(p)
}

// NormalizePath cleans p and strips any trailing slash.
func NormalizePath(p string) string {
	if p == "" {
		return "."
	}
	return path.Clean(p)
}

// RelativePath returns target relative to root, or target unchanged when it
// is not under root. Both inputs are normalized first.
func RelativePath(root, target string) string {
	root = NormalizePath(root)
	target = NormalizePath(target)
	if root == "." || root == "/" {
		return strings.TrimPrefix(target, "/")
	}
	if target == root {
		return ""
	}
	if strings.HasPrefix(target, root+"/") {
		return strings.TrimPrefix(target, root+"/")
	}
	return target
}
