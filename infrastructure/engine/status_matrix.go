package engine

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/go-git/go-billy/v5/util"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/umarhashmi9/gitsync/domain"
)

// StatusMatrix computes the per-file (head, worktree, stage) tuples by
// comparing the HEAD tree, the index, and blob hashes of the worktree
// files. It recomputes from scratch on every call; rows are never cached
// across file mutations.
func (e *Engine) StatusMatrix() ([]domain.StatusRow, error) {
	headHashes, err := e.headHashes()
	if err != nil {
		return nil, err
	}

	stageHashes, err := e.indexHashes()
	if err != nil {
		return nil, err
	}

	worktreeHashes, err := e.worktreeHashes(trackedUnion(headHashes, stageHashes))
	if err != nil {
		return nil, err
	}

	paths := make(map[string]struct{})
	for p := range headHashes {
		paths[p] = struct{}{}
	}
	for p := range stageHashes {
		paths[p] = struct{}{}
	}
	for p := range worktreeHashes {
		paths[p] = struct{}{}
	}

	sorted := make([]string, 0, len(paths))
	for p := range paths {
		sorted = append(sorted, p)
	}
	sort.Strings(sorted)

	rows := make([]domain.StatusRow, 0, len(sorted))
	for _, p := range sorted {
		headHash, inHead := headHashes[p]
		worktreeHash, inWorktree := worktreeHashes[p]
		stageHash, inStage := stageHashes[p]

		head := 0
		if inHead {
			head = 1
		}

		worktree := 0
		if inWorktree {
			worktree = 2
			if inHead && worktreeHash == headHash {
				worktree = 1
			}
		}

		stage := 0
		if inStage {
			switch {
			case inHead && stageHash == headHash:
				stage = 1
			case inWorktree && stageHash == worktreeHash:
				stage = 2
			default:
				stage = 3
			}
		}

		rows = append(rows, domain.StatusRow{Path: p, Head: head, Worktree: worktree, Stage: stage})
	}
	return rows, nil
}

// WorktreeFiles reads every worktree file into a path-keyed map for
// provider-side pushes. Paths are relative to the worktree root. Ignore
// rules only exclude untracked files; a tracked file that later matches a
// pattern stays in the map, as git keeps tracking it.
func (e *Engine) WorktreeFiles() (map[string]domain.FileEntry, error) {
	headHashes, err := e.headHashes()
	if err != nil {
		return nil, err
	}
	stageHashes, err := e.indexHashes()
	if err != nil {
		return nil, err
	}
	tracked := trackedUnion(headHashes, stageHashes)

	matcher, err := e.ignoreMatcher()
	if err != nil {
		return nil, err
	}

	files := make(map[string]domain.FileEntry)
	err = util.Walk(e.fs, ".", func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel := strings.TrimPrefix(domain.NormalizePath(path), "/")
		if rel == "." || rel == "" {
			return nil
		}
		if info.IsDir() {
			if info.Name() == git.GitDirName {
				return filepath.SkipDir
			}
			return nil
		}
		if _, isTracked := tracked[rel]; !isTracked && matcher.Match(strings.Split(rel, "/"), false) {
			return nil
		}

		f, openErr := e.fs.Open(path)
		if openErr != nil {
			return openErr
		}
		defer f.Close()

		data, readErr := io.ReadAll(f)
		if readErr != nil {
			return readErr
		}

		encoding := "base64"
		if utf8.Valid(data) {
			encoding = "utf-8"
		}
		files[rel] = domain.FileEntry{Path: rel, Content: data, Encoding: encoding}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read worktree files: %w", err)
	}
	return files, nil
}

// headHashes returns path -> blob hash for the HEAD commit tree. An unborn
// HEAD (fresh repository) yields an empty map.
func (e *Engine) headHashes() (map[string]plumbing.Hash, error) {
	hashes := make(map[string]plumbing.Hash)

	head, err := e.repo.Head()
	if err != nil {
		if err == plumbing.ErrReferenceNotFound {
			return hashes, nil
		}
		return nil, fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	commit, err := e.repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to load HEAD commit: %w", err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to load HEAD tree: %w", err)
	}

	err = tree.Files().ForEach(func(f *object.File) error {
		hashes[f.Name] = f.Hash
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk HEAD tree: %w", err)
	}
	return hashes, nil
}

func (e *Engine) indexHashes() (map[string]plumbing.Hash, error) {
	idx, err := e.repo.Storer.Index()
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}

	hashes := make(map[string]plumbing.Hash, len(idx.Entries))
	for _, entry := range idx.Entries {
		hashes[entry.Name] = entry.Hash
	}
	return hashes, nil
}

// trackedUnion collects every path present in HEAD or the index. Ignore
// rules never apply to these: a tracked file that later matches a gitignore
// pattern is still tracked.
func trackedUnion(head, stage map[string]plumbing.Hash) map[string]struct{} {
	tracked := make(map[string]struct{}, len(head)+len(stage))
	for p := range head {
		tracked[p] = struct{}{}
	}
	for p := range stage {
		tracked[p] = struct{}{}
	}
	return tracked
}

// worktreeHashes hashes worktree files the way the object store would, so
// worktree content is comparable to tree and index entries. Ignore rules
// only filter untracked candidates.
func (e *Engine) worktreeHashes(tracked map[string]struct{}) (map[string]plumbing.Hash, error) {
	matcher, err := e.ignoreMatcher()
	if err != nil {
		return nil, err
	}

	hashes := make(map[string]plumbing.Hash)
	err = util.Walk(e.fs, ".", func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel := strings.TrimPrefix(domain.NormalizePath(path), "/")
		if rel == "." || rel == "" {
			return nil
		}
		if info.IsDir() {
			if info.Name() == git.GitDirName {
				return filepath.SkipDir
			}
			return nil
		}
		if _, isTracked := tracked[rel]; !isTracked && matcher.Match(strings.Split(rel, "/"), false) {
			return nil
		}

		f, openErr := e.fs.Open(path)
		if openErr != nil {
			return openErr
		}
		defer f.Close()

		data, readErr := io.ReadAll(f)
		if readErr != nil {
			return readErr
		}
		hashes[rel] = plumbing.ComputeHash(plumbing.BlobObject, data)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk worktree: %w", err)
	}
	return hashes, nil
}
