// Package engine binds the embedded go-git engine to a billy filesystem,
// exposing the clone/fetch/commit/push/status surface the sync orchestrator
// drives.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	git "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	transporthttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/storage/filesystem"

	"github.com/umarhashmi9/gitsync/domain"
)

// Config holds the commit identity the engine signs local commits with.
type Config struct {
	AuthorName  string
	AuthorEmail string
}

// Engine wraps one go-git repository over a billy worktree filesystem.
type Engine struct {
	fs   billy.Filesystem
	repo *git.Repository
	cfg  Config
}

// BasicAuth adapts a stored credential to the transport auth the remote
// expects (a personal access token acts as the password).
func BasicAuth(cred domain.Credential) transport.AuthMethod {
	return &transporthttp.BasicAuth{Username: cred.Username, Password: cred.Secret}
}

func storageFor(fs billy.Filesystem) (*filesystem.Storage, error) {
	dot, err := fs.Chroot(git.GitDirName)
	if err != nil {
		return nil, fmt.Errorf("failed to chroot %s: %w", git.GitDirName, err)
	}
	return filesystem.NewStorage(dot, cache.NewObjectLRUDefault()), nil
}

// Init creates an empty repository on fs.
func Init(fs billy.Filesystem, cfg Config) (*Engine, error) {
	storage, err := storageFor(fs)
	if err != nil {
		return nil, err
	}
	repo, err := git.Init(storage, fs)
	if err != nil {
		return nil, fmt.Errorf("failed to init repository: %w", err)
	}
	return &Engine{fs: fs, repo: repo, cfg: cfg}, nil
}

// Open opens an existing repository on fs.
func Open(fs billy.Filesystem, cfg Config) (*Engine, error) {
	storage, err := storageFor(fs)
	if err != nil {
		return nil, err
	}
	repo, err := git.Open(storage, fs)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}
	return &Engine{fs: fs, repo: repo, cfg: cfg}, nil
}

// Clone clones url onto fs. A cancelled or failed clone leaves whatever the
// engine had written so far; the caller owns discarding it.
func Clone(ctx context.Context, fs billy.Filesystem, url string, auth transport.AuthMethod, cfg Config) (*Engine, error) {
	storage, err := storageFor(fs)
	if err != nil {
		return nil, err
	}
	repo, err := git.CloneContext(ctx, storage, fs, &git.CloneOptions{
		URL:  url,
		Auth: auth,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to clone %q: %w", url, err)
	}
	return &Engine{fs: fs, repo: repo, cfg: cfg}, nil
}

// Fetch updates remote tracking refs. An already-up-to-date remote is not
// an error.
func (e *Engine) Fetch(ctx context.Context, auth transport.AuthMethod) error {
	err := e.repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: git.DefaultRemoteName,
		Auth:       auth,
	})
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to fetch: %w", err)
	}
	return nil
}

// Push pushes the given branch to origin. An already-up-to-date remote is
// not an error.
func (e *Engine) Push(ctx context.Context, branch string, auth transport.AuthMethod) error {
	branch = strings.TrimPrefix(branch, "refs/heads/")
	refSpec := gitconfig.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", branch, branch))

	err := e.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: git.DefaultRemoteName,
		RefSpecs:   []gitconfig.RefSpec{refSpec},
		Auth:       auth,
	})
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to push %q: %w", branch, err)
	}
	return nil
}

// Commit records the staged changes with the configured identity and
// returns the new commit hash.
func (e *Engine) Commit(message string) (string, error) {
	worktree, err := e.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to open worktree: %w", err)
	}

	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  e.cfg.AuthorName,
			Email: e.cfg.AuthorEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}
	return hash.String(), nil
}

// StageFile adds the file at path to the index.
func (e *Engine) StageFile(path string) error {
	worktree, err := e.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to open worktree: %w", err)
	}
	if _, err = worktree.Add(path); err != nil {
		return fmt.Errorf("failed to stage %q: %w", path, err)
	}
	return nil
}

// UnstageFile restores the index entry for path to HEAD.
func (e *Engine) UnstageFile(path string) error {
	worktree, err := e.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to open worktree: %w", err)
	}
	err = worktree.Restore(&git.RestoreOptions{Staged: true, Files: []string{path}})
	if err != nil {
		return fmt.Errorf("failed to unstage %q: %w", path, err)
	}
	return nil
}

// CurrentBranch returns the short name of the checked-out branch, or the
// commit hash when HEAD is detached.
func (e *Engine) CurrentBranch() (string, error) {
	head, err := e.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	if head.Name().IsBranch() {
		return head.Name().Short(), nil
	}
	return head.Hash().String(), nil
}

// IsIgnored reports whether path matches the worktree's gitignore patterns.
// The .git directory is always ignored.
func (e *Engine) IsIgnored(path string) (bool, error) {
	path = strings.TrimPrefix(domain.NormalizePath(path), "/")
	if path == git.GitDirName || strings.HasPrefix(path, git.GitDirName+"/") {
		return true, nil
	}

	matcher, err := e.ignoreMatcher()
	if err != nil {
		return false, err
	}
	return matcher.Match(strings.Split(path, "/"), false), nil
}

func (e *Engine) ignoreMatcher() (gitignore.Matcher, error) {
	patterns, err := gitignore.ReadPatterns(e.fs, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read ignore patterns: %w", err)
	}
	return gitignore.NewMatcher(patterns), nil
}
