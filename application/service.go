// Package application wires the adapter, engine, vault, and providers into
// the sync orchestration the UI drives.
package application

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"
	logger "github.com/sirupsen/logrus"

	"github.com/umarhashmi9/gitsync/domain"
	"github.com/umarhashmi9/gitsync/infrastructure/engine"
	"github.com/umarhashmi9/gitsync/infrastructure/gitfs"
	"github.com/umarhashmi9/gitsync/infrastructure/provider"
	"github.com/umarhashmi9/gitsync/infrastructure/vault"
)

const (
	lastRemoteURLKey = "git:lastRemoteUrl"
	lastBranchKey    = "git:lastBranch"
)

var (
	// ErrNoStoredCredential means a remote operation was attempted with no
	// credential in the vault. Remote operations fail closed rather than
	// proceeding unauthenticated; credential entry is the caller's concern.
	ErrNoStoredCredential = errors.New("no stored credential for remote")

	// ErrAuthenticationFailed means the hosting service rejected the
	// username/token pair.
	ErrAuthenticationFailed = errors.New("authentication failed: check username and token")

	// ErrNoWorkspace means an operation needs a cloned repository first.
	ErrNoWorkspace = errors.New("no repository: clone a remote first")
)

// SyncService owns one filesystem adapter and engine at a time, keyed by
// the current remote URL. Switching remotes reinitializes both against the
// new URL's namespace.
//
// The service does not run two network operations against the same remote
// concurrently; callers are expected to await completion before issuing the
// next command. That is caller discipline, not an internal lock.
type SyncService struct {
	vault    *vault.Vault
	store    vault.Store
	registry *provider.Registry
	sandbox  billy.Filesystem
	engCfg   engine.Config

	remoteURL string
	rootDir   string
	fs        *gitfs.SyncFS
	eng       *engine.Engine
}

// NewSyncService creates the orchestrator over its collaborators. The
// sandbox filesystem is the namespace all workspaces live under.
func NewSyncService(
	credVault *vault.Vault,
	store vault.Store,
	registry *provider.Registry,
	sandbox billy.Filesystem,
	engCfg engine.Config,
) *SyncService {
	return &SyncService{
		vault:    credVault,
		store:    store,
		registry: registry,
		sandbox:  sandbox,
		engCfg:   engCfg,
	}
}

// CloneResult is what the UI receives after a clone: the workspace root and
// the relative-path file map reconstructed from the adapter's side table.
type CloneResult struct {
	RootDir string
	Files   map[string]domain.FileEntry
}

// WorkspaceSnapshot is the status/file view exposed to the history UI.
type WorkspaceSnapshot struct {
	Status []domain.StatusRow
	Files  map[string]domain.FileEntry
}

// Clone clones url into a fresh workspace. Authentication asks the vault
// for a stored credential and fails closed when none exists. A failed or
// cancelled clone discards the side table wholesale.
func (s *SyncService) Clone(ctx context.Context, url string) (*CloneResult, error) {
	if err := s.switchWorkspace(url); err != nil {
		return nil, err
	}

	auth, cred, err := s.credentialAuth(url)
	if err != nil {
		return nil, err
	}

	eng, err := engine.Clone(ctx, s.fs, url, auth, s.engCfg)
	if err != nil {
		s.fs.Table().Reset()
		return nil, err
	}
	s.eng = eng

	branch, err := eng.CurrentBranch()
	if err != nil {
		return nil, err
	}
	s.persistLastRemote(url, branch)

	// Keep the credential fresh for future sessions.
	if saveErr := s.vault.Save(domainOf(url), *cred); saveErr != nil {
		logger.Warnf("Failed to refresh stored credential for %q: %v", domainOf(url), saveErr)
	}

	logger.Infof("Cloned %s into %s", url, s.rootDir)
	return &CloneResult{
		RootDir: s.rootDir,
		Files:   s.fs.Table().ExportRelative("/"),
	}, nil
}

// Resume reopens the workspace for the last-used remote URL.
func (s *SyncService) Resume() error {
	url, ok, err := s.store.Get(lastRemoteURLKey)
	if err != nil {
		return fmt.Errorf("failed to read last remote: %w", err)
	}
	if !ok {
		return ErrNoWorkspace
	}

	if err = s.switchWorkspace(url); err != nil {
		return err
	}
	eng, err := engine.Open(s.fs, s.engCfg)
	if err != nil {
		return err
	}
	s.eng = eng
	return nil
}

// Fetch updates remote tracking refs for the current workspace.
func (s *SyncService) Fetch(ctx context.Context) error {
	if s.eng == nil {
		return ErrNoWorkspace
	}
	auth, _, err := s.credentialAuth(s.remoteURL)
	if err != nil {
		return err
	}
	return s.eng.Fetch(ctx, auth)
}

// PushRef pushes the given branch over the git transport.
func (s *SyncService) PushRef(ctx context.Context, branch string) error {
	if s.eng == nil {
		return ErrNoWorkspace
	}
	auth, _, err := s.credentialAuth(s.remoteURL)
	if err != nil {
		return err
	}
	if err = s.eng.Push(ctx, branch, auth); err != nil {
		return err
	}
	s.persistLastRemote(s.remoteURL, branch)
	return nil
}

// Commit records the staged changes and returns the new commit hash.
func (s *SyncService) Commit(message string) (string, error) {
	if s.eng == nil {
		return "", ErrNoWorkspace
	}
	return s.eng.Commit(message)
}

// StageFile adds a file to the index.
func (s *SyncService) StageFile(path string) error {
	if s.eng == nil {
		return ErrNoWorkspace
	}
	return s.eng.StageFile(path)
}

// UnstageFile restores a file's index entry to HEAD.
func (s *SyncService) UnstageFile(path string) error {
	if s.eng == nil {
		return ErrNoWorkspace
	}
	return s.eng.UnstageFile(path)
}

// IsIgnored reports whether path matches the workspace ignore rules.
func (s *SyncService) IsIgnored(path string) (bool, error) {
	if s.eng == nil {
		return false, ErrNoWorkspace
	}
	return s.eng.IsIgnored(path)
}

// StatusMatrix recomputes the raw per-file status tuples.
func (s *SyncService) StatusMatrix() ([]domain.StatusRow, error) {
	if s.eng == nil {
		return nil, ErrNoWorkspace
	}
	return s.eng.StatusMatrix()
}

// Snapshot returns the status rows and file map the status/history UI
// consumes.
func (s *SyncService) Snapshot() (*WorkspaceSnapshot, error) {
	rows, err := s.StatusMatrix()
	if err != nil {
		return nil, err
	}
	files, err := s.eng.WorktreeFiles()
	if err != nil {
		return nil, err
	}
	return &WorkspaceSnapshot{Status: rows, Files: files}, nil
}

// Connect validates a credential against the provider and stores it in the
// vault under the provider's domain.
func (s *SyncService) Connect(ctx context.Context, providerName, username, secret string) error {
	if err := s.vault.EnsureEncryption(); err != nil {
		return err
	}

	p, err := s.registry.Get(providerName, secret)
	if err != nil {
		return err
	}
	if !p.ValidateCredentials(ctx, username, secret) {
		return ErrAuthenticationFailed
	}

	cred := domain.Credential{Username: username, Secret: secret}
	if err = s.vault.Save(p.Descriptor().Domain, cred); err != nil {
		return err
	}
	logger.Infof("Connected %s as %s", p.Descriptor().Title, username)
	return nil
}

// Disconnect removes the stored credential for a provider. Idempotent.
func (s *SyncService) Disconnect(providerName string) error {
	if err := s.vault.EnsureEncryption(); err != nil {
		return err
	}
	p, err := s.registry.Get(providerName, "")
	if err != nil {
		return err
	}
	return s.vault.Remove(p.Descriptor().Domain)
}

// PushToProvider pushes the workspace files through the provider API with
// full create-or-commit handling. Expected failures come back as
// unsuccessful results with a human-readable message.
func (s *SyncService) PushToProvider(
	ctx context.Context,
	providerName, repoName string,
	callbacks domain.Callbacks,
) domain.PushResult {
	if err := s.vault.EnsureEncryption(); err != nil {
		return domain.PushResult{Success: false, Message: err.Error()}
	}

	p, err := s.registry.Get(providerName, "")
	if err != nil {
		return domain.PushResult{Success: false, Message: err.Error()}
	}

	cred, err := s.vault.Lookup(p.Descriptor().Domain, providerName)
	if err != nil {
		return domain.PushResult{Success: false, Message: err.Error()}
	}
	if cred == nil {
		return domain.PushResult{
			Success: false,
			Message: fmt.Sprintf("No stored credential for %s: connect the provider first", p.Descriptor().Title),
		}
	}

	files, err := s.pushableFiles()
	if err != nil {
		return domain.PushResult{Success: false, Message: err.Error()}
	}
	if len(files) == 0 {
		return domain.PushResult{Success: false, Message: "No files to push"}
	}

	entries := make([]domain.FileEntry, 0, len(files))
	for _, entry := range files {
		entries = append(entries, entry)
	}

	return provider.PushWithRepoHandling(ctx, p, provider.PushRequest{
		RepoName:  repoName,
		Username:  cred.Username,
		Secret:    cred.Secret,
		Files:     entries,
		Callbacks: callbacks,
	})
}

// LastRemote returns the persisted last-used remote URL and branch.
func (s *SyncService) LastRemote() (url, branch string) {
	url, _, _ = s.store.Get(lastRemoteURLKey)
	branch, _, _ = s.store.Get(lastBranchKey)
	return url, branch
}

// pushableFiles prefers the live worktree when a repository is open and
// falls back to the adapter's side table otherwise.
func (s *SyncService) pushableFiles() (map[string]domain.FileEntry, error) {
	if s.eng != nil {
		return s.eng.WorktreeFiles()
	}
	if s.fs != nil {
		return s.fs.Table().ExportRelative("/"), nil
	}
	return nil, ErrNoWorkspace
}

// switchWorkspace points the adapter at the namespace for url, replacing
// any previous adapter and engine.
func (s *SyncService) switchWorkspace(url string) error {
	if url == s.remoteURL && s.fs != nil {
		return nil
	}

	dir := workspaceDirFor(url)
	chroot, err := s.sandbox.Chroot(dir)
	if err != nil {
		return fmt.Errorf("failed to enter workspace %q: %w", dir, err)
	}

	s.fs = gitfs.New(chroot)
	s.eng = nil
	s.remoteURL = url
	s.rootDir = dir
	return nil
}

// credentialAuth builds transport auth from the vault, failing closed when
// no credential is stored for the remote's domain.
func (s *SyncService) credentialAuth(url string) (transport.AuthMethod, *domain.Credential, error) {
	if err := s.vault.EnsureEncryption(); err != nil {
		return nil, nil, err
	}

	dom := domainOf(url)
	cred, err := s.vault.Lookup(dom, providerNameFor(dom))
	if err != nil {
		return nil, nil, err
	}
	if cred == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrNoStoredCredential, dom)
	}
	return engine.BasicAuth(*cred), cred, nil
}

// domainOf extracts the host-name portion of a remote URL: everything up
// to the first separator, with any scheme or user info stripped.
func domainOf(url string) string {
	host := url
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	if i := strings.Index(host, "@"); i >= 0 {
		host = host[i+1:]
	}
	if i := strings.IndexAny(host, "/:"); i >= 0 {
		host = host[:i]
	}
	return host
}

// providerNameFor maps a domain to the provider identifier used for legacy
// credential migration.
func providerNameFor(dom string) string {
	switch {
	case strings.Contains(dom, "gitlab"):
		return "gitlab"
	case strings.Contains(dom, "github"):
		return "github"
	default:
		return dom
	}
}

var unsafePathChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// workspaceDirFor derives a stable directory name for a remote URL.
func workspaceDirFor(url string) string {
	name := url
	if i := strings.Index(name, "://"); i >= 0 {
		name = name[i+3:]
	}
	name = strings.TrimSuffix(name, ".git")
	name = unsafePathChars.ReplaceAllString(name, "-")
	return "/" + strings.Trim(name, "-")
}

func (s *SyncService) persistLastRemote(url, branch string) {
	if err := s.store.Set(lastRemoteURLKey, url); err != nil {
		logger.Warnf("Failed to persist last remote URL: %v", err)
	}
	if err := s.store.Set(lastBranchKey, branch); err != nil {
		logger.Warnf("Failed to persist last branch: %v", err)
	}
}
