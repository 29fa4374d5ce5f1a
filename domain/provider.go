package domain

import "context"

// Provider abstracts a Git hosting service (GitHub, GitLab, etc.).
// Each implementation handles credential validation, repository lookup and
// creation, commit construction, branch creation, and merge request creation
// for its platform.
type Provider interface {
	// Name returns the provider identifier (e.g. "github", "gitlab").
	Name() string

	// Descriptor returns the static metadata for this provider.
	Descriptor() RemoteProviderDescriptor

	// SetToken replaces the token the underlying API client authenticates with.
	SetToken(secret string)

	// ValidateCredentials reports whether the username/secret pair is accepted
	// by the hosting service.
	ValidateCredentials(ctx context.Context, username, secret string) bool

	// GetRepo looks up a repository by owner and name. A missing repository is
	// not an error: it returns (nil, nil) and drives the create-repo flow.
	GetRepo(ctx context.Context, owner, name string) (*RepoHandle, error)

	// CreateRepo creates a new repository owned by the authenticated user.
	CreateRepo(ctx context.Context, name string) (*RepoHandle, error)

	// FileExists reports whether a file exists at the given path on a branch.
	FileExists(ctx context.Context, repo *RepoHandle, branch, path string) bool

	// CreateCommit commits the given files onto the repository's default
	// branch in a single atomic step.
	CreateCommit(ctx context.Context, repo *RepoHandle, files []FileEntry, message string) error

	// CreateBranch creates a branch pointing at fromRef.
	CreateBranch(ctx context.Context, repo *RepoHandle, name, fromRef string) error

	// CreateMergeRequest opens a pull/merge request and returns its web URL.
	CreateMergeRequest(ctx context.Context, repo *RepoHandle, sourceBranch, targetBranch, title string) (string, error)

	// IsNonFastForward reports whether err is this provider's rejection of a
	// commit because the remote moved ahead of the local reference.
	IsNonFastForward(err error) bool
}
