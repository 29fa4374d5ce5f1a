// Package gitlab binds the provider abstraction to the GitLab REST API.
// Commits are built the file-action way: every file is probed at the target
// branch to decide create vs update, then all actions are submitted as one
// atomic multi-file commit.
package gitlab

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	gl "gitlab.com/gitlab-org/api/client-go"

	"github.com/umarhashmi9/gitsync/domain"
)

const (
	providerName = "gitlab"

	// nonFastForwardMarker is the fragment GitLab puts in the commit
	// rejection when the target content changed under the local reference.
	nonFastForwardMarker = "changed since you started editing"
)

var errClientNotInitialized = errors.New("gitlab client not initialized")

var descriptor = domain.RemoteProviderDescriptor{
	Name:         providerName,
	Title:        "GitLab",
	Domain:       "gitlab.com",
	Instructions: "Create a personal access token with the api scope at https://gitlab.com/-/user_settings/personal_access_tokens",
	Icon:         "gitlab",
}

// Provider implements domain.Provider for GitLab.
type Provider struct {
	token  string
	client *gl.Client
}

// New creates a GitLab provider with the given token.
func New(token string) domain.Provider {
	client, err := gl.NewClient(token)
	if err != nil {
		// Return a provider that fails on use rather than panicking at construction
		return &Provider{token: token, client: nil}
	}
	return &Provider{token: token, client: client}
}

func (p *Provider) Name() string                                { return providerName }
func (p *Provider) Descriptor() domain.RemoteProviderDescriptor { return descriptor }

// SetToken rebuilds the API client with a new token.
func (p *Provider) SetToken(secret string) {
	p.token = secret
	client, err := gl.NewClient(secret)
	if err != nil {
		p.client = nil
		return
	}
	p.client = client
}

// ValidateCredentials checks the token against the current-user endpoint
// and verifies it belongs to the expected account.
func (p *Provider) ValidateCredentials(ctx context.Context, username, secret string) bool {
	client, err := gl.NewClient(secret)
	if err != nil {
		return false
	}
	user, _, err := client.Users.CurrentUser(gl.WithContext(ctx))
	if err != nil {
		return false
	}
	return strings.EqualFold(user.Username, username)
}

// GetRepo looks up owner/name. A 404 is reported as (nil, nil), which
// drives the create-repo flow rather than an error path.
func (p *Provider) GetRepo(ctx context.Context, owner, name string) (*domain.RepoHandle, error) {
	if p.client == nil {
		return nil, errClientNotInitialized
	}

	pid := owner + "/" + name
	project, resp, err := p.client.Projects.GetProject(pid, nil, gl.WithContext(ctx))
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up project %q: %w", pid, err)
	}
	return toHandle(project), nil
}

// CreateRepo creates a readme-initialized project so the default branch
// exists for the first commit.
func (p *Provider) CreateRepo(ctx context.Context, name string) (*domain.RepoHandle, error) {
	if p.client == nil {
		return nil, errClientNotInitialized
	}

	project, _, err := p.client.Projects.CreateProject(
		&gl.CreateProjectOptions{
			Name:                 gl.Ptr(name),
			InitializeWithReadme: gl.Ptr(true),
		},
		gl.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create project %q: %w", name, err)
	}
	return toHandle(project), nil
}

func (p *Provider) FileExists(ctx context.Context, repo *domain.RepoHandle, branch, path string) bool {
	if p.client == nil || repo == nil {
		return false
	}

	ref := strings.TrimPrefix(branch, "refs/heads/")
	_, _, err := p.client.RepositoryFiles.GetFileMetaData(
		repo.Owner+"/"+repo.Name, path,
		&gl.GetFileMetaDataOptions{Ref: gl.Ptr(ref)},
		gl.WithContext(ctx),
	)
	return err == nil
}

// CreateCommit probes existence for every file to decide create vs update,
// then submits all actions as one atomic multi-file commit.
func (p *Provider) CreateCommit(ctx context.Context, repo *domain.RepoHandle, files []domain.FileEntry, message string) error {
	if p.client == nil {
		return errClientNotInitialized
	}
	if repo == nil {
		return errMissingHandle("CreateCommit")
	}

	branch := strings.TrimPrefix(repo.DefaultBranch, "refs/heads/")
	actions := make([]*gl.CommitActionOptions, 0, len(files))
	for _, file := range files {
		action := gl.FileCreate
		if p.FileExists(ctx, repo, branch, file.Path) {
			action = gl.FileUpdate
		}

		filePath := strings.TrimPrefix(file.Path, "/")
		content := string(file.Content)
		encoding := "text"
		if file.Encoding == "base64" {
			content = base64.StdEncoding.EncodeToString(file.Content)
			encoding = "base64"
		}
		actions = append(actions, &gl.CommitActionOptions{
			Action:   &action,
			FilePath: &filePath,
			Content:  &content,
			Encoding: &encoding,
		})
	}

	_, _, err := p.client.Commits.CreateCommit(
		repo.Owner+"/"+repo.Name,
		&gl.CreateCommitOptions{
			Branch:        gl.Ptr(branch),
			CommitMessage: gl.Ptr(message),
			Actions:       actions,
		},
		gl.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to create commit: %w", err)
	}
	return nil
}

func (p *Provider) CreateBranch(ctx context.Context, repo *domain.RepoHandle, name, fromRef string) error {
	if p.client == nil {
		return errClientNotInitialized
	}
	if repo == nil {
		return errMissingHandle("CreateBranch")
	}

	_, _, err := p.client.Branches.CreateBranch(
		repo.Owner+"/"+repo.Name,
		&gl.CreateBranchOptions{
			Branch: gl.Ptr(name),
			Ref:    gl.Ptr(strings.TrimPrefix(fromRef, "refs/heads/")),
		},
		gl.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to create branch %q: %w", name, err)
	}
	return nil
}

func (p *Provider) CreateMergeRequest(ctx context.Context, repo *domain.RepoHandle, sourceBranch, targetBranch, title string) (string, error) {
	if p.client == nil {
		return "", errClientNotInitialized
	}
	if repo == nil {
		return "", errMissingHandle("CreateMergeRequest")
	}

	mr, _, err := p.client.MergeRequests.CreateMergeRequest(
		repo.Owner+"/"+repo.Name,
		&gl.CreateMergeRequestOptions{
			Title:              gl.Ptr(title),
			SourceBranch:       gl.Ptr(strings.TrimPrefix(sourceBranch, "refs/heads/")),
			TargetBranch:       gl.Ptr(strings.TrimPrefix(targetBranch, "refs/heads/")),
			RemoveSourceBranch: gl.Ptr(true),
		},
		gl.WithContext(ctx),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create merge request: %w", err)
	}
	return mr.WebURL, nil
}

func (p *Provider) IsNonFastForward(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), nonFastForwardMarker)
}

func toHandle(project *gl.Project) *domain.RepoHandle {
	defaultBranch := "main"
	if project.DefaultBranch != "" {
		defaultBranch = project.DefaultBranch
	}

	owner := ""
	if project.Namespace != nil {
		owner = project.Namespace.FullPath
	}

	return &domain.RepoHandle{
		ID:            strconv.FormatInt(int64(project.ID), 10),
		Name:          project.Path,
		Owner:         owner,
		DefaultBranch: "refs/heads/" + defaultBranch,
		WebURL:        project.WebURL,
	}
}

func errMissingHandle(op string) error {
	return fmt.Errorf("%s: repository handle is required", op)
}
