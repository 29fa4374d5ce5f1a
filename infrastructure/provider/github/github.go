// Package github binds the provider abstraction to the GitHub REST API.
// Commits are built the plumbing way: blobs, a tree over the base tree, a
// commit with the prior head as parent, then a branch ref update. The ref
// update is the only durable step.
package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	gh "github.com/google/go-github/v66/github"

	"github.com/umarhashmi9/gitsync/domain"
)

const (
	providerName = "github"
	blobMode     = "100644"
	blobType     = "blob"

	// nonFastForwardMarker is the fragment GitHub puts in the ref-update
	// rejection when the remote branch moved ahead of the local reference.
	nonFastForwardMarker = "fast forward"
)

var descriptor = domain.RemoteProviderDescriptor{
	Name:         providerName,
	Title:        "GitHub",
	Domain:       "github.com",
	Instructions: "Create a personal access token with the repo scope at https://github.com/settings/tokens",
	Icon:         "github",
}

// Provider implements domain.Provider for GitHub.
type Provider struct {
	token  string
	client *gh.Client
}

// New creates a GitHub provider with the given token.
func New(token string) domain.Provider {
	return &Provider{
		token:  token,
		client: gh.NewClient(nil).WithAuthToken(token),
	}
}

func (p *Provider) Name() string                                { return providerName }
func (p *Provider) Descriptor() domain.RemoteProviderDescriptor { return descriptor }

// SetToken rebuilds the API client with a new token.
func (p *Provider) SetToken(secret string) {
	p.token = secret
	p.client = gh.NewClient(nil).WithAuthToken(secret)
}

// ValidateCredentials checks the token against the user endpoint and
// verifies it belongs to the expected account.
func (p *Provider) ValidateCredentials(ctx context.Context, username, secret string) bool {
	client := gh.NewClient(nil).WithAuthToken(secret)
	user, _, err := client.Users.Get(ctx, "")
	if err != nil {
		return false
	}
	return strings.EqualFold(user.GetLogin(), username)
}

// GetRepo looks up owner/name. A 404 is reported as (nil, nil), which
// drives the create-repo flow rather than an error path.
func (p *Provider) GetRepo(ctx context.Context, owner, name string) (*domain.RepoHandle, error) {
	repo, resp, err := p.client.Repositories.Get(ctx, owner, name)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up repository %s/%s: %w", owner, name, err)
	}
	return toHandle(repo), nil
}

// CreateRepo creates an auto-initialized repository so the default branch
// ref exists for the first commit.
func (p *Provider) CreateRepo(ctx context.Context, name string) (*domain.RepoHandle, error) {
	autoInit := true
	repo, _, err := p.client.Repositories.Create(ctx, "", &gh.Repository{
		Name:     &name,
		AutoInit: &autoInit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create repository %q: %w", name, err)
	}
	return toHandle(repo), nil
}

func (p *Provider) FileExists(ctx context.Context, repo *domain.RepoHandle, branch, path string) bool {
	if repo == nil {
		return false
	}
	fileContent, _, _, err := p.client.Repositories.GetContents(
		ctx, repo.Owner, repo.Name, path,
		&gh.RepositoryContentGetOptions{Ref: strings.TrimPrefix(branch, "refs/heads/")},
	)
	return err == nil && fileContent != nil
}

// CreateCommit writes each file as a blob, builds a tree from the base
// tree, creates a commit with the prior head as parent, and moves the
// branch ref. Nothing is durable until the ref update succeeds.
func (p *Provider) CreateCommit(ctx context.Context, repo *domain.RepoHandle, files []domain.FileEntry, message string) error {
	if repo == nil {
		return errMissingHandle("CreateCommit")
	}

	branch := strings.TrimPrefix(repo.DefaultBranch, "refs/heads/")
	baseRef, _, err := p.client.Git.GetRef(ctx, repo.Owner, repo.Name, "refs/heads/"+branch)
	if err != nil {
		return fmt.Errorf("failed to get base branch ref: %w", err)
	}
	baseSHA := baseRef.Object.GetSHA()

	baseCommit, _, err := p.client.Git.GetCommit(ctx, repo.Owner, repo.Name, baseSHA)
	if err != nil {
		return fmt.Errorf("failed to get base commit: %w", err)
	}

	entries := make([]*gh.TreeEntry, 0, len(files))
	for _, file := range files {
		blobSHA, blobErr := p.createBlob(ctx, repo, file)
		if blobErr != nil {
			return blobErr
		}
		path := strings.TrimPrefix(file.Path, "/")
		mode := blobMode
		entryType := blobType
		entries = append(entries, &gh.TreeEntry{
			Path: &path,
			Mode: &mode,
			Type: &entryType,
			SHA:  &blobSHA,
		})
	}

	newTree, _, err := p.client.Git.CreateTree(
		ctx, repo.Owner, repo.Name, baseCommit.Tree.GetSHA(), entries,
	)
	if err != nil {
		return fmt.Errorf("failed to create tree: %w", err)
	}

	newCommit, _, err := p.client.Git.CreateCommit(
		ctx, repo.Owner, repo.Name,
		&gh.Commit{
			Message: &message,
			Tree:    newTree,
			Parents: []*gh.Commit{{SHA: &baseSHA}},
		},
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to create commit: %w", err)
	}

	branchRef := "refs/heads/" + branch
	_, _, err = p.client.Git.UpdateRef(
		ctx, repo.Owner, repo.Name,
		&gh.Reference{
			Ref:    &branchRef,
			Object: &gh.GitObject{SHA: newCommit.SHA},
		},
		false,
	)
	if err != nil {
		return fmt.Errorf("failed to update branch ref: %w", err)
	}

	return nil
}

func (p *Provider) createBlob(ctx context.Context, repo *domain.RepoHandle, file domain.FileEntry) (string, error) {
	content := string(file.Content)
	encoding := "utf-8"
	if file.Encoding == "base64" {
		content = base64.StdEncoding.EncodeToString(file.Content)
		encoding = "base64"
	}

	blob, _, err := p.client.Git.CreateBlob(ctx, repo.Owner, repo.Name, &gh.Blob{
		Content:  &content,
		Encoding: &encoding,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create blob for %q: %w", file.Path, err)
	}
	return blob.GetSHA(), nil
}

func (p *Provider) CreateBranch(ctx context.Context, repo *domain.RepoHandle, name, fromRef string) error {
	if repo == nil {
		return errMissingHandle("CreateBranch")
	}

	baseRef, _, err := p.client.Git.GetRef(
		ctx, repo.Owner, repo.Name,
		"refs/heads/"+strings.TrimPrefix(fromRef, "refs/heads/"),
	)
	if err != nil {
		return fmt.Errorf("failed to get base ref %q: %w", fromRef, err)
	}

	branchRef := "refs/heads/" + name
	_, _, err = p.client.Git.CreateRef(
		ctx, repo.Owner, repo.Name,
		&gh.Reference{
			Ref:    &branchRef,
			Object: &gh.GitObject{SHA: baseRef.Object.SHA},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to create branch %q: %w", name, err)
	}
	return nil
}

func (p *Provider) CreateMergeRequest(ctx context.Context, repo *domain.RepoHandle, sourceBranch, targetBranch, title string) (string, error) {
	if repo == nil {
		return "", errMissingHandle("CreateMergeRequest")
	}

	source := strings.TrimPrefix(sourceBranch, "refs/heads/")
	target := strings.TrimPrefix(targetBranch, "refs/heads/")

	pr, _, err := p.client.PullRequests.Create(
		ctx, repo.Owner, repo.Name,
		&gh.NewPullRequest{
			Title: &title,
			Head:  &source,
			Base:  &target,
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to create pull request: %w", err)
	}
	return pr.GetHTMLURL(), nil
}

func (p *Provider) IsNonFastForward(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), nonFastForwardMarker)
}

func toHandle(repo *gh.Repository) *domain.RepoHandle {
	defaultBranch := "main"
	if repo.DefaultBranch != nil {
		defaultBranch = *repo.DefaultBranch
	}
	return &domain.RepoHandle{
		ID:            strconv.FormatInt(repo.GetID(), 10),
		Name:          repo.GetName(),
		Owner:         repo.GetOwner().GetLogin(),
		DefaultBranch: "refs/heads/" + defaultBranch,
		WebURL:        repo.GetHTMLURL(),
	}
}

func errMissingHandle(op string) error {
	return fmt.Errorf("%s: repository handle is required", op)
}
