package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"

	"github.com/umarhashmi9/gitsync/domain"
)

const (
	initialCommitMessage = "Initial commit"

	// maxNonFastForwardRetries bounds the pull-and-retry recursion. The
	// push re-enters the whole flow after a rejected commit, so without a
	// bound a persistently conflicting remote would recurse forever.
	maxNonFastForwardRetries = 1
)

// PushRequest carries everything the push orchestration needs for one
// provider-side push session.
type PushRequest struct {
	RepoName  string
	Owner     string // Defaults to Username when empty
	Username  string
	Secret    string
	Files     []domain.FileEntry
	Callbacks domain.Callbacks
}

// Push commits the files with the fixed initial message. It is the
// create-repo half of the orchestration, exposed for callers that already
// hold a handle.
func Push(ctx context.Context, p domain.Provider, repo *domain.RepoHandle, files []domain.FileEntry) domain.PushResult {
	if err := p.CreateCommit(ctx, repo, files, initialCommitMessage); err != nil {
		return failure(fmt.Sprintf("Failed to push files: %v", err))
	}
	return success(fmt.Sprintf("Pushed %d files to %s", len(files), repo.WebURL))
}

// PushWithRepoHandling performs the full create-or-commit push flow:
// look up the repository, offer to create it when missing, prompt for a
// commit message otherwise, and offer one pull-and-retry when the remote
// rejects the commit as non-fast-forward. Expected failures come back as
// unsuccessful results, never as errors.
func PushWithRepoHandling(ctx context.Context, p domain.Provider, req PushRequest) domain.PushResult {
	return pushWithRepoHandling(ctx, p, req, 0)
}

func pushWithRepoHandling(ctx context.Context, p domain.Provider, req PushRequest, attempt int) domain.PushResult {
	p.SetToken(req.Secret)

	owner := req.Owner
	if owner == "" {
		owner = req.Username
	}

	repo, err := p.GetRepo(ctx, owner, req.RepoName)
	if err != nil {
		return failure(fmt.Sprintf("Failed to look up %s/%s: %v", owner, req.RepoName, err))
	}

	if repo == nil {
		return createAndPush(ctx, p, req, owner)
	}

	message, ok := req.Callbacks.PromptOrEmpty(
		fmt.Sprintf("Commit message for %s/%s", owner, req.RepoName),
	)
	if !ok || strings.TrimSpace(message) == "" {
		return failure("Commit message is required")
	}

	if err = p.CreateCommit(ctx, repo, req.Files, message); err != nil {
		if p.IsNonFastForward(err) {
			return handleNonFastForward(ctx, p, req, attempt)
		}
		return failure(fmt.Sprintf("Failed to push to %s/%s: %v", owner, req.RepoName, err))
	}

	logger.Infof("Pushed %d files to %s/%s", len(req.Files), owner, req.RepoName)
	return success(fmt.Sprintf("Pushed %d files to %s", len(req.Files), repo.WebURL))
}

func createAndPush(ctx context.Context, p domain.Provider, req PushRequest, owner string) domain.PushResult {
	prompt := fmt.Sprintf("Repository %s/%s does not exist. Create it?", owner, req.RepoName)
	if !req.Callbacks.ConfirmOrDecline(prompt) {
		return failure("Repository creation cancelled")
	}

	repo, err := p.CreateRepo(ctx, req.RepoName)
	if err != nil {
		return failure(fmt.Sprintf("Failed to create repository %q: %v", req.RepoName, err))
	}

	if err = p.CreateCommit(ctx, repo, req.Files, initialCommitMessage); err != nil {
		return failure(fmt.Sprintf("Created %s but the initial push failed: %v", repo.WebURL, err))
	}

	logger.Infof("Created %s/%s and pushed %d files", owner, req.RepoName, len(req.Files))
	return success(fmt.Sprintf("Created repository and pushed %d files: %s", len(req.Files), repo.WebURL))
}

func handleNonFastForward(ctx context.Context, p domain.Provider, req PushRequest, attempt int) domain.PushResult {
	if attempt >= maxNonFastForwardRetries {
		return failure("Push rejected again: the remote has new changes. Pull manually and retry.")
	}

	if !req.Callbacks.ConfirmOrDecline("The remote has changes you don't have locally. Pull and retry the push?") {
		return failure("Push rejected: the remote has new changes. Pull manually and retry.")
	}

	logger.Debugf("Retrying push to %s after non-fast-forward rejection", req.RepoName)
	return pushWithRepoHandling(ctx, p, req, attempt+1)
}

// MergeRequestInput carries the data for a push-to-branch-and-open-MR flow.
type MergeRequestInput struct {
	RepoName     string
	Owner        string
	Username     string
	Secret       string
	Title        string
	TargetBranch string // Defaults to the repository default branch when empty
	Files        []domain.FileEntry
}

// CreateMergeRequestFlow pushes the files to a generated branch and opens a
// merge request against the target branch, returning the request's web URL
// in the result message.
func CreateMergeRequestFlow(ctx context.Context, p domain.Provider, in MergeRequestInput) domain.PushResult {
	p.SetToken(in.Secret)

	owner := in.Owner
	if owner == "" {
		owner = in.Username
	}

	repo, err := p.GetRepo(ctx, owner, in.RepoName)
	if err != nil {
		return failure(fmt.Sprintf("Failed to look up %s/%s: %v", owner, in.RepoName, err))
	}
	if repo == nil {
		return failure(fmt.Sprintf("Repository %s/%s does not exist", owner, in.RepoName))
	}

	target := in.TargetBranch
	if target == "" {
		target = repo.DefaultBranch
	}

	sourceBranch := "gitsync/" + uuid.NewString()[:8]
	if err = p.CreateBranch(ctx, repo, sourceBranch, target); err != nil {
		return failure(fmt.Sprintf("Failed to create branch %q: %v", sourceBranch, err))
	}

	// Commit onto the new branch by pointing a copy of the handle at it.
	branchRepo := *repo
	branchRepo.DefaultBranch = "refs/heads/" + sourceBranch
	if err = p.CreateCommit(ctx, &branchRepo, in.Files, in.Title); err != nil {
		return failure(fmt.Sprintf("Failed to commit to branch %q: %v", sourceBranch, err))
	}

	url, err := p.CreateMergeRequest(ctx, repo, sourceBranch, target, in.Title)
	if err != nil {
		return failure(fmt.Sprintf("Failed to create merge request: %v", err))
	}

	logger.Infof("Opened merge request for %s/%s: %s", owner, in.RepoName, url)
	return success(fmt.Sprintf("Opened merge request: %s", url))
}

func success(message string) domain.PushResult {
	return domain.PushResult{Success: true, Message: message}
}

func failure(message string) domain.PushResult {
	return domain.PushResult{Success: false, Message: message}
}
