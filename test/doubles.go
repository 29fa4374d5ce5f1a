// Package testdoubles provides test doubles (spies, stubs, dummies) for domain
// interfaces. These are hand-crafted implementations — no mock frameworks.
package testdoubles

import (
	"context"
	"strings"

	"github.com/umarhashmi9/gitsync/domain"
)

// ---------------------------------------------------------------------------
// SpyProvider
// ---------------------------------------------------------------------------

// SpyProvider implements domain.Provider as a configurable spy.
// Configure the response fields for the methods your test exercises,
// then inspect the call-tracking fields to verify behavior.
type SpyProvider struct {
	// --- identity ---
	ProviderName string
	Desc         domain.RemoteProviderDescriptor

	// --- ValidateCredentials ---
	ValidateResponse bool

	// --- GetRepo ---
	GetRepoResponse *domain.RepoHandle
	GetRepoError    error
	// spy: number of lookups
	GetRepoCalls int

	// --- CreateRepo ---
	CreateRepoResponse *domain.RepoHandle
	CreateRepoError    error
	// spy: number of creations
	CreateRepoCalls int

	// --- FileExists ---
	FileExistsResponse bool

	// --- CreateCommit ---
	// Errors are consumed one per call; calls past the end succeed.
	CreateCommitErrors []error
	// spy: inputs received
	CreateCommitCalls  int
	CommitMessages     []string
	CommitBranches     []string
	LastCommittedFiles []domain.FileEntry

	// --- CreateBranch ---
	CreateBranchError error
	// spy: number of branch creations
	CreateBranchCalls int

	// --- CreateMergeRequest ---
	MergeRequestURL   string
	MergeRequestError error
	// spy: number of requests opened
	MergeRequestCalls int

	// --- IsNonFastForward ---
	NonFastForwardMarker string

	// --- SetToken ---
	// spy: tokens received
	SetTokenCalls []string
}

func (s *SpyProvider) Name() string {
	if s.ProviderName == "" {
		return "spy"
	}
	return s.ProviderName
}

func (s *SpyProvider) Descriptor() domain.RemoteProviderDescriptor {
	return s.Desc
}

func (s *SpyProvider) SetToken(secret string) {
	s.SetTokenCalls = append(s.SetTokenCalls, secret)
}

func (s *SpyProvider) ValidateCredentials(_ context.Context, _, _ string) bool {
	return s.ValidateResponse
}

func (s *SpyProvider) GetRepo(_ context.Context, _, _ string) (*domain.RepoHandle, error) {
	s.GetRepoCalls++
	return s.GetRepoResponse, s.GetRepoError
}

func (s *SpyProvider) CreateRepo(_ context.Context, _ string) (*domain.RepoHandle, error) {
	s.CreateRepoCalls++
	return s.CreateRepoResponse, s.CreateRepoError
}

func (s *SpyProvider) FileExists(_ context.Context, _ *domain.RepoHandle, _, _ string) bool {
	return s.FileExistsResponse
}

func (s *SpyProvider) CreateCommit(
	_ context.Context, repo *domain.RepoHandle, files []domain.FileEntry, message string,
) error {
	call := s.CreateCommitCalls
	s.CreateCommitCalls++
	s.CommitMessages = append(s.CommitMessages, message)
	if repo != nil {
		s.CommitBranches = append(s.CommitBranches, repo.DefaultBranch)
	}
	s.LastCommittedFiles = files

	if call < len(s.CreateCommitErrors) {
		return s.CreateCommitErrors[call]
	}
	return nil
}

func (s *SpyProvider) CreateBranch(_ context.Context, _ *domain.RepoHandle, _, _ string) error {
	s.CreateBranchCalls++
	return s.CreateBranchError
}

func (s *SpyProvider) CreateMergeRequest(
	_ context.Context, _ *domain.RepoHandle, _, _, _ string,
) (string, error) {
	s.MergeRequestCalls++
	return s.MergeRequestURL, s.MergeRequestError
}

func (s *SpyProvider) IsNonFastForward(err error) bool {
	if err == nil || s.NonFastForwardMarker == "" {
		return false
	}
	return strings.Contains(err.Error(), s.NonFastForwardMarker)
}
