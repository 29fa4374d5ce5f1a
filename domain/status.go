package domain

import "fmt"

// StatusRow is the raw per-file tracking state produced by the version
// control engine: whether the file exists in HEAD, how the worktree copy
// compares to HEAD, and how the staged copy compares to both.
//
//   - Head: 0 absent from HEAD, 1 present in HEAD
//   - Worktree: 0 absent, 1 identical to HEAD, 2 different from HEAD
//   - Stage: 0 absent, 1 identical to HEAD, 2 identical to worktree,
//     3 different from both
type StatusRow struct {
	Path     string
	Head     int
	Worktree int
	Stage    int
}

// Key returns the 3-digit lookup key for this row's tuple.
func (r StatusRow) Key() string {
	return fmt.Sprintf("%d%d%d", r.Head, r.Worktree, r.Stage)
}

// FileStatus is one of the closed set of named file states.
type FileStatus string

const (
	StatusAbsent                 FileStatus = "absent"
	StatusUntracked              FileStatus = "untracked"
	StatusAdded                  FileStatus = "added"
	StatusAddedModified          FileStatus = "added-then-modified"
	StatusAddedDeleted           FileStatus = "added-then-deleted"
	StatusUnmodified             FileStatus = "unmodified"
	StatusModifiedUnstaged       FileStatus = "modified-unstaged"
	StatusModifiedStaged         FileStatus = "modified-staged"
	StatusModifiedStagedUnstaged FileStatus = "modified-staged-and-unstaged"
	StatusDeletedUnstaged        FileStatus = "deleted-unstaged"
	StatusDeletedStaged          FileStatus = "deleted-staged"
	StatusDeletedModified        FileStatus = "deleted-then-modified"
	StatusDeletedUntracked       FileStatus = "deleted-with-untracked"
	StatusModifiedDeleted        FileStatus = "modified-then-deleted"
)

// statusTable maps every known (head, worktree, stage) tuple to its status.
// This table is closed: a tuple outside it means the engine contract changed
// and must never be reported as a silent default.
var statusTable = map[string]FileStatus{
	"000": StatusAbsent,
	"020": StatusUntracked,
	"022": StatusAdded,
	"023": StatusAddedModified,
	"003": StatusAddedDeleted,
	"111": StatusUnmodified,
	"121": StatusModifiedUnstaged,
	"122": StatusModifiedStaged,
	"123": StatusModifiedStagedUnstaged,
	"101": StatusDeletedUnstaged,
	"100": StatusDeletedStaged,
	"120": StatusDeletedModified,
	"110": StatusDeletedUntracked,
	"103": StatusModifiedDeleted,
}

// ClassificationError reports a status tuple outside the known table.
// It signals a version-control-engine contract change, not a user mistake.
type ClassificationError struct {
	Row StatusRow
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("unrecognized status tuple %s for %q", e.Row.Key(), e.Row.Path)
}

// Classify maps a status row to its named file state. Any tuple not in the
// known table fails loudly so a new engine state is never misreported.
func Classify(row StatusRow) (FileStatus, error) {
	status, ok := statusTable[row.Key()]
	if !ok {
		return "", &ClassificationError{Row: row}
	}
	return status, nil
}

// IsDeletedInWorktree reports whether the file is gone from the working copy.
func IsDeletedInWorktree(row StatusRow) bool { return row.Worktree == 0 }

// HasUnstagedChanges reports whether the worktree copy diverges from the
// staged copy.
func HasUnstagedChanges(row StatusRow) bool { return row.Worktree != row.Stage }

// DiffersFromHead reports whether the file differs from the last commit in
// any way.
func DiffersFromHead(row StatusRow) bool {
	return row.Head != 1 || row.Worktree != 1 || row.Stage != 1
}

// IndexMatchesHead reports whether the staged copy matches the last commit.
func IndexMatchesHead(row StatusRow) bool {
	if row.Head == 0 {
		return row.Stage == 0
	}
	return row.Stage == 1
}
