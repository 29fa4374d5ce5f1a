package domain

// Credential holds the username and secret for one Git hosting provider.
// A personal access token acts as the password.
type Credential struct {
	Username string
	Secret   string
}

// RemoteProviderDescriptor is static metadata about a hosting provider.
// It is configuration, not runtime state: the UI uses it to render the
// connect dialog for each provider.
type RemoteProviderDescriptor struct {
	Name         string // Provider identifier (e.g. "github", "gitlab")
	Title        string // Display title
	Domain       string // Host name, used as the credential vault key
	Instructions string // How to obtain a personal access token
	Icon         string // Icon key for the UI
}

// RepoHandle is an opaque project handle obtained from a repository lookup
// or creation call. It is scoped to a single push session and never persisted.
type RepoHandle struct {
	ID            string
	Name          string
	Owner         string
	DefaultBranch string
	WebURL        string
}

// FileEntry is one file to be synchronized: content plus the encoding the
// adapter recorded it with ("utf-8" for text, "base64" for binary).
type FileEntry struct {
	Path     string
	Content  []byte
	Encoding string
}

// PushResult is the structured outcome of a push orchestration. Expected
// failure modes (cancelled creation, missing commit message, rejected push)
// are reported here rather than as errors, so callers never have to catch
// across the UI boundary.
type PushResult struct {
	Success bool
	Message string
}

// Callbacks are the UI-level decision hooks injected into the push flow.
// Confirm asks a yes/no question; Prompt asks for a line of input and
// reports whether the user supplied one.
type Callbacks struct {
	Confirm func(message string) bool
	Prompt  func(message string) (string, bool)
}

// ConfirmOrDecline returns the Confirm answer, declining when no callback
// was injected.
func (c Callbacks) ConfirmOrDecline(message string) bool {
	if c.Confirm == nil {
		return false
	}
	return c.Confirm(message)
}

// PromptOrEmpty returns the Prompt answer, reporting no input when no
// callback was injected.
func (c Callbacks) PromptOrEmpty(message string) (string, bool) {
	if c.Prompt == nil {
		return "", false
	}
	return c.Prompt(message)
}
