package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umarhashmi9/gitsync/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".gitsync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("should parse providers and sync settings", func(t *testing.T) {
		// given
		path := writeConfig(t, `
providers:
  - type: github
    username: octocat
    token: ghp_inline
sync:
  author_name: Test Author
  author_email: test@example.com
`)

		// when
		cfg, err := config.Load(path)

		// then
		require.NoError(t, err)
		require.Len(t, cfg.Providers, 1)
		assert.Equal(t, "github", cfg.Providers[0].Type)
		assert.Equal(t, "octocat", cfg.Providers[0].Username)
		assert.Equal(t, "ghp_inline", cfg.Providers[0].Token)
		assert.Equal(t, "Test Author", cfg.Sync.AuthorName)
		assert.Equal(t, "test@example.com", cfg.Sync.AuthorEmail)
	})

	t.Run("should expand environment variables in tokens", func(t *testing.T) {
		// given
		t.Setenv("GITSYNC_TEST_TOKEN", "ghp_from_env")
		path := writeConfig(t, `
providers:
  - type: github
    username: octocat
    token: ${GITSYNC_TEST_TOKEN}
`)

		// when
		cfg, err := config.Load(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, "ghp_from_env", cfg.Providers[0].Token)
	})

	t.Run("should read tokens from files", func(t *testing.T) {
		// given
		tokenFile := filepath.Join(t.TempDir(), "token")
		require.NoError(t, os.WriteFile(tokenFile, []byte("ghp_from_file\n"), 0o600))
		path := writeConfig(t, `
providers:
  - type: gitlab
    username: octocat
    token: `+tokenFile+`
`)

		// when
		cfg, err := config.Load(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, "ghp_from_file", cfg.Providers[0].Token)
	})

	t.Run("should apply defaults for missing sync settings", func(t *testing.T) {
		// given
		path := writeConfig(t, `providers: []`)

		// when
		cfg, err := config.Load(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, "gitsync", cfg.Sync.AuthorName)
		assert.Equal(t, "gitsync@localhost", cfg.Sync.AuthorEmail)
		assert.NotEmpty(t, cfg.Sync.StorePath)
		assert.NotEmpty(t, cfg.Sync.WorkspaceDir)
	})

	t.Run("should reject unknown provider types", func(t *testing.T) {
		// given
		path := writeConfig(t, `
providers:
  - type: bitbucket
    username: someone
`)

		// when
		_, err := config.Load(path)

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bitbucket")
	})

	t.Run("should reject providers without a type", func(t *testing.T) {
		// given
		path := writeConfig(t, `
providers:
  - username: someone
`)

		// when
		_, err := config.Load(path)

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "type is required")
	})

	t.Run("should fail for a missing file", func(t *testing.T) {
		// when
		_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))

		// then
		require.Error(t, err)
	})

	t.Run("should fail for malformed yaml", func(t *testing.T) {
		// given
		path := writeConfig(t, "providers: [unclosed")

		// when
		_, err := config.Load(path)

		// then
		require.Error(t, err)
	})
}

func TestDefault(t *testing.T) {
	t.Run("should return a usable zero configuration", func(t *testing.T) {
		// when
		cfg := config.Default()

		// then
		assert.Empty(t, cfg.Providers)
		assert.Equal(t, "gitsync", cfg.Sync.AuthorName)
		assert.NotEmpty(t, cfg.Sync.StorePath)
	})
}
