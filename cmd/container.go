package cmd

import (
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"go.uber.org/dig"

	"github.com/umarhashmi9/gitsync/application"
	"github.com/umarhashmi9/gitsync/config"
	"github.com/umarhashmi9/gitsync/infrastructure/engine"
	"github.com/umarhashmi9/gitsync/infrastructure/provider"
	"github.com/umarhashmi9/gitsync/infrastructure/provider/github"
	"github.com/umarhashmi9/gitsync/infrastructure/provider/gitlab"
	"github.com/umarhashmi9/gitsync/infrastructure/vault"
)

// loadConfig resolves the configuration from the --config flag, the
// standard file locations, or the built-in defaults.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		found, err := config.FindConfigFile()
		if err != nil {
			return config.Default(), nil
		}
		path = found
	}
	return config.Load(path)
}

// buildService assembles the sync service graph via dig.
func buildService() (*application.SyncService, error) {
	container := dig.New()

	constructors := []interface{}{
		loadConfig,
		newStore,
		vault.New,
		newRegistry,
		newSandbox,
		newEngineConfig,
		application.NewSyncService,
	}
	for _, constructor := range constructors {
		if err := container.Provide(constructor); err != nil {
			return nil, err
		}
	}

	var service *application.SyncService
	if err := container.Invoke(func(s *application.SyncService) {
		service = s
	}); err != nil {
		return nil, err
	}
	return service, nil
}

func newStore(cfg *config.Config) (vault.Store, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Sync.StorePath), 0o700); err != nil {
		return nil, err
	}
	return vault.NewSQLiteStore(cfg.Sync.StorePath)
}

func newRegistry() *provider.Registry {
	registry := provider.NewRegistry()
	registry.Register("github", github.New)
	registry.Register("gitlab", gitlab.New)
	return registry
}

func newSandbox(cfg *config.Config) (billy.Filesystem, error) {
	if err := os.MkdirAll(cfg.Sync.WorkspaceDir, 0o700); err != nil {
		return nil, err
	}
	return osfs.New(cfg.Sync.WorkspaceDir), nil
}

func newEngineConfig(cfg *config.Config) engine.Config {
	return engine.Config{
		AuthorName:  cfg.Sync.AuthorName,
		AuthorEmail: cfg.Sync.AuthorEmail,
	}
}
