package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for gitsync.
type Config struct {
	Providers []ProviderConfig `yaml:"providers"`
	Sync      SyncConfig       `yaml:"sync"`
}

// ProviderConfig describes a single Git hosting provider account.
type ProviderConfig struct {
	Type     string `yaml:"type"`     // "github" or "gitlab"
	Username string `yaml:"username"` // Account the token belongs to
	Token    string `yaml:"token"`    // Inline, ${ENV_VAR}, or file path
}

// SyncConfig holds workspace-level settings.
type SyncConfig struct {
	AuthorName   string `yaml:"author_name"`
	AuthorEmail  string `yaml:"author_email"`
	StorePath    string `yaml:"store_path"`    // Key-value store location
	WorkspaceDir string `yaml:"workspace_dir"` // Sandbox root for cloned projects
}

// envVarPattern matches ${VAR_NAME} placeholders.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)}`)

var knownProviderTypes = map[string]bool{
	"github": true,
	"gitlab": true,
}

// Load reads and parses a configuration file, expanding environment
// variables, resolving token file paths, and applying defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	var cfg Config
	if unmarshalErr := yaml.Unmarshal(data, &cfg); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", unmarshalErr)
	}

	for i := range cfg.Providers {
		cfg.Providers[i].Token = resolveToken(cfg.Providers[i].Token)
	}

	applyDefaults(&cfg)

	if validateErr := validate(&cfg); validateErr != nil {
		return nil, validateErr
	}

	return &cfg, nil
}

// Default returns a configuration with only the defaults applied, for runs
// without a config file.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// FindConfigFile searches for a configuration file in standard locations.
// Returns the path to the first file found or an error if none is found.
func FindConfigFile() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = ""
	}

	locations := []string{
		".",
		".config",
	}
	if homeDir != "" {
		locations = append(
			locations,
			homeDir,
			filepath.Join(homeDir, ".config"),
		)
	}

	patterns := []string{
		".gitsync.yaml",
		".gitsync.yml",
		"gitsync.yaml",
		"gitsync.yml",
	}

	for _, loc := range locations {
		for _, pat := range patterns {
			p := filepath.Join(loc, pat)
			if _, statErr := os.Stat(p); statErr == nil {
				return p, nil
			}
		}
	}

	return "", errors.New("config file not found in default locations")
}

// resolveToken expands environment variable references (${VAR}) and, if the
// resulting string is a path to an existing file, reads the token from the file.
func resolveToken(raw string) string {
	if raw == "" {
		return raw
	}

	resolved := envVarPattern.ReplaceAllStringFunc(raw, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		logger.Warnf("Environment variable %q is not set", varName)
		return ""
	})

	if _, statErr := os.Stat(resolved); statErr == nil {
		data, readErr := os.ReadFile(resolved)
		if readErr != nil {
			logger.Warnf("Failed to read token file %q: %v", resolved, readErr)
			return resolved
		}
		logger.Infof("Read token from file %q", resolved)
		return strings.TrimSpace(string(data))
	}

	return resolved
}

func applyDefaults(cfg *Config) {
	if cfg.Sync.AuthorName == "" {
		cfg.Sync.AuthorName = "gitsync"
	}
	if cfg.Sync.AuthorEmail == "" {
		cfg.Sync.AuthorEmail = "gitsync@localhost"
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	if cfg.Sync.StorePath == "" {
		cfg.Sync.StorePath = filepath.Join(homeDir, ".gitsync", "store.db")
	}
	if cfg.Sync.WorkspaceDir == "" {
		cfg.Sync.WorkspaceDir = filepath.Join(homeDir, ".gitsync", "workspaces")
	}
}

// validate checks for required configuration values.
func validate(cfg *Config) error {
	for i, p := range cfg.Providers {
		if p.Type == "" {
			return fmt.Errorf("providers[%d].type is required", i)
		}
		if !knownProviderTypes[p.Type] {
			return fmt.Errorf("providers[%d].type %q is not supported", i, p.Type)
		}
	}
	return nil
}
