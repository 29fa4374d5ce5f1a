package cmd

import (
	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "gitsync",
	Short: "Synchronize a sandboxed project workspace with Git hosting providers",
	Long: `gitsync keeps a sandboxed project workspace in sync with GitHub or GitLab.

It clones remotes into a local workspace namespace, tracks per-file status
against the embedded git engine, stores provider credentials encrypted at
rest, and pushes changes through the provider REST APIs with
create-repository and pull-and-retry handling.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetFormatter(&logger.TextFormatter{
			ForceColors:   true,
			FullTimestamp: true,
		})
		if verbose {
			logger.SetLevel(logger.DebugLevel)
		}
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Path to config file (default: auto-detect)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose output")
}
