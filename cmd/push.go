package cmd

import (
	"errors"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/umarhashmi9/gitsync/domain"
)

var (
	pushProvider string
	pushRepo     string
	pushBranch   string
)

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push the workspace to its remote",
	Long: `Push the workspace to its remote.

With --provider and --repo, files go through the hosting provider's API:
the repository is created on demand (after confirmation) and a rejected
push offers one pull-and-retry. Without them, the current branch is
pushed over the plain git transport.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		service, err := buildService()
		if err != nil {
			return err
		}

		if pushProvider == "" && pushRepo == "" {
			if err = service.Resume(); err != nil {
				return err
			}
			branch := pushBranch
			if branch == "" {
				_, branch = service.LastRemote()
			}
			if branch == "" {
				return errors.New("no branch to push: use --branch")
			}
			if err = service.PushRef(cmd.Context(), branch); err != nil {
				return err
			}
			logger.Infof("Pushed %s", branch)
			return nil
		}

		if pushProvider == "" || pushRepo == "" {
			return errors.New("--provider and --repo must be given together")
		}

		if resumeErr := service.Resume(); resumeErr != nil {
			logger.Debugf("No open workspace, pushing side-table files: %v", resumeErr)
		}

		result := service.PushToProvider(cmd.Context(), pushProvider, pushRepo, domain.Callbacks{
			Confirm: confirm,
			Prompt:  promptLine,
		})
		if !result.Success {
			return errors.New(result.Message)
		}
		logger.Info(result.Message)
		return nil
	},
}

func init() {
	pushCmd.Flags().StringVarP(&pushProvider, "provider", "p", "",
		"Hosting provider to push through (github or gitlab)")
	pushCmd.Flags().StringVarP(&pushRepo, "repo", "r", "",
		"Repository name on the provider")
	pushCmd.Flags().StringVarP(&pushBranch, "branch", "b", "",
		"Branch to push over the git transport")
	rootCmd.AddCommand(pushCmd)
}
