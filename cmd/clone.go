package cmd

import (
	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var cloneCmd = &cobra.Command{
	Use:   "clone <url>",
	Short: "Clone a remote repository into the workspace sandbox",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		service, err := buildService()
		if err != nil {
			return err
		}

		result, err := service.Clone(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		logger.Infof("Cloned into %s (%d files)", result.RootDir, len(result.Files))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cloneCmd)
}
