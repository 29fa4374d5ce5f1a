package cmd

import (
	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var disconnectCmd = &cobra.Command{
	Use:   "disconnect <provider>",
	Short: "Remove the stored credential for a provider",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		service, err := buildService()
		if err != nil {
			return err
		}
		if err = service.Disconnect(args[0]); err != nil {
			return err
		}
		logger.Infof("Removed credential for %s", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(disconnectCmd)
}
