package cmd

import (
	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var connectToken string

var connectCmd = &cobra.Command{
	Use:   "connect <provider> <username>",
	Short: "Validate and store a provider credential",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		providerName, username := args[0], args[1]

		token := connectToken
		if token == "" {
			var err error
			token, err = promptSecret("Token")
			if err != nil {
				return err
			}
		}

		service, err := buildService()
		if err != nil {
			return err
		}
		if err = service.Connect(cmd.Context(), providerName, username, token); err != nil {
			return err
		}

		logger.Infof("Stored credential for %s", providerName)
		return nil
	},
}

func init() {
	connectCmd.Flags().StringVarP(&connectToken, "token", "t", "",
		"Access token (prompted when omitted)")
	rootCmd.AddCommand(connectCmd)
}
