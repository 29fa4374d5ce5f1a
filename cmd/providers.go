package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List the supported hosting providers and how to obtain tokens",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		for _, desc := range newRegistry().Descriptors() {
			fmt.Printf("%s (%s)\n", desc.Title, desc.Domain)
			fmt.Printf("  connect with: gitsync connect %s <username>\n", desc.Name)
			fmt.Printf("  %s\n", desc.Instructions)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(providersCmd)
}
