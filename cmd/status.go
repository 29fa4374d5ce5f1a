package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/umarhashmi9/gitsync/domain"
)

var statusShowAll bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the classified status of every file in the workspace",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		service, err := buildService()
		if err != nil {
			return err
		}
		if err = service.Resume(); err != nil {
			return err
		}

		rows, err := service.StatusMatrix()
		if err != nil {
			return err
		}

		for _, row := range rows {
			status, classifyErr := domain.Classify(row)
			if classifyErr != nil {
				return classifyErr
			}
			if status == domain.StatusUnmodified && !statusShowAll {
				continue
			}
			fmt.Printf("%-24s %s\n", status, row.Path)
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolVarP(&statusShowAll, "all", "a", false,
		"Include unmodified files")
	rootCmd.AddCommand(statusCmd)
}
