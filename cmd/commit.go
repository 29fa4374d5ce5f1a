package cmd

import (
	"errors"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/umarhashmi9/gitsync/domain"
)

var commitMessage string

var commitCmd = &cobra.Command{
	Use:   "commit [paths...]",
	Short: "Stage the given paths (or everything changed) and commit",
	RunE: func(_ *cobra.Command, args []string) error {
		if commitMessage == "" {
			return errors.New("commit message is required (-m)")
		}

		service, err := buildService()
		if err != nil {
			return err
		}
		if err = service.Resume(); err != nil {
			return err
		}

		paths := args
		if len(paths) == 0 {
			rows, matrixErr := service.StatusMatrix()
			if matrixErr != nil {
				return matrixErr
			}
			for _, row := range rows {
				if domain.DiffersFromHead(row) && !domain.IsDeletedInWorktree(row) {
					paths = append(paths, row.Path)
				}
			}
		}

		for _, path := range paths {
			if stageErr := service.StageFile(path); stageErr != nil {
				return stageErr
			}
		}

		hash, err := service.Commit(commitMessage)
		if err != nil {
			return err
		}
		logger.Infof("Committed %s", hash)
		return nil
	},
}

func init() {
	commitCmd.Flags().StringVarP(&commitMessage, "message", "m", "",
		"Commit message")
	rootCmd.AddCommand(commitCmd)
}
