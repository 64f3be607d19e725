package main

import (
	"github.com/spf13/cobra"

	"polygraph/pkg/export"
	"polygraph/pkg/logger"
)

var validateFlags struct {
	dir string
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a snapshot directory for malformed or inconsistent data",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := export.Validate(validateFlags.dir); err != nil {
			return err
		}
		logger.Info("Snapshot is valid", "dir", validateFlags.dir)
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateFlags.dir, "dir", "out", "snapshot directory")
	rootCmd.AddCommand(validateCmd)
}
