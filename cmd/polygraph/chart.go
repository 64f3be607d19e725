package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"polygraph/pkg/chart"
	"polygraph/pkg/export"
	"polygraph/pkg/logger"
)

var chartFlags struct {
	dir string
}

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Rebuild the kinship chart of an exported snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := export.Load(chartFlags.dir)
		if err != nil {
			return err
		}

		document := chart.Build(g)
		data, err := json.MarshalIndent(document, "", "  ")
		if err != nil {
			return err
		}
		path := filepath.Join(chartFlags.dir, export.ChartFile)
		if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
			return err
		}
		logger.Info("Kinship chart written",
			"path", path,
			"people", document.Summary.People,
			"unions", len(document.Unions))
		return nil
	},
}

func init() {
	chartCmd.Flags().StringVar(&chartFlags.dir, "dir", "out", "snapshot directory")
	rootCmd.AddCommand(chartCmd)
}
