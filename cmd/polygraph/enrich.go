package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"polygraph/internal/pipeline"
	"polygraph/pkg/export"
)

var enrichFlags struct {
	dir      string
	taxonomy string
}

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Recompute annotations and metrics of an exported snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := export.Load(enrichFlags.dir)
		if err != nil {
			return err
		}

		var override []byte
		if enrichFlags.taxonomy != "" {
			override, err = os.ReadFile(enrichFlags.taxonomy)
			if err != nil {
				return fmt.Errorf("failed to read taxonomy override: %w", err)
			}
		}

		if err := pipeline.Enrich(g, override); err != nil {
			return err
		}
		_, err = export.Export(g, enrichFlags.dir)
		return err
	},
}

func init() {
	flags := enrichCmd.Flags()
	flags.StringVar(&enrichFlags.dir, "dir", "out", "snapshot directory to enrich in place")
	flags.StringVar(&enrichFlags.taxonomy, "taxonomy", "", "partial taxonomy override file (JSON)")
	rootCmd.AddCommand(enrichCmd)
}
