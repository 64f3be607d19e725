package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"polygraph/pkg/export"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schemas of the interchange documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := json.MarshalIndent(export.Schemas(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
