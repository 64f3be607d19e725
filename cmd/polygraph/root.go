package main

import (
	"github.com/spf13/cobra"

	"polygraph/internal/util"
	"polygraph/pkg/logger"
	"polygraph/pkg/logger/console"
)

var debug bool

var rootCmd = &cobra.Command{
	Use:   "polygraph",
	Short: "Relational graphs of public figures from open sources",
	Long: `polygraph crawls family, political, security and corporate relations
outward from seed entities, reconciles the people it finds against official
government rosters, and writes annotated graph snapshots in several
interchange formats.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		util.LoadEnv()
		logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
			Debug: debug,
		}))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}
