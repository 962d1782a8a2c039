package main

import (
	"github.com/spf13/cobra"

	"spendview/internal/cli"
)

// rootCmd serves the dashboard when no subcommand is given.
var rootCmd = &cobra.Command{
	Use:   "spendview",
	Short: "Personal expense dashboard over a fixed catalog of SQL queries",
	Long: `spendview connects to a personal expenses database with the credentials you
enter, runs one of a fixed set of analysis queries and renders the result as a
table and chart. Credentials are used for a single pass and never stored.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cli.LoadEnvFile()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, catalogCmd, queryCmd, demoDBCmd, auditCmd)
}
