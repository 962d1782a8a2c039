package main

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"spendview/internal/config"
	"spendview/internal/storage"
)

var demoSchemaOnly bool

var demoDBCmd = &cobra.Command{
	Use:   "demo-db [PATH]",
	Short: "Create a SQLite expenses database with a year of sample data",
	Long: `Create a SQLite database holding the PERSONAL_EXPENSES table and 366 sample
transactions for 2024. PATH defaults to SQLITE_DB_PATH.

Serve it with DB_DRIVER=sqlite. Any non-empty username and password are accepted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.Load().SQLiteDBPath
		if len(args) == 1 {
			path = args[0]
		}

		create := storage.CreateDemoDatabase
		if demoSchemaOnly {
			create = storage.CreateSchema
		}
		if err := create(path); err != nil {
			return err
		}
		pterm.Success.Printfln("Demo database ready at %s", path)
		return nil
	},
}

func init() {
	demoDBCmd.Flags().BoolVar(&demoSchemaOnly, "schema-only", false, "Create the empty table without sample rows")
}
