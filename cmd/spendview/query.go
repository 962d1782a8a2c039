package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"spendview/internal/cli"
	"spendview/internal/core"
	"spendview/internal/export"
)

// passwordEnv lets scripts supply the password without a prompt.
const passwordEnv = "SPENDVIEW_DB_PASSWORD"

var (
	queryLabel    string
	queryUsername string
	queryXLSX     string
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run one catalog query and print the result table",
	Long: `Run one catalog query against the configured database and print the result.

The password is read from ` + passwordEnv + ` or prompted for without echo.
The query is named by its label or its slug.
Use "spendview catalog list" to see the available labels and slugs.`,
	Example: `  spendview query --label "Spending by Category" --username analyst
  spendview query --label monthly-spending --username analyst --xlsx monthly.xlsx`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.LoadAndValidateConfig()
		if err != nil {
			return err
		}
		logger := cli.SetupLogger(cfg.LogLevel)

		a, err := newApp(cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		password, err := readPassword()
		if err != nil {
			return err
		}
		creds := core.Credentials{Username: strings.TrimSpace(queryUsername), Password: password}

		label := queryLabel
		if entry, ok := a.dashboard.Catalog().BySlug(label); ok {
			label = entry.Label
		}

		page, err := a.dashboard.Render(cmd.Context(), creds, label)
		if errors.Is(err, core.ErrMissingCredentials) {
			pterm.Warning.Println("Please enter your database username and password.")
			return err
		}
		if err != nil {
			pterm.Error.Println(err.Error())
			return err
		}

		pterm.DefaultSection.Println(page.Entry.Label)
		if err := pterm.DefaultTable.WithHasHeader().WithData(tableData(page.Table)).Render(); err != nil {
			return err
		}
		pterm.Info.Printfln("%d rows in %s", page.Table.Len(), page.Duration.Round(time.Millisecond))

		if page.Headline != "" {
			pterm.Println(page.Headline)
		}
		if page.ChartErr != nil {
			pterm.Error.Println(page.ChartErr.Error())
		} else if page.ChartKind != "" {
			pterm.Info.Printfln("%s chart available in the web dashboard", page.ChartKind)
		}

		if queryXLSX != "" {
			if err := writeWorkbook(queryXLSX, page.Entry.Label, page.Table); err != nil {
				return err
			}
			pterm.Success.Printfln("Wrote %s", queryXLSX)
		}
		return nil
	},
}

func init() {
	queryCmd.Flags().StringVarP(&queryLabel, "label", "l", "", "Catalog query label or slug to run")
	queryCmd.Flags().StringVarP(&queryUsername, "username", "u", "", "Database username")
	queryCmd.Flags().StringVar(&queryXLSX, "xlsx", "", "Also write the result table to this .xlsx file")
	_ = queryCmd.MarkFlagRequired("label")
}

// readPassword never echoes and never logs the password.
func readPassword() (string, error) {
	if pw, ok := os.LookupEnv(passwordEnv); ok {
		return pw, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no terminal for the password prompt; set %s", passwordEnv)
	}

	fmt.Fprint(os.Stderr, "Password: ")
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}

func tableData(table core.ResultTable) pterm.TableData {
	data := make(pterm.TableData, 0, table.Len()+1)
	data = append(data, table.Columns)
	for _, row := range table.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = core.FormatValue(v)
		}
		data = append(data, cells)
	}
	return data
}

func writeWorkbook(path, title string, table core.ResultTable) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return export.WriteXLSX(f, title, table)
}
