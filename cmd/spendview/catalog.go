package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"spendview/internal/catalog"
	"spendview/internal/charts"
	"spendview/internal/config"
)

var (
	catalogDriver  string
	catalogShowSQL bool
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the query catalog",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the available queries in menu order",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog()
		if err != nil {
			return err
		}

		header := []string{"#", "Query", "Slug", "Output"}
		if catalogShowSQL {
			header = append(header, "SQL")
		}
		data := pterm.TableData{header}
		for i, e := range cat.Entries() {
			row := []string{strconv.Itoa(i + 1), e.Label, e.Slug, outputKind(e.Label)}
			if catalogShowSQL {
				row = append(row, e.SQL)
			}
			data = append(data, row)
		}

		pterm.DefaultSection.Printfln("%d queries (%s)", cat.Len(), cat.Dialect())
		return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	},
}

var catalogCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify every chart binding against the declared result columns",
	RunE: func(cmd *cobra.Command, args []string) error {
		var errs []error
		for _, d := range catalog.Dialects {
			cat, err := catalog.Load(d)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", d, err))
				continue
			}
			if err := charts.Validate(cat); err != nil {
				pterm.Error.Printfln("%s: %v", d, err)
				errs = append(errs, fmt.Errorf("%s: %w", d, err))
				continue
			}
			pterm.Success.Printfln("%s: %d queries, chart bindings ok", d, cat.Len())
		}
		return errors.Join(errs...)
	},
}

func init() {
	catalogCmd.PersistentFlags().StringVar(&catalogDriver, "driver", "", "SQL dialect to render (mysql, postgres, sqlite); defaults to DB_DRIVER")
	catalogListCmd.Flags().BoolVar(&catalogShowSQL, "sql", false, "Show the rendered SQL of each query")
	catalogCmd.AddCommand(catalogListCmd, catalogCheckCmd)
}

func loadCatalog() (*catalog.Catalog, error) {
	driver := catalogDriver
	if driver == "" {
		driver = config.Load().DBDriver
	}
	d, err := catalog.ParseDialect(driver)
	if err != nil {
		return nil, err
	}
	return catalog.Load(d)
}

// outputKind describes what a query renders besides its table.
func outputKind(label string) string {
	if spec, ok := charts.For(label); ok {
		return string(spec.Kind()) + " chart"
	}
	if _, ok := charts.HeadlineFor(label); ok {
		return "headline"
	}
	return "table"
}
