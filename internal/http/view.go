package http

import (
	"html/template"
	"strconv"

	"spendview/internal/catalog"
	"spendview/internal/core"
	"spendview/internal/services"
)

// Messages shown in the result partial.
const (
	msgConnected          = "Connected to the database!"
	msgMissingCredentials = "Please enter your %s username and password."
	msgChartFailed        = "The chart could not be drawn"
)

var templateFuncs = template.FuncMap{
	"rows": func(n int) string {
		if n == 1 {
			return "1 row"
		}
		return strconv.Itoa(n) + " rows"
	},
}

type indexView struct {
	Title         string
	DriverName    string
	Labels        []string
	Selected      string
	SheetsEnabled bool
}

type cellView struct {
	Text    string
	Numeric bool
}

// resultView feeds templates/result.html. Exactly one of Warning, Error or a
// rendered table is shown.
type resultView struct {
	Warning string
	Error   string

	Connected  string
	Label      string
	Slug       string
	Columns    []string
	Rows       [][]cellView
	RowCount   int
	Chart      string
	ChartKind  string
	Headline   string
	ChartError string
	DurationMs int64
}

func newResultView(page services.Page) resultView {
	v := resultView{
		Connected:  msgConnected,
		Label:      page.Entry.Label,
		Slug:       page.Entry.Slug,
		Columns:    page.Table.Columns,
		RowCount:   page.Table.Len(),
		Chart:      page.Chart,
		ChartKind:  string(page.ChartKind),
		Headline:   page.Headline,
		DurationMs: page.Duration.Milliseconds(),
	}
	if page.ChartErr != nil {
		v.ChartError = msgChartFailed + ": " + page.ChartErr.Error()
	}

	v.Rows = make([][]cellView, len(page.Table.Rows))
	for i, row := range page.Table.Rows {
		cells := make([]cellView, len(row))
		for j, value := range row {
			cells[j] = cellView{Text: core.FormatValue(value), Numeric: core.IsNumeric(value)}
		}
		v.Rows[i] = cells
	}
	return v
}

// driverName is the user-facing database product name.
func driverName(d catalog.Dialect) string {
	switch d {
	case catalog.MySQL:
		return "MySQL"
	case catalog.Postgres:
		return "PostgreSQL"
	case catalog.SQLite:
		return "SQLite"
	}
	return "database"
}
