package catalog

import (
	"fmt"
	"strings"
	"text/template"
)

// ExpenseColumns is the column order used wherever a query lists whole expense rows.
var ExpenseColumns = []string{"Date", "Category", "Description", "Payment Mode", "Amount Paid", "Cashback"}

// Quote quotes a single identifier for dialect d.
func Quote(d Dialect, ident string) string {
	switch d {
	case Postgres:
		return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
	default:
		return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
	}
}

func dialectFuncs(d Dialect) (template.FuncMap, error) {
	q := func(ident string) string { return Quote(d, ident) }

	var month, dow func(string) string
	switch d {
	case MySQL:
		month = func(col string) string { return fmt.Sprintf("DATE_FORMAT(%s, '%%Y-%%m')", q(col)) }
		dow = func(col string) string { return fmt.Sprintf("DAYOFWEEK(%s)", q(col)) }
	case Postgres:
		month = func(col string) string { return fmt.Sprintf("to_char(%s, 'YYYY-MM')", q(col)) }
		dow = func(col string) string { return fmt.Sprintf("(EXTRACT(DOW FROM %s)::int + 1)", q(col)) }
	case SQLite:
		month = func(col string) string { return fmt.Sprintf("strftime('%%Y-%%m', %s)", q(col)) }
		dow = func(col string) string { return fmt.Sprintf("(CAST(strftime('%%w', %s) AS INTEGER) + 1)", q(col)) }
	default:
		return nil, fmt.Errorf("unsupported dialect %q", d)
	}

	return template.FuncMap{
		"q":     q,
		"month": month,
		"dow":   dow,
		"expenseColumns": func() string {
			quoted := make([]string, len(ExpenseColumns))
			for i, c := range ExpenseColumns {
				quoted[i] = q(c)
			}
			return strings.Join(quoted, ", ")
		},
	}, nil
}
