package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Value is a scalar cell: nil, int64, float64, string or time.Time.
type Value = any

// Row is positional with ResultTable.Columns.
type Row []Value

// ResultTable is the materialized output of one catalog entry.
type ResultTable struct {
	Columns []string
	Rows    []Row
}

// Len returns the number of rows.
func (t ResultTable) Len() int {
	return len(t.Rows)
}

// Column returns the index of a column by exact name.
func (t ResultTable) Column(name string) (int, bool) {
	for i, c := range t.Columns {
		if c == name {
			return i, true
		}
	}
	return -1, false
}

// HasColumns reports the first name not present in the table.
func (t ResultTable) HasColumns(names ...string) (missing string, ok bool) {
	for _, n := range names {
		if _, found := t.Column(n); !found {
			return n, false
		}
	}
	return "", true
}

// Get returns the cell at row/col, or nil when out of range.
func (t ResultTable) Get(row, col int) Value {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return nil
	}
	return t.Rows[row][col]
}

// Float converts a numeric cell to float64.
func (t ResultTable) Float(row, col int) (float64, bool) {
	return ToFloat(t.Get(row, col))
}

// Text renders a cell for display.
func (t ResultTable) Text(row, col int) string {
	return FormatValue(t.Get(row, col))
}

// ToFloat converts numeric scalars (and numeric strings) to float64.
func ToFloat(v Value) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// IsNumeric reports whether v holds a number.
func IsNumeric(v Value) bool {
	switch v.(type) {
	case int64, int, float64, float32:
		return true
	default:
		return false
	}
}

// FormatValue renders a cell. Floats use two decimals, dates use ISO format.
func FormatValue(v Value) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return FormatNumber(x)
	case float32:
		return FormatNumber(float64(x))
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format("2006-01-02")
		}
		return x.Format("2006-01-02 15:04:05")
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}
