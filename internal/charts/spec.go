// Package charts maps catalog labels to chart specifications and renders
// them with go-echarts.
//
// Each chart kind is its own struct carrying the exact column names it binds,
// so a label either has one Spec or renders table-only.
package charts

import "fmt"

type Kind string

const (
	KindBar  Kind = "bar"
	KindLine Kind = "line"
	KindPie  Kind = "pie"
)

// Spec is implemented by Bar, Line and Pie.
type Spec interface {
	Kind() Kind
	ChartTitle() string
	// Columns lists every column the chart reads, without duplicates.
	Columns() []string
}

// Bar draws Y per X. Color may be empty or equal X (one colour per bar),
// name a numeric column (continuous scale) or a categorical column (stacked
// series per value). Text, when set, labels each bar with that column.
type Bar struct {
	Title string
	X     string
	Y     string
	Color string
	Text  string
}

func (Bar) Kind() Kind           { return KindBar }
func (b Bar) ChartTitle() string { return b.Title }
func (b Bar) Columns() []string  { return uniq(b.X, b.Y, b.Color, b.Text) }

type Line struct {
	Title   string
	X       string
	Y       string
	Markers bool
}

func (Line) Kind() Kind           { return KindLine }
func (l Line) ChartTitle() string { return l.Title }
func (l Line) Columns() []string  { return uniq(l.X, l.Y) }

// Pie draws one slice per row. Color, when set, must equal Names.
type Pie struct {
	Title  string
	Names  string
	Values string
	Color  string
}

func (Pie) Kind() Kind           { return KindPie }
func (p Pie) ChartTitle() string { return p.Title }
func (p Pie) Columns() []string  { return uniq(p.Names, p.Values, p.Color) }

// Headline is a single-value callout shown instead of a chart.
type Headline struct {
	Title  string
	Column string
}

// BindingError reports a chart that cannot be drawn from the result it was given.
type BindingError struct {
	Title  string
	Column string
	Reason string
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("chart %q: column %q %s", e.Title, e.Column, e.Reason)
}

func uniq(cols ...string) []string {
	out := make([]string, 0, len(cols))
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
