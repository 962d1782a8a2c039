package charts

import (
	"bytes"
	"fmt"

	echarts "github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/lucasb-eyer/go-colorful"

	"spendview/internal/core"
)

// palette is used for one-colour-per-category bars and pie slices.
var palette = []string{
	"#636efa", "#ef553b", "#00cc96", "#ab63fa", "#ffa15a",
	"#19d3f3", "#ff6692", "#b6e880", "#ff97ff", "#fecb52",
}

// Endpoints of the continuous scale used for numeric colour columns.
var (
	scaleLow  = mustHex("#0d0887")
	scaleHigh = mustHex("#f0f921")
)

const (
	chartID     = "spendview-chart"
	chartWidth  = "100%"
	chartHeight = "440px"
)

// Render draws spec from table and returns a standalone HTML document.
// A column the spec binds but the table lacks is a *BindingError.
func Render(spec Spec, table core.ResultTable) (string, error) {
	if missing, ok := table.HasColumns(spec.Columns()...); !ok {
		return "", &BindingError{Title: spec.ChartTitle(), Column: missing, Reason: "is missing from the result"}
	}

	var buf bytes.Buffer
	var err error
	switch s := spec.(type) {
	case Bar:
		var bar *echarts.Bar
		if bar, err = renderBar(s, table); err == nil {
			err = bar.Render(&buf)
		}
	case Line:
		var line *echarts.Line
		if line, err = renderLine(s, table); err == nil {
			err = line.Render(&buf)
		}
	case Pie:
		var pie *echarts.Pie
		if pie, err = renderPie(s, table); err == nil {
			err = pie.Render(&buf)
		}
	default:
		return "", fmt.Errorf("unsupported chart kind %T", spec)
	}
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Value formats the headline column of the first row.
func (h Headline) Value(table core.ResultTable) (string, error) {
	col, ok := table.Column(h.Column)
	if !ok {
		return "", &BindingError{Title: h.Title, Column: h.Column, Reason: "is missing from the result"}
	}
	if table.Len() == 0 {
		return "", &BindingError{Title: h.Title, Column: h.Column, Reason: "has no rows"}
	}
	if table.Get(0, col) == nil {
		return core.FormatNumber(0), nil
	}
	if f, ok := table.Float(0, col); ok {
		return core.FormatNumber(f), nil
	}
	return table.Text(0, col), nil
}

// Text renders the headline as "Title: value".
func (h Headline) Text(table core.ResultTable) (string, error) {
	v, err := h.Value(table)
	if err != nil {
		return "", err
	}
	return h.Title + ": " + v, nil
}

func globalOpts(title string) []echarts.GlobalOpts {
	return []echarts.GlobalOpts{
		echarts.WithInitializationOpts(opts.Initialization{
			PageTitle: title,
			ChartID:   chartID,
			Width:     chartWidth,
			Height:    chartHeight,
		}),
		echarts.WithTitleOpts(opts.Title{Title: title}),
		echarts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		echarts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
	}
}

func renderBar(s Bar, table core.ResultTable) (*echarts.Bar, error) {
	xi, _ := table.Column(s.X)
	yi, _ := table.Column(s.Y)

	bar := echarts.NewBar()
	bar.SetGlobalOptions(globalOpts(s.Title)...)

	var seriesOpts []echarts.SeriesOpts
	if s.Text != "" {
		seriesOpts = append(seriesOpts, echarts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))
	}

	ys, err := floats(s.Title, s.Y, table, yi)
	if err != nil {
		return nil, err
	}

	// A numeric color column is a continuous scale even when it is also the x axis.
	switch {
	case s.Color != "" && numericColumn(table, s.Color):
		ci, _ := table.Column(s.Color)
		cs, err := floats(s.Title, s.Color, table, ci)
		if err != nil {
			return nil, err
		}
		shades := continuous(cs)
		data := make([]opts.BarData, table.Len())
		for i := range table.Rows {
			data[i] = opts.BarData{
				Name:      table.Text(i, xi),
				Value:     ys[i],
				ItemStyle: &opts.ItemStyle{Color: shades[i]},
			}
		}
		bar.SetXAxis(texts(table, xi))
		bar.AddSeries(s.Y, data, seriesOpts...)

	case s.Color == "" || s.Color == s.X:
		colors := categoryColors(table, xi)
		data := make([]opts.BarData, table.Len())
		for i := range table.Rows {
			data[i] = opts.BarData{
				Name:      table.Text(i, xi),
				Value:     ys[i],
				ItemStyle: &opts.ItemStyle{Color: colors[table.Text(i, xi)]},
			}
		}
		bar.SetXAxis(texts(table, xi))
		bar.AddSeries(s.Y, data, seriesOpts...)

	default:
		ci, _ := table.Column(s.Color)
		xs := distinct(table, xi)
		groups := distinct(table, ci)
		colors := categoryColors(table, ci)

		sums := make(map[[2]string]float64)
		present := make(map[[2]string]bool)
		for i := range table.Rows {
			k := [2]string{table.Text(i, ci), table.Text(i, xi)}
			sums[k] += ys[i]
			present[k] = true
		}

		bar.SetXAxis(xs)
		stacked := append([]echarts.SeriesOpts{echarts.WithBarChartOpts(opts.BarChart{Stack: "total"})}, seriesOpts...)
		for _, g := range groups {
			data := make([]opts.BarData, len(xs))
			for j, x := range xs {
				k := [2]string{g, x}
				if !present[k] {
					data[j] = opts.BarData{Value: "-"}
					continue
				}
				data[j] = opts.BarData{Value: sums[k], ItemStyle: &opts.ItemStyle{Color: colors[g]}}
			}
			bar.AddSeries(g, data, stacked...)
		}
	}

	return bar, nil
}

func renderLine(s Line, table core.ResultTable) (*echarts.Line, error) {
	xi, _ := table.Column(s.X)
	yi, _ := table.Column(s.Y)

	ys, err := floats(s.Title, s.Y, table, yi)
	if err != nil {
		return nil, err
	}

	data := make([]opts.LineData, table.Len())
	for i := range ys {
		data[i] = opts.LineData{Name: table.Text(i, xi), Value: ys[i]}
	}

	line := echarts.NewLine()
	line.SetGlobalOptions(globalOpts(s.Title)...)
	line.SetXAxis(texts(table, xi))
	line.AddSeries(s.Y, data, echarts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(s.Markers)}))
	return line, nil
}

func renderPie(s Pie, table core.ResultTable) (*echarts.Pie, error) {
	ni, _ := table.Column(s.Names)
	vi, _ := table.Column(s.Values)

	vs, err := floats(s.Title, s.Values, table, vi)
	if err != nil {
		return nil, err
	}

	colors := categoryColors(table, ni)
	data := make([]opts.PieData, table.Len())
	for i := range vs {
		name := table.Text(i, ni)
		data[i] = opts.PieData{Name: name, Value: vs[i]}
		if s.Color != "" {
			data[i].ItemStyle = &opts.ItemStyle{Color: colors[name]}
		}
	}

	pie := echarts.NewPie()
	pie.SetGlobalOptions(globalOpts(s.Title)...)
	pie.AddSeries(s.Values, data, echarts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}: {d}%"}))
	return pie, nil
}

// floats reads a numeric column. NULL aggregates (SUM over no rows) count as zero.
func floats(title, name string, table core.ResultTable, col int) ([]float64, error) {
	out := make([]float64, table.Len())
	for i := range table.Rows {
		v := table.Get(i, col)
		if v == nil {
			continue
		}
		f, ok := core.ToFloat(v)
		if !ok {
			return nil, &BindingError{Title: title, Column: name, Reason: fmt.Sprintf("holds non-numeric value %q", core.FormatValue(v))}
		}
		out[i] = f
	}
	return out, nil
}

func texts(table core.ResultTable, col int) []string {
	out := make([]string, table.Len())
	for i := range table.Rows {
		out[i] = table.Text(i, col)
	}
	return out
}

// distinct returns the rendered values of col in first-appearance order.
func distinct(table core.ResultTable, col int) []string {
	var out []string
	seen := make(map[string]bool)
	for i := range table.Rows {
		v := table.Text(i, col)
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func categoryColors(table core.ResultTable, col int) map[string]string {
	out := make(map[string]string)
	for i, v := range distinct(table, col) {
		out[v] = palette[i%len(palette)]
	}
	return out
}

// numericColumn reports whether every non-NULL value of name is a number.
func numericColumn(table core.ResultTable, name string) bool {
	col, ok := table.Column(name)
	if !ok {
		return false
	}
	seen := false
	for i := range table.Rows {
		v := table.Get(i, col)
		if v == nil {
			continue
		}
		if !core.IsNumeric(v) {
			return false
		}
		seen = true
	}
	return seen
}

// continuous maps each value onto the low..high scale by its position in the column's range.
func continuous(values []float64) []string {
	out := make([]string, len(values))
	if len(values) == 0 {
		return out
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	for i, v := range values {
		t := 0.5
		if hi > lo {
			t = (v - lo) / (hi - lo)
		}
		out[i] = scaleLow.BlendLab(scaleHigh, t).Clamped().Hex()
	}
	return out
}

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}
