package charts

import (
	"errors"
	"fmt"
	"slices"

	"spendview/internal/catalog"
)

var bindings = map[string]Spec{
	"Spending by Category": Bar{
		Title: "Total Spending by Category", X: "Category", Y: "total_spent", Color: "Category", Text: "total_spent",
	},
	"Payment Mode Distribution": Pie{
		Title: "Distribution of Payment Modes", Names: "Payment Mode", Values: "Transactions", Color: "Payment Mode",
	},
	"Top 10 Descriptions by Amount": Bar{
		Title: "Top 10 Descriptions by Total Amount Paid", X: "Description", Y: "Total_Paid", Color: "Total_Paid",
	},
	"Transactions Above 40,000": Bar{
		Title: "Transactions Above 40,000 by Category", X: "Category", Y: "Amount Paid", Color: "Amount Paid",
	},
	"Daily Spending Trend": Line{
		Title: "Daily Spending Trend", X: "Date", Y: "Total_Spent", Markers: true,
	},
	"Average Spending per Category": Bar{
		Title: "Average Spending per Category", X: "Category", Y: "Average_Spent", Color: "Average_Spent",
	},
	"Categories with More Than 50 Transactions": Bar{
		Title: "Categories with More Than 50 Transactions", X: "Category", Y: "Transactions", Color: "Category",
	},
	"Max Amount Spent in Each Category": Bar{
		Title: "Max Amount Spent in Each Category", X: "Category", Y: "Max_Spent", Color: "Category",
	},
	"Most Frequent Descriptions": Bar{
		Title: "Most Frequent Descriptions", X: "Description", Y: "Transactions", Color: "Transactions",
	},
	"Transactions with Cashback > 500": Bar{
		Title: "Transactions with Cashback > 500", X: "Description", Y: "Cashback", Color: "Cashback",
	},
	"Daily Cashback Trend": Line{
		Title: "Daily Cashback Trend", X: "Date", Y: "Total_Cashback", Markers: true,
	},
	"Top 5 Most Expensive Categories": Bar{
		Title: "Top 5 Most Expensive Categories", X: "Category", Y: "Total_Spent", Color: "Category",
	},
	"Transportation Spending by Payment Mode": Bar{
		Title: "Transportation Spending by Payment Mode", X: "Payment Mode", Y: "Total_Spent", Color: "Payment Mode",
	},
	"Transactions with Cashback": Bar{
		Title: "Transactions with Cashback", X: "Category", Y: "Cashback", Color: "Cashback",
	},
	"Monthly Spending": Line{
		Title: "Monthly Spending Trend", X: "Month", Y: "Total_Spent", Markers: true,
	},
	"Highest Spending Months for Travel, Entertainment, Gifts": Bar{
		Title: "Highest Spending Months for Travel, Entertainment, Gifts", X: "Month", Y: "Total_Spent", Color: "Category",
	},
	"Recurring Expenses by Month": Bar{
		Title: "Recurring Expenses by Month", X: "Month", Y: "Total_Spent", Color: "Category",
	},
	"Monthly Cashback": Line{
		Title: "Monthly Cashback Trend", X: "Month", Y: "Total_Cashback", Markers: true,
	},
	"Overall Spending Trend": Line{
		Title: "Overall Spending Trend", X: "Month", Y: "Total_Spent", Markers: true,
	},
	"Travel Costs by Type": Bar{
		Title: "Travel Costs by Type", X: "Description", Y: "Total_Spent", Color: "Description",
	},
	"Grocery Spending Patterns": Bar{
		Title: "Grocery Spending Patterns by Day of Week", X: "DayOfWeek", Y: "Total_Spent", Color: "DayOfWeek",
	},
	"High and Low Priority Categories": Bar{
		Title: "High and Low Priority Categories", X: "Category", Y: "Total_Spent", Color: "Category",
	},
	"Category Contribution to Total Spending": Pie{
		Title: "Category Contribution to Total Spending", Names: "Category", Values: "Percentage",
	},
}

var headlines = map[string]Headline{
	"Total Cashback Received": {Title: "Total Cashback Received", Column: "Total_Cashback"},
}

// For returns the chart bound to a catalog label. Unbound labels render table-only.
func For(label string) (Spec, bool) {
	s, ok := bindings[label]
	return s, ok
}

// HeadlineFor returns the single-value callout bound to a label, if any.
func HeadlineFor(label string) (Headline, bool) {
	h, ok := headlines[label]
	return h, ok
}

// Labels returns every label with a chart, sorted.
func Labels() []string {
	out := make([]string, 0, len(bindings))
	for l := range bindings {
		out = append(out, l)
	}
	slices.Sort(out)
	return out
}

// Validate checks every binding against the columns its catalog entry declares.
func Validate(c *catalog.Catalog) error {
	var errs []error

	for _, label := range Labels() {
		spec := bindings[label]
		entry, ok := c.Lookup(label)
		if !ok {
			errs = append(errs, fmt.Errorf("chart %q bound to unknown query %q", spec.ChartTitle(), label))
			continue
		}
		for _, col := range spec.Columns() {
			if !slices.Contains(entry.Columns, col) {
				errs = append(errs, &BindingError{Title: spec.ChartTitle(), Column: col, Reason: "is not declared by " + label})
			}
		}
		if p, ok := spec.(Pie); ok && p.Color != "" && p.Color != p.Names {
			errs = append(errs, &BindingError{Title: p.Title, Column: p.Color, Reason: "must match the names column"})
		}
	}

	for label, h := range headlines {
		entry, ok := c.Lookup(label)
		if !ok {
			errs = append(errs, fmt.Errorf("headline %q bound to unknown query %q", h.Title, label))
			continue
		}
		if !slices.Contains(entry.Columns, h.Column) {
			errs = append(errs, &BindingError{Title: h.Title, Column: h.Column, Reason: "is not declared by " + label})
		}
	}

	return errors.Join(errs...)
}
