// Package export writes result tables to spreadsheet formats.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"spendview/internal/core"
)

// XLSXContentType is the MIME type of WriteXLSX output.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const maxSheetName = 31

// WriteXLSX writes table as a single-sheet workbook named after title.
// Numbers and dates keep their cell types so they stay sortable in Excel.
func WriteXLSX(w io.Writer, title string, table core.ResultTable) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := SheetName(title)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	numberStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return fmt.Errorf("create number style: %w", err)
	}
	dateStyle, err := f.NewStyle(&excelize.Style{NumFmt: 14}) // mm-dd-yy
	if err != nil {
		return fmt.Errorf("create date style: %w", err)
	}

	for col, name := range table.Columns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		f.SetCellValue(sheet, cell, name)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for r, row := range table.Rows {
		for col, v := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, r+2)
			if err != nil {
				return err
			}
			switch x := v.(type) {
			case nil:
				continue
			case float64:
				f.SetCellValue(sheet, cell, x)
				f.SetCellStyle(sheet, cell, cell, numberStyle)
			case time.Time:
				f.SetCellValue(sheet, cell, x)
				f.SetCellStyle(sheet, cell, cell, dateStyle)
			case int64, bool:
				f.SetCellValue(sheet, cell, x)
			default:
				f.SetCellValue(sheet, cell, core.FormatValue(x))
			}
		}
	}

	for col := range table.Columns {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		f.SetColWidth(sheet, name, name, 18)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// SheetName makes title usable as a worksheet name.
func SheetName(title string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', ':', '*', '?', '/', '\\':
			return '-'
		}
		return r
	}, strings.TrimSpace(title))
	name = strings.Trim(name, "'")
	if r := []rune(name); len(r) > maxSheetName {
		name = string(r[:maxSheetName])
	}
	if name == "" {
		return "Result"
	}
	return name
}

// Filename returns a download name such as "monthly-spending.xlsx".
func Filename(slug string) string {
	if slug == "" {
		slug = "result"
	}
	return slug + ".xlsx"
}
