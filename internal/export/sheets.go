package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"spendview/internal/core"
	"spendview/internal/log"
)

// SheetsExporter replaces the contents of one Google Sheets tab with a result table.
type SheetsExporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger
}

// SheetsConfig selects the target spreadsheet and service-account credentials.
type SheetsConfig struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
}

func (c SheetsConfig) Enabled() bool {
	return strings.TrimSpace(c.SpreadsheetID) != ""
}

// NewSheetsExporter creates an exporter using service-account credentials.
// Extra options are appended after the credentials, which lets tests point
// the client at a local server.
func NewSheetsExporter(ctx context.Context, cfg SheetsConfig, logger *log.Logger, extra ...goption.ClientOption) (*SheetsExporter, error) {
	if !cfg.Enabled() {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if logger == nil {
		logger = log.Discard()
	}

	var options []goption.ClientOption
	if len(extra) == 0 {
		credentialsJSON, err := serviceAccountCredentials(cfg)
		if err != nil {
			return nil, err
		}
		options = append(options,
			goption.WithCredentialsJSON(credentialsJSON),
			goption.WithScopes(gsheet.SpreadsheetsScope))
	}
	options = append(options, extra...)

	svc, err := gsheet.NewService(ctx, options...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	sheetName := strings.TrimSpace(cfg.SheetName)
	if sheetName == "" {
		sheetName = "Spendview"
	}

	return &SheetsExporter{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     sheetName,
		logger:        logger.WithComponent(log.ComponentSheets),
	}, nil
}

func serviceAccountCredentials(cfg SheetsConfig) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.ServiceAccountJSON) != "":
		return []byte(cfg.ServiceAccountJSON), nil
	case strings.TrimSpace(cfg.ServiceAccountFile) != "":
		data, err := os.ReadFile(cfg.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	}
	return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
}

// Export implements ports.SheetExporter. Row 1 holds the title, row 2 the header.
func (e *SheetsExporter) Export(ctx context.Context, title string, table core.ResultTable) (string, error) {
	clearRange := fmt.Sprintf("'%s'!A:ZZ", e.sheetName)
	if _, err := e.svc.Spreadsheets.Values.Clear(e.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("clear sheet %s: %w", e.sheetName, err)
	}

	values := append([][]any{{title}}, toSheetValues(table)...)
	vr := &gsheet.ValueRange{Values: values}
	resp, err := e.svc.Spreadsheets.Values.Update(e.spreadsheetID, fmt.Sprintf("'%s'!A1", e.sheetName), vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("update sheet %s: %w", e.sheetName, err)
	}

	e.logger.InfoContext(ctx, "Exported result to Google Sheets",
		log.FieldQueryLabel, title,
		log.FieldRows, table.Len(),
		"range", resp.UpdatedRange)

	return resp.UpdatedRange, nil
}

// toSheetValues converts the table, header first, into the Sheets API grid.
func toSheetValues(table core.ResultTable) [][]any {
	out := make([][]any, 0, table.Len()+1)

	header := make([]any, len(table.Columns))
	for i, c := range table.Columns {
		header[i] = c
	}
	out = append(out, header)

	for _, row := range table.Rows {
		cells := make([]any, len(row))
		for i, v := range row {
			switch x := v.(type) {
			case nil:
				cells[i] = ""
			case int64, float64, bool:
				cells[i] = x
			default:
				cells[i] = core.FormatValue(x)
			}
		}
		out = append(out, cells)
	}
	return out
}
