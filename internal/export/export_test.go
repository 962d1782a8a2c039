package export

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	goption "google.golang.org/api/option"

	"spendview/internal/core"
)

var monthly = core.ResultTable{
	Columns: []string{"Date", "Category", "Total_Spent"},
	Rows: []core.Row{
		{time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), "Food", 1234.5},
		{time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC), "Travel", nil},
		{time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC), "Gifts", int64(3)},
	},
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, "Daily Spending: Trend", monthly); err != nil {
		t.Fatalf("WriteXLSX() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 1 || sheets[0] != "Daily Spending- Trend" {
		t.Fatalf("sheets = %q", sheets)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want 4", len(rows))
	}
	if !reflect.DeepEqual(rows[0], monthly.Columns) {
		t.Errorf("header = %q", rows[0])
	}
	if rows[1][1] != "Food" {
		t.Errorf("B2 = %q", rows[1][1])
	}

	raw, err := f.GetCellValue(sheets[0], "C2", excelize.Options{RawCellValue: true})
	if err != nil || raw != "1234.5" {
		t.Errorf("C2 raw = %q, %v", raw, err)
	}
	if v, _ := f.GetCellValue(sheets[0], "C3"); v != "" {
		t.Errorf("NULL cell = %q, want empty", v)
	}
}

func TestSheetName(t *testing.T) {
	tests := map[string]string{
		"Monthly Spending":                 "Monthly Spending",
		"Transactions with Cashback > 500": "Transactions with Cashback > 50",
		"a/b\\c[d]:e*f?":                   "a-b-c-d--e-f-",
		"  ":                               "Result",
		"'quoted'":                         "quoted",
	}
	for in, want := range tests {
		got := SheetName(in)
		if len([]rune(got)) > maxSheetName {
			t.Errorf("SheetName(%q) too long: %q", in, got)
		}
		if got != want {
			t.Errorf("SheetName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFilename(t *testing.T) {
	if got := Filename("monthly-spending"); got != "monthly-spending.xlsx" {
		t.Errorf("Filename() = %q", got)
	}
	if got := Filename(""); got != "result.xlsx" {
		t.Errorf("Filename(\"\") = %q", got)
	}
}

func TestToSheetValues(t *testing.T) {
	got := toSheetValues(monthly)
	want := [][]any{
		{"Date", "Category", "Total_Spent"},
		{"2024-01-05", "Food", 1234.5},
		{"2024-01-06", "Travel", ""},
		{"2024-01-07", "Gifts", int64(3)},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("toSheetValues() = %#v\nwant %#v", got, want)
	}
}

func TestSheetsExporter(t *testing.T) {
	var (
		mu      sync.Mutex
		calls   []string
		written struct {
			Values [][]any `json:"values"`
		}
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, r.Method)

		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":clear"):
			io.WriteString(w, `{"spreadsheetId":"sheet-1","clearedRange":"Spendview!A1:ZZ100"}`)
		case r.Method == http.MethodPut:
			if got := r.URL.Query().Get("valueInputOption"); got != "RAW" {
				t.Errorf("valueInputOption = %q", got)
			}
			if err := json.NewDecoder(r.Body).Decode(&written); err != nil {
				t.Errorf("decode body: %v", err)
			}
			io.WriteString(w, `{"spreadsheetId":"sheet-1","updatedRange":"Spendview!A1:C5"}`)
		default:
			http.Error(w, "unexpected "+r.Method+" "+r.URL.Path, http.StatusBadRequest)
		}
	}))
	defer srv.Close()

	exp, err := NewSheetsExporter(context.Background(), SheetsConfig{SpreadsheetID: "sheet-1"}, nil,
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()),
		goption.WithoutAuthentication())
	if err != nil {
		t.Fatalf("NewSheetsExporter() error = %v", err)
	}

	ref, err := exp.Export(context.Background(), "Daily Spending Trend", monthly)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if ref != "Spendview!A1:C5" {
		t.Errorf("range = %q", ref)
	}
	if !reflect.DeepEqual(calls, []string{http.MethodPost, http.MethodPut}) {
		t.Errorf("calls = %v, want clear then update", calls)
	}
	if len(written.Values) != 5 || written.Values[0][0] != "Daily Spending Trend" || written.Values[1][0] != "Date" {
		t.Errorf("written = %v", written.Values)
	}
}

func TestNewSheetsExporterRequiresConfig(t *testing.T) {
	if _, err := NewSheetsExporter(context.Background(), SheetsConfig{}, nil); err == nil {
		t.Error("missing spreadsheet ID should fail")
	}
	if _, err := NewSheetsExporter(context.Background(), SheetsConfig{SpreadsheetID: "x"}, nil); err == nil {
		t.Error("missing credentials should fail")
	}
}
