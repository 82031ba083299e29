package report

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/brunobiangulo/callsight"
	"github.com/brunobiangulo/callsight/extractor"
	"github.com/brunobiangulo/callsight/patterns"
)

func TestColumnsContract(t *testing.T) {
	if len(Columns) != 28 {
		t.Fatalf("len(Columns) = %d, want 28", len(Columns))
	}
	if Columns[0] != "call_id" {
		t.Errorf("Columns[0] = %q, want call_id", Columns[0])
	}
	if Columns[22] != "extraction_status" || Columns[23] != "error_message" {
		t.Errorf("status columns misplaced: %q, %q", Columns[22], Columns[23])
	}
	if Columns[27] != "regex_dates" {
		t.Errorf("Columns[27] = %q, want regex_dates", Columns[27])
	}
}

func TestRowWidth(t *testing.T) {
	// A zero-value record must still fill every column.
	row := Row(callsight.Record{})
	if len(row) != len(Columns) {
		t.Fatalf("len(Row) = %d, want %d", len(row), len(Columns))
	}
}

func TestWrite(t *testing.T) {
	res := extractor.Defaults()
	res.CallSummary = "customer asked about Nexon pricing"
	res.Intent = "inquiry"
	res.SentimentScore = 0.75
	res.IsLead = true
	res.ExtractionStatus = extractor.StatusSuccess

	rec := callsight.Merge(res, patterns.Findings{
		PhoneNumbers: []string{"9876543210"},
		CarModels:    []string{"Nexon"},
	}, "call-1")

	failed := extractor.Defaults()
	failed.ExtractionStatus = extractor.StatusFailed
	failed.ErrorMessage = "empty transcript"
	rec2 := callsight.Merge(failed, patterns.Findings{}, "call-2")

	var buf bytes.Buffer
	if err := Write(&buf, []callsight.Record{rec, rec2}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parsing output: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}

	header := rows[0]
	byName := func(row []string, name string) string {
		for i, c := range header {
			if c == name {
				return row[i]
			}
		}
		t.Fatalf("column %q not in header", name)
		return ""
	}

	if got := byName(rows[1], "call_id"); got != "call-1" {
		t.Errorf("call_id = %q", got)
	}
	if got := byName(rows[1], "sentiment_score"); got != "0.75" {
		t.Errorf("sentiment_score = %q", got)
	}
	if got := byName(rows[1], "is_lead"); got != "true" {
		t.Errorf("is_lead = %q", got)
	}
	if got := byName(rows[1], "regex_car_models"); got != "Nexon" {
		t.Errorf("regex_car_models = %q", got)
	}
	if got := byName(rows[2], "extraction_status"); got != "failed" {
		t.Errorf("extraction_status = %q", got)
	}
	if got := byName(rows[2], "error_message"); got != "empty transcript" {
		t.Errorf("error_message = %q", got)
	}
}

func TestWriteJoinsListColumns(t *testing.T) {
	rec := callsight.Merge(extractor.Defaults(), patterns.Findings{
		PhoneNumbers: []string{"9876543210", "9123456789"},
		Amounts:      []string{"₹12 lakh", "50,000 rupees"},
	}, "c")

	var buf bytes.Buffer
	if err := Write(&buf, []callsight.Record{rec}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parsing output: %v", err)
	}
	row := rows[1]
	if row[24] != "9876543210, 9123456789" {
		t.Errorf("regex_phone_numbers = %q", row[24])
	}
	if row[25] != "₹12 lakh, 50,000 rupees" {
		t.Errorf("regex_amounts = %q", row[25])
	}
}

func TestWriteFileCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "outputs", "extracted_calls.csv")
	if err := WriteFile(path, nil); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("parsing output: %v", err)
	}
	if len(rows) != 1 || len(rows[0]) != 28 {
		t.Errorf("empty report should still carry the 28-column header, got %d rows", len(rows))
	}
}
