// Package report serializes merged records into the fixed 28-column CSV
// consumed by the dashboard. Column names and order are a stability
// contract: downstream consumers address columns by name.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/brunobiangulo/callsight"
)

// Columns is the output schema, in order: call id, the 23 validated
// extraction fields, then the four pattern-finding columns.
var Columns = []string{
	"call_id",
	"call_summary",
	"intent",
	"issue_category",
	"outcome",
	"sentiment",
	"sentiment_score",
	"customer_name",
	"agent_name",
	"showroom_name",
	"location",
	"car_model",
	"date_mentioned",
	"amount",
	"booking_id",
	"phone_number",
	"is_lead",
	"priority",
	"urgency",
	"next_action",
	"agent_performance",
	"additional_insights",
	"extraction_status",
	"error_message",
	"regex_phone_numbers",
	"regex_amounts",
	"regex_car_models",
	"regex_dates",
}

// Row flattens one record into CSV fields in Columns order. Every column is
// populated; empty fields serialize as empty strings, never go missing.
func Row(rec callsight.Record) []string {
	r := rec.Result
	f := rec.Findings
	return []string{
		rec.CallID,
		r.CallSummary,
		r.Intent,
		r.IssueCategory,
		r.Outcome,
		r.Sentiment,
		strconv.FormatFloat(r.SentimentScore, 'f', -1, 64),
		r.CustomerName,
		r.AgentName,
		r.ShowroomName,
		r.Location,
		r.CarModel,
		r.DateMentioned,
		r.Amount,
		r.BookingID,
		r.PhoneNumber,
		strconv.FormatBool(r.IsLead),
		r.Priority,
		r.Urgency,
		r.NextAction,
		r.AgentPerformance,
		r.AdditionalInsights,
		r.ExtractionStatus,
		r.ErrorMessage,
		joinList(f.PhoneNumbers),
		joinList(f.Amounts),
		joinList(f.CarModels),
		joinList(f.Dates),
	}
}

func joinList(items []string) string {
	return strings.Join(items, ", ")
}

// Write emits the header plus one row per record, preserving record order.
func Write(w io.Writer, records []callsight.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, rec := range records {
		if err := cw.Write(Row(rec)); err != nil {
			return fmt.Errorf("writing record %s: %w", rec.CallID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes the report to path, creating parent directories as
// needed.
func WriteFile(path string, records []callsight.Record) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := Write(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
