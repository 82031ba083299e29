// Package ingest reads call transcripts from spreadsheet workbooks.
package ingest

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/brunobiangulo/callsight"
)

// ErrMissingColumn is returned when a required header is absent from the
// workbook's first sheet.
var ErrMissingColumn = errors.New("ingest: required column not found")

// ReadWorkbook loads CallInputs from the first sheet of an xlsx workbook.
// The header row is matched case-insensitively with underscores treated as
// spaces. "Romanized Transcript" and "Language" are required; "Transcript"
// and "Call ID" are optional. Rows keep their sheet order; a row with an
// empty romanized transcript is still returned (the pipeline records it as
// a failed call rather than dropping the row).
func ReadWorkbook(path string) ([]callsight.CallInput, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrMissingColumn)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: sheet %s is empty", ErrMissingColumn, sheets[0])
	}

	cols := headerIndex(rows[0])
	langIdx, ok := cols["language"]
	if !ok {
		return nil, fmt.Errorf("%w: Language", ErrMissingColumn)
	}
	romIdx, ok := cols["romanized transcript"]
	if !ok {
		return nil, fmt.Errorf("%w: Romanized Transcript", ErrMissingColumn)
	}
	rawIdx := optionalColumn(cols, "transcript", "raw transcript")
	idIdx := optionalColumn(cols, "call id", "id")

	inputs := make([]callsight.CallInput, 0, len(rows)-1)
	for i, row := range rows[1:] {
		cell := func(idx int) string {
			if idx >= 0 && idx < len(row) {
				return strings.TrimSpace(row[idx])
			}
			return ""
		}
		id := cell(idIdx)
		if id == "" {
			id = strconv.Itoa(i)
		}
		inputs = append(inputs, callsight.CallInput{
			ID:                  id,
			Language:            cell(langIdx),
			RawTranscript:       cell(rawIdx),
			RomanizedTranscript: cell(romIdx),
		})
	}
	return inputs, nil
}

func headerIndex(header []string) map[string]int {
	m := make(map[string]int, len(header))
	for i, h := range header {
		key := canonicalHeader(h)
		if _, exists := m[key]; !exists {
			m[key] = i
		}
	}
	return m
}

func canonicalHeader(h string) string {
	h = strings.ReplaceAll(strings.ToLower(h), "_", " ")
	return strings.Join(strings.Fields(h), " ")
}

func optionalColumn(cols map[string]int, names ...string) int {
	for _, n := range names {
		if idx, ok := cols[n]; ok {
			return idx
		}
	}
	return -1
}
