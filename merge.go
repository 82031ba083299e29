package callsight

import (
	"github.com/brunobiangulo/callsight/extractor"
	"github.com/brunobiangulo/callsight/patterns"
)

// Record is one flat output row: the 23 validated service fields, the four
// pattern-finding columns, and the call id — 28 columns once serialized.
// Records are immutable after creation.
type Record struct {
	CallID   string            `json:"call_id"`
	Result   extractor.Result  `json:"result"`
	Findings patterns.Findings `json:"findings"`
}

// Merge combines a validated extraction result with pattern findings into
// one record. Service-derived fields are authoritative for the semantic
// columns; pattern findings are additive evidence in their own columns and
// never overwrite them. No reconciliation between overlapping fields (e.g.
// the service's phone_number and the regex findings) happens here — both
// are surfaced for downstream analysis.
func Merge(result extractor.Result, findings patterns.Findings, callID string) Record {
	return Record{
		CallID:   callID,
		Result:   result,
		Findings: findings,
	}
}
