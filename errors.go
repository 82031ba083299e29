package callsight

import "errors"

var (
	// ErrInvalidConfig is returned for configuration problems that make the
	// whole batch impossible (missing credential, unknown provider). It is
	// the only error class that propagates out of a run.
	ErrInvalidConfig = errors.New("callsight: invalid configuration")

	// ErrMissingTranscript marks a call whose romanized transcript is missing
	// or empty. The pipeline never fabricates text to extract from.
	ErrMissingTranscript = errors.New("callsight: romanized transcript missing or empty")
)
