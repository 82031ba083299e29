// Package callsight turns raw call-center transcripts into flat, tabular
// records by combining an external extraction service with deterministic
// pattern matching. Calls are processed strictly one at a time: the
// service quota is shared, so the pipeline never issues concurrent
// requests.
package callsight

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/brunobiangulo/callsight/extractor"
	"github.com/brunobiangulo/callsight/llm"
	"github.com/brunobiangulo/callsight/patterns"
	"github.com/brunobiangulo/callsight/store"
	"github.com/brunobiangulo/callsight/transcript"
)

// CallInput is one call record as supplied by the spreadsheet reader.
// Immutable; the pipeline never writes back to it.
type CallInput struct {
	ID                  string `json:"id"`
	Language            string `json:"language"`
	RawTranscript       string `json:"raw_transcript"`
	RomanizedTranscript string `json:"romanized_transcript"`
}

// Option configures pipeline construction.
type Option func(*options)

type options struct {
	provider llm.Provider
}

// WithProvider injects an extraction service implementation, replacing the
// one built from Config.Extraction. Used to substitute a deterministic stub
// in tests; the retry and rate-limit contract around it is unchanged.
func WithProvider(p llm.Provider) Option {
	return func(o *options) { o.provider = p }
}

// Pipeline is the transcript extraction and enrichment pipeline.
type Pipeline struct {
	cfg      Config
	orch     *extractor.Orchestrator
	patterns *patterns.Extractor
	store    *store.Store
}

// New creates a pipeline from configuration. Configuration problems (unknown
// provider, missing credential, unusable database path) fail here, before
// any call is processed.
func New(cfg Config, opts ...Option) (*Pipeline, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	// Apply defaults for zero values.
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BackoffBaseSeconds == 0 {
		cfg.BackoffBaseSeconds = 1
	}
	if cfg.MaxOutputTokens == 0 {
		cfg.MaxOutputTokens = 2048
	}

	provider := o.provider
	if provider == nil {
		if needsAPIKey(cfg.Extraction.Provider) && cfg.Extraction.APIKey == "" {
			return nil, fmt.Errorf("%w: missing API key for provider %q", ErrInvalidConfig, cfg.Extraction.Provider)
		}
		p, err := llm.NewProvider(llm.Config{
			Provider: cfg.Extraction.Provider,
			Model:    cfg.Extraction.Model,
			BaseURL:  cfg.Extraction.BaseURL,
			APIKey:   cfg.Extraction.APIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		provider = p
	}

	gate := extractor.NewGate(time.Duration(cfg.RateIntervalSeconds) * time.Second)
	orch := extractor.New(provider, gate, extractor.Config{
		MaxAttempts:     cfg.MaxAttempts,
		BackoffBase:     time.Duration(cfg.BackoffBaseSeconds) * time.Second,
		Temperature:     cfg.Temperature,
		MaxOutputTokens: cfg.MaxOutputTokens,
	})

	var st *store.Store
	if cfg.DBPath != "" {
		s, err := store.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		st = s
	}

	return &Pipeline{
		cfg:      cfg,
		orch:     orch,
		patterns: patterns.New(cfg.ExtraCarModels...),
		store:    st,
	}, nil
}

// needsAPIKey reports whether a provider cannot work without a credential.
// Local and self-hosted endpoints may run unauthenticated.
func needsAPIKey(provider string) bool {
	switch provider {
	case "ollama", "custom":
		return false
	}
	return true
}

// Close releases the pipeline's resources.
func (p *Pipeline) Close() error {
	if p.store != nil {
		return p.store.Close()
	}
	return nil
}

// Process runs the full pipeline for a single call: normalize, pattern
// extraction, orchestrated service extraction, merge. It never returns an
// error — every failure is contained in the record's status and error
// fields, so one bad call cannot take down a batch.
func (p *Pipeline) Process(ctx context.Context, in CallInput) Record {
	if strings.TrimSpace(in.RomanizedTranscript) == "" {
		res := extractor.Defaults()
		res.ExtractionStatus = extractor.StatusFailed
		res.ErrorMessage = "empty transcript"
		return Merge(res, patterns.Findings{}, in.ID)
	}

	text := transcript.Normalize(in.RomanizedTranscript)
	findings := p.patterns.Extract(text)

	result, report, err := p.orch.Extract(ctx, text, in.Language)
	if err != nil {
		slog.Error("extraction failed", "call_id", in.ID, "error", err)
		result = extractor.Defaults()
		result.ExtractionStatus = extractor.StatusLLMFailed
		result.ErrorMessage = err.Error()
	} else if report != nil && len(report.Defaulted)+len(report.Coerced) > 0 {
		slog.Debug("response fields repaired",
			"call_id", in.ID, "defaulted", report.Defaulted, "coerced", report.Coerced)
	}

	return Merge(result, findings, in.ID)
}

// Run processes inputs strictly in order, one at a time, and returns one
// record per input in the same order. Per-call failures never halt the
// batch. Cancellation is honored between calls: on a canceled context Run
// returns the records completed so far together with the context error.
func (p *Pipeline) Run(ctx context.Context, inputs []CallInput) ([]Record, error) {
	var runID int64
	if p.store != nil {
		id, err := p.store.BeginRun(ctx, "", len(inputs))
		if err != nil {
			slog.Warn("run logging disabled", "error", err)
		} else {
			runID = id
		}
	}

	records := make([]Record, 0, len(inputs))
	for i, in := range inputs {
		select {
		case <-ctx.Done():
			p.finishRun(runID, records)
			return records, ctx.Err()
		default:
		}

		slog.Info("processing call",
			"index", i, "total", len(inputs), "call_id", in.ID, "language", in.Language)
		rec := p.Process(ctx, in)
		records = append(records, rec)

		if p.store != nil && runID != 0 {
			if err := p.store.LogCall(ctx, toStoreCall(runID, in, rec)); err != nil {
				slog.Warn("logging call failed", "call_id", in.ID, "error", err)
			}
		}
	}

	p.finishRun(runID, records)
	return records, nil
}

func (p *Pipeline) finishRun(runID int64, records []Record) {
	if p.store == nil || runID == 0 {
		return
	}
	var succeeded int
	for _, r := range records {
		if r.Result.ExtractionStatus == extractor.StatusSuccess {
			succeeded++
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.store.FinishRun(ctx, runID, succeeded, len(records)-succeeded); err != nil {
		slog.Warn("finishing run failed", "run_id", runID, "error", err)
	}
}

func toStoreCall(runID int64, in CallInput, rec Record) store.Call {
	blob, _ := json.Marshal(rec)
	return store.Call{
		RunID:          runID,
		CallID:         rec.CallID,
		Language:       in.Language,
		Status:         rec.Result.ExtractionStatus,
		ErrorMessage:   rec.Result.ErrorMessage,
		Intent:         rec.Result.Intent,
		IssueCategory:  rec.Result.IssueCategory,
		Sentiment:      rec.Result.Sentiment,
		SentimentScore: rec.Result.SentimentScore,
		IsLead:         rec.Result.IsLead,
		Priority:       rec.Result.Priority,
		Urgency:        rec.Result.Urgency,
		CarModel:       rec.Result.CarModel,
		Record:         string(blob),
	}
}
