// Package extractor obtains validated, schema-complete extraction results
// from the external service, one call at a time, under the shared rate
// limit and retry budget.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/brunobiangulo/callsight/llm"
)

// Config controls retry and generation behavior for the orchestrator.
type Config struct {
	// MaxAttempts is the total number of attempts per call, including the
	// first. Defaults to 3.
	MaxAttempts int

	// BackoffBase is the delay before the first retry; it doubles on each
	// subsequent retry. Defaults to 1s.
	BackoffBase time.Duration

	// Temperature and MaxOutputTokens are forwarded to the service. A low
	// temperature keeps the structured output stable across runs.
	Temperature     float64
	MaxOutputTokens int
}

// Orchestrator drives the request lifecycle for one transcript at a time:
// wait for the rate gate, issue the request, validate the response, retry
// transient failures with exponential backoff. It never parallelizes
// requests; the gate's quota is shared.
type Orchestrator struct {
	provider llm.Provider
	gate     *Gate
	cfg      Config
	sleep    func(context.Context, time.Duration) error
}

// New creates an orchestrator around the given provider and rate gate.
func New(provider llm.Provider, gate *Gate, cfg Config) *Orchestrator {
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BackoffBase == 0 {
		cfg.BackoffBase = time.Second
	}
	return &Orchestrator{provider: provider, gate: gate, cfg: cfg, sleep: sleepCtx}
}

// Extract obtains a validated extraction result for one normalized
// transcript. Transient failures (network errors, retryable statuses,
// unparseable responses) are retried up to cfg.MaxAttempts total attempts;
// non-retryable failures such as authentication errors terminate
// immediately. The returned error is terminal: the caller records the call
// with defaults and a failure marker.
func (o *Orchestrator) Extract(ctx context.Context, text, language string) (Result, *Report, error) {
	prompt := buildPrompt(text, language)

	var lastErr error
	for attempt := 1; attempt <= o.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := o.cfg.BackoffBase << (attempt - 2)
			// A rate-limit rejection may carry a longer server-side hint.
			var apiErr *llm.APIError
			if errors.As(lastErr, &apiErr) && apiErr.RetryAfter > delay {
				delay = apiErr.RetryAfter
			}
			slog.Warn("extractor: retrying request",
				"attempt", attempt,
				"max_attempts", o.cfg.MaxAttempts,
				"delay", delay,
				"error", lastErr,
			)
			if err := o.sleep(ctx, delay); err != nil {
				return Result{}, nil, err
			}
		}

		if err := o.gate.Wait(ctx); err != nil {
			return Result{}, nil, err
		}
		resp, err := o.provider.Chat(ctx, llm.ChatRequest{
			Messages:    []llm.Message{{Role: "user", Content: prompt}},
			Temperature: o.cfg.Temperature,
			MaxTokens:   o.cfg.MaxOutputTokens,
		})
		o.gate.Done()

		if err != nil {
			if !llm.IsTransient(err) {
				return Result{}, nil, fmt.Errorf("extraction request failed: %w", err)
			}
			lastErr = err
			continue
		}

		result, report, verr := Validate(resp.Content)
		if verr != nil {
			// The response parses as nothing: treat like any other
			// transient service fault.
			lastErr = verr
			continue
		}
		return result, report, nil
	}

	return Result{}, nil, fmt.Errorf("extraction failed after %d attempts: %w", o.cfg.MaxAttempts, lastErr)
}
