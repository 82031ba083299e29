package extractor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brunobiangulo/callsight/llm"
)

// fakeProvider returns canned responses or errors in sequence. Once the
// script is exhausted the last entry repeats.
type fakeProvider struct {
	script []fakeTurn
	calls  int
}

type fakeTurn struct {
	content string
	err     error
}

func (f *fakeProvider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	i := f.calls
	if i >= len(f.script) {
		i = len(f.script) - 1
	}
	f.calls++
	turn := f.script[i]
	if turn.err != nil {
		return nil, turn.err
	}
	return &llm.ChatResponse{Content: turn.content}, nil
}

// newTestOrchestrator wires an orchestrator with instant sleeps and an
// open gate so retry behavior can be observed without wall-clock delays.
func newTestOrchestrator(p llm.Provider, cfg Config) *Orchestrator {
	o := New(p, newTestGate(0), cfg)
	o.sleep = func(ctx context.Context, d time.Duration) error { return ctx.Err() }
	return o
}

func newTestGate(interval time.Duration) *Gate {
	g := NewGate(interval)
	g.sleep = func(ctx context.Context, d time.Duration) error { return ctx.Err() }
	return g
}

func TestExtractSuccessFirstAttempt(t *testing.T) {
	p := &fakeProvider{script: []fakeTurn{{content: `{"intent": "test drive"}`}}}
	o := newTestOrchestrator(p, Config{})

	res, rep, err := o.Extract(context.Background(), "Customer: hello", "Hindi")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Intent != "test drive" {
		t.Errorf("intent = %q, want %q", res.Intent, "test drive")
	}
	if res.ExtractionStatus != StatusSuccess {
		t.Errorf("status = %q, want %q", res.ExtractionStatus, StatusSuccess)
	}
	if rep == nil {
		t.Error("expected a validation report")
	}
	if p.calls != 1 {
		t.Errorf("calls = %d, want 1", p.calls)
	}
}

func TestExtractPermanentFailureThreeAttempts(t *testing.T) {
	p := &fakeProvider{script: []fakeTurn{{err: errors.New("connection refused")}}}
	o := newTestOrchestrator(p, Config{})

	_, _, err := o.Extract(context.Background(), "text", "Hindi")
	if err == nil {
		t.Fatal("expected error for permanently failing service")
	}
	if p.calls != 3 {
		t.Errorf("attempts = %d, want exactly 3", p.calls)
	}
}

func TestExtractMalformedResponseRetried(t *testing.T) {
	p := &fakeProvider{script: []fakeTurn{
		{content: "sorry, no JSON here"},
		{content: "```\nstill nothing\n```"},
		{content: `{"intent": "complaint"}`},
	}}
	o := newTestOrchestrator(p, Config{})

	res, _, err := o.Extract(context.Background(), "text", "Tamil")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Intent != "complaint" {
		t.Errorf("intent = %q, want %q", res.Intent, "complaint")
	}
	if p.calls != 3 {
		t.Errorf("attempts = %d, want 3", p.calls)
	}
}

func TestExtractMalformedThreeTimesFails(t *testing.T) {
	p := &fakeProvider{script: []fakeTurn{{content: "not json"}}}
	o := newTestOrchestrator(p, Config{})

	_, _, err := o.Extract(context.Background(), "text", "Hindi")
	if !errors.Is(err, ErrNotParseable) {
		t.Errorf("error = %v, want wrapped ErrNotParseable", err)
	}
	if p.calls != 3 {
		t.Errorf("attempts = %d, want exactly 3", p.calls)
	}
}

func TestExtractAuthErrorNoRetries(t *testing.T) {
	p := &fakeProvider{script: []fakeTurn{{err: &llm.APIError{StatusCode: 401, Body: "bad key"}}}}
	o := newTestOrchestrator(p, Config{})

	_, _, err := o.Extract(context.Background(), "text", "Hindi")
	if err == nil {
		t.Fatal("expected error")
	}
	if p.calls != 1 {
		t.Errorf("attempts = %d, want 1 for non-retryable failure", p.calls)
	}
}

func TestExtractBackoffSchedule(t *testing.T) {
	p := &fakeProvider{script: []fakeTurn{{err: errors.New("timeout")}}}
	o := New(p, newTestGate(0), Config{MaxAttempts: 3, BackoffBase: time.Second})

	var delays []time.Duration
	o.sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	o.Extract(context.Background(), "text", "Hindi")
	want := []time.Duration{time.Second, 2 * time.Second}
	if len(delays) != len(want) {
		t.Fatalf("delays = %v, want %v", delays, want)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("delay[%d] = %v, want %v", i, delays[i], want[i])
		}
	}
}

func TestExtractHonorsRetryAfter(t *testing.T) {
	p := &fakeProvider{script: []fakeTurn{
		{err: &llm.APIError{StatusCode: 429, RetryAfter: 10 * time.Second}},
		{content: `{"intent": "sales"}`},
	}}
	o := New(p, newTestGate(0), Config{MaxAttempts: 3, BackoffBase: time.Second})

	var delays []time.Duration
	o.sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	_, _, err := o.Extract(context.Background(), "text", "Hindi")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(delays) != 1 || delays[0] != 10*time.Second {
		t.Errorf("delays = %v, want [10s] from Retry-After hint", delays)
	}
}

func TestExtractContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &fakeProvider{script: []fakeTurn{{content: `{}`}}}
	o := newTestOrchestrator(p, Config{})

	_, _, err := o.Extract(ctx, "text", "Hindi")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if p.calls != 0 {
		t.Errorf("calls = %d, want 0 after cancellation", p.calls)
	}
}

func TestGateSpacing(t *testing.T) {
	now := time.Unix(1000, 0)
	var waits []time.Duration

	g := NewGate(4 * time.Second)
	g.now = func() time.Time { return now }
	g.sleep = func(ctx context.Context, d time.Duration) error {
		if d > 0 {
			waits = append(waits, d)
			now = now.Add(d)
		}
		return nil
	}

	ctx := context.Background()

	// First request goes through immediately.
	if err := g.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	g.Done()
	if len(waits) != 0 {
		t.Fatalf("first request should not wait, got %v", waits)
	}

	// One second of work, then the next request must wait out the rest
	// of the interval.
	now = now.Add(time.Second)
	if err := g.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	g.Done()
	if len(waits) != 1 || waits[0] != 3*time.Second {
		t.Errorf("waits = %v, want [3s]", waits)
	}

	// If more than the interval has already passed, no wait at all.
	now = now.Add(10 * time.Second)
	if err := g.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	g.Done()
	if len(waits) != 1 {
		t.Errorf("waits = %v, want no additional waits", waits)
	}
}
