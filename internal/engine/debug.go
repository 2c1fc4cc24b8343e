package engine

import (
	"context"
	"time"

	"github.com/scrypster/coref/pkg/types"
)

// contextKey is an unexported type for context keys owned by this package.
type contextKey string

const traceKey contextKey = "resolve_trace"

// TraceCollector accumulates TraceEvents for a single resolution.
type TraceCollector struct {
	events    []TraceEvent
	startedAt time.Time
}

// NewTraceCollector returns a fresh collector.
func NewTraceCollector() *TraceCollector {
	return &TraceCollector{startedAt: time.Now()}
}

// Emit appends an event to the collector.
func (tc *TraceCollector) Emit(e TraceEvent) {
	tc.events = append(tc.events, e)
}

// Events returns the collected events in emission order.
func (tc *TraceCollector) Events() []TraceEvent {
	return tc.events
}

// ElapsedMS returns the elapsed time since the collector was created, in milliseconds.
func (tc *TraceCollector) ElapsedMS() int64 {
	return time.Since(tc.startedAt).Milliseconds()
}

// WithTraceCollector stores a collector in the context.
func WithTraceCollector(ctx context.Context, tc *TraceCollector) context.Context {
	return context.WithValue(ctx, traceKey, tc)
}

// TraceCollectorFromContext retrieves the collector from the context.
// Returns (nil, false) if none is present.
func TraceCollectorFromContext(ctx context.Context) (*TraceCollector, bool) {
	tc, ok := ctx.Value(traceKey).(*TraceCollector)
	return tc, ok
}

// emitToContext emits an event only when a collector is present in the context.
func emitToContext(ctx context.Context, e TraceEvent) {
	if tc, ok := TraceCollectorFromContext(ctx); ok {
		tc.Emit(e)
	}
}

// DebugResolveResult is the structured trace returned alongside a result
// when tracing is requested.
type DebugResolveResult struct {
	DocumentID string `json:"document_id,omitempty"`

	// MentionsDetected is the number of mentions entering the sieves.
	MentionsDetected int `json:"mentions_detected"`

	// Sieves lists every sieve run, in order, with its link count.
	Sieves []SieveEntry `json:"sieves"`

	// Links lists every pair linked, in order.
	Links []LinkEntry `json:"links"`

	// Pruned is the number of singleton clusters dropped.
	Pruned int `json:"pruned"`

	// Absorbed is the number of clusters folded into another by the merge.
	Absorbed int `json:"absorbed"`

	// References lists the emitted reference identities.
	References []string `json:"references"`

	// TimingMS is the total resolution duration in milliseconds.
	TimingMS int64 `json:"timing_ms"`
}

// SieveEntry is the outcome of one sieve.
type SieveEntry struct {
	Name  string `json:"name"`
	Links int    `json:"links"`
}

// LinkEntry is one pair linked by a sieve.
type LinkEntry struct {
	Sieve string `json:"sieve"`
	First string `json:"first"`
	Other string `json:"other"`
}

// BuildDebugResult converts collected trace events into a DebugResolveResult.
func BuildDebugResult(events []TraceEvent, elapsedMS int64) *DebugResolveResult {
	result := &DebugResolveResult{TimingMS: elapsedMS}

	for _, e := range events {
		switch e.Kind {
		case KindResolveStarted:
			result.DocumentID = e.DocumentID
		case KindMentionsDetected:
			result.MentionsDetected = e.Count
		case KindLinked:
			if len(e.Pair) == 2 {
				result.Links = append(result.Links, LinkEntry{Sieve: e.Sieve, First: e.Pair[0], Other: e.Pair[1]})
			}
		case KindSieveApplied:
			result.Sieves = append(result.Sieves, SieveEntry{Name: e.Sieve, Links: e.Count})
		case KindClustersPruned:
			result.Pruned += e.Removed
		case KindClustersMerged:
			result.Absorbed += e.Removed
		case KindReferencesEmitted:
			result.References = e.References
		}
	}

	// Guarantee non-nil slices for clean JSON output.
	if result.Sieves == nil {
		result.Sieves = []SieveEntry{}
	}
	if result.Links == nil {
		result.Links = []LinkEntry{}
	}
	if result.References == nil {
		result.References = []string{}
	}

	return result
}

// DebugResolve runs a fully-traced resolution and returns both the result
// and the collected debug information.
func (r *Resolver) DebugResolve(ctx context.Context, doc *types.Document) (*types.Result, *DebugResolveResult, error) {
	tc := NewTraceCollector()
	ctx = WithTraceCollector(ctx, tc)

	res, err := r.Resolve(ctx, doc)
	if err != nil {
		return nil, nil, err
	}
	return res, BuildDebugResult(tc.Events(), tc.ElapsedMS()), nil
}
