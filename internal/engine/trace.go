package engine

import "time"

// TraceEventKind classifies each trace event by type.
type TraceEventKind string

const (
	// KindResolveStarted is emitted at the beginning of a resolution.
	KindResolveStarted TraceEventKind = "resolve_started"

	// KindMentionsDetected is emitted once mentions are detected and enhanced.
	KindMentionsDetected TraceEventKind = "mentions_detected"

	// KindLinked is emitted for every pair a sieve links.
	KindLinked TraceEventKind = "linked"

	// KindSieveApplied is emitted after each sieve finishes.
	KindSieveApplied TraceEventKind = "sieve_applied"

	// KindClustersPruned is emitted after singleton clusters are dropped.
	KindClustersPruned TraceEventKind = "clusters_pruned"

	// KindClustersMerged is emitted after intersecting clusters are folded.
	KindClustersMerged TraceEventKind = "clusters_merged"

	// KindReferencesEmitted is emitted with the final reference identities.
	KindReferencesEmitted TraceEventKind = "references_emitted"
)

// TraceEvent is a single structured event emitted during a resolution.
type TraceEvent struct {
	// Kind identifies the event type.
	Kind TraceEventKind `json:"kind"`

	// At is the wall-clock time the event was recorded.
	At time.Time `json:"at"`

	// DocumentID is populated in resolve_started.
	DocumentID string `json:"document_id,omitempty"`

	// Sieve names the stage for linked and sieve_applied events.
	Sieve string `json:"sieve,omitempty"`

	// Count is the mention count, link count or cluster count of the event.
	Count int `json:"count,omitempty"`

	// Removed is the number of clusters dropped or absorbed.
	Removed int `json:"removed,omitempty"`

	// Pair holds the two linked mentions, rendered as text.
	Pair []string `json:"pair,omitempty"`

	// References lists the emitted reference identities.
	References []string `json:"references,omitempty"`
}

// newTraceEvent is a convenience constructor that timestamps the event.
func newTraceEvent(kind TraceEventKind) TraceEvent {
	return TraceEvent{Kind: kind, At: time.Now()}
}

// EventResolveStarted creates a resolve_started trace event.
func EventResolveStarted(documentID string) TraceEvent {
	e := newTraceEvent(KindResolveStarted)
	e.DocumentID = documentID
	return e
}

// EventMentionsDetected creates a mentions_detected trace event.
func EventMentionsDetected(count int) TraceEvent {
	e := newTraceEvent(KindMentionsDetected)
	e.Count = count
	return e
}

// EventLinked creates a linked trace event.
func EventLinked(sieve, a, b string) TraceEvent {
	e := newTraceEvent(KindLinked)
	e.Sieve = sieve
	e.Pair = []string{a, b}
	return e
}

// EventSieveApplied creates a sieve_applied trace event.
func EventSieveApplied(sieve string, links int) TraceEvent {
	e := newTraceEvent(KindSieveApplied)
	e.Sieve = sieve
	e.Count = links
	return e
}

// EventClustersPruned creates a clusters_pruned trace event.
func EventClustersPruned(kept, removed int) TraceEvent {
	e := newTraceEvent(KindClustersPruned)
	e.Count = kept
	e.Removed = removed
	return e
}

// EventClustersMerged creates a clusters_merged trace event.
func EventClustersMerged(kept, absorbed int) TraceEvent {
	e := newTraceEvent(KindClustersMerged)
	e.Count = kept
	e.Removed = absorbed
	return e
}

// EventReferencesEmitted creates a references_emitted trace event.
func EventReferencesEmitted(refs []string) TraceEvent {
	e := newTraceEvent(KindReferencesEmitted)
	e.References = refs
	e.Count = len(refs)
	return e
}
