// Package storage provides the persistent gazetteer lexicon used for gender
// and number lookups of mentions the closed tables cannot classify.
//
// Backends live in the sqlite and postgres subpackages and share the
// candidate and selection rules defined here, so every backend answers a
// lookup the same way.
package storage

import (
	"context"
)

// LexiconStore is a persistent gazetteer lexicon.
type LexiconStore interface {
	// Lookup returns the best entry for text: an exact entry first, then the
	// longest matching suffix entry, then the longest matching prefix entry.
	// Returns ErrNotFound when nothing matches.
	Lookup(ctx context.Context, text string) (*Entry, error)

	// Import upserts entries and returns how many were written. Entries are
	// validated first; an invalid entry aborts the import with nothing written.
	Import(ctx context.Context, entries []Entry) (int, error)

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)

	// Close releases the backend.
	Close() error
}
