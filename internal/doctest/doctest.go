// Package doctest builds annotated documents for tests from bracketed
// constituency trees, dependency head lists and entity surface strings.
package doctest

import (
	"strings"
	"testing"

	"github.com/scrypster/coref/internal/syntax"
	"github.com/scrypster/coref/pkg/types"
)

// Builder accumulates annotations on a parsed document.
type Builder struct {
	tb  testing.TB
	doc *types.Document
}

// New parses one or more bracketed trees into a document.
func New(tb testing.TB, trees string) *Builder {
	tb.Helper()
	doc, err := syntax.ParseBracketed(trees)
	if err != nil {
		tb.Fatalf("doctest: %v", err)
	}
	return &Builder{tb: tb, doc: doc}
}

// Heads sets one dependency per token: heads[i] is the governor of token i,
// -1 for a sentence root.
func (b *Builder) Heads(heads ...int) *Builder {
	b.tb.Helper()
	if len(heads) != len(b.doc.Tokens) {
		b.tb.Fatalf("doctest: %d heads for %d tokens", len(heads), len(b.doc.Tokens))
	}
	b.doc.Dependencies = b.doc.Dependencies[:0]
	for dep, gov := range heads {
		label := "dep"
		if gov < 0 {
			label = types.RootLabel
		}
		b.doc.Dependencies = append(b.doc.Dependencies, types.Dependency{Governor: gov, Dependent: dep, Label: label})
	}
	return b
}

// Entity marks the occurrence-th (0-based, default 0) appearance of text as
// an entity of the given class.
func (b *Builder) Entity(class types.SemanticClass, text string, occurrence ...int) *Builder {
	b.tb.Helper()
	nth := 0
	if len(occurrence) > 0 {
		nth = occurrence[0]
	}
	begin := b.find(text, nth)
	b.doc.Entities = append(b.doc.Entities, types.Entity{
		Begin: begin,
		End:   begin + len(text),
		Class: class,
		Text:  text,
	})
	return b
}

// Span returns the offsets of the occurrence-th appearance of text.
func (b *Builder) Span(text string, occurrence int) (int, int) {
	b.tb.Helper()
	begin := b.find(text, occurrence)
	return begin, begin + len(text)
}

func (b *Builder) find(text string, nth int) int {
	b.tb.Helper()
	from := 0
	for i := 0; ; i++ {
		at := strings.Index(b.doc.Text[from:], text)
		if at < 0 {
			b.tb.Fatalf("doctest: occurrence %d of %q not found in %q", nth, text, b.doc.Text)
			return -1
		}
		if i == nth {
			return from + at
		}
		from += at + len(text)
	}
}

// Doc returns the built document.
func (b *Builder) Doc() *types.Document { return b.doc }
