package syntax

import (
	"fmt"
	"sort"

	"github.com/scrypster/coref/pkg/types"
)

// TokenIndex answers span-to-token queries over tokens sorted by offset.
type TokenIndex struct {
	tokens    []types.Token
	order     []int
	positions []int
}

// NewTokenIndex indexes doc.Tokens. The document's token slice is not reordered.
func NewTokenIndex(doc *types.Document) *TokenIndex {
	order := make([]int, len(doc.Tokens))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return doc.Tokens[order[a]].Begin < doc.Tokens[order[b]].Begin
	})
	positions := make([]int, len(order))
	for pos, i := range order {
		positions[i] = pos
	}
	return &TokenIndex{tokens: doc.Tokens, order: order, positions: positions}
}

// Covered returns the indices of tokens lying fully inside [begin, end), in
// document order.
func (ix *TokenIndex) Covered(begin, end int) []int {
	start := sort.Search(len(ix.order), func(i int) bool {
		return ix.tokens[ix.order[i]].Begin >= begin
	})
	var out []int
	for i := start; i < len(ix.order); i++ {
		t := ix.tokens[ix.order[i]]
		if t.Begin >= end {
			break
		}
		if t.End <= end {
			out = append(out, ix.order[i])
		}
	}
	return out
}

// Position returns the ordinal of token tok in document order, or -1.
func (ix *TokenIndex) Position(tok int) int {
	if tok < 0 || tok >= len(ix.positions) {
		return -1
	}
	return ix.positions[tok]
}

// CheckOffsets verifies that every annotated span lies inside the document
// text with Begin <= End.
func CheckOffsets(doc *types.Document) error {
	n := len(doc.Text)
	check := func(kind string, i, begin, end int) error {
		if begin < 0 || end < begin || end > n {
			return fmt.Errorf("%w: %s %d spans [%d, %d) outside text of length %d", ErrMalformed, kind, i, begin, end, n)
		}
		return nil
	}
	for i, s := range doc.Sentences {
		if err := check("sentence", i, s.Begin, s.End); err != nil {
			return err
		}
	}
	for i, t := range doc.Tokens {
		if err := check("token", i, t.Begin, t.End); err != nil {
			return err
		}
	}
	for i, e := range doc.Entities {
		if err := check("entity", i, e.Begin, e.End); err != nil {
			return err
		}
	}
	for i, c := range doc.Chunks {
		if err := check("chunk", i, c.Begin, c.End); err != nil {
			return err
		}
	}
	return nil
}
