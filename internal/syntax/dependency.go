// Package syntax provides read-only, index-based views over the dependency
// edges and phrase-chunk tree of an annotated document.
//
// Both structures are arenas: nodes live in slices and refer to each other
// by integer index, never by pointer.
package syntax

import (
	"errors"
	"fmt"

	"github.com/scrypster/coref/pkg/types"
)

// ErrMalformed is returned when annotations reference tokens or chunks that
// do not exist, or when the chunk tree contains a cycle.
var ErrMalformed = errors.New("syntax: malformed annotations")

// DependencyGraph indexes dependency edges by dependent token. Root edges
// are dropped.
type DependencyGraph struct {
	governors [][]int
}

// NewDependencyGraph builds the graph for doc.
func NewDependencyGraph(doc *types.Document) (*DependencyGraph, error) {
	n := len(doc.Tokens)
	g := &DependencyGraph{governors: make([][]int, n)}
	for i, dep := range doc.Dependencies {
		if dep.Label == types.RootLabel || dep.Governor < 0 {
			continue
		}
		if dep.Governor >= n || dep.Dependent < 0 || dep.Dependent >= n {
			return nil, fmt.Errorf("%w: dependency %d (%d -> %d) outside %d tokens", ErrMalformed, i, dep.Governor, dep.Dependent, n)
		}
		g.governors[dep.Dependent] = append(g.governors[dep.Dependent], dep.Governor)
	}
	return g, nil
}

// Governors returns the tokens governing tok.
func (g *DependencyGraph) Governors(tok int) []int {
	if tok < 0 || tok >= len(g.governors) {
		return nil
	}
	return g.governors[tok]
}

// GovernedWithin reports whether any governor of tok is one of tokens.
func (g *DependencyGraph) GovernedWithin(tok int, tokens []int) bool {
	for _, gov := range g.Governors(tok) {
		for _, t := range tokens {
			if gov == t {
				return true
			}
		}
	}
	return false
}
