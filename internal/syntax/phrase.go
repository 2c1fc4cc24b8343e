package syntax

import (
	"fmt"
	"sort"

	"github.com/scrypster/coref/pkg/types"
)

// Chunk types referenced by the resolver.
const (
	NounPhrase   = "NP"
	VerbPhrase   = "VP"
	WhNounPhrase = "WHNP"
)

// NoParent marks a root node.
const NoParent = -1

// Node is one phrase of the tree. Index is its position in Document.Chunks.
type Node struct {
	Index    int
	Type     string
	Begin    int
	End      int
	Parent   int
	Children []int
}

// PhraseTree is the chunk arena with derived child lists.
type PhraseTree struct {
	nodes []Node
	roots []int
}

// NewPhraseTree builds the tree from doc.Chunks. Children are ordered by
// start offset, longer spans first on ties.
func NewPhraseTree(doc *types.Document) (*PhraseTree, error) {
	n := len(doc.Chunks)
	t := &PhraseTree{nodes: make([]Node, n)}
	for i, c := range doc.Chunks {
		if c.Parent < NoParent || c.Parent >= n || c.Parent == i {
			return nil, fmt.Errorf("%w: chunk %d has parent %d", ErrMalformed, i, c.Parent)
		}
		t.nodes[i] = Node{Index: i, Type: c.Type, Begin: c.Begin, End: c.End, Parent: c.Parent}
	}
	for i := range t.nodes {
		if err := t.checkAcyclic(i); err != nil {
			return nil, err
		}
		p := t.nodes[i].Parent
		if p == NoParent {
			t.roots = append(t.roots, i)
		} else {
			t.nodes[p].Children = append(t.nodes[p].Children, i)
		}
	}
	t.sortByPosition(t.roots)
	for i := range t.nodes {
		t.sortByPosition(t.nodes[i].Children)
	}
	return t, nil
}

func (t *PhraseTree) checkAcyclic(i int) error {
	steps := 0
	for cur := t.nodes[i].Parent; cur != NoParent; cur = t.nodes[cur].Parent {
		steps++
		if steps > len(t.nodes) {
			return fmt.Errorf("%w: chunk %d is part of a parent cycle", ErrMalformed, i)
		}
	}
	return nil
}

func (t *PhraseTree) sortByPosition(idx []int) {
	sort.SliceStable(idx, func(a, b int) bool {
		na, nb := t.nodes[idx[a]], t.nodes[idx[b]]
		if na.Begin != nb.Begin {
			return na.Begin < nb.Begin
		}
		return na.End > nb.End
	})
}

// Len returns the number of nodes.
func (t *PhraseTree) Len() int { return len(t.nodes) }

// Node returns node i.
func (t *PhraseTree) Node(i int) Node { return t.nodes[i] }

// Roots returns the root node indices in document order.
func (t *PhraseTree) Roots() []int { return t.roots }

// SiblingPairs calls fn for every pair of adjacent siblings, including
// adjacent roots (reported with parent NoParent).
func (t *PhraseTree) SiblingPairs(fn func(parent, left, right int)) {
	for i := 0; i+1 < len(t.roots); i++ {
		fn(NoParent, t.roots[i], t.roots[i+1])
	}
	for p := range t.nodes {
		ch := t.nodes[p].Children
		for i := 0; i+1 < len(ch); i++ {
			fn(p, ch[i], ch[i+1])
		}
	}
}

// OfType returns the indices of every node with the given chunk type.
func (t *PhraseTree) OfType(chunkType string) []int {
	var out []int
	for i, n := range t.nodes {
		if n.Type == chunkType {
			out = append(out, i)
		}
	}
	return out
}
