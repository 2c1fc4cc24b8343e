package sieve

import (
	"strings"

	"github.com/scrypster/coref/internal/enhance"
	"github.com/scrypster/coref/internal/mention"
	"github.com/scrypster/coref/internal/syntax"
	"github.com/scrypster/coref/pkg/types"
)

// copula is the verb form that makes a predicate nominative.
const copula = "is"

// PreciseConstructs links mentions joined by appositive, predicate
// nominative and relative pronoun constructions, and acronyms to their
// expansions.
type PreciseConstructs struct{}

// Name implements Sieve.
func (PreciseConstructs) Name() string { return NamePreciseConstructs }

// Apply implements Sieve.
func (PreciseConstructs) Apply(c *Context) {
	bySpan := make(map[[2]int]*mention.Mention, len(c.Mentions))
	for _, m := range c.Mentions {
		key := [2]int{m.Span.Begin, m.Span.End}
		if _, ok := bySpan[key]; !ok {
			bySpan[key] = m
		}
	}
	spanning := func(node int) *mention.Mention {
		n := c.Views.Tree.Node(node)
		return bySpan[[2]int{n.Begin, n.End}]
	}
	linkNodes := func(x, y int) {
		a, b := spanning(x), spanning(y)
		if a != nil && b != nil {
			c.Link(a, b)
		}
	}

	tree := c.Views.Tree
	tree.SiblingPairs(func(parent, left, right int) {
		l, r := tree.Node(left), tree.Node(right)
		switch {
		case l.Type == syntax.NounPhrase && r.Type == syntax.NounPhrase:
			if appositive(c, parent, l, r) {
				linkNodes(left, right)
			}
		case l.Type == syntax.NounPhrase && r.Type == syntax.VerbPhrase:
			if np, ok := predicateNominative(c, r); ok {
				linkNodes(left, np)
			}
		case l.Type == syntax.NounPhrase && r.Type == syntax.WhNounPhrase:
			linkNodes(left, right)
		}
	})

	c.pairs(notPronoun, func(a, b *mention.Mention) {
		if acronymMatch(a, b) {
			c.Link(a, b)
		}
	})
}

// appositive matches "NP , NP" with nothing but a comma between the two
// phrases and no coordinating conjunction under the parent.
func appositive(c *Context, parent int, l, r syntax.Node) bool {
	if l.End > r.Begin || strings.TrimSpace(c.Doc.Covered(l.End, r.Begin)) != "," {
		return false
	}
	if parent != syntax.NoParent {
		p := c.Views.Tree.Node(parent)
		for _, t := range c.Views.Tokens.Covered(p.Begin, p.End) {
			tok := c.Doc.Tokens[t]
			inside := (tok.Begin >= l.Begin && tok.End <= l.End) || (tok.Begin >= r.Begin && tok.End <= r.End)
			if !inside && tok.POS == "CC" {
				return false
			}
		}
	}
	return !(coversLocation(c, l) && coversLocation(c, r))
}

func coversLocation(c *Context, n syntax.Node) bool {
	for _, e := range c.Doc.Entities {
		if e.Class.IsA(types.ClassLocation) && e.Begin >= n.Begin && e.End <= n.End {
			return true
		}
	}
	return false
}

// predicateNominative returns the first NP child of a VP that also covers
// the copula.
func predicateNominative(c *Context, vp syntax.Node) (int, bool) {
	hasCopula := false
	for _, t := range c.Views.Tokens.Covered(vp.Begin, vp.End) {
		if c.normalize(c.Doc.TokenText(t)) == copula {
			hasCopula = true
			break
		}
	}
	if !hasCopula {
		return 0, false
	}
	for _, child := range vp.Children {
		if c.Views.Tree.Node(child).Type == syntax.NounPhrase {
			return child, true
		}
	}
	return 0, false
}

// acronymMatch pairs an acronym with a mention that can be abbreviated to it.
func acronymMatch(a, b *mention.Mention) bool {
	if enhance.IsAcronym(a.Text()) == enhance.IsAcronym(b.Text()) {
		return false
	}
	for form := range a.AcronymForms {
		if b.AcronymForms[form] {
			return true
		}
	}
	return false
}
