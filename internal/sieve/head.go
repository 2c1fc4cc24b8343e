package sieve

import (
	"strings"

	"github.com/scrypster/coref/internal/mention"
	"github.com/scrypster/coref/pkg/types"
)

// StrictHeadMatch links mentions whose heads contain one another and whose
// texts share a word. Modifiers requires the modifier words of one mention
// to include the other's; WordInclusion requires the content words of one
// to be a non-empty subset of the other's.
type StrictHeadMatch struct {
	name          string
	Modifiers     bool
	WordInclusion bool
}

// Name implements Sieve.
func (s StrictHeadMatch) Name() string {
	if s.name == "" {
		return NameStrictHeadMatch1
	}
	return s.name
}

// Apply implements Sieve.
func (s StrictHeadMatch) Apply(c *Context) {
	c.pairs(notPronoun, func(a, b *mention.Mention) {
		if s.match(c, a, b) {
			c.Link(a, b)
		}
	})
}

func (s StrictHeadMatch) match(c *Context, a, b *mention.Mention) bool {
	fa, fb := c.features(a), c.features(b)
	if fa.head == "" || fb.head == "" {
		return false
	}
	if !strings.Contains(fa.head, fb.head) && !strings.Contains(fb.head, fa.head) {
		return false
	}
	if s.WordInclusion && !contentIncluded(fa, fb) {
		return false
	}
	if s.Modifiers && !subset(fa.modifiers, fb.modifiers) && !subset(fb.modifiers, fa.modifiers) {
		return false
	}
	return textOverlap(fa, fb)
}

// ProperHeadMatch links mentions with the same head, the same proper and
// spatial modifiers and no conflicting numbers.
type ProperHeadMatch struct{}

// Name implements Sieve.
func (ProperHeadMatch) Name() string { return NameProperHeadMatch }

// Apply implements Sieve.
func (ProperHeadMatch) Apply(c *Context) {
	c.pairs(notPronoun, func(a, b *mention.Mention) {
		if properHeadMatch(c, a, b) {
			c.Link(a, b)
		}
	})
}

func properHeadMatch(c *Context, a, b *mention.Mention) bool {
	fa, fb := c.features(a), c.features(b)
	if fa.head == "" || fa.head != fb.head {
		return false
	}
	if !textOverlap(fa, fb) || !sameSet(fa.properMods, fb.properMods) {
		return false
	}
	return numeralsAgree(fa.numerals, fb.numerals) && numeralsAgree(fb.numerals, fa.numerals)
}

// RelaxedHeadMatch links separate entities of related classes when one's
// content words are included in the other's and one contains the other's
// head.
type RelaxedHeadMatch struct{}

// Name implements Sieve.
func (RelaxedHeadMatch) Name() string { return NameRelaxedHeadMatch }

// Apply implements Sieve.
func (RelaxedHeadMatch) Apply(c *Context) {
	c.pairs(isEntity, func(a, b *mention.Mention) {
		if relaxedHeadMatch(c, a, b) {
			c.Link(a, b)
		}
	})
}

func relaxedHeadMatch(c *Context, a, b *mention.Mention) bool {
	if a.OverlapsSpan(b) || !types.Assignable(a.Span.Class, b.Span.Class) {
		return false
	}
	fa, fb := c.features(a), c.features(b)
	if !contentIncluded(fa, fb) {
		return false
	}
	return (fb.head != "" && fa.words[fb.head]) || (fa.head != "" && fb.words[fa.head])
}
