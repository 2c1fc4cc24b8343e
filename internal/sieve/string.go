package sieve

import "github.com/scrypster/coref/internal/mention"

// SeedLinks groups mentions whose annotations already carry the same
// reference identity.
type SeedLinks struct{}

// Name implements Sieve.
func (SeedLinks) Name() string { return NameSeedLinks }

// Apply implements Sieve.
func (SeedLinks) Apply(c *Context) {
	first := make(map[string]*mention.Mention)
	for _, m := range c.Mentions {
		ref := m.Span.Source.Reference(c.Doc)
		if ref == "" {
			continue
		}
		if lead, ok := first[ref]; ok {
			c.Link(lead, m)
			continue
		}
		first[ref] = m
	}
}

// ExactStringMatch links non-pronoun mentions with identical text,
// ignoring case.
type ExactStringMatch struct{}

// Name implements Sieve.
func (ExactStringMatch) Name() string { return NameExactStringMatch }

// Apply implements Sieve.
func (ExactStringMatch) Apply(c *Context) {
	c.pairs(notPronoun, func(a, b *mention.Mention) {
		if exactStringMatch(c, a, b) {
			c.Link(a, b)
		}
	})
}

func exactStringMatch(c *Context, a, b *mention.Mention) bool {
	fa, fb := c.features(a), c.features(b)
	return fa.text != "" && fa.text == fb.text
}

// RelaxedStringMatch links entities sharing a head word, unless the head is
// one of the excluded generic words.
type RelaxedStringMatch struct{}

// Name implements Sieve.
func (RelaxedStringMatch) Name() string { return NameRelaxedStringMatch }

// Apply implements Sieve.
func (RelaxedStringMatch) Apply(c *Context) {
	c.pairs(isEntity, func(a, b *mention.Mention) {
		if relaxedStringMatch(c, a, b) {
			c.Link(a, b)
		}
	})
}

func relaxedStringMatch(c *Context, a, b *mention.Mention) bool {
	fa, fb := c.features(a), c.features(b)
	if fa.head == "" || fa.head != fb.head {
		return false
	}
	return !c.Lexicon.IsHeadExcluded(fa.head)
}
