package sieve

import (
	"math"

	"github.com/scrypster/coref/internal/mention"
	"github.com/scrypster/coref/pkg/types"
)

// InSentencePronoun links agreeing pronouns within one sentence.
type InSentencePronoun struct{}

// Name implements Sieve.
func (InSentencePronoun) Name() string { return NameInSentencePronoun }

// Apply implements Sieve.
func (InSentencePronoun) Apply(c *Context) {
	isPronoun := func(m *mention.Mention) bool { return m.IsPronoun() && m.HasSentence() }
	c.pairs(isPronoun, func(a, b *mention.Mention) {
		if a.SentenceIndex == b.SentenceIndex && pronounsAgree(c, a, b) {
			c.Link(a, b)
		}
	})
}

func pronounsAgree(c *Context, a, b *mention.Mention) bool {
	if c.features(a).text == c.features(b).text {
		return true
	}
	var rule bool
	switch {
	case a.Person == types.PersonFirst && b.Person == types.PersonFirst:
		rule = true
	case a.Person == types.PersonSecond && b.Person == types.PersonSecond:
		rule = a.Multiplicity == b.Multiplicity
	case a.Person == types.PersonThird && b.Person == types.PersonThird:
		rule = a.Multiplicity == b.Multiplicity && a.Gender == b.Gender
	}
	return rule && compatible(a, b)
}

// PronounResolution links each pronoun to its single nearest plausible
// antecedent at most MaxDistance sentences back.
type PronounResolution struct {
	MaxDistance int
}

// Name implements Sieve.
func (PronounResolution) Name() string { return NamePronounResolution }

// Apply implements Sieve.
func (s PronounResolution) Apply(c *Context) {
	for _, p := range c.Mentions {
		if !p.IsPronoun() || !p.HasSentence() {
			continue
		}
		if best := s.antecedent(c, p); best != nil {
			c.Link(best, p)
		}
	}
}

func (s PronounResolution) maxDistance() int {
	if s.MaxDistance <= 0 {
		return DefaultMaxPronounDistance
	}
	return s.MaxDistance
}

func (s PronounResolution) antecedent(c *Context, p *mention.Mention) *mention.Mention {
	var best *mention.Mention
	bestSent, bestTok := math.MaxInt, math.MaxInt
	for _, cand := range c.Mentions {
		if cand.IsPronoun() || !cand.HasSentence() || cand.Span.Begin >= p.Span.Begin {
			continue
		}
		dist := p.SentenceIndex - cand.SentenceIndex
		if dist < 0 || dist > s.maxDistance() {
			continue
		}
		if !compatible(p, cand) || !plausible(p, cand) {
			continue
		}
		tok := tokenDistance(c, cand, p)
		if dist < bestSent || (dist == bestSent && tok < bestTok) {
			best, bestSent, bestTok = cand, dist, tok
		}
	}
	return best
}

// plausible applies the coarse semantic filter: animate or gendered
// pronouns need a person-like entity; neuter pronouns must not get one.
func plausible(p, cand *mention.Mention) bool {
	personLike := cand.IsEntity() &&
		(cand.Span.Class.IsA(types.ClassPerson) || cand.Span.Class.IsA(types.ClassNationality))
	if p.Gender == types.GenderNeuter {
		return !(cand.IsEntity() && cand.Span.Class.IsA(types.ClassPerson))
	}
	if p.Animacy == types.AnimacyAnimate || p.Gender == types.GenderMale || p.Gender == types.GenderFemale {
		return personLike
	}
	return true
}

func tokenDistance(c *Context, cand, p *mention.Mention) int {
	from := c.Views.Tokens.Position(cand.LastToken)
	to := c.Views.Tokens.Position(p.FirstToken)
	if from < 0 || to < 0 {
		return math.MaxInt
	}
	return to - from
}
