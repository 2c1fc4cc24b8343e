package sieve

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/scrypster/coref/internal/mention"
	"github.com/scrypster/coref/pkg/types"
)

// numeralTolerance is the relative difference under which two numbers are
// considered the same.
const numeralTolerance = 0.01

var numeralPattern = regexp.MustCompile(`\d+(?:[.,]\d+)*`)

// features are the normalised views of a mention the matching rules share.
// All strings are NFC-normalised and case-folded.
type features struct {
	text       string
	head       string
	words      map[string]bool
	content    map[string]bool
	modifiers  map[string]bool
	properMods map[string]bool
	numerals   []float64
}

// normalize folds s for case-insensitive comparison.
func (c *Context) normalize(s string) string {
	return c.fold.String(norm.NFC.String(s))
}

func (c *Context) features(m *mention.Mention) *features {
	if f, ok := c.feats[m]; ok {
		return f
	}
	f := &features{
		text:       c.normalize(m.Text()),
		words:      map[string]bool{},
		content:    map[string]bool{},
		modifiers:  map[string]bool{},
		properMods: map[string]bool{},
		numerals:   numerals(m.Text()),
	}
	if m.HasHead() {
		f.head = c.normalize(c.Doc.TokenText(m.HeadWord))
	}
	for _, t := range c.Views.Tokens.Covered(m.Span.Begin, m.Span.End) {
		w := c.normalize(c.Doc.TokenText(t))
		if w == "" {
			continue
		}
		f.words[w] = true
		if !c.Lexicon.IsStopWord(w) {
			f.content[w] = true
		}
		if t == m.HeadWord {
			continue
		}
		pos := c.Doc.Tokens[t].POS
		if mention.IsNounTag(pos) || strings.HasPrefix(pos, "JJ") || pos == "CD" {
			f.modifiers[w] = true
		}
		if mention.IsProperNounTag(pos) || c.Lexicon.IsSpatialModifier(w) {
			f.properMods[w] = true
		}
	}
	c.feats[m] = f
	return f
}

func numerals(text string) []float64 {
	var out []float64
	for _, raw := range numeralPattern.FindAllString(text, -1) {
		v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

// numeralsAgree reports whether every numeral of a has a near-equal
// numeral in b. Mentions without numerals never conflict.
func numeralsAgree(a, b []float64) bool {
	if len(a) == 0 || len(b) == 0 {
		return true
	}
	for _, x := range a {
		found := false
		for _, y := range b {
			if fuzzyEqual(x, y) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func fuzzyEqual(x, y float64) bool {
	scale := math.Max(math.Abs(x), math.Abs(y))
	if scale == 0 {
		return true
	}
	return math.Abs(x-y) <= numeralTolerance*scale
}

func subset(a, b map[string]bool) bool {
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

func intersects(a, b map[string]bool) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for k := range a {
		if b[k] {
			return true
		}
	}
	return false
}

func sameSet(a, b map[string]bool) bool {
	return len(a) == len(b) && subset(a, b)
}

// contentIncluded reports whether one mention's non-stop words form a
// non-empty subset of the other's.
func contentIncluded(fa, fb *features) bool {
	if len(fa.content) > 0 && subset(fa.content, fb.content) {
		return true
	}
	return len(fb.content) > 0 && subset(fb.content, fa.content)
}

// textOverlap reports whether the two mentions share at least one word.
func textOverlap(fa, fb *features) bool { return intersects(fa.words, fb.words) }

// effectivePerson reads a mention without a grammatical person as third person.
func effectivePerson(m *mention.Mention) types.Person {
	if m.Person == types.PersonUnknown && !m.IsPronoun() {
		return types.PersonThird
	}
	return m.Person
}

// compatible is the attribute agreement test: related classes when both
// are entities, lenient gender, strict animacy, multiplicity and person.
func compatible(a, b *mention.Mention) bool {
	if a.IsEntity() && b.IsEntity() && !types.Assignable(a.Span.Class, b.Span.Class) {
		return false
	}
	if a.Gender != types.GenderUnknown && b.Gender != types.GenderUnknown && a.Gender != b.Gender {
		return false
	}
	return a.Animacy == b.Animacy &&
		a.Multiplicity == b.Multiplicity &&
		effectivePerson(a) == effectivePerson(b)
}
