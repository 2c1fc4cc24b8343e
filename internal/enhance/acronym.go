package enhance

import (
	"context"
	"strings"
	"unicode"

	"github.com/scrypster/coref/internal/mention"
	"github.com/scrypster/coref/pkg/types"
)

// minAcronymLen is the shortest synthesised acronym kept.
const minAcronymLen = 3

// Acronym records the acronyms a mention could be abbreviated to, or the
// mention text itself when it already is one.
type Acronym struct{}

// NewAcronym creates an acronym enhancer.
func NewAcronym() *Acronym { return &Acronym{} }

// Name implements Enhancer.
func (e *Acronym) Name() string { return "acronym" }

// Enhance implements Enhancer.
func (e *Acronym) Enhance(_ context.Context, doc *types.Document, m *mention.Mention) {
	m.AcronymForms = map[string]bool{}
	if m.IsPronoun() {
		return
	}
	text := m.Text()
	if IsAcronym(text) {
		m.AcronymForms[text] = true
		return
	}

	addForms(m.AcronymForms, strings.Fields(text))

	var proper []string
	for _, t := range m.Tokens {
		if mention.IsProperNounTag(doc.Tokens[t].POS) {
			proper = append(proper, doc.TokenText(t))
		}
	}
	addForms(m.AcronymForms, proper)
}

// addForms adds the upper-case-only and mixed-case initialisms of words.
func addForms(forms map[string]bool, words []string) {
	var upper, mixed strings.Builder
	for _, w := range words {
		r := firstRune(w)
		if r == 0 {
			continue
		}
		if unicode.IsUpper(r) {
			upper.WriteRune(r)
		}
		mixed.WriteRune(r)
	}
	for _, f := range []string{upper.String(), mixed.String()} {
		if len([]rune(f)) >= minAcronymLen {
			forms[f] = true
		}
	}
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}

// IsAcronym reports whether text is a single all-uppercase word with at
// least two letters, e.g. "BBC" or "U.N.".
func IsAcronym(text string) bool {
	if text == "" || strings.IndexFunc(text, unicode.IsSpace) >= 0 {
		return false
	}
	letters := 0
	for _, r := range text {
		if unicode.IsLetter(r) {
			if !unicode.IsUpper(r) {
				return false
			}
			letters++
		}
	}
	return letters >= 2
}
