package enhance

import (
	"context"
	"strings"

	"github.com/scrypster/coref/internal/lexicon"
	"github.com/scrypster/coref/internal/mention"
	"github.com/scrypster/coref/pkg/types"
)

// Person sets the grammatical person of pronouns. Other mentions stay UNKNOWN.
type Person struct {
	lex *lexicon.Lexicon
}

// NewPerson creates a person enhancer.
func NewPerson(lex *lexicon.Lexicon) *Person { return &Person{lex: lex} }

// Name implements Enhancer.
func (e *Person) Name() string { return "person" }

// Enhance implements Enhancer.
func (e *Person) Enhance(_ context.Context, _ *types.Document, m *mention.Mention) {
	m.Person = types.PersonUnknown
	if !m.IsPronoun() {
		return
	}
	if a, ok := e.lex.Pronoun(m.Text()); ok {
		m.Person = a.Person
	}
}

// Gender sets gender from the pronoun table, an honorific title, the
// entity class or the gazetteer.
type Gender struct {
	lex *lexicon.Lexicon
	gaz Gazetteer
}

// NewGender creates a gender enhancer.
func NewGender(lex *lexicon.Lexicon, gaz Gazetteer) *Gender { return &Gender{lex: lex, gaz: gaz} }

// Name implements Enhancer.
func (e *Gender) Name() string { return "gender" }

// Enhance implements Enhancer.
func (e *Gender) Enhance(ctx context.Context, _ *types.Document, m *mention.Mention) {
	m.Gender = types.GenderUnknown
	switch m.Kind() {
	case types.KindPronoun:
		if a, ok := e.lex.Pronoun(m.Text()); ok {
			m.Gender = a.Gender
		}
	case types.KindEntity:
		if !m.Span.Class.IsA(types.ClassPerson) {
			m.Gender = types.GenderNeuter
			return
		}
		if words := strings.Fields(m.Text()); len(words) > 0 {
			if g := e.lex.Honorific(words[0]); g != types.GenderUnknown {
				m.Gender = g
				return
			}
		}
		m.Gender = e.gaz.LookupGender(ctx, m.Text())
	default:
		m.Gender = e.gaz.LookupGender(ctx, m.Text())
	}
}

// Multiplicity sets grammatical number.
type Multiplicity struct {
	lex *lexicon.Lexicon
	gaz Gazetteer
}

// NewMultiplicity creates a multiplicity enhancer.
func NewMultiplicity(lex *lexicon.Lexicon, gaz Gazetteer) *Multiplicity {
	return &Multiplicity{lex: lex, gaz: gaz}
}

// Name implements Enhancer.
func (e *Multiplicity) Name() string { return "multiplicity" }

// Enhance implements Enhancer.
func (e *Multiplicity) Enhance(ctx context.Context, doc *types.Document, m *mention.Mention) {
	m.Multiplicity = types.MultiplicityUnknown
	switch m.Kind() {
	case types.KindPronoun:
		if a, ok := e.lex.Pronoun(m.Text()); ok {
			m.Multiplicity = a.Multiplicity
		}
	case types.KindEntity:
		if m.Span.Class != types.ClassOrganisation {
			m.Multiplicity = types.MultiplicitySingular
		}
	default:
		if m.HasHead() {
			pos := doc.Tokens[m.HeadWord].POS
			switch {
			case mention.IsPluralNounTag(pos):
				m.Multiplicity = types.MultiplicityPlural
			case mention.IsNounTag(pos):
				m.Multiplicity = types.MultiplicitySingular
			}
		}
		if m.Multiplicity == types.MultiplicityUnknown {
			m.Multiplicity = e.gaz.LookupMultiplicity(ctx, m.Text())
		}
	}
}

// Animacy sets animacy from the pronoun table or the entity class table.
type Animacy struct {
	lex *lexicon.Lexicon
}

// NewAnimacy creates an animacy enhancer.
func NewAnimacy(lex *lexicon.Lexicon) *Animacy { return &Animacy{lex: lex} }

// Name implements Enhancer.
func (e *Animacy) Name() string { return "animacy" }

// Enhance implements Enhancer.
func (e *Animacy) Enhance(_ context.Context, _ *types.Document, m *mention.Mention) {
	m.Animacy = types.AnimacyUnknown
	switch m.Kind() {
	case types.KindPronoun:
		if a, ok := e.lex.Pronoun(m.Text()); ok {
			m.Animacy = a.Animacy
		}
	case types.KindEntity:
		m.Animacy = e.lex.ClassAnimacy(m.Span.Class)
	}
}
