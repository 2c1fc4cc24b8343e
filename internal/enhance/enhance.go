// Package enhance computes the grammatical attributes of detected mentions:
// person, gender, multiplicity, animacy and acronym forms.
//
// Each enhancer writes exactly one attribute and reads only the mention's
// own span, the document tokens and the immutable lexicon, so the order in
// which they run does not matter.
package enhance

import (
	"context"

	"github.com/scrypster/coref/internal/lexicon"
	"github.com/scrypster/coref/internal/mention"
	"github.com/scrypster/coref/pkg/types"
)

// Gazetteer answers gender and number questions about free text. A lookup
// that fails or finds nothing returns the UNKNOWN value.
type Gazetteer interface {
	LookupGender(ctx context.Context, text string) types.Gender
	LookupMultiplicity(ctx context.Context, text string) types.Multiplicity
}

// Enhancer fills one attribute of a mention.
type Enhancer interface {
	Name() string
	Enhance(ctx context.Context, doc *types.Document, m *mention.Mention)
}

// NoGazetteer answers UNKNOWN to every lookup.
type NoGazetteer struct{}

// LookupGender implements Gazetteer.
func (NoGazetteer) LookupGender(context.Context, string) types.Gender { return types.GenderUnknown }

// LookupMultiplicity implements Gazetteer.
func (NoGazetteer) LookupMultiplicity(context.Context, string) types.Multiplicity {
	return types.MultiplicityUnknown
}

// Default returns the five standard enhancers. A nil gazetteer is replaced
// by NoGazetteer.
func Default(lex *lexicon.Lexicon, gaz Gazetteer) []Enhancer {
	if gaz == nil {
		gaz = NoGazetteer{}
	}
	return []Enhancer{
		NewAcronym(),
		NewPerson(lex),
		NewGender(lex, gaz),
		NewMultiplicity(lex, gaz),
		NewAnimacy(lex),
	}
}

// Apply runs every enhancer over every mention.
func Apply(ctx context.Context, doc *types.Document, enhancers []Enhancer, mentions []*mention.Mention) {
	for _, e := range enhancers {
		for _, m := range mentions {
			e.Enhance(ctx, doc, m)
		}
	}
}
