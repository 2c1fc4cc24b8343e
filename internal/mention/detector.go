package mention

import (
	"fmt"
	"sort"
	"strings"

	"github.com/scrypster/coref/internal/lexicon"
	"github.com/scrypster/coref/internal/syntax"
	"github.com/scrypster/coref/pkg/types"
)

// Views bundles the syntactic indexes built once per document.
type Views struct {
	Graph  *syntax.DependencyGraph
	Tree   *syntax.PhraseTree
	Tokens *syntax.TokenIndex
}

// BuildViews constructs the dependency graph, phrase tree and token index.
// Malformed annotations are a provider contract violation and are returned
// as errors wrapping syntax.ErrMalformed.
func BuildViews(doc *types.Document) (*Views, error) {
	if err := syntax.CheckOffsets(doc); err != nil {
		return nil, err
	}
	g, err := syntax.NewDependencyGraph(doc)
	if err != nil {
		return nil, err
	}
	t, err := syntax.NewPhraseTree(doc)
	if err != nil {
		return nil, err
	}
	return &Views{Graph: g, Tree: t, Tokens: syntax.NewTokenIndex(doc)}, nil
}

// Detector builds the initial mention list of a document.
type Detector struct {
	lex *lexicon.Lexicon
}

// NewDetector creates a detector recognising pronouns through lex.
func NewDetector(lex *lexicon.Lexicon) *Detector {
	return &Detector{lex: lex}
}

// Detect returns the document's mentions ordered by position:
//  1. every pronoun token as a PRONOUN mention, its own head
//  2. every entity span as an ENTITY mention, head by the governor rule
//  3. every NP chunk not coinciding with a mention above as a NOUN_PHRASE
//
// Sentence indexes are assigned before returning. A mention without a head
// or sentence is kept.
func (d *Detector) Detect(doc *types.Document, views *Views) ([]*Mention, error) {
	if doc == nil || views == nil {
		return nil, fmt.Errorf("mention: document and views are required")
	}

	var mentions []*Mention
	taken := make(map[[2]int]bool)

	for i, tok := range doc.Tokens {
		if !d.lex.IsPronounTag(tok.POS) {
			continue
		}
		m := New(Span{
			Begin:  tok.Begin,
			End:    tok.End,
			Text:   doc.TokenText(i),
			Source: Source{Kind: types.KindPronoun, Index: i},
		})
		m.Tokens = []int{i}
		m.FirstToken, m.LastToken, m.HeadWord = i, i, i
		mentions = append(mentions, m)
		taken[[2]int{tok.Begin, tok.End}] = true
	}

	for i, e := range doc.Entities {
		m := New(Span{
			Begin:  e.Begin,
			End:    e.End,
			Text:   doc.EntityText(i),
			Class:  e.Class,
			Source: Source{Kind: types.KindEntity, Index: i},
		})
		d.attachTokens(doc, views, m)
		mentions = append(mentions, m)
		taken[[2]int{e.Begin, e.End}] = true
	}

	for _, idx := range views.Tree.OfType(syntax.NounPhrase) {
		n := views.Tree.Node(idx)
		if taken[[2]int{n.Begin, n.End}] {
			continue
		}
		m := New(Span{
			Begin:  n.Begin,
			End:    n.End,
			Text:   doc.Covered(n.Begin, n.End),
			Source: Source{Kind: types.KindNounPhrase, Index: idx},
		})
		d.attachTokens(doc, views, m)
		if m.FirstToken < 0 {
			continue
		}
		mentions = append(mentions, m)
		taken[[2]int{n.Begin, n.End}] = true
	}

	sort.SliceStable(mentions, func(a, b int) bool {
		if mentions[a].Span.Begin != mentions[b].Span.Begin {
			return mentions[a].Span.Begin < mentions[b].Span.Begin
		}
		return mentions[a].Span.End < mentions[b].Span.End
	})

	AssignSentences(doc, mentions)
	return mentions, nil
}

func (d *Detector) attachTokens(doc *types.Document, views *Views, m *Mention) {
	covered := views.Tokens.Covered(m.Span.Begin, m.Span.End)
	if len(covered) == 0 {
		return
	}
	m.Tokens = covered
	m.FirstToken = covered[0]
	m.LastToken = covered[len(covered)-1]
	m.HeadWord = HeadWord(doc, views.Graph, covered)
}

// HeadWord picks the first noun among covered whose governors all lie
// outside covered. It returns NoHead when no noun qualifies.
func HeadWord(doc *types.Document, graph *syntax.DependencyGraph, covered []int) int {
	for _, t := range covered {
		if IsNounTag(doc.Tokens[t].POS) && !graph.GovernedWithin(t, covered) {
			return t
		}
	}
	return NoHead
}

// IsNounTag reports whether pos is a Penn noun tag (NN, NNS, NNP, NNPS).
func IsNounTag(pos string) bool { return strings.HasPrefix(pos, "NN") }

// IsProperNounTag reports whether pos is NNP or NNPS.
func IsProperNounTag(pos string) bool { return strings.HasPrefix(pos, "NNP") }

// IsPluralNounTag reports whether pos is NNS or NNPS.
func IsPluralNounTag(pos string) bool { return pos == "NNS" || pos == "NNPS" }

// AssignSentences stores on each mention the ordinal of the sentence
// covering its span, or UnknownSentence.
func AssignSentences(doc *types.Document, mentions []*Mention) {
	order := make([]int, len(doc.Sentences))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return doc.Sentences[order[a]].Begin < doc.Sentences[order[b]].Begin
	})
	for _, m := range mentions {
		m.SentenceIndex = UnknownSentence
		for pos, si := range order {
			s := doc.Sentences[si]
			if s.Begin <= m.Span.Begin && m.Span.End <= s.End {
				m.SentenceIndex = pos
				break
			}
		}
	}
}
