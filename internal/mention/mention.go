// Package mention models candidate referring expressions and the clusters
// they are grouped into, and builds the initial mention list of a document.
package mention

import (
	"fmt"

	"github.com/scrypster/coref/pkg/types"
)

// UnknownSentence is the sentence index of a mention no sentence covers.
const UnknownSentence = -1

// NoHead is the head word of a mention without a qualifying noun.
const NoHead = -1

// Source points at the annotation a mention was built from.
type Source struct {
	Kind  types.MentionKind
	Index int
}

// Span is the text range of a mention plus its originating annotation.
type Span struct {
	Begin  int
	End    int
	Text   string
	Class  types.SemanticClass
	Source Source
}

// Mention is a candidate referring expression.
type Mention struct {
	Span Span

	// Tokens lists the covered token indices in document order. FirstToken
	// and LastToken are its ends, both -1 when the span covers no whole
	// token. Token indices need not follow offsets, so iterate Tokens
	// rather than the index range.
	Tokens     []int
	FirstToken int
	LastToken  int

	// HeadWord is a token index or NoHead.
	HeadWord int

	Person       types.Person
	Gender       types.Gender
	Multiplicity types.Multiplicity
	Animacy      types.Animacy
	AcronymForms map[string]bool

	SentenceIndex int

	clusters []*Cluster
}

// New creates a mention with every attribute UNKNOWN.
func New(span Span) *Mention {
	return &Mention{
		Span:          span,
		FirstToken:    -1,
		LastToken:     -1,
		HeadWord:      NoHead,
		Person:        types.PersonUnknown,
		Gender:        types.GenderUnknown,
		Multiplicity:  types.MultiplicityUnknown,
		Animacy:       types.AnimacyUnknown,
		AcronymForms:  map[string]bool{},
		SentenceIndex: UnknownSentence,
	}
}

// Kind is the fixed kind of the mention.
func (m *Mention) Kind() types.MentionKind { return m.Span.Source.Kind }

// IsPronoun reports whether the mention is a pronoun.
func (m *Mention) IsPronoun() bool { return m.Kind() == types.KindPronoun }

// IsEntity reports whether the mention is a typed entity.
func (m *Mention) IsEntity() bool { return m.Kind() == types.KindEntity }

// Text returns the covered text.
func (m *Mention) Text() string { return m.Span.Text }

// HasHead reports whether a head word was found.
func (m *Mention) HasHead() bool { return m.HeadWord != NoHead }

// HasSentence reports whether the mention was placed in a sentence.
func (m *Mention) HasSentence() bool { return m.SentenceIndex != UnknownSentence }

// Clusters returns the clusters the mention currently belongs to.
func (m *Mention) Clusters() []*Cluster { return m.clusters }

// Cluster returns the first cluster the mention joined, or nil.
func (m *Mention) Cluster() *Cluster {
	if len(m.clusters) == 0 {
		return nil
	}
	return m.clusters[0]
}

// OverlapsSpan reports whether the character spans of a and b intersect.
func (m *Mention) OverlapsSpan(other *Mention) bool {
	return m.Span.Begin < other.Span.End && other.Span.Begin < m.Span.End
}

// Ref converts the mention to its public form.
func (m *Mention) Ref() types.MentionRef {
	return types.MentionRef{
		Begin: m.Span.Begin,
		End:   m.Span.End,
		Text:  m.Span.Text,
		Kind:  m.Kind(),
		Class: m.Span.Class,
	}
}

func (m *Mention) String() string {
	return fmt.Sprintf("%s[%d:%d %q]", m.Kind(), m.Span.Begin, m.Span.End, m.Span.Text)
}

func (m *Mention) addCluster(c *Cluster) {
	for _, existing := range m.clusters {
		if existing == c {
			return
		}
	}
	m.clusters = append(m.clusters, c)
}

func (m *Mention) removeCluster(c *Cluster) {
	for i, existing := range m.clusters {
		if existing == c {
			m.clusters = append(m.clusters[:i], m.clusters[i+1:]...)
			return
		}
	}
}

// Reference returns the reference identity already carried by the
// annotation s points at, or "".
func (s Source) Reference(doc *types.Document) string {
	switch s.Kind {
	case types.KindPronoun:
		if s.Index >= 0 && s.Index < len(doc.Tokens) {
			return doc.Tokens[s.Index].Reference
		}
	case types.KindEntity:
		if s.Index >= 0 && s.Index < len(doc.Entities) {
			return doc.Entities[s.Index].Reference
		}
	case types.KindNounPhrase:
		if s.Index >= 0 && s.Index < len(doc.Chunks) {
			return doc.Chunks[s.Index].Reference
		}
	}
	return ""
}

// SetReference overwrites the reference identity of the annotation s
// points at.
func (s Source) SetReference(doc *types.Document, ref string) {
	switch s.Kind {
	case types.KindPronoun:
		if s.Index >= 0 && s.Index < len(doc.Tokens) {
			doc.Tokens[s.Index].Reference = ref
		}
	case types.KindEntity:
		if s.Index >= 0 && s.Index < len(doc.Entities) {
			doc.Entities[s.Index].Reference = ref
		}
	case types.KindNounPhrase:
		if s.Index >= 0 && s.Index < len(doc.Chunks) {
			doc.Chunks[s.Index].Reference = ref
		}
	}
}
