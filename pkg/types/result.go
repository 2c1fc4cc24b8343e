package types

// MentionKind classifies the annotation a mention was built from.
type MentionKind string

// Mention kind constants
const (
	// KindPronoun is a single pronoun word token
	KindPronoun MentionKind = "pronoun"

	// KindEntity is a typed entity span
	KindEntity MentionKind = "entity"

	// KindNounPhrase is a noun-phrase chunk that is not itself an entity
	KindNounPhrase MentionKind = "noun_phrase"
)

// Result is the outcome of resolving one document.
type Result struct {
	// DocumentID echoes Document.ID.
	DocumentID string `json:"document_id,omitempty"`

	// Chains holds one entry per final cluster, in emission order.
	Chains []Chain `json:"chains"`

	// MentionCount is the number of mentions the detector produced.
	MentionCount int `json:"mention_count"`

	// SieveLinks counts the pairwise links made by each sieve, keyed by sieve name.
	SieveLinks map[string]int `json:"sieve_links,omitempty"`
}

// Chain is a set of mentions sharing one reference identity.
type Chain struct {
	Reference string       `json:"reference"`
	Mentions  []MentionRef `json:"mentions"`
}

// MentionRef identifies a mention in the source document.
type MentionRef struct {
	Begin int           `json:"begin"`
	End   int           `json:"end"`
	Text  string        `json:"text"`
	Kind  MentionKind   `json:"kind"`
	Class SemanticClass `json:"class,omitempty"`
}

// Texts returns the covered text of every mention in the chain.
func (c Chain) Texts() []string {
	out := make([]string, len(c.Mentions))
	for i, m := range c.Mentions {
		out[i] = m.Text
	}
	return out
}
