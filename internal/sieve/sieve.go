// Package sieve implements the ordered matching stages of the resolver.
//
// Each sieve scans the shared mention list and links compatible pairs with
// mention.Link. Sieves never merge clusters; they run once each, in the
// order returned by Pipeline, and earlier stages are authoritative.
package sieve

import (
	"errors"
	"fmt"

	"golang.org/x/text/cases"

	"github.com/scrypster/coref/internal/lexicon"
	"github.com/scrypster/coref/internal/mention"
	"github.com/scrypster/coref/pkg/types"
)

// Sieve names in pipeline order.
const (
	NameSeedLinks          = "seed-links"
	NameExactStringMatch   = "exact-string-match"
	NameRelaxedStringMatch = "relaxed-string-match"
	NameInSentencePronoun  = "in-sentence-pronoun"
	NamePreciseConstructs  = "precise-constructs"
	NameStrictHeadMatch1   = "strict-head-match-1"
	NameStrictHeadMatch2   = "strict-head-match-2"
	NameStrictHeadMatch3   = "strict-head-match-3"
	NameProperHeadMatch    = "proper-head-match"
	NameRelaxedHeadMatch   = "relaxed-head-match"
	NamePronounResolution  = "pronoun-resolution"
)

// DefaultMaxPronounDistance is the furthest, in sentences, a pronoun may
// look back for its antecedent.
const DefaultMaxPronounDistance = 3

// ErrUnknownSieve is returned by ByName for a name no sieve carries.
var ErrUnknownSieve = errors.New("unknown sieve")

// Sieve is one matching stage.
type Sieve interface {
	Name() string
	Apply(c *Context)
}

// Options selects the optional stages and their parameters.
type Options struct {
	PronounResolution  bool
	MaxPronounDistance int
}

// DefaultOptions enables every stage.
func DefaultOptions() Options {
	return Options{PronounResolution: true, MaxPronounDistance: DefaultMaxPronounDistance}
}

// Pipeline returns the sieves in execution order.
func Pipeline(opts Options) []Sieve {
	sieves := []Sieve{
		SeedLinks{},
		ExactStringMatch{},
		RelaxedStringMatch{},
		InSentencePronoun{},
		PreciseConstructs{},
		StrictHeadMatch{name: NameStrictHeadMatch1, Modifiers: true, WordInclusion: true},
		StrictHeadMatch{name: NameStrictHeadMatch2, Modifiers: true},
		StrictHeadMatch{name: NameStrictHeadMatch3, WordInclusion: true},
		ProperHeadMatch{},
		RelaxedHeadMatch{},
	}
	if opts.PronounResolution {
		sieves = append(sieves, PronounResolution{MaxDistance: opts.MaxPronounDistance})
	}
	return sieves
}

// Names lists every sieve name in execution order, including optional ones.
func Names() []string {
	var names []string
	for _, s := range Pipeline(DefaultOptions()) {
		names = append(names, s.Name())
	}
	return names
}

// ByName returns the named sieve configured by opts.
func ByName(name string, opts Options) (Sieve, error) {
	opts.PronounResolution = true
	for _, s := range Pipeline(opts) {
		if s.Name() == name {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSieve, name)
}

// Context is the shared state every sieve reads and mutates while one
// document is processed. It is not safe for concurrent use.
type Context struct {
	Doc      *types.Document
	Views    *mention.Views
	Lexicon  *lexicon.Lexicon
	Mentions []*mention.Mention
	Clusters []*mention.Cluster

	// OnLink, when set, observes every link made.
	OnLink func(sieve string, a, b *mention.Mention)

	stage string
	links int
	fold  cases.Caser
	feats map[*mention.Mention]*features
}

// NewContext prepares a context over detected and enhanced mentions.
func NewContext(doc *types.Document, views *mention.Views, lex *lexicon.Lexicon, mentions []*mention.Mention) *Context {
	return &Context{
		Doc:      doc,
		Views:    views,
		Lexicon:  lex,
		Mentions: mentions,
		fold:     cases.Fold(),
		feats:    make(map[*mention.Mention]*features, len(mentions)),
	}
}

// Link applies the union rule to a and b on behalf of the running sieve.
func (c *Context) Link(a, b *mention.Mention) {
	if a == b {
		return
	}
	mention.Link(&c.Clusters, a, b)
	c.links++
	if c.OnLink != nil {
		c.OnLink(c.stage, a, b)
	}
}

// Run applies s to c and returns the number of links it made.
func Run(c *Context, s Sieve) int {
	c.stage = s.Name()
	c.links = 0
	s.Apply(c)
	n := c.links
	c.stage = ""
	return n
}

// pairs calls fn for every unordered pair (a before b in list order) of
// mentions accepted by keep.
func (c *Context) pairs(keep func(*mention.Mention) bool, fn func(a, b *mention.Mention)) {
	var ms []*mention.Mention
	for _, m := range c.Mentions {
		if keep(m) {
			ms = append(ms, m)
		}
	}
	for i := 0; i < len(ms); i++ {
		for j := i + 1; j < len(ms); j++ {
			fn(ms[i], ms[j])
		}
	}
}

func notPronoun(m *mention.Mention) bool { return !m.IsPronoun() }

func isEntity(m *mention.Mention) bool { return m.IsEntity() }
