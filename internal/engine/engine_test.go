package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/coref/internal/doctest"
	"github.com/scrypster/coref/internal/lexicon"
	"github.com/scrypster/coref/internal/mention"
	"github.com/scrypster/coref/internal/sieve"
	"github.com/scrypster/coref/internal/syntax"
	"github.com/scrypster/coref/pkg/types"
)

func counterRefs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("ref-%d", n)
	}
}

func newResolver(t *testing.T, singlePass string) *Resolver {
	t.Helper()
	opts := DefaultOptions()
	opts.SinglePass = singlePass
	opts.NewReference = counterRefs()
	r, err := NewResolver(lexicon.Default(), nil, opts, nil)
	require.NoError(t, err)
	return r
}

func chainTexts(res *types.Result) [][]string {
	var out [][]string
	for _, c := range res.Chains {
		out = append(out, c.Texts())
	}
	return out
}

// Chris Smith went to London and he saw Big Ben. Chris saw his sister there.
func scenarioChrisSmith(t *testing.T) *types.Document {
	return doctest.New(t,
		`(S (S (NP (NNP Chris) (NNP Smith)) (VP (VBD went) (PP (TO to) (NP (NNP London))))) (CC and) `+
			`(S (NP (PRP he)) (VP (VBD saw) (NP (NNP Big) (NNP Ben)))) (. .)) `+
			`(S (NP (NNP Chris)) (VP (VBD saw) (NP (PRP$ his) (NN sister)) (ADVP (RB there))) (. .))`).
		Heads(1, 2, -1, 2, 3, 2, 7, 2, 9, 7, 2, 12, -1, 14, 12, 12, 12).
		Entity(types.ClassPerson, "Chris Smith").
		Entity(types.ClassPerson, "Chris", 1).
		Entity(types.ClassLocation, "London").
		Entity(types.ClassLocation, "Big Ben").
		Doc()
}

func TestResolve_PersonAndPronouns(t *testing.T) {
	doc := scenarioChrisSmith(t)
	require.Equal(t, "Chris Smith went to London and he saw Big Ben. Chris saw his sister there.", doc.Text)

	res, err := newResolver(t, "").Resolve(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"Chris Smith", "he", "Chris", "his"}}, chainTexts(res))
	assert.Equal(t, 7, res.MentionCount)
	assert.Equal(t, 1, res.SieveLinks[sieve.NameRelaxedHeadMatch])
	assert.Equal(t, 2, res.SieveLinks[sieve.NamePronounResolution])

	ref := res.Chains[0].Reference
	assert.Equal(t, ref, doc.Entities[0].Reference)
	assert.Equal(t, ref, doc.Entities[1].Reference)
	assert.Equal(t, ref, doc.Tokens[6].Reference, "he")
	assert.Equal(t, ref, doc.Tokens[13].Reference, "his")
	assert.Empty(t, doc.Entities[2].Reference, "London stays unresolved")
}

// Chris went to London and in London he saw Big Ben.
func TestResolve_ExactStringMatchSinglePass(t *testing.T) {
	doc := doctest.New(t,
		`(S (S (NP (NNP Chris)) (VP (VBD went) (PP (TO to) (NP (NNP London))))) (CC and) `+
			`(S (PP (IN in) (NP (NNP London))) (NP (PRP he)) (VP (VBD saw) (NP (NNP Big) (NNP Ben)))) (. .))`).
		Entity(types.ClassLocation, "London").
		Entity(types.ClassLocation, "London", 1).
		Doc()

	res, err := newResolver(t, sieve.NameExactStringMatch).Resolve(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"London", "London"}}, chainTexts(res))
	assert.Equal(t, map[string]int{sieve.NameExactStringMatch: 1}, res.SieveLinks)
}

func TestResolve_ProperHeadMatchSinglePass(t *testing.T) {
	t.Run("no conflicting numerals", func(t *testing.T) {
		// The 200 people visited and then the people left.
		doc := doctest.New(t,
			`(S (S (NP (DT The) (CD 200) (NNS people)) (VP (VBD visited))) (CC and) `+
				`(S (ADVP (RB then)) (NP (DT the) (NNS people)) (VP (VBD left))) (. .))`).
			Heads(2, 2, 3, -1, 3, 8, 7, 8, 3, 3).
			Doc()

		res, err := newResolver(t, sieve.NameProperHeadMatch).Resolve(context.Background(), doc)
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"The 200 people", "the people"}}, chainTexts(res))
	})

	t.Run("conflicting numerals", func(t *testing.T) {
		// The 200 people visited and 100 people left.
		doc := doctest.New(t,
			`(S (S (NP (DT The) (CD 200) (NNS people)) (VP (VBD visited))) (CC and) `+
				`(S (NP (CD 100) (NNS people)) (VP (VBD left))) (. .))`).
			Heads(2, 2, 3, -1, 3, 6, 7, 3, 3).
			Doc()

		res, err := newResolver(t, sieve.NameProperHeadMatch).Resolve(context.Background(), doc)
		require.NoError(t, err)
		assert.Empty(t, res.Chains)
	})
}

// The prime minister, David Cameron explained on Tuesday.
func TestResolve_AppositiveSinglePass(t *testing.T) {
	doc := doctest.New(t,
		`(S (NP (NP (DT The) (JJ prime) (NN minister)) (, ,) (NP (NNP David) (NNP Cameron))) `+
			`(VP (VBD explained) (PP (IN on) (NP (NNP Tuesday)))) (. .))`).
		Entity(types.ClassPerson, "David Cameron").
		Doc()

	res, err := newResolver(t, sieve.NamePreciseConstructs).Resolve(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"The prime minister", "David Cameron"}}, chainTexts(res))
	assert.Equal(t, types.KindNounPhrase, res.Chains[0].Mentions[0].Kind)
	assert.Equal(t, types.ClassPerson, res.Chains[0].Mentions[1].Class)
}

// He said he has not been in touch with her.
func TestResolve_InSentencePronounSinglePass(t *testing.T) {
	doc := doctest.New(t,
		`(S (NP (PRP He)) (VP (VBD said) (SBAR (S (NP (PRP he)) (VP (VBZ has) (RB not) `+
			`(VP (VBN been) (PP (IN in) (NP (NN touch))) (PP (IN with) (NP (PRP her)))))))) (. .))`).
		Doc()

	res, err := newResolver(t, sieve.NameInSentencePronoun).Resolve(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"He", "he"}}, chainTexts(res))
	assert.Empty(t, doc.Tokens[len(doc.Tokens)-2].Reference, "her")
}

func TestResolve_OverwritesSeededReferences(t *testing.T) {
	doc := doctest.New(t, `(S (NP (NNP Acme)) (VP (VBD sued) (NP (NNP Acme))) (. .))`).
		Entity(types.ClassOrganisation, "Acme").
		Entity(types.ClassOrganisation, "Acme", 1).
		Doc()
	doc.Entities[0].Reference = "upstream"
	doc.Entities[1].Reference = "upstream"

	res, err := newResolver(t, "").Resolve(context.Background(), doc)
	require.NoError(t, err)

	require.Len(t, res.Chains, 1)
	assert.Equal(t, "ref-1", doc.Entities[0].Reference)
	assert.Equal(t, "ref-1", doc.Entities[1].Reference)
	assert.Equal(t, 1, res.SieveLinks[sieve.NameSeedLinks])
	assert.Equal(t, 1, res.SieveLinks[sieve.NameExactStringMatch], "re-linking counts even when already clustered")
}

func TestResolve_Errors(t *testing.T) {
	r := newResolver(t, "")

	_, err := r.Resolve(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNilDocument)

	doc := doctest.New(t, `(S (NP (PRP He)) (VP (VBD left)))`).Doc()
	doc.Chunks[0].Parent = 99
	_, err = r.Resolve(context.Background(), doc)
	assert.ErrorIs(t, err, syntax.ErrMalformed)

	// Offsets past the text are reported, not sliced.
	doc = &types.Document{
		Text:   "A , B",
		Tokens: []types.Token{{Begin: 0, End: 1, POS: "NNP"}, {Begin: 2, End: 3, POS: ","}, {Begin: 4, End: 5, POS: "NNP"}},
		Chunks: []types.Chunk{
			{Begin: 40, End: 45, Type: syntax.NounPhrase, Parent: syntax.NoParent},
			{Begin: 0, End: 1, Type: syntax.NounPhrase, Parent: 0},
			{Begin: 4, End: 5, Type: syntax.NounPhrase, Parent: 0},
		},
	}
	require.NotPanics(t, func() { _, err = r.Resolve(context.Background(), doc) })
	assert.ErrorIs(t, err, syntax.ErrMalformed)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Resolve(ctx, doctest.New(t, `(S (NP (PRP He)) (VP (VBD left)))`).Doc())
	assert.ErrorIs(t, err, context.Canceled)

	_, err = NewResolver(nil, nil, Options{SinglePass: "no-such-sieve"}, nil)
	assert.ErrorIs(t, err, sieve.ErrUnknownSieve)
}

func TestResolve_MissingSentencesAreTolerated(t *testing.T) {
	doc := doctest.New(t, `(S (NP (NNP Acme)) (VP (VBD sued) (NP (NNP Acme))) (. .))`).Doc()
	doc.Sentences = nil

	res, err := newResolver(t, "").Resolve(context.Background(), doc)
	require.NoError(t, err)
	assert.Len(t, res.Chains, 1)
}

func TestResolver_Sieves(t *testing.T) {
	assert.Equal(t, sieve.Names(), newResolver(t, "").Sieves())
	assert.Equal(t, []string{sieve.NameProperHeadMatch}, newResolver(t, sieve.NameProperHeadMatch).Sieves())

	r, err := NewResolver(nil, nil, Options{}, nil)
	require.NoError(t, err)
	assert.NotContains(t, r.Sieves(), sieve.NamePronounResolution)
}

type fakeObserver struct {
	sieves   map[string]int
	resolved int
	chains   int
}

func (f *fakeObserver) ObserveResolve(_ time.Duration, _ int, chains int) {
	f.resolved++
	f.chains += chains
}

func (f *fakeObserver) ObserveSieve(name string, links int) { f.sieves[name] += links }

func TestResolve_Observer(t *testing.T) {
	r := newResolver(t, "")
	obs := &fakeObserver{sieves: map[string]int{}}
	r.SetObserver(obs)

	_, err := r.Resolve(context.Background(), scenarioChrisSmith(t))
	require.NoError(t, err)

	assert.Equal(t, 1, obs.resolved)
	assert.Equal(t, 1, obs.chains)
	assert.Len(t, obs.sieves, len(sieve.Names()))
	assert.Equal(t, 2, obs.sieves[sieve.NamePronounResolution])
}

func TestResolve_UUIDReferencesByDefault(t *testing.T) {
	r, err := NewResolver(nil, nil, DefaultOptions(), nil)
	require.NoError(t, err)

	res, err := r.Resolve(context.Background(), scenarioChrisSmith(t))
	require.NoError(t, err)
	require.Len(t, res.Chains, 1)
	assert.Len(t, res.Chains[0].Reference, 36)
}

func mentions(texts ...string) []*mention.Mention {
	out := make([]*mention.Mention, len(texts))
	for i, text := range texts {
		out[i] = mention.New(mention.Span{Begin: i * 10, End: i*10 + len(text), Text: text})
	}
	return out
}

func TestPrune_RemovesSingletons(t *testing.T) {
	ms := mentions("a", "b", "c")
	single := mention.NewCluster(ms[0])
	empty := mention.NewCluster()
	pair := mention.NewCluster(ms[1], ms[2])

	kept, removed := Prune([]*mention.Cluster{single, empty, pair})

	assert.Equal(t, []*mention.Cluster{pair}, kept)
	assert.Equal(t, 2, removed)
	assert.Nil(t, ms[0].Cluster())
	for _, c := range kept {
		assert.Greater(t, c.Size(), 1)
	}
}

func TestMerge_TwoIntersectingClusters(t *testing.T) {
	ms := mentions("a", "b", "c")
	x := mention.NewCluster(ms[0], ms[1])
	y := mention.NewCluster(ms[1], ms[2])

	merged, absorbed := Merge([]*mention.Cluster{x, y})

	require.Len(t, merged, 1)
	assert.Equal(t, 1, absorbed)
	assert.Equal(t, ms, merged[0].Mentions())
	for _, m := range ms {
		assert.Equal(t, []*mention.Cluster{x}, m.Clusters())
	}
}

func TestMerge_IsSinglePass(t *testing.T) {
	ms := mentions("a", "b", "c", "d")
	x := mention.NewCluster(ms[0], ms[1])
	y := mention.NewCluster(ms[2], ms[3])
	bridge := mention.NewCluster(ms[1], ms[2])

	merged, _ := Merge([]*mention.Cluster{x, y, bridge})

	// bridge folds into x, after which x and y share c but are not revisited.
	require.Len(t, merged, 2)
	assert.True(t, merged[0].Intersects(merged[1]))
}

func TestEmit(t *testing.T) {
	doc := doctest.New(t, `(S (NP (NNP Acme)) (VP (VBD sued) (NP (PRP it))) (. .))`).
		Entity(types.ClassOrganisation, "Acme").
		Doc()
	org := mention.New(mention.Span{Begin: 0, End: 4, Text: "Acme", Source: mention.Source{Kind: types.KindEntity, Index: 0}})
	it := mention.New(mention.Span{Begin: 10, End: 12, Text: "it", Source: mention.Source{Kind: types.KindPronoun, Index: 2}})

	chains := Emit(doc, []*mention.Cluster{mention.NewCluster(it, org)}, counterRefs())

	require.Len(t, chains, 1)
	assert.Equal(t, []string{"Acme", "it"}, chains[0].Texts(), "mentions are in document order")
	assert.Equal(t, "ref-1", doc.Entities[0].Reference)
	assert.Equal(t, "ref-1", doc.Tokens[2].Reference)
}

func TestDebugResolve(t *testing.T) {
	doc := doctest.New(t,
		`(S (NP (PRP He)) (VP (VBD said) (SBAR (S (NP (PRP he)) (VP (VBZ has) (RB not) `+
			`(VP (VBN been) (PP (IN in) (NP (NN touch))) (PP (IN with) (NP (PRP her)))))))) (. .))`).
		Doc()
	doc.ID = "doc-5"

	res, dbg, err := newResolver(t, sieve.NameInSentencePronoun).DebugResolve(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, res.Chains, 1)

	assert.Equal(t, "doc-5", dbg.DocumentID)
	assert.Equal(t, 4, dbg.MentionsDetected)
	assert.Equal(t, []SieveEntry{{Name: sieve.NameInSentencePronoun, Links: 1}}, dbg.Sieves)
	require.Len(t, dbg.Links, 1)
	assert.Equal(t, sieve.NameInSentencePronoun, dbg.Links[0].Sieve)
	assert.Equal(t, []string{res.Chains[0].Reference}, dbg.References)
	assert.Zero(t, dbg.Absorbed)
}
