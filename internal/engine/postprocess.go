package engine

import (
	"sort"

	"github.com/scrypster/coref/internal/mention"
	"github.com/scrypster/coref/pkg/types"
)

// Prune dissolves every cluster of size one or less and returns the rest,
// in order, with the number removed.
func Prune(clusters []*mention.Cluster) ([]*mention.Cluster, int) {
	kept := make([]*mention.Cluster, 0, len(clusters))
	for _, c := range clusters {
		if c.Size() <= 1 {
			c.Dissolve()
			continue
		}
		kept = append(kept, c)
	}
	return kept, len(clusters) - len(kept)
}

// Merge folds clusters in a single left-to-right pass: a cluster that
// shares a mention with an already accepted cluster is absorbed into the
// first such cluster and dissolved, otherwise it is accepted.
//
// This is not a transitive closure. Two accepted clusters that only come to
// share a mention through a later absorption stay separate.
func Merge(clusters []*mention.Cluster) ([]*mention.Cluster, int) {
	var accepted []*mention.Cluster
	absorbed := 0
	for _, c := range clusters {
		var into *mention.Cluster
		for _, a := range accepted {
			if a.Intersects(c) {
				into = a
				break
			}
		}
		if into == nil {
			accepted = append(accepted, c)
			continue
		}
		into.AddAll(c)
		c.Dissolve()
		absorbed++
	}
	return accepted, absorbed
}

// Emit assigns one fresh reference from newRef to each cluster, writes it
// onto the annotation behind every member, overwriting any earlier value,
// and returns the chains with mentions in document order.
func Emit(doc *types.Document, clusters []*mention.Cluster, newRef func() string) []types.Chain {
	chains := make([]types.Chain, 0, len(clusters))
	for _, c := range clusters {
		ref := newRef()
		members := append([]*mention.Mention(nil), c.Mentions()...)
		sort.SliceStable(members, func(i, j int) bool {
			if members[i].Span.Begin != members[j].Span.Begin {
				return members[i].Span.Begin < members[j].Span.Begin
			}
			return members[i].Span.End < members[j].Span.End
		})

		chain := types.Chain{Reference: ref, Mentions: make([]types.MentionRef, 0, len(members))}
		for _, m := range members {
			m.Span.Source.SetReference(doc, ref)
			chain.Mentions = append(chain.Mentions, m.Ref())
		}
		chains = append(chains, chain)
	}
	return chains
}
