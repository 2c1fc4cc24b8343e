// Package engine wires mention detection, attribute enhancement and the
// sieve pipeline into a document-level coreference resolver, and performs
// the post-processing that turns sieve clusters into reference chains.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/scrypster/coref/internal/enhance"
	"github.com/scrypster/coref/internal/lexicon"
	"github.com/scrypster/coref/internal/mention"
	"github.com/scrypster/coref/internal/sieve"
	"github.com/scrypster/coref/pkg/types"
)

// ErrNilDocument is returned by Resolve when no document is given.
var ErrNilDocument = errors.New("engine: nil document")

// Options configures a Resolver.
type Options struct {
	// Sieve selects optional stages and their parameters.
	Sieve sieve.Options

	// SinglePass, when set, runs only the named sieve.
	SinglePass string

	// NewReference generates reference identities. Defaults to random UUIDs.
	NewReference func() string
}

// DefaultOptions runs every sieve with pronoun resolution enabled.
func DefaultOptions() Options {
	return Options{Sieve: sieve.DefaultOptions()}
}

// Observer receives resolution measurements.
type Observer interface {
	ObserveResolve(elapsed time.Duration, mentions, chains int)
	ObserveSieve(name string, links int)
}

// Resolver resolves coreference in one document at a time. A Resolver holds
// no per-document state and may be shared between goroutines.
type Resolver struct {
	lex       *lexicon.Lexicon
	detector  *mention.Detector
	enhancers []enhance.Enhancer
	sieves    []sieve.Sieve
	newRef    func() string
	logger    *slog.Logger
	observer  Observer
}

// NewResolver builds a resolver. A nil gazetteer answers UNKNOWN and a nil
// logger uses slog.Default.
func NewResolver(lex *lexicon.Lexicon, gaz enhance.Gazetteer, opts Options, logger *slog.Logger) (*Resolver, error) {
	if lex == nil {
		lex = lexicon.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Sieve.MaxPronounDistance <= 0 {
		opts.Sieve.MaxPronounDistance = sieve.DefaultMaxPronounDistance
	}

	sieves := sieve.Pipeline(opts.Sieve)
	if opts.SinglePass != "" {
		s, err := sieve.ByName(opts.SinglePass, opts.Sieve)
		if err != nil {
			return nil, fmt.Errorf("engine: single pass: %w", err)
		}
		sieves = []sieve.Sieve{s}
	}

	newRef := opts.NewReference
	if newRef == nil {
		newRef = func() string { return uuid.New().String() }
	}

	return &Resolver{
		lex:       lex,
		detector:  mention.NewDetector(lex),
		enhancers: enhance.Default(lex, gaz),
		sieves:    sieves,
		newRef:    newRef,
		logger:    logger,
	}, nil
}

// SetObserver attaches an observer. It must be called before the resolver
// is shared.
func (r *Resolver) SetObserver(o Observer) { r.observer = o }

// Sieves returns the names of the sieves this resolver runs, in order.
func (r *Resolver) Sieves() []string {
	names := make([]string, len(r.sieves))
	for i, s := range r.sieves {
		names[i] = s.Name()
	}
	return names
}

// Resolve detects mentions in doc, clusters them and writes one fresh
// reference identity onto the annotations of every mention of each chain.
// Only malformed syntax annotations and context cancellation are errors.
func (r *Resolver) Resolve(ctx context.Context, doc *types.Document) (*types.Result, error) {
	if doc == nil {
		return nil, ErrNilDocument
	}
	start := time.Now()
	emitToContext(ctx, EventResolveStarted(doc.ID))

	views, err := mention.BuildViews(doc)
	if err != nil {
		return nil, fmt.Errorf("engine: document %q: %w", doc.ID, err)
	}
	mentions, err := r.detector.Detect(doc, views)
	if err != nil {
		return nil, fmt.Errorf("engine: document %q: %w", doc.ID, err)
	}
	enhance.Apply(ctx, doc, r.enhancers, mentions)
	emitToContext(ctx, EventMentionsDetected(len(mentions)))

	sc := sieve.NewContext(doc, views, r.lex, mentions)
	if _, ok := TraceCollectorFromContext(ctx); ok {
		sc.OnLink = func(name string, a, b *mention.Mention) {
			emitToContext(ctx, EventLinked(name, a.String(), b.String()))
		}
	}

	links := make(map[string]int, len(r.sieves))
	for _, s := range r.sieves {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n := sieve.Run(sc, s)
		links[s.Name()] = n
		emitToContext(ctx, EventSieveApplied(s.Name(), n))
		if r.observer != nil {
			r.observer.ObserveSieve(s.Name(), n)
		}
		r.logger.Debug("sieve applied", "document", doc.ID, "sieve", s.Name(), "links", n, "clusters", len(sc.Clusters))
	}

	clusters, pruned := Prune(sc.Clusters)
	emitToContext(ctx, EventClustersPruned(len(clusters), pruned))

	merged, absorbed := Merge(clusters)
	emitToContext(ctx, EventClustersMerged(len(merged), absorbed))

	chains := Emit(doc, merged, r.newRef)
	refs := make([]string, len(chains))
	for i, c := range chains {
		refs[i] = c.Reference
	}
	emitToContext(ctx, EventReferencesEmitted(refs))

	elapsed := time.Since(start)
	if r.observer != nil {
		r.observer.ObserveResolve(elapsed, len(mentions), len(chains))
	}
	r.logger.Debug("document resolved",
		"document", doc.ID,
		"mentions", len(mentions),
		"chains", len(chains),
		"pruned", pruned,
		"absorbed", absorbed,
		"elapsed", elapsed)

	return &types.Result{
		DocumentID:   doc.ID,
		Chains:       chains,
		MentionCount: len(mentions),
		SieveLinks:   links,
	}, nil
}
