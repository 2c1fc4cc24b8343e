// Package gazetteer answers gender and number questions about mentions the
// closed lexicon cannot classify. A Service fronts a storage.LexiconStore
// with an LRU cache, a per-lookup deadline and a circuit breaker, and
// degrades every failure to UNKNOWN so resolution never stops on it.
package gazetteer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/scrypster/coref/internal/enhance"
	"github.com/scrypster/coref/internal/storage"
	"github.com/scrypster/coref/pkg/types"
)

// Lookup outcomes reported to an Observer.
const (
	OutcomeCacheHit    = "cache_hit"
	OutcomeFound       = "found"
	OutcomeNotFound    = "not_found"
	OutcomeError       = "error"
	OutcomeCircuitOpen = "circuit_open"
)

// Observer receives one outcome per lookup.
type Observer interface {
	ObserveLookup(outcome string)
}

// Config configures a Service.
type Config struct {
	CacheSize      int
	MaxFailures    int
	BreakerTimeout time.Duration
	LookupTimeout  time.Duration
}

// Service implements enhance.Gazetteer over a LexiconStore.
type Service struct {
	store    storage.LexiconStore
	cache    *lru.Cache[string, storage.Entry]
	breaker  *CircuitBreaker
	timeout  time.Duration
	logger   *slog.Logger
	observer Observer
}

var _ enhance.Gazetteer = (*Service)(nil)

// NewService wraps store. A CacheSize of zero disables caching; a zero
// LookupTimeout leaves lookups bounded only by the caller's context.
func NewService(store storage.LexiconStore, cfg Config, logger *slog.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("gazetteer: %w: store is required", storage.ErrInvalidInput)
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{
		store:   store,
		timeout: cfg.LookupTimeout,
		logger:  logger,
		breaker: NewCircuitBreakerWithConfig(CircuitBreakerConfig{
			MaxFailures: uint32(max(cfg.MaxFailures, 0)),
			Timeout:     cfg.BreakerTimeout,
		}, logger),
	}
	if cfg.CacheSize > 0 {
		cache, err := lru.New[string, storage.Entry](cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("gazetteer: failed to create cache: %w", err)
		}
		s.cache = cache
	}
	return s, nil
}

// SetObserver attaches an observer. It must be called before the service
// is shared.
func (s *Service) SetObserver(o Observer) { s.observer = o }

// Breaker exposes the circuit breaker for health reporting.
func (s *Service) Breaker() *CircuitBreaker { return s.breaker }

// LookupGender returns the gender recorded for text, or UNKNOWN.
func (s *Service) LookupGender(ctx context.Context, text string) types.Gender {
	e, ok := s.lookup(ctx, text)
	if !ok {
		return types.GenderUnknown
	}
	return e.Gender
}

// LookupMultiplicity returns the multiplicity recorded for text, or UNKNOWN.
func (s *Service) LookupMultiplicity(ctx context.Context, text string) types.Multiplicity {
	e, ok := s.lookup(ctx, text)
	if !ok {
		return types.MultiplicityUnknown
	}
	return e.Multiplicity
}

// Lookup returns the entry answering text. Misses are cached as entries with
// unknown attributes and reported as storage.ErrNotFound.
func (s *Service) Lookup(ctx context.Context, text string) (*storage.Entry, error) {
	key := storage.NormalizeTerm(text)
	if key == "" {
		return nil, storage.ErrNotFound
	}

	if s.cache != nil {
		if e, ok := s.cache.Get(key); ok {
			s.observe(OutcomeCacheHit)
			if e.Match == "" {
				return nil, storage.ErrNotFound
			}
			return &e, nil
		}
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	res, err := s.breaker.Execute(ctx, func() (interface{}, error) {
		return s.store.Lookup(ctx, key)
	})
	switch {
	case err == nil:
		e := res.(*storage.Entry)
		s.remember(key, *e)
		s.observe(OutcomeFound)
		return e, nil
	case errors.Is(err, storage.ErrNotFound):
		s.remember(key, storage.Entry{Term: key})
		s.observe(OutcomeNotFound)
		return nil, err
	case errors.Is(err, ErrCircuitOpen):
		s.observe(OutcomeCircuitOpen)
		return nil, err
	default:
		s.observe(OutcomeError)
		return nil, fmt.Errorf("gazetteer: lookup %q: %w", key, err)
	}
}

func (s *Service) lookup(ctx context.Context, text string) (*storage.Entry, bool) {
	e, err := s.Lookup(ctx, text)
	switch {
	case err == nil:
		return e, true
	case errors.Is(err, storage.ErrNotFound):
	case errors.Is(err, ErrCircuitOpen):
		s.logger.Debug("gazetteer lookup skipped", "text", text, "error", err)
	default:
		s.logger.Warn("gazetteer lookup degraded to unknown", "text", text, "error", err)
	}
	return nil, false
}

func (s *Service) remember(key string, e storage.Entry) {
	if s.cache != nil {
		s.cache.Add(key, e)
	}
}

func (s *Service) observe(outcome string) {
	if s.observer != nil {
		s.observer.ObserveLookup(outcome)
	}
}

// Purge empties the cache, typically after an import.
func (s *Service) Purge() {
	if s.cache != nil {
		s.cache.Purge()
	}
}

// Import writes entries to the store and drops cached answers.
func (s *Service) Import(ctx context.Context, entries []storage.Entry) (int, error) {
	n, err := s.store.Import(ctx, entries)
	if err != nil {
		return 0, err
	}
	s.Purge()
	return n, nil
}

// Count returns the number of entries in the store.
func (s *Service) Count(ctx context.Context) (int, error) { return s.store.Count(ctx) }

// Close closes the underlying store.
func (s *Service) Close() error { return s.store.Close() }
