package gazetteer

import (
	"fmt"
	"log/slog"

	"github.com/scrypster/coref/internal/config"
	"github.com/scrypster/coref/internal/storage"
	"github.com/scrypster/coref/internal/storage/postgres"
	"github.com/scrypster/coref/internal/storage/sqlite"
)

// OpenStore opens the lexicon store named by cfg.Backend.
func OpenStore(cfg config.GazetteerConfig) (storage.LexiconStore, error) {
	var (
		store storage.LexiconStore
		err   error
	)
	switch cfg.Backend {
	case config.BackendMemory, "":
		store, err = NewStatic()
	case config.BackendSQLite:
		store, err = sqlite.NewLexiconStore(cfg.DSN)
	case config.BackendPostgres:
		store, err = postgres.NewLexiconStore(cfg.DSN)
	default:
		return nil, fmt.Errorf("gazetteer: unknown backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}

// Open opens the configured store and wraps it in a Service.
func Open(cfg config.GazetteerConfig, logger *slog.Logger) (*Service, error) {
	store, err := OpenStore(cfg)
	if err != nil {
		return nil, err
	}
	svc, err := NewService(store, Config{
		CacheSize:      cfg.CacheSize,
		MaxFailures:    cfg.MaxFailures,
		BreakerTimeout: cfg.BreakerTimeout,
		LookupTimeout:  cfg.LookupTimeout,
	}, logger)
	if err != nil {
		store.Close()
		return nil, err
	}
	return svc, nil
}
