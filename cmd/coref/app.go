package main

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/scrypster/coref/internal/config"
	"github.com/scrypster/coref/internal/engine"
	"github.com/scrypster/coref/internal/gazetteer"
	"github.com/scrypster/coref/internal/lexicon"
	"github.com/scrypster/coref/internal/logging"
	"github.com/scrypster/coref/internal/metrics"
	"github.com/scrypster/coref/internal/sieve"
)

// app holds the components every subcommand is built from.
type app struct {
	cfg       *config.Config
	log       *logging.Logger
	gazetteer *gazetteer.Service
	resolver  *engine.Resolver
	registry  *prometheus.Registry
	metrics   *metrics.Metrics
}

func loadConfig(flags *rootFlags) (*config.Config, error) {
	if flags.configPath != "" {
		return config.LoadConfigFile(flags.configPath)
	}
	return config.LoadConfig()
}

// newApp wires configuration, logging, the gazetteer, metrics and the
// resolver. logOut receives log output.
func newApp(ctx context.Context, flags *rootFlags, logOut io.Writer) (*app, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}

	logOpts := logging.FromConfig(cfg.Logging)
	logOpts.Output = logOut
	a := &app{cfg: cfg, log: logging.New(logOpts)}

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.metrics = metrics.New(a.registry)

	a.gazetteer, err = gazetteer.Open(cfg.Gazetteer, a.log.Logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open gazetteer: %w", err)
	}
	a.gazetteer.SetObserver(a.metrics)

	if flags.seedPath != "" {
		entries, err := gazetteer.ReadEntriesFile(flags.seedPath)
		if err != nil {
			a.Close()
			return nil, err
		}
		n, err := a.gazetteer.Import(ctx, entries)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("seed gazetteer: %w", err)
		}
		a.log.Info("gazetteer seeded", "path", flags.seedPath, "entries", n)
	}

	lex := lexicon.Default()
	if cfg.Lexicon.Path != "" {
		if lex, err = lexicon.LoadFile(cfg.Lexicon.Path); err != nil {
			a.Close()
			return nil, err
		}
	}

	opts := engine.DefaultOptions()
	opts.Sieve = sieve.Options{
		PronounResolution:  cfg.Resolver.PronounResolution,
		MaxPronounDistance: cfg.Resolver.MaxPronounDistance,
	}
	opts.SinglePass = cfg.Resolver.SinglePass
	a.resolver, err = engine.NewResolver(lex, a.gazetteer, opts, a.log.Logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.resolver.SetObserver(a.metrics)
	return a, nil
}

// Close releases the gazetteer store and the log file.
func (a *app) Close() {
	if a.gazetteer != nil {
		if err := a.gazetteer.Close(); err != nil {
			a.log.Warn("gazetteer close failed", "error", err)
		}
	}
	_ = a.log.Close()
}
