package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/ShayCichocki/finagent/internal/api"
	"github.com/ShayCichocki/finagent/internal/config"
	"github.com/ShayCichocki/finagent/internal/dataset"
	"github.com/ShayCichocki/finagent/internal/history"
	"github.com/ShayCichocki/finagent/internal/orchestrator"
	"github.com/ShayCichocki/finagent/internal/planner"
	"github.com/ShayCichocki/finagent/internal/worker"
)

// app wires configuration into a ready orchestrator.
type app struct {
	orch    *orchestrator.Orchestrator
	client  *api.Client
	source  *dataset.CachedSource
	history *history.Store
	debug   *orchestrator.DebugLogger
}

// newApp builds the orchestrator described by cfg. events may be nil.
func newApp(cfg *config.Config, logger *slog.Logger, events *orchestrator.EventEmitter) (*app, error) {
	a := &app{}

	reasoner, client, err := newReasoner(cfg, logger)
	if err != nil {
		return nil, err
	}
	a.client = client

	rules, err := planner.LoadRules(cfg.Planner.RulesFile)
	if err != nil {
		return nil, err
	}

	a.source = dataset.NewCachedSource(dataset.Open(cfg.Data.Path, cfg.Data.Table), cfg.Data.Path, cfg.Data.Watch, logger)

	p := planner.New(reasoner, rules, planner.Config{
		Temperature: cfg.Planner.Temperature,
		MaxTokens:   cfg.Planner.MaxTokens,
	}, logger)
	workers := worker.Defaults(a.source, reasoner, worker.SummarizerConfig{
		Temperature: cfg.Summarizer.Temperature,
		MaxTokens:   cfg.Summarizer.MaxTokens,
	}, logger)

	opts := []orchestrator.Option{
		orchestrator.WithLogger(logger),
		orchestrator.WithEvents(events),
	}

	if cfg.Log.DebugFile != "" {
		debug, err := orchestrator.NewDebugLogger(cfg.Log.DebugFile)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.debug = debug
		opts = append(opts, orchestrator.WithDebugLogger(debug))
	}

	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			logger.Warn("run history disabled", "path", cfg.History.Path, "error", err)
		} else {
			a.history = store
			opts = append(opts, orchestrator.WithRecorder(store))
		}
	}

	a.orch = orchestrator.New(p, workers, opts...)
	return a, nil
}

// newReasoner returns the Claude-backed reasoner, or a nil reasoner when no
// credentials are configured so that planning and summaries run locally.
func newReasoner(cfg *config.Config, logger *slog.Logger) (api.Reasoner, *api.Client, error) {
	creds, err := config.ResolveCredentials(cfg)
	if errors.Is(err, config.ErrNoAPIKey) {
		logger.Warn("no API key configured; using local planning rules and templated summaries")
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	client, err := api.NewClient(api.ClientConfig{
		Model:         anthropic.Model(cfg.Anthropic.Model),
		APIKey:        creds.APIKey,
		UseAWSBedrock: cfg.Anthropic.UseBedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
		AWSProfile:    cfg.Anthropic.AWSProfile,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create API client: %w", err)
	}
	logger.Debug("reasoning service ready", "client", client.String(), "credentials", creds.Source)
	return api.NewRunner(client), client, nil
}

// Close releases the data watcher, history store and debug log.
func (a *app) Close() error {
	var errs []error
	if a.source != nil {
		errs = append(errs, a.source.Close())
	}
	if a.history != nil {
		errs = append(errs, a.history.Close())
	}
	if a.debug != nil {
		errs = append(errs, a.debug.Close())
	}
	return errors.Join(errs...)
}
