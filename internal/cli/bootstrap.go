package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexanderramin/weekplan/internal/config"
	"github.com/alexanderramin/weekplan/internal/intelligence"
	"github.com/alexanderramin/weekplan/internal/llm"
	"github.com/alexanderramin/weekplan/internal/logger"
	"github.com/alexanderramin/weekplan/internal/telemetry"
	"github.com/alexanderramin/weekplan/internal/vocabulary"
)

// Version is stamped into traces and --version output.
var Version = "dev"

// DefaultBootstrap wires config, logging, tracing and the generator backend.
// A backend that cannot be built is replaced by llm.Unavailable so requests
// still produce envelopes.
func DefaultBootstrap(ctx context.Context, flags BootstrapFlags) (*App, func(context.Context) error, error) {
	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if flags.Debug {
		cfg.Debug = true
	}

	l, logCloser, err := logger.New(logger.Config{
		Debug:      cfg.Debug,
		Dir:        cfg.LogDir(),
		Level:      cfg.Logging.Level,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("opening log: %w", err)
	}

	shutdown, err := telemetry.Init(ctx, telemetry.Config{
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
		Version:     Version,
		SampleRatio: cfg.Tracing.SampleRatio,
	}, l)
	if err != nil {
		l.Warn("tracing disabled", "error", err)
		shutdown = func(context.Context) error { return nil }
	}

	var observer llm.Observer = llm.NoopObserver{}
	if cfg.LLM.LogCalls {
		observer = llm.NewLogObserver(l)
	}
	gen, err := llm.NewGenerator(ctx, cfg.LLM, observer)
	if err != nil {
		l.Warn("generator unavailable", "backend", cfg.LLM.Backend, "error", err)
		gen = llm.Unavailable(err)
	}

	vocab := vocabulary.Default()
	app := &App{
		Config:     cfg,
		Logger:     l,
		Vocabulary: vocab,
		Plan: intelligence.NewPlanService(gen, intelligence.PlanServiceOptions{
			Vocabulary:   vocab,
			Observer:     intelligence.NewLogUseCaseObserver(l),
			DefaultModel: cfg.LLM.Model,
		}),
	}
	l.Debug("bootstrap complete", "backend", cfg.LLM.Backend, "model", cfg.LLM.Model, "home", cfg.Home)

	cleanup := func(ctx context.Context) error {
		return errors.Join(shutdown(ctx), logCloser.Close())
	}
	return app, cleanup, nil
}
