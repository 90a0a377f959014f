package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/efebarandurmaz/aspiredoc/internal/config"
	"github.com/efebarandurmaz/aspiredoc/internal/graph"
	graphneo4j "github.com/efebarandurmaz/aspiredoc/internal/graph/neo4j"
	"github.com/efebarandurmaz/aspiredoc/internal/logging"
	"github.com/efebarandurmaz/aspiredoc/internal/observability"
	"github.com/efebarandurmaz/aspiredoc/internal/pipeline"
)

type globalFlags struct {
	configPath string
	projectDir string
	outputDir  string
	patterns   string
	logLevel   string
}

// apply copies command-line overrides onto cfg.
func (f globalFlags) apply(cfg *config.Config, urls []string) {
	if f.projectDir != "" {
		cfg.Scan.ProjectDir = f.projectDir
	}
	if f.outputDir != "" {
		cfg.Output.Dir = f.outputDir
	}
	if f.patterns != "" {
		cfg.Patterns.File = f.patterns
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if len(urls) > 0 {
		cfg.Scrape.URLs = append(cfg.Scrape.URLs, urls...)
	}
}

func loadConfig(flags globalFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	flags.apply(cfg, nil)
	return cfg, nil
}

type app struct {
	logger   *zap.Logger
	tracer   *observability.TracerProvider
	graph    graph.Repository
	pipeline *pipeline.Pipeline
}

// setup wires config, logging, tracing and the optional graph store into a
// pipeline. Console narration is written to out.
func setup(ctx context.Context, flags globalFlags, urls []string, out io.Writer) (*app, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	flags.apply(cfg, urls)

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	tp, err := observability.InitTracing(ctx, &observability.TracingConfig{
		ServiceName:    "aspiredoc",
		ServiceVersion: observability.Version,
		OTLPEndpoint:   cfg.Tracing.Endpoint,
		Insecure:       cfg.Tracing.Insecure,
		SampleRate:     cfg.Tracing.SampleRate,
	})
	if err != nil {
		logger.Warn("tracing disabled", zap.Error(err))
		tp, _ = observability.InitTracing(ctx, &observability.TracingConfig{})
	}

	a := &app{logger: logger, tracer: tp}

	opts := []pipeline.Option{pipeline.WithOutput(out)}
	if cfg.Graph.URI != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		repo, err := graphneo4j.NewNeo4j(connectCtx, cfg.Graph.URI, cfg.Graph.Username, cfg.Graph.Password, cfg.Graph.Database)
		cancel()
		if err != nil {
			logger.Warn("graph store unavailable, continuing without it", zap.String("uri", cfg.Graph.URI), zap.Error(err))
		} else {
			a.graph = repo
			opts = append(opts, pipeline.WithGraph(repo))
		}
	}

	p, err := pipeline.New(cfg, logger, opts...)
	if err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("building pipeline: %w", err)
	}
	a.pipeline = p
	return a, nil
}

func (a *app) close(ctx context.Context) {
	if a.graph != nil {
		if err := a.graph.Close(ctx); err != nil {
			a.logger.Warn("closing graph store", zap.Error(err))
		}
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			a.logger.Warn("flushing traces", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
