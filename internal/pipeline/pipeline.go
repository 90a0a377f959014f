// Package pipeline runs the documentation pipeline end to end: load the
// project, extract the model, scrape URLs, then write the raw record and the
// overview document.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/efebarandurmaz/aspiredoc/internal/config"
	"github.com/efebarandurmaz/aspiredoc/internal/corpus"
	"github.com/efebarandurmaz/aspiredoc/internal/docs"
	"github.com/efebarandurmaz/aspiredoc/internal/graph"
	"github.com/efebarandurmaz/aspiredoc/internal/metrics"
	"github.com/efebarandurmaz/aspiredoc/internal/model"
	"github.com/efebarandurmaz/aspiredoc/internal/observability"
	"github.com/efebarandurmaz/aspiredoc/internal/output"
	"github.com/efebarandurmaz/aspiredoc/internal/plugins"
	"github.com/efebarandurmaz/aspiredoc/internal/webscrape"
)

// Scraper fetches remote pages. *webscrape.Scraper implements it.
type Scraper interface {
	ScrapeAll(ctx context.Context, urls []string) []webscrape.Result
}

// Pipeline holds the collaborators of a run. It can run more than once.
type Pipeline struct {
	cfg       *config.Config
	logger    *zap.Logger
	registry  *plugins.Registry
	framework string
	scraper   Scraper
	graph     graph.Repository
	out       io.Writer
	now       func() time.Time
	newRunID  func() string
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithRegistry replaces the built-in extractor registry.
func WithRegistry(r *plugins.Registry) Option { return func(p *Pipeline) { p.registry = r } }

// WithFramework selects the extractor by framework name.
func WithFramework(name string) Option { return func(p *Pipeline) { p.framework = name } }

// WithScraper replaces the URL scraper built from the scrape config.
func WithScraper(s Scraper) Option { return func(p *Pipeline) { p.scraper = s } }

// WithGraph stores every extracted model in repo.
func WithGraph(repo graph.Repository) Option { return func(p *Pipeline) { p.graph = repo } }

// WithOutput directs the console narration to w.
func WithOutput(w io.Writer) Option { return func(p *Pipeline) { p.out = w } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(p *Pipeline) { p.now = now } }

// WithRunID overrides run id generation.
func WithRunID(f func() string) Option { return func(p *Pipeline) { p.newRunID = f } }

// New builds a pipeline from configuration.
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pipeline{
		cfg:       cfg,
		logger:    logger,
		framework: DefaultFramework,
		out:       io.Discard,
		now:       time.Now,
		newRunID:  func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.registry == nil {
		r, err := NewRegistry(cfg.Patterns)
		if err != nil {
			return nil, err
		}
		p.registry = r
	}
	if p.scraper == nil && len(cfg.Scrape.URLs) > 0 {
		s, err := webscrape.New(webscrape.Options{
			UserAgent:       cfg.Scrape.UserAgent,
			Timeout:         cfg.Scrape.Timeout,
			RespectRobots:   cfg.Scrape.RespectRobots,
			RobotsCacheSize: cfg.Scrape.RobotsCacheSize,
			MaxBodyBytes:    cfg.Scrape.MaxBodyBytes,
		}, logger.Named("scrape"))
		if err != nil {
			return nil, err
		}
		p.scraper = s
	}
	return p, nil
}

// Result describes a finished run.
type Result struct {
	RunID             string
	Model             *model.Model
	FileCount         int
	Pages             []webscrape.Result
	Document          string
	DocumentPath      string
	ScrapeResultsPath string
	MetricsPath       string
	Metrics           *metrics.PipelineMetrics
}

// Scan loads the project and extracts its model without writing anything.
func (p *Pipeline) Scan(ctx context.Context) (*model.Model, []corpus.File, error) {
	extractor, err := p.registry.Extractor(p.framework)
	if err != nil {
		return nil, nil, err
	}
	files, err := p.load(ctx)
	if err != nil {
		return nil, nil, err
	}
	return p.extract(extractor, files), files, nil
}

func (p *Pipeline) load(ctx context.Context) ([]corpus.File, error) {
	loader := corpus.NewLoader(p.cfg.Scan.Extensions, p.cfg.Scan.SkipDirs, p.logger.Named("corpus"))
	files, err := loader.Load(ctx, p.cfg.Scan.ProjectDir)
	if err != nil {
		return nil, fmt.Errorf("loading project: %w", err)
	}
	return files, nil
}

func (p *Pipeline) extract(e plugins.Extractor, files []corpus.File) *model.Model {
	m := e.Extract(corpus.SourceFiles(corpus.ForExtractor(files, e)))
	for _, name := range m.Collisions() {
		p.logger.Warn("name registered as both service and resource", zap.String("name", name))
	}
	return m
}

type run struct {
	ctx     context.Context
	metrics *metrics.PipelineMetrics
}

func (r *run) stage(name string, fn func(ctx context.Context, span trace.Span) error) error {
	ctx, span := observability.StartStageSpan(r.ctx, name)
	defer span.End()

	start := time.Now()
	err := fn(ctx, span)
	errCount := 0
	if err != nil {
		errCount = 1
		observability.RecordError(span, err)
	}
	r.metrics.AddStage(name, time.Since(start), errCount)
	return err
}

// Run executes the full pipeline.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	extractor, err := p.registry.Extractor(p.framework)
	if err != nil {
		return nil, err
	}

	startedAt := p.now()
	runID := p.newRunID()
	res := &Result{RunID: runID, Metrics: metrics.New(runID)}

	ctx, span := observability.StartRunSpan(ctx, res.RunID, p.cfg.Scan.ProjectDir)
	defer span.End()
	r := &run{ctx: ctx, metrics: res.Metrics}
	logger := p.logger.With(zap.String("run_id", res.RunID))
	store := output.NewStore(p.cfg.Output.Dir, logger.Named("output"))

	rule := strings.Repeat("=", 60)
	fmt.Fprintf(p.out, "\n%s\n🚀 aspiredoc documentation pipeline\n⏰ Timestamp: %s\n%s\n\n", rule, output.Stamp(startedAt), rule)

	fmt.Fprintln(p.out, "📡 Step 1/3 — Scanning project files…")
	var files []corpus.File
	err = r.stage(observability.StageLoad, func(ctx context.Context, span trace.Span) error {
		var err error
		files, err = p.load(ctx)
		observability.RecordLoad(span, len(files), corpus.TotalBytes(files))
		return err
	})
	if err != nil {
		return p.fail(res, span, err)
	}
	res.FileCount = len(files)
	scannedAt := p.now()
	res.Metrics.CollectSource(p.cfg.Scan.ProjectDir, len(files), corpus.TotalBytes(files))
	fmt.Fprintf(p.out, "📂 Scanned %d files in %s\n", len(files), p.cfg.Scan.ProjectDir)

	_ = r.stage(observability.StageExtract, func(ctx context.Context, span trace.Span) error {
		res.Model = p.extract(extractor, files)
		observability.RecordExtraction(span, extractor.Framework(), res.Model.Stats())
		return nil
	})
	res.Metrics.CollectModel(extractor.Framework(), res.Model)
	for _, name := range res.Model.Collisions() {
		res.Metrics.Warn(fmt.Sprintf("%q is registered as both a service and a resource", name))
	}

	if p.scraper != nil && len(p.cfg.Scrape.URLs) > 0 {
		_ = r.stage(observability.StageScrape, func(ctx context.Context, span trace.Span) error {
			for _, u := range p.cfg.Scrape.URLs {
				fmt.Fprintf(p.out, "🌐 Scraping URL: %s\n", u)
			}
			res.Pages = p.scraper.ScrapeAll(ctx, p.cfg.Scrape.URLs)
			failed := 0
			for _, pg := range res.Pages {
				if pg.Error != "" {
					failed++
					fmt.Fprintf(p.out, "⚠️  %s: %s\n", pg.URL, pg.Error)
				}
			}
			res.Metrics.Scrape = metrics.ScrapeMetrics{URLs: len(res.Pages), Failed: failed}
			observability.RecordScrape(span, len(res.Pages), failed)
			return nil
		})
	}

	err = r.stage(observability.StageSave, func(ctx context.Context, span trace.Span) error {
		scan := output.NewProjectScan(res.RunID, len(files), scannedAt, res.Model)
		path, err := store.SaveScrapeResults(scan, res.Pages)
		if err != nil {
			return err
		}
		res.ScrapeResultsPath = path
		observability.RecordOutput(span, path, 0)
		return nil
	})
	if err != nil {
		return p.fail(res, span, err)
	}

	fmt.Fprintln(p.out, "\n🔍 Step 2/3 — Analyzing architecture…")
	fmt.Fprintf(p.out, "   Services  : %s\n", names(res.Model.Services, func(s model.Service) string { return s.Name }))
	fmt.Fprintf(p.out, "   Resources : %s\n", names(res.Model.Resources, func(r model.Resource) string { return r.Name }))
	fmt.Fprintf(p.out, "   Endpoints : %d\n", len(res.Model.Endpoints))

	fmt.Fprintln(p.out, "\n📝 Step 3/3 — Generating documentation…")
	var diagrams *docs.Diagrams
	_ = r.stage(observability.StageRender, func(ctx context.Context, span trace.Span) error {
		diagrams = docs.Render(res.Model)
		observability.RecordRender(span, len(diagrams.Architecture), len(diagrams.EventFlow))
		return nil
	})

	err = r.stage(observability.StageCompose, func(ctx context.Context, span trace.Span) error {
		doc, err := docs.Compose(docs.Input{
			Model:       res.Model,
			RunID:       res.RunID,
			FileCount:   len(files),
			ScannedAt:   scannedAt,
			GeneratedAt: startedAt,
			Pages:       res.Pages,
			Diagrams:    diagrams,
		})
		if err != nil {
			return err
		}
		path, err := store.WriteDocument(startedAt, doc)
		if err != nil {
			return err
		}
		res.Document = doc
		res.DocumentPath = path
		observability.RecordOutput(span, path, len(doc))
		return nil
	})
	if err != nil {
		return p.fail(res, span, err)
	}
	res.Metrics.Output = metrics.OutputMetrics{
		Dir:           store.Dir(),
		Document:      res.DocumentPath,
		DocumentBytes: len(res.Document),
		ScrapeResults: res.ScrapeResultsPath,
	}

	if p.graph != nil {
		err := r.stage(observability.StageGraph, func(ctx context.Context, span trace.Span) error {
			return p.graph.StoreModel(ctx, res.Model)
		})
		if err != nil {
			logger.Warn("graph store failed, continuing", zap.Error(err))
			res.Metrics.Warn(fmt.Sprintf("graph store: %v", err))
		} else {
			res.Metrics.Output.GraphStored = true
		}
	}

	res.Metrics.Finish(nil)
	if data, err := res.Metrics.JSON(); err == nil {
		if path, err := store.WriteFile(output.MetricsFile, data); err != nil {
			logger.Warn("could not write metrics report", zap.Error(err))
		} else {
			res.MetricsPath = path
		}
	}
	logger.Info("pipeline complete",
		zap.String("document", res.DocumentPath),
		zap.Int("services", len(res.Model.Services)),
		zap.Int("resources", len(res.Model.Resources)),
		zap.Duration("duration", res.Metrics.Duration))
	fmt.Fprintf(p.out, "\n✅ Documentation saved to: %s\n%s\n\n", res.DocumentPath, rule)
	return res, nil
}

func (p *Pipeline) fail(res *Result, span trace.Span, err error) (*Result, error) {
	observability.RecordError(span, err)
	res.Metrics.Finish([]string{err.Error()})
	return res, err
}

func names[T any](items []T, name func(T) string) string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, name(it))
	}
	return "[" + strings.Join(out, ", ") + "]"
}
