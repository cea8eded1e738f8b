// Package pipeline orchestrates resume parsing: file validation, format
// routing, text extraction under a deadline and concurrent field extraction.
package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jonathan/resume-parser/internal/config"
	"github.com/jonathan/resume-parser/internal/extraction"
	"github.com/jonathan/resume-parser/internal/fields"
	"github.com/jonathan/resume-parser/internal/ingestion"
	"github.com/jonathan/resume-parser/internal/llm"
	"github.com/jonathan/resume-parser/internal/logger"
	"github.com/jonathan/resume-parser/internal/types"
	"github.com/jonathan/resume-parser/internal/validation"
)

// DefaultParseTimeout bounds text extraction when no timeout is configured
const DefaultParseTimeout = 30 * time.Second

// Validator checks an input file before any parsing work
type Validator interface {
	Validate(path string) error
}

// Pipeline turns resume files into records. It is safe for concurrent use;
// each instance owns its format router.
type Pipeline struct {
	validator    Validator
	router       *ingestion.Router
	extractors   fields.Set
	coordinator  *extraction.Coordinator
	parseTimeout time.Duration
	logger       zerolog.Logger
	onProgress   ProgressCallback
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithValidator replaces the file validator
func WithValidator(v Validator) Option {
	return func(p *Pipeline) { p.validator = v }
}

// WithRouter replaces the format router
func WithRouter(r *ingestion.Router) Option {
	return func(p *Pipeline) { p.router = r }
}

// WithExtractors replaces the field extractor set
func WithExtractors(set fields.Set) Option {
	return func(p *Pipeline) { p.extractors = set }
}

// WithCoordinator replaces the extraction coordinator
func WithCoordinator(c *extraction.Coordinator) Option {
	return func(p *Pipeline) { p.coordinator = c }
}

// WithParseTimeout bounds text extraction; zero or less disables the bound
func WithParseTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.parseTimeout = d }
}

// WithLogger sets the pipeline logger
func WithLogger(l zerolog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithProgress registers a stage transition callback
func WithProgress(cb ProgressCallback) Option {
	return func(p *Pipeline) { p.onProgress = cb }
}

// New creates a Pipeline. Without options it validates PDF and DOCX files,
// routes the built-in formats and runs the local extractors.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		validator:    validation.DefaultFileValidator(),
		router:       ingestion.NewDefaultRouter(),
		extractors:   fields.Local(),
		coordinator:  extraction.NewCoordinator(extraction.DefaultConcurrency),
		parseTimeout: DefaultParseTimeout,
		logger:       logger.For("pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewFromConfig creates a Pipeline from configuration. With a nil client
// only the local extractors run. Later opts override configured values.
func NewFromConfig(cfg *config.Config, client llm.Client, opts ...Option) *Pipeline {
	set := fields.Defaults(client, fields.Options{
		Timeout:    cfg.Timeouts.Extraction.Std(),
		Truncation: cfg.Extraction.Truncation,
	})

	base := []Option{
		WithValidator(validation.NewFileValidator(cfg.Files)),
		WithExtractors(set),
		WithCoordinator(extraction.NewCoordinator(cfg.Extraction.Concurrency)),
		WithParseTimeout(cfg.Timeouts.Parse.Std()),
	}
	return New(append(base, opts...)...)
}

// Report is the full outcome of parsing one document
type Report struct {
	Record   *types.Record
	Results  extraction.Results
	Metadata *ingestion.Metadata
}

// Parse validates, routes, extracts text from and extracts fields from path.
// Errors are *types.ValidationError, *types.UnsupportedFormatError,
// *types.ParseError, *types.TimeoutError or the context's error.
func (p *Pipeline) Parse(ctx context.Context, path string) (*types.Record, error) {
	report, err := p.run(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	return report.Record, nil
}

// ParseWith is Parse using x for this call instead of the routed extractor
func (p *Pipeline) ParseWith(ctx context.Context, path string, x ingestion.TextExtractor) (*types.Record, error) {
	report, err := p.run(ctx, path, x)
	if err != nil {
		return nil, err
	}
	return report.Record, nil
}

// Analyze is Parse that also returns per-field outcomes and text metadata
func (p *Pipeline) Analyze(ctx context.Context, path string) (*Report, error) {
	return p.run(ctx, path, nil)
}

// ExtractText runs the validating, routing and text parsing stages only
func (p *Pipeline) ExtractText(ctx context.Context, path string) (string, *ingestion.Metadata, error) {
	t := p.newTrace(ctx, path)
	text, err := p.extractText(ctx, t, path, nil)
	if err != nil {
		return "", nil, err
	}
	return text, ingestion.NewMetadata(text, path), nil
}

// Register binds a text extractor to a file extension on this pipeline's router
func (p *Pipeline) Register(ext string, x ingestion.TextExtractor) {
	p.router.Register(ext, x)
}

// Extensions lists the file extensions this pipeline can route
func (p *Pipeline) Extensions() []string {
	return p.router.Extensions()
}

func (p *Pipeline) run(ctx context.Context, path string, x ingestion.TextExtractor) (*Report, error) {
	t := p.newTrace(ctx, path)

	text, err := p.extractText(ctx, t, path, x)
	if err != nil {
		return nil, err
	}

	validation.LogInjectionWarning(t.log, validation.CheckInjection(text), path)

	t.enter(StageExtractingFields)
	results := p.coordinator.Run(ctx, text, p.extractors)
	record, err := p.coordinator.Assemble(results)
	if err != nil {
		return nil, t.fail(err)
	}

	t.enter(StageDone)
	counts := results.Counts()
	t.log.Info().
		Int("found", counts[extraction.StatusOK]).
		Int("absent", counts[extraction.StatusAbsent]).
		Int("failed", counts[extraction.StatusFailed]).
		Dur("elapsed", time.Since(t.start)).
		Msg("resume parsed")

	return &Report{
		Record:   record,
		Results:  results,
		Metadata: ingestion.NewMetadata(text, path),
	}, nil
}

func (p *Pipeline) extractText(ctx context.Context, t *trace, path string, x ingestion.TextExtractor) (string, error) {
	t.enter(StageValidating)
	if err := p.validator.Validate(path); err != nil {
		return "", t.fail(err)
	}

	t.enter(StageRouting)
	if x == nil {
		var err error
		if x, err = p.router.Resolve(path); err != nil {
			return "", t.fail(err)
		}
	}

	t.enter(StageParsingText)
	text, err := ingestion.RunWithTimeout(ctx, path, p.parseTimeout, x)
	if err != nil {
		return "", t.fail(err)
	}
	return text, nil
}

// trace tracks one document through the stages
type trace struct {
	path     string
	start    time.Time
	stage    Stage
	log      zerolog.Logger
	progress []ProgressCallback
}

func (p *Pipeline) newTrace(ctx context.Context, path string) *trace {
	t := &trace{
		path:  path,
		start: time.Now(),
		log:   p.logger.With().Str("path", path).Logger(),
	}
	if p.onProgress != nil {
		t.progress = append(t.progress, p.onProgress)
	}
	if cb := progressFrom(ctx); cb != nil {
		t.progress = append(t.progress, cb)
	}
	return t
}

func (t *trace) emit(event ProgressEvent) {
	for _, cb := range t.progress {
		cb(event)
	}
}

func (t *trace) enter(s Stage) {
	t.stage = s
	t.log.Debug().Str("stage", s.String()).Msg("stage")
	t.emit(ProgressEvent{Stage: s, Path: t.path, Elapsed: time.Since(t.start)})
}

// fail logs err against the current stage and returns it unchanged
func (t *trace) fail(err error) error {
	elapsed := time.Since(t.start)
	t.log.Error().
		Err(err).
		Str("stage", t.stage.String()).
		Dur("elapsed", elapsed).
		Msg("resume parsing failed")
	t.emit(ProgressEvent{Stage: StageFailed, Path: t.path, Elapsed: elapsed, Err: err})
	return err
}
