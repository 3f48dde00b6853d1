package build

import (
	"bytes"
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/booktypst/internal/book"
	"git.home.luguber.info/inful/booktypst/internal/convert"
	"git.home.luguber.info/inful/booktypst/internal/errors"
	"git.home.luguber.info/inful/booktypst/internal/logfields"
	"git.home.luguber.info/inful/booktypst/internal/mdbook"
	"git.home.luguber.info/inful/booktypst/internal/metrics"
	"git.home.luguber.info/inful/booktypst/internal/observability"
	"git.home.luguber.info/inful/booktypst/internal/retry"
	"git.home.luguber.info/inful/booktypst/internal/typst"
)

// Phase names used for metrics, spans and log context.
const (
	PhaseLoad   = "load"
	PhaseParse  = "parse"
	PhaseRender = "render"
	PhaseWrite  = "write"
)

// Loader reads a book from disk.
type Loader func(root string) (*mdbook.Book, error)

// DefaultService is the standard implementation of Service.
type DefaultService struct {
	load      Loader
	tokenizer mdbook.Tokenizer
	recorder  metrics.Recorder
	spans     observability.SpanManager
	retry     retry.Policy
	newRunID  func() string
}

var _ Service = (*DefaultService)(nil)

// NewService creates a DefaultService that loads books with book.Load and
// records nothing.
func NewService() *DefaultService {
	return &DefaultService{
		load:     book.Load,
		recorder: metrics.NoopRecorder{},
		spans:    observability.NoopSpanManager{},
		retry:    retry.DefaultPolicy(),
		newRunID: uuid.NewString,
	}
}

// WithLoader replaces the book loader (for testing).
func (s *DefaultService) WithLoader(load Loader) *DefaultService {
	s.load = load
	return s
}

// WithTokenizer sets the prose tokenizer. nil selects mdbook.DefaultTokenizer.
func (s *DefaultService) WithTokenizer(tokenize mdbook.Tokenizer) *DefaultService {
	s.tokenizer = tokenize
	return s
}

// WithRecorder sets the metrics recorder.
func (s *DefaultService) WithRecorder(r metrics.Recorder) *DefaultService {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	s.recorder = r
	return s
}

// WithSpanManager sets the tracing span manager.
func (s *DefaultService) WithSpanManager(m observability.SpanManager) *DefaultService {
	if m == nil {
		m = observability.NoopSpanManager{}
	}
	s.spans = m
	return s
}

// WithRetryPolicy sets how transient output write failures are retried. An
// invalid policy is ignored.
func (s *DefaultService) WithRetryPolicy(p retry.Policy) *DefaultService {
	if err := p.Validate(); err != nil {
		slog.Warn("Ignoring invalid retry policy", logfields.Error(err))
		return s
	}
	s.retry = p
	return s
}

// Run executes the complete conversion.
func (s *DefaultService) Run(ctx context.Context, req Request) (result *Result, err error) {
	runID := s.newRunID()
	result = &Result{RunID: runID, OutputPath: req.Output, StartTime: time.Now()}

	ctx = observability.WithBook(observability.WithRunID(ctx, runID), req.BookRoot)
	ctx, span := s.spans.StartRunSpan(ctx, req.BookRoot, runID)
	defer func() {
		s.finish(ctx, result, err)
		s.spans.EndSpanWithError(span, err)
	}()
	defer errors.RecoverFault(&err)

	if req.BookRoot == "" {
		return result, errors.ValidationFailed("book", "book root is required")
	}
	if req.Output == "" && !req.DryRun {
		return result, errors.ValidationFailed("output", "output path is required")
	}

	var b *mdbook.Book
	err = s.phase(ctx, PhaseLoad, func(context.Context) error {
		var lerr error
		b, lerr = s.load(req.BookRoot)
		return lerr
	})
	if err != nil {
		return result, err
	}
	result.Chapters = len(b.Chapters())
	result.Fingerprint = book.Fingerprint(b)
	s.recorder.SetChapters(result.Chapters)

	if req.SkipIfUnchanged && req.PreviousFingerprint != "" && req.PreviousFingerprint == result.Fingerprint {
		result.Skipped = true
		result.SkipReason = "no_changes"
		observability.InfoContext(ctx, "Conversion skipped - book unchanged",
			logfields.Fingerprint(result.Fingerprint))
		return result, nil
	}

	var parser *mdbook.Parser
	err = s.phase(ctx, PhaseParse, func(context.Context) error {
		parser = mdbook.NewParser(b, s.tokenizer)
		if berr := mdbook.CheckBalance(parser.Events()); berr != nil {
			return errors.ConversionFailed(PhaseParse, berr)
		}
		return nil
	})
	if err != nil {
		return result, err
	}

	var buf bytes.Buffer
	err = s.phase(ctx, PhaseRender, func(ctx context.Context) error {
		observability.DebugContext(ctx, "Rendering",
			slog.Any("stages", req.Options.EnabledStages()),
			logfields.Events(parser.Len()))
		events, count := convert.Count(convert.Build(parser, req.Options))
		werr := typst.WriteMarkup(&buf, convert.TypstFilter(events))
		result.Events = count()
		if werr != nil && !errors.IsFault(werr) {
			return errors.ConversionFailed(PhaseRender, werr)
		}
		return werr
	})
	if err != nil {
		return result, err
	}
	result.Bytes = buf.Len()
	s.recorder.AddEvents(result.Events)

	if req.DryRun {
		observability.InfoContext(ctx, "Dry run - output not written", logfields.Bytes(result.Bytes))
		return result, nil
	}

	err = s.phase(ctx, PhaseWrite, func(ctx context.Context) error {
		return s.retry.Do(ctx, func() error {
			return writeAtomic(req.Output, buf.Bytes())
		})
	})
	return result, err
}

// phase runs fn as one timed and traced step of a run.
func (s *DefaultService) phase(ctx context.Context, name string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		s.recorder.IncStageResult(name, metrics.ResultCanceled)
		return err
	}

	start := time.Now()
	ctx = observability.WithStage(ctx, name)
	ctx, span := s.spans.StartStageSpan(ctx, name)
	err := fn(ctx)
	s.spans.EndSpanWithError(span, err)
	s.recorder.ObserveStageDuration(name, time.Since(start))

	if err != nil {
		s.recorder.IncStageResult(name, metrics.ResultFailed)
		observability.ErrorContext(ctx, "Phase failed",
			slog.String("category", string(errors.GetCategory(err))),
			logfields.Error(err))
		return err
	}
	s.recorder.IncStageResult(name, metrics.ResultSuccess)
	observability.DebugContext(ctx, "Phase complete",
		logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
	return nil
}

func (s *DefaultService) finish(ctx context.Context, result *Result, err error) {
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)

	var outcome metrics.OutcomeLabel
	switch {
	case err != nil && (stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)):
		result.Status = StatusCancelled
		outcome = metrics.OutcomeCanceled
	case err != nil:
		result.Status = StatusFailed
		outcome = metrics.OutcomeFailed
	case result.Skipped:
		result.Status = StatusSkipped
		outcome = metrics.OutcomeSkipped
	default:
		result.Status = StatusSuccess
		outcome = metrics.OutcomeSuccess
	}
	s.recorder.IncConversionOutcome(outcome)
	s.recorder.ObserveConversionDuration(result.Duration)

	if err == nil {
		observability.InfoContext(ctx, "Conversion finished",
			slog.String("status", string(result.Status)),
			logfields.Output(result.OutputPath),
			slog.Int("chapters", result.Chapters),
			logfields.Events(result.Events),
			logfields.Bytes(result.Bytes),
			logfields.DurationMS(float64(result.Duration.Microseconds())/1000))
	}
}
