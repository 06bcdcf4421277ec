// Package pipeline provides the high-level orchestration of one scrape run:
// acquire the source, extract its records, and hand the batch to the sink.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jonathan/basket-scraper/internal/db"
	"github.com/jonathan/basket-scraper/internal/extract"
	"github.com/jonathan/basket-scraper/internal/sink"
	"github.com/jonathan/basket-scraper/internal/types"
)

// Stage names reported in StageError and progress events
const (
	StageAcquire = "acquire"
	StageExtract = "extract"
	StageWrite   = "write"
)

// StageError reports which stage of the run failed.
type StageError struct {
	Stage string
	Cause error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Cause)
}

func (e *StageError) Unwrap() error {
	return e.Cause
}

// Acquirer obtains the raw payload for a source.
type Acquirer interface {
	Acquire(ctx context.Context, source string) (*types.RawPayload, error)
}

// Extractor turns a payload into records.
type Extractor interface {
	Extract(payload *types.RawPayload) (*extract.Result, error)
}

// Store records run history. *db.DB satisfies it.
type Store interface {
	CreateRun(ctx context.Context, runID uuid.UUID, sourceURL string) error
	CompleteRun(ctx context.Context, runID uuid.UUID, c db.RunCompletion) error
	SaveRecords(ctx context.Context, runID uuid.UUID, batch types.RecordBatch) (int64, error)
}

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
	RunID   string `json:"run_id,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// Options holds configuration for running the pipeline
type Options struct {
	// Source is the URL (or file path, for a file acquirer) to read.
	Source string
	// Output is the destination passed to the writer.
	Output string
	// Strict turns a document without records into an extract-stage failure.
	Strict bool

	Acquirer  Acquirer
	Extractor Extractor
	Writer    sink.Writer
	// Store is optional; failures writing to it are logged and never fail the run.
	Store Store

	Logger     zerolog.Logger
	OnProgress ProgressCallback
}

// Result summarizes a completed run.
type Result struct {
	RunID      uuid.UUID
	Source     string
	Provenance types.Provenance
	Shape      types.Shape
	Namespace  string
	Records    types.RecordBatch
	Outcome    sink.Outcome
}

// Run executes acquire, extract and write in order. A failing stage stops the run and is
// returned as a *StageError; the partially filled Result is returned alongside it.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Acquirer == nil || opts.Extractor == nil || opts.Writer == nil {
		return nil, errors.New("pipeline: acquirer, extractor and writer are required")
	}

	r := &runner{opts: opts, result: &Result{RunID: uuid.New(), Source: opts.Source}}
	r.log = opts.Logger.With().Str("run_id", r.result.RunID.String()).Logger()
	r.startHistory(ctx)

	err := r.execute(ctx)
	r.finishHistory(ctx, err)
	return r.result, err
}

type runner struct {
	opts   Options
	result *Result
	log    zerolog.Logger
	// recording is false when no store is configured or the run row could not be created.
	recording bool
}

func (r *runner) execute(ctx context.Context) error {
	r.emit(StageAcquire, fmt.Sprintf("Acquiring %s", r.opts.Source))
	payload, err := r.opts.Acquirer.Acquire(ctx, r.opts.Source)
	if err != nil {
		return &StageError{Stage: StageAcquire, Cause: err}
	}
	r.result.Provenance = payload.Provenance
	r.log.Info().Str("provenance", string(payload.Provenance)).Int("bytes", len(payload.Text)).Msg("payload acquired")

	r.emit(StageExtract, "Extracting records")
	extracted, err := r.opts.Extractor.Extract(payload)
	if err != nil {
		return &StageError{Stage: StageExtract, Cause: err}
	}
	r.result.Shape = extracted.Shape
	r.result.Namespace = extracted.Namespace
	r.result.Records = extracted.Records

	if extracted.NoMatch() {
		if r.opts.Strict {
			return &StageError{Stage: StageExtract, Cause: extract.NoMatchError(extracted.Namespace)}
		}
		r.log.Warn().Msg("no records extracted; existing output is left untouched")
	}

	r.emit(StageWrite, fmt.Sprintf("Writing %d records to %s", extracted.Records.Len(), r.opts.Output))
	outcome, err := r.opts.Writer.Write(extracted.Records, r.opts.Output)
	if err != nil {
		return &StageError{Stage: StageWrite, Cause: err}
	}
	r.result.Outcome = outcome
	r.log.Info().
		Str("status", string(outcome.Status)).
		Str("path", outcome.Path).
		Int("records", outcome.Rows).
		Msg("sink finished")
	return nil
}

func (r *runner) emit(stage, message string) {
	if r.opts.OnProgress != nil {
		r.opts.OnProgress(ProgressEvent{Stage: stage, Message: message, RunID: r.result.RunID.String()})
	}
}

func (r *runner) startHistory(ctx context.Context) {
	if r.opts.Store == nil {
		return
	}
	if err := r.opts.Store.CreateRun(ctx, r.result.RunID, r.opts.Source); err != nil {
		r.log.Warn().Err(err).Msg("failed to create run history entry; continuing without it")
		return
	}
	r.recording = true
}

func (r *runner) finishHistory(ctx context.Context, runErr error) {
	if !r.recording {
		return
	}

	completion := db.RunCompletion{
		Status:      db.RunStatusSucceeded,
		Provenance:  string(r.result.Provenance),
		Shape:       string(r.result.Shape),
		Namespace:   r.result.Namespace,
		RecordCount: r.result.Records.Len(),
	}
	switch {
	case runErr != nil:
		completion.Status = db.RunStatusFailed
		completion.Detail = runErr.Error()
	case r.result.Records.Empty():
		completion.Status = db.RunStatusEmpty
	}

	if runErr == nil && !r.result.Records.Empty() {
		if _, err := r.opts.Store.SaveRecords(ctx, r.result.RunID, r.result.Records); err != nil {
			r.log.Warn().Err(err).Msg("failed to save records to run history")
		}
	}
	if err := r.opts.Store.CompleteRun(ctx, r.result.RunID, completion); err != nil {
		r.log.Warn().Err(err).Msg("failed to complete run history entry")
	}
}
