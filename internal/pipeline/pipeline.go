package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"docsum/internal/domain"
	"docsum/internal/prompt"
)

// Stage names the step of a run a failure occurred in. Every run starts at
// idle; there is no resumption from a prior partial state.
type Stage string

const (
	StageIdle        Stage = "idle"
	StageProbing     Stage = "probing"
	StageExtracting  Stage = "extracting"
	StagePrompting   Stage = "prompting"
	StageSummarizing Stage = "summarizing"
	StageDone        Stage = "done"
)

// ErrBackendUnavailable means the reachability probe failed; the run is
// aborted before extraction.
var ErrBackendUnavailable = errors.New("inference backend is unavailable")

// Error tags a failure with the pipeline stage it occurred in.
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Probe checks reachability of the inference backend.
type Probe interface {
	IsReachable(ctx context.Context) bool
}

// Extractor pulls raw text out of an uploaded document.
type Extractor interface {
	Extract(r io.ReaderAt, size int64) (string, error)
}

// Generator issues the inference request for an assembled prompt.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// Pipeline wires probe, extraction, prompt building and generation into a
// single synchronous run. It holds no state between invocations.
type Pipeline struct {
	probe     Probe
	extractor Extractor
	builder   *prompt.Builder
	generator Generator
	log       *slog.Logger
}

func New(
	probe Probe,
	extractor Extractor,
	builder *prompt.Builder,
	generator Generator,
	log *slog.Logger,
) *Pipeline {
	return &Pipeline{
		probe:     probe,
		extractor: extractor,
		builder:   builder,
		generator: generator,
		log:       log,
	}
}

// Run executes probe → extract → prompt → summarize and derives statistics.
// Each stage runs to completion before the next begins; the first failure
// halts the run and is reported with its stage.
func (p *Pipeline) Run(
	ctx context.Context,
	doc io.ReaderAt,
	size int64,
	model string,
) (*domain.Result, error) {
	if !p.probe.IsReachable(ctx) {
		return nil, &Error{Stage: StageProbing, Err: ErrBackendUnavailable}
	}

	text, err := p.extractor.Extract(doc, size)
	if err != nil {
		return nil, &Error{Stage: StageExtracting, Err: err}
	}

	pr := p.builder.Build(text)
	if pr.Truncated {
		p.log.InfoContext(ctx, "Prompt built with truncation",
			"model", model,
			"originalChars", pr.OriginalChars,
			"truncatedTo", pr.TruncatedTo)
	}

	summary, err := p.generator.Generate(ctx, model, pr.Text)
	if err != nil {
		return nil, &Error{Stage: StageSummarizing, Err: err}
	}

	return &domain.Result{
		Model:         model,
		Summary:       summary,
		Truncated:     pr.Truncated,
		TruncatedTo:   pr.TruncatedTo,
		OriginalChars: pr.OriginalChars,
		Stats:         computeStatistics(text, summary),
	}, nil
}
