package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultCanceled ResultLabel = "canceled"
)

// OutcomeLabel is the final status of a conversion run.
type OutcomeLabel string

const (
	OutcomeSuccess  OutcomeLabel = "success"
	OutcomeSkipped  OutcomeLabel = "skipped"
	OutcomeFailed   OutcomeLabel = "failed"
	OutcomeCanceled OutcomeLabel = "canceled"
)

// Recorder defines observability hooks for conversion runs and their phases
// (load, parse, convert, render, write).
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveConversionDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncConversionOutcome(outcome OutcomeLabel)
	AddEvents(n int)
	SetChapters(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveConversionDuration(time.Duration)    {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) IncConversionOutcome(OutcomeLabel)          {}
func (NoopRecorder) AddEvents(int)                              {}
func (NoopRecorder) SetChapters(int)                            {}
