// Package build provides the conversion pipeline from an mdBook directory to
// a Typst file. All execution paths (convert, watch, tests) route through
// Service.
package build

import (
	"context"
	"time"

	"git.home.luguber.info/inful/booktypst/internal/convert"
)

// Service is the canonical interface for converting a book.
type Service interface {
	// Run executes load → parse → convert → render → write.
	Run(ctx context.Context, req Request) (*Result, error)
}

// Request contains all inputs required to convert one book.
type Request struct {
	// BookRoot is the directory holding book.toml.
	BookRoot string

	// Output is the Typst file to write. Relative paths are taken as is.
	Output string

	// Options selects the pipeline stages.
	Options convert.Options

	// DryRun renders without writing the output file.
	DryRun bool

	// SkipIfUnchanged skips conversion when the book fingerprint equals
	// PreviousFingerprint.
	SkipIfUnchanged bool

	PreviousFingerprint string
}

// Result contains the outcome of a conversion.
type Result struct {
	Status Status

	// RunID identifies the run in logs and traces.
	RunID string

	OutputPath string

	// Chapters is the number of chapters in the book, drafts included.
	Chapters int

	// Events is the number of events the pipeline produced.
	Events int

	// Bytes is the size of the rendered markup.
	Bytes int

	// Fingerprint of the loaded book.
	Fingerprint string

	// Skipped indicates the conversion was skipped due to no changes.
	Skipped bool

	// SkipReason explains why the conversion was skipped.
	SkipReason string

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// Status represents the outcome of a conversion.
type Status string

const (
	StatusSuccess   Status = "success"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
	StatusCancelled Status = "cancelled"
)

// IsSuccess returns true if the conversion completed or was skipped.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess || s == StatusSkipped
}
