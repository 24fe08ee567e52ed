package domain

import (
	"context"
	"time"

	"mobilizewarehouse/internal/tabular"
)

// TableSink receives the normalized tables of a run: a file directory, a
// warehouse, or a stream.
type TableSink interface {
	Name() string
	WriteTables(ctx context.Context, runID string, tables []*tabular.Table) error
}

// RawArchive persists the raw API payload of a run. The archive is never read
// back by the pipeline.
type RawArchive interface {
	Archive(ctx context.Context, runID string, payload []byte) (location string, err error)
}

// RunReporter tells operators about a finished run.
type RunReporter interface {
	SendRunReport(ctx context.Context, summary *RunSummary) error
}

// RunObserver records run outcomes, e.g. as metrics.
type RunObserver interface {
	ObserveRun(summary *RunSummary)
}

// RunSummary describes one ingest run.
// swagger:model RunSummary
type RunSummary struct {
	RunID           string            `json:"run_id"`
	StartedAt       time.Time         `json:"started_at"`
	FinishedAt      time.Time         `json:"finished_at"`
	RawRecords      int               `json:"raw_records"`
	Tables          map[string]int    `json:"tables"`
	Degraded        DegradedCounts    `json:"degraded"`
	ArchiveLocation string            `json:"archive_location,omitempty"`
	SinkErrors      map[string]string `json:"sink_errors,omitempty"`
	Error           string            `json:"error,omitempty"`
}

// Duration returns how long the run took.
func (s *RunSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// Succeeded reports whether the run finished with no errors.
func (s *RunSummary) Succeeded() bool {
	return s.Error == "" && len(s.SinkErrors) == 0
}

// IngestService runs the fetch, normalize and load pipeline.
type IngestService interface {
	Run(ctx context.Context) (*RunSummary, error)
	// Latest returns the summary of the most recent run, or ErrNotFound.
	Latest(ctx context.Context) (*RunSummary, error)
}

// RunRepository persists run summaries so the latest run survives a restart.
type RunRepository interface {
	Save(ctx context.Context, summary *RunSummary) error
	Latest(ctx context.Context) (*RunSummary, error)
}
