package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"mobilizewarehouse/internal/domain"
)

// IngestOptions holds the optional collaborators of an ingest run. Nil
// fields are skipped.
type IngestOptions struct {
	Archive   domain.RawArchive
	Reporter  domain.RunReporter
	Observer  domain.RunObserver
	Runs      domain.RunRepository
	ChunkSize int
	Timeout   time.Duration
}

type ingestService struct {
	fetcher    domain.AttendanceFetcher
	normalizer *Normalizer
	sinks      []domain.TableSink
	opts       IngestOptions
	logger     *slog.Logger
	now        func() time.Time

	mu      sync.Mutex
	running bool
	latest  *domain.RunSummary
}

// NewIngestService wires the pipeline: fetch, archive, normalize, write every
// sink, then report.
func NewIngestService(fetcher domain.AttendanceFetcher, sinks []domain.TableSink, logger *slog.Logger, opts IngestOptions) domain.IngestService {
	return &ingestService{
		fetcher:    fetcher,
		normalizer: NewNormalizer(logger),
		sinks:      sinks,
		opts:       opts,
		logger:     logger,
		now:        time.Now,
	}
}

// Run executes one ingest. Only one run may be in flight; a concurrent call
// returns domain.ErrRunInProgress. A failing sink does not stop the others;
// their errors are joined into the returned error and listed in the summary.
func (s *ingestService) Run(ctx context.Context) (*domain.RunSummary, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, domain.ErrRunInProgress
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	summary := &domain.RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: s.now().UTC(),
		Tables:    make(map[string]int),
	}
	logger := s.logger.With("run_id", summary.RunID)
	logger.Info("ingest run started")

	err := s.run(ctx, logger, summary)
	summary.FinishedAt = s.now().UTC()
	if err != nil {
		summary.Error = err.Error()
		logger.Error("ingest run failed", "error", err, "duration_ms", summary.Duration().Milliseconds())
	} else {
		logger.Info("ingest run finished",
			"raw_records", summary.RawRecords,
			"tables", summary.Tables,
			"degraded_events", summary.Degraded.Events,
			"degraded_timeslots", summary.Degraded.Timeslots,
			"degraded_persons", summary.Degraded.Persons,
			"duration_ms", summary.Duration().Milliseconds(),
		)
	}

	s.mu.Lock()
	s.latest = summary
	s.mu.Unlock()

	if s.opts.Runs != nil {
		if serr := s.opts.Runs.Save(context.WithoutCancel(ctx), summary); serr != nil {
			logger.Error("failed to save run summary", "error", serr)
		}
	}
	if s.opts.Observer != nil {
		s.opts.Observer.ObserveRun(summary)
	}
	if s.opts.Reporter != nil {
		if rerr := s.opts.Reporter.SendRunReport(ctx, summary); rerr != nil {
			logger.Error("failed to send run report", "error", rerr)
		}
	}
	return summary, err
}

func (s *ingestService) run(ctx context.Context, logger *slog.Logger, summary *domain.RunSummary) error {
	// 1. Fetch
	fetched, err := s.fetcher.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch attendances: %w", err)
	}
	summary.RawRecords = len(fetched.Attendances)
	if summary.RawRecords == 0 {
		return domain.ErrEmptyBatch
	}

	// 2. Archive the payload as fetched; it is not read back.
	if s.opts.Archive != nil {
		loc, err := s.opts.Archive.Archive(ctx, summary.RunID, fetched.Payload)
		if err != nil {
			return fmt.Errorf("archive raw payload: %w", err)
		}
		summary.ArchiveLocation = loc
		logger.Info("raw payload archived", "location", loc)
	}

	// 3. Normalize
	batch, err := s.normalizer.NormalizeChunks(ctx, fetched.Attendances, s.opts.ChunkSize)
	if err != nil {
		return fmt.Errorf("normalize: %w", err)
	}
	summary.Degraded = batch.Degraded
	tables, err := batch.Tables()
	if err != nil {
		return err
	}
	for _, t := range tables {
		summary.Tables[t.Name] = t.Len()
	}

	// 4. Load
	var errs []error
	for _, sink := range s.sinks {
		if err := sink.WriteTables(ctx, summary.RunID, tables); err != nil {
			if summary.SinkErrors == nil {
				summary.SinkErrors = make(map[string]string)
			}
			summary.SinkErrors[sink.Name()] = err.Error()
			logger.Error("sink write failed", "sink", sink.Name(), "error", err)
			errs = append(errs, fmt.Errorf("sink %s: %w", sink.Name(), err))
			continue
		}
		logger.Info("tables written", "sink", sink.Name())
	}
	return errors.Join(errs...)
}

// Latest returns the last run of this process, falling back to the run
// repository for runs from before a restart.
func (s *ingestService) Latest(ctx context.Context) (*domain.RunSummary, error) {
	s.mu.Lock()
	latest := s.latest
	s.mu.Unlock()
	if latest != nil {
		return latest, nil
	}
	if s.opts.Runs == nil {
		return nil, domain.ErrNotFound
	}
	summary, err := s.opts.Runs.Latest(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load latest run: %w", err)
	}
	return summary, nil
}
