package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"mobilizewarehouse/internal/domain"
	"mobilizewarehouse/internal/tabular"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testLogger is a no-op logger so tests don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeFetcher returns fixed data or a configurable error. If block is set,
// Fetch closes started and waits on block before returning.
type fakeFetcher struct {
	result  *domain.FetchResult
	err     error
	started chan struct{}
	block   chan struct{}
}

func (f *fakeFetcher) Fetch(ctx context.Context) (*domain.FetchResult, error) {
	if f.block != nil {
		close(f.started)
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// fakeSink records the tables it was given.
type fakeSink struct {
	name   string
	err    error
	runID  string
	tables []*tabular.Table
}

func (f *fakeSink) Name() string { return f.name }

func (f *fakeSink) WriteTables(ctx context.Context, runID string, tables []*tabular.Table) error {
	if f.err != nil {
		return f.err
	}
	f.runID = runID
	f.tables = tables
	return nil
}

type fakeArchive struct {
	err     error
	payload []byte
}

func (f *fakeArchive) Archive(ctx context.Context, runID string, payload []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.payload = payload
	return "raw/attendances/" + runID + ".json", nil
}

type fakeReporter struct {
	err     error
	reports []*domain.RunSummary
}

func (f *fakeReporter) SendRunReport(ctx context.Context, s *domain.RunSummary) error {
	f.reports = append(f.reports, s)
	return f.err
}

type fakeObserver struct {
	observed []*domain.RunSummary
}

func (f *fakeObserver) ObserveRun(s *domain.RunSummary) {
	f.observed = append(f.observed, s)
}

func fixtureResult(t *testing.T) *domain.FetchResult {
	raws := loadFixture(t)
	payload, err := json.Marshal(raws)
	require.NoError(t, err)
	return &domain.FetchResult{Attendances: raws, Payload: payload}
}

func TestIngestService_Run(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		setup   func(t *testing.T) (*fakeFetcher, []*fakeSink, *fakeArchive)
		wantErr error
		assert  func(t *testing.T, s *domain.RunSummary, sinks []*fakeSink, archive *fakeArchive)
	}{
		{
			name: "success",
			setup: func(t *testing.T) (*fakeFetcher, []*fakeSink, *fakeArchive) {
				return &fakeFetcher{result: fixtureResult(t)}, []*fakeSink{{name: "csv"}, {name: "postgres"}}, &fakeArchive{}
			},
			assert: func(t *testing.T, s *domain.RunSummary, sinks []*fakeSink, archive *fakeArchive) {
				assert.True(t, s.Succeeded())
				assert.Equal(t, 3, s.RawRecords)
				assert.Equal(t, map[string]int{"events": 1, "persons": 2, "timeslots": 2, "attendances": 3}, s.Tables)
				assert.Equal(t, domain.DegradedCounts{Events: 1, Timeslots: 1}, s.Degraded)
				assert.Equal(t, "raw/attendances/"+s.RunID+".json", s.ArchiveLocation)
				assert.NotEmpty(t, archive.payload)
				for _, sink := range sinks {
					assert.Equal(t, s.RunID, sink.runID)
					require.Len(t, sink.tables, 4)
				}
			},
		},
		{
			name: "fetch error",
			setup: func(t *testing.T) (*fakeFetcher, []*fakeSink, *fakeArchive) {
				return &fakeFetcher{err: errors.New("boom")}, []*fakeSink{{name: "csv"}}, &fakeArchive{}
			},
			assert: func(t *testing.T, s *domain.RunSummary, sinks []*fakeSink, _ *fakeArchive) {
				assert.Contains(t, s.Error, "fetch attendances")
				assert.Nil(t, sinks[0].tables)
			},
		},
		{
			name: "empty fetch",
			setup: func(t *testing.T) (*fakeFetcher, []*fakeSink, *fakeArchive) {
				return &fakeFetcher{result: &domain.FetchResult{}}, []*fakeSink{{name: "csv"}}, nil
			},
			wantErr: domain.ErrEmptyBatch,
			assert: func(t *testing.T, s *domain.RunSummary, sinks []*fakeSink, _ *fakeArchive) {
				assert.Nil(t, sinks[0].tables)
			},
		},
		{
			name: "archive error stops the run",
			setup: func(t *testing.T) (*fakeFetcher, []*fakeSink, *fakeArchive) {
				return &fakeFetcher{result: fixtureResult(t)}, []*fakeSink{{name: "csv"}}, &fakeArchive{err: errors.New("bucket gone")}
			},
			assert: func(t *testing.T, s *domain.RunSummary, sinks []*fakeSink, _ *fakeArchive) {
				assert.Contains(t, s.Error, "archive raw payload")
				assert.Nil(t, sinks[0].tables)
			},
		},
		{
			name: "malformed record",
			setup: func(t *testing.T) (*fakeFetcher, []*fakeSink, *fakeArchive) {
				res := fixtureResult(t)
				res.Attendances[0].Referrer = nil
				return &fakeFetcher{result: res}, []*fakeSink{{name: "csv"}}, nil
			},
			wantErr: domain.ErrMalformedRecord,
			assert: func(t *testing.T, s *domain.RunSummary, sinks []*fakeSink, _ *fakeArchive) {
				assert.Nil(t, sinks[0].tables)
			},
		},
		{
			name: "one failing sink does not stop the others",
			setup: func(t *testing.T) (*fakeFetcher, []*fakeSink, *fakeArchive) {
				return &fakeFetcher{result: fixtureResult(t)}, []*fakeSink{{name: "kafka", err: errors.New("broker down")}, {name: "csv"}}, nil
			},
			assert: func(t *testing.T, s *domain.RunSummary, sinks []*fakeSink, _ *fakeArchive) {
				assert.False(t, s.Succeeded())
				assert.Equal(t, map[string]string{"kafka": "broker down"}, s.SinkErrors)
				require.Len(t, sinks[1].tables, 4)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher, sinks, archive := tt.setup(t)
			tableSinks := make([]domain.TableSink, len(sinks))
			for i, s := range sinks {
				tableSinks[i] = s
			}
			reporter := &fakeReporter{}
			observer := &fakeObserver{}
			opts := IngestOptions{Reporter: reporter, Observer: observer, Timeout: 5 * time.Second, ChunkSize: 2}
			if archive != nil {
				opts.Archive = archive
			}
			svc := NewIngestService(fetcher, tableSinks, testLogger, opts)

			summary, err := svc.Run(ctx)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
			}
			require.NotNil(t, summary)
			assert.NotEmpty(t, summary.RunID)
			assert.False(t, summary.FinishedAt.Before(summary.StartedAt))
			require.Len(t, reporter.reports, 1)
			require.Len(t, observer.observed, 1)
			assert.Same(t, summary, reporter.reports[0])

			latest, lerr := svc.Latest(ctx)
			require.NoError(t, lerr)
			assert.Same(t, summary, latest)

			tt.assert(t, summary, sinks, archive)
		})
	}
}

func TestIngestService_ReporterErrorIsNotFatal(t *testing.T) {
	svc := NewIngestService(&fakeFetcher{result: fixtureResult(t)}, nil, testLogger,
		IngestOptions{Reporter: &fakeReporter{err: errors.New("ses down")}})
	summary, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, summary.Succeeded())
}

func TestIngestService_LatestBeforeFirstRun(t *testing.T) {
	svc := NewIngestService(&fakeFetcher{}, nil, testLogger, IngestOptions{})
	_, err := svc.Latest(context.Background())
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestIngestService_RejectsConcurrentRun(t *testing.T) {
	fetcher := &fakeFetcher{result: fixtureResult(t), started: make(chan struct{}), block: make(chan struct{})}
	svc := NewIngestService(fetcher, nil, testLogger, IngestOptions{})

	var wg sync.WaitGroup
	wg.Add(1)
	var firstErr error
	go func() {
		defer wg.Done()
		_, firstErr = svc.Run(context.Background())
	}()

	<-fetcher.started
	_, err := svc.Run(context.Background())
	assert.True(t, errors.Is(err, domain.ErrRunInProgress))

	close(fetcher.block)
	wg.Wait()
	require.NoError(t, firstErr)
}

// fakeRunRepo implements domain.RunRepository in memory.
type fakeRunRepo struct {
	saved   []*domain.RunSummary
	stored  *domain.RunSummary
	saveErr error
	err     error
}

func (f *fakeRunRepo) Save(ctx context.Context, s *domain.RunSummary) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, s)
	return nil
}

func (f *fakeRunRepo) Latest(ctx context.Context) (*domain.RunSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.stored == nil {
		return nil, domain.ErrNotFound
	}
	return f.stored, nil
}

func TestIngestService_RunRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("run is saved", func(t *testing.T) {
		repo := &fakeRunRepo{}
		svc := NewIngestService(&fakeFetcher{result: fixtureResult(t)}, nil, testLogger, IngestOptions{Runs: repo})
		summary, err := svc.Run(ctx)
		require.NoError(t, err)
		require.Len(t, repo.saved, 1)
		assert.Same(t, summary, repo.saved[0])
	})

	t.Run("save error is not fatal", func(t *testing.T) {
		repo := &fakeRunRepo{saveErr: errors.New("db down")}
		svc := NewIngestService(&fakeFetcher{result: fixtureResult(t)}, nil, testLogger, IngestOptions{Runs: repo})
		_, err := svc.Run(ctx)
		require.NoError(t, err)
	})

	t.Run("latest falls back to repository", func(t *testing.T) {
		stored := &domain.RunSummary{RunID: "before-restart"}
		svc := NewIngestService(&fakeFetcher{}, nil, testLogger, IngestOptions{Runs: &fakeRunRepo{stored: stored}})
		got, err := svc.Latest(ctx)
		require.NoError(t, err)
		assert.Same(t, stored, got)
	})

	t.Run("latest with empty repository", func(t *testing.T) {
		svc := NewIngestService(&fakeFetcher{}, nil, testLogger, IngestOptions{Runs: &fakeRunRepo{}})
		_, err := svc.Latest(ctx)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("latest repository error", func(t *testing.T) {
		svc := NewIngestService(&fakeFetcher{}, nil, testLogger, IngestOptions{Runs: &fakeRunRepo{err: errors.New("db down")}})
		_, err := svc.Latest(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "load latest run")
	})
}
