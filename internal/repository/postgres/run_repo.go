package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"mobilizewarehouse/internal/domain"
)

type runRepository struct {
	DB    *sql.DB
	table string
}

// NewRunRepository stores run summaries in <schema>.ingest_runs.
func NewRunRepository(db *sql.DB, schema string) domain.RunRepository {
	if schema == "" {
		schema = "public"
	}
	return &runRepository{
		DB:    db,
		table: pq.QuoteIdentifier(schema) + ".ingest_runs",
	}
}

func (r *runRepository) Save(ctx context.Context, s *domain.RunSummary) error {
	tables, err := json.Marshal(s.Tables)
	if err != nil {
		return fmt.Errorf("encode tables: %w", err)
	}
	sinkErrors, err := json.Marshal(s.SinkErrors)
	if err != nil {
		return fmt.Errorf("encode sink errors: %w", err)
	}
	query := `
		INSERT INTO ` + r.table + ` (run_id, started_at, finished_at, raw_records, tables,
			degraded_events, degraded_timeslots, degraded_persons, archive_location, sink_errors, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = r.DB.ExecContext(ctx, query,
		s.RunID, s.StartedAt, s.FinishedAt, s.RawRecords, tables,
		s.Degraded.Events, s.Degraded.Timeslots, s.Degraded.Persons,
		nullString(s.ArchiveLocation), sinkErrors, nullString(s.Error),
	)
	return err
}

func (r *runRepository) Latest(ctx context.Context) (*domain.RunSummary, error) {
	query := `
		SELECT run_id, started_at, finished_at, raw_records, tables,
			degraded_events, degraded_timeslots, degraded_persons, archive_location, sink_errors, error
		FROM ` + r.table + `
		ORDER BY started_at DESC
		LIMIT 1
	`
	s := &domain.RunSummary{}
	var tables, sinkErrors []byte
	var archiveNull, errNull sql.NullString
	err := r.DB.QueryRowContext(ctx, query).Scan(
		&s.RunID, &s.StartedAt, &s.FinishedAt, &s.RawRecords, &tables,
		&s.Degraded.Events, &s.Degraded.Timeslots, &s.Degraded.Persons,
		&archiveNull, &sinkErrors, &errNull,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(tables, &s.Tables); err != nil {
		return nil, fmt.Errorf("decode tables: %w", err)
	}
	if len(sinkErrors) > 0 {
		if err := json.Unmarshal(sinkErrors, &s.SinkErrors); err != nil {
			return nil, fmt.Errorf("decode sink errors: %w", err)
		}
	}
	if archiveNull.Valid {
		s.ArchiveLocation = archiveNull.String
	}
	if errNull.Valid {
		s.Error = errNull.String
	}
	return s, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
