package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"mobilizewarehouse/internal/domain"
	"mobilizewarehouse/internal/tabular"
)

type warehouseRepository struct {
	DB     *sql.DB
	Schema string
}

// NewWarehouseRepository returns a TableSink that bulk-loads each table into
// <schema>.<table> with COPY. All tables of a run load in one transaction.
func NewWarehouseRepository(db *sql.DB, schema string) domain.TableSink {
	if schema == "" {
		schema = "public"
	}
	return &warehouseRepository{
		DB:     db,
		Schema: schema,
	}
}

func (r *warehouseRepository) Name() string { return "postgres" }

// WriteTables appends every non-empty table. Column order follows the table
// header; the target tables must already exist.
func (r *warehouseRepository) WriteTables(ctx context.Context, runID string, tables []*tabular.Table) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin warehouse tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, t := range tables {
		if t.Len() == 0 {
			continue
		}
		if err := r.copyTable(ctx, tx, t); err != nil {
			return fmt.Errorf("copy %s: %w", t.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit warehouse tx: %w", err)
	}
	return nil
}

func (r *warehouseRepository) copyTable(ctx context.Context, tx *sql.Tx, t *tabular.Table) error {
	stmt, err := tx.PrepareContext(ctx, pq.CopyInSchema(r.Schema, t.Name, t.Columns...))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, row := range t.Rows {
		if _, err := stmt.ExecContext(ctx, tabular.DerefRow(row)...); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	// An Exec with no arguments flushes the COPY buffer.
	if _, err := stmt.ExecContext(ctx); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}
