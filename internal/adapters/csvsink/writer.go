package csvsink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"mobilizewarehouse/internal/tabular"
)

// Sink writes every table to <dir>/<table>.csv with a header row. Files are
// written to a temporary name and renamed into place, so readers never see a
// partial file.
type Sink struct {
	dir string
}

// New returns a Sink rooted at dir. The directory is created on first write.
func New(dir string) *Sink {
	return &Sink{dir: dir}
}

func (s *Sink) Name() string { return "csv" }

// WriteTables writes each table. runID is not part of the file name: each run
// replaces the previous run's files.
func (s *Sink) WriteTables(ctx context.Context, runID string, tables []*tabular.Table) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.writeTable(t); err != nil {
			return fmt.Errorf("write %s: %w", t.Name, err)
		}
	}
	return nil
}

// Path returns the file a table is written to.
func (s *Sink) Path(table string) string {
	return filepath.Join(s.dir, table+".csv")
}

func (s *Sink) writeTable(t *tabular.Table) (err error) {
	f, err := os.CreateTemp(s.dir, "."+t.Name+"-*.csv")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	w := csv.NewWriter(f)
	if err = w.Write(t.Columns); err != nil {
		return err
	}
	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, v := range row {
			record[i] = tabular.FormatValue(v)
		}
		if err = w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err = w.Error(); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, s.Path(t.Name))
}
