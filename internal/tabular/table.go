package tabular

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// Sentinel errors for table construction.
var (
	ErrEmptyTable    = errors.New("table has no records")
	ErrShapeMismatch = errors.New("record does not match table columns")
)

// Record is one flat row keyed by column name. A nil value, or a nil pointer,
// is a null column.
type Record map[string]any

// Columns returns the record's keys in lexicographic order.
func (r Record) Columns() []string {
	cols := make([]string, 0, len(r))
	for k := range r {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// Table is a named list of rows sharing one column order.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// FromRecords builds a table whose columns are the sorted keys of the first
// record. Rows keep list order. Every later record must carry exactly the same
// key set, otherwise ErrShapeMismatch is returned.
func FromRecords(name string, records []Record) (*Table, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrEmptyTable)
	}
	cols := records[0].Columns()
	t := &Table{Name: name, Columns: cols, Rows: make([][]any, 0, len(records))}
	for i, rec := range records {
		if len(rec) != len(cols) {
			return nil, fmt.Errorf("%s row %d has %d columns, want %d: %w", name, i, len(rec), len(cols), ErrShapeMismatch)
		}
		row := make([]any, len(cols))
		for j, c := range cols {
			v, ok := rec[c]
			if !ok {
				return nil, fmt.Errorf("%s row %d missing column %q: %w", name, i, c, ErrShapeMismatch)
			}
			row[j] = v
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// NewEmpty returns a table with a header and no rows.
func NewEmpty(name string, columns []string) *Table {
	cols := append([]string(nil), columns...)
	sort.Strings(cols)
	return &Table{Name: name, Columns: cols}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Record returns row i as a Record.
func (t *Table) Record(i int) Record {
	rec := make(Record, len(t.Columns))
	for j, c := range t.Columns {
		rec[c] = t.Rows[i][j]
	}
	return rec
}

// Deref unwraps pointer values so drivers and encoders see plain scalars.
// Nil pointers become nil.
func Deref(v any) any {
	switch x := v.(type) {
	case *string:
		if x == nil {
			return nil
		}
		return *x
	case *int64:
		if x == nil {
			return nil
		}
		return *x
	case *int:
		if x == nil {
			return nil
		}
		return *x
	case *bool:
		if x == nil {
			return nil
		}
		return *x
	case *float64:
		if x == nil {
			return nil
		}
		return *x
	default:
		return v
	}
}

// DerefRow applies Deref to every value of row.
func DerefRow(row []any) []any {
	out := make([]any, len(row))
	for i, v := range row {
		out[i] = Deref(v)
	}
	return out
}

// FormatValue renders a column value for delimited text. Nulls render as the
// empty string.
func FormatValue(v any) string {
	switch x := Deref(v).(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
