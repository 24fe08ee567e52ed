package csvsink

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mobilizewarehouse/internal/tabular"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestSink_WriteTables(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	title := "Phone bank, \"evening\""
	id := int64(7)
	virtual := true

	events, err := tabular.FromRecords("events", []tabular.Record{
		{"id": &id, "title": &title, "is_virtual": &virtual, "timezone": (*string)(nil)},
	})
	require.NoError(t, err)
	persons := tabular.NewEmpty("persons", []string{"id", "email"})

	s := New(dir)
	assert.Equal(t, "csv", s.Name())
	require.NoError(t, s.WriteTables(context.Background(), "run-1", []*tabular.Table{events, persons}))

	assert.Equal(t, [][]string{
		{"id", "is_virtual", "timezone", "title"},
		{"7", "true", "", "Phone bank, \"evening\""},
	}, readCSV(t, s.Path("events")))
	assert.Equal(t, [][]string{{"email", "id"}}, readCSV(t, s.Path("persons")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temporary files left behind")
}

func TestSink_WriteTables_replacesPreviousRun(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	first, err := tabular.FromRecords("events", []tabular.Record{{"id": int64(1)}, {"id": int64(2)}})
	require.NoError(t, err)
	second, err := tabular.FromRecords("events", []tabular.Record{{"id": int64(3)}})
	require.NoError(t, err)

	require.NoError(t, s.WriteTables(context.Background(), "run-1", []*tabular.Table{first}))
	require.NoError(t, s.WriteTables(context.Background(), "run-2", []*tabular.Table{second}))

	assert.Equal(t, [][]string{{"id"}, {"3"}}, readCSV(t, s.Path("events")))
}

func TestSink_WriteTables_cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tbl := tabular.NewEmpty("events", []string{"id"})
	err := New(t.TempDir()).WriteTables(ctx, "run-1", []*tabular.Table{tbl})
	assert.ErrorIs(t, err, context.Canceled)
}
