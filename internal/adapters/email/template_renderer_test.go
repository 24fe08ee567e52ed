package email

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mobilizewarehouse/internal/domain"
)

func TestTemplateRenderer_RunReport(t *testing.T) {
	r, err := NewTemplateRenderer()
	require.NoError(t, err)

	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	data := &domain.RunReportEmailData{
		Summary: &domain.RunSummary{
			RunID:           "run-1",
			StartedAt:       start,
			FinishedAt:      start.Add(2 * time.Second),
			RawRecords:      3,
			Degraded:        domain.DegradedCounts{Events: 1},
			ArchiveLocation: "s3://raw/attendances/run-1.json",
			SinkErrors:      map[string]string{"kafka": "broker <down>"},
		},
		Succeeded: false,
		Duration:  "2s",
		Tables:    []domain.TableCount{{Name: "events", Rows: 1}, {Name: "attendances", Rows: 3}},
	}

	subject, html, text, err := r.Render("run_report", data)
	require.NoError(t, err)
	assert.Equal(t, "[mobilize-warehouse] Ingest run FAILED (3 records)", subject)

	assert.Contains(t, html, "run-1")
	assert.Contains(t, html, "<td>attendances</td><td>3</td>")
	assert.Contains(t, html, "broker &lt;down&gt;")

	assert.Contains(t, text, "events: 1 rows")
	assert.Contains(t, text, "Sink kafka failed: broker <down>")
	assert.Contains(t, text, "Raw payload: s3://raw/attendances/run-1.json")
}

func TestTemplateRenderer_UnknownTemplate(t *testing.T) {
	r, err := NewTemplateRenderer()
	require.NoError(t, err)
	_, _, _, err = r.Render("welcome", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "render subject")
}
