package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mobilizewarehouse/internal/domain"
)

// Recorder exports ingest run outcomes as Prometheus metrics. It implements
// domain.RunObserver.
type Recorder struct {
	Runs           *prometheus.CounterVec
	RawRecords     prometheus.Counter
	TableRows      *prometheus.CounterVec
	DegradedIDs    *prometheus.CounterVec
	SinkFailures   *prometheus.CounterVec
	RunDuration    prometheus.Histogram
	LastSuccessful prometheus.Gauge

	gatherer prometheus.Gatherer
}

// NewRecorder creates the collectors and registers them with reg.
func NewRecorder(reg *prometheus.Registry) *Recorder {
	r := &Recorder{
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_runs_total",
				Help: "Total ingest runs by outcome.",
			},
			[]string{"status"},
		),
		RawRecords: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ingest_raw_records_total",
				Help: "Total raw attendance records fetched.",
			},
		),
		TableRows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_table_rows_total",
				Help: "Total rows produced per output table.",
			},
			[]string{"table"},
		),
		DegradedIDs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_missing_ids_total",
				Help: "Total dimension rows that arrived without an id.",
			},
			[]string{"table"},
		),
		SinkFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_sink_failures_total",
				Help: "Total failed sink writes.",
			},
			[]string{"sink"},
		),
		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ingest_run_duration_seconds",
				Help:    "Duration of ingest runs.",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
			},
		),
		LastSuccessful: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "ingest_last_success_timestamp_seconds",
				Help: "Unix time of the last successful ingest run.",
			},
		),
		gatherer: reg,
	}
	reg.MustRegister(r.Runs, r.RawRecords, r.TableRows, r.DegradedIDs, r.SinkFailures, r.RunDuration, r.LastSuccessful)
	return r
}

// ObserveRun records one finished run.
func (r *Recorder) ObserveRun(s *domain.RunSummary) {
	if s == nil {
		return
	}
	status := "success"
	if !s.Succeeded() {
		status = "failure"
	}
	r.Runs.WithLabelValues(status).Inc()
	r.RawRecords.Add(float64(s.RawRecords))
	for table, n := range s.Tables {
		r.TableRows.WithLabelValues(table).Add(float64(n))
	}
	r.DegradedIDs.WithLabelValues(domain.TableEvents).Add(float64(s.Degraded.Events))
	r.DegradedIDs.WithLabelValues(domain.TableTimeslots).Add(float64(s.Degraded.Timeslots))
	r.DegradedIDs.WithLabelValues(domain.TablePersons).Add(float64(s.Degraded.Persons))
	for sink := range s.SinkErrors {
		r.SinkFailures.WithLabelValues(sink).Inc()
	}
	r.RunDuration.Observe(s.Duration().Seconds())
	if status == "success" {
		r.LastSuccessful.Set(float64(s.FinishedAt.Unix()))
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
