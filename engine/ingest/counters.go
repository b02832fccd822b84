package ingest

import (
	"time"

	"github.com/WessleyAI/daytrip-loader/pkg/metrics"
)

// Counters receives per-document tallies from the batch driver.
type Counters interface {
	DocumentProcessed()
	RecordsInserted(n int)
	DocumentErrored()
	RecordsRejected(n int)
	PersistFailed(n int)
	DocumentDuration(d time.Duration)
}

// MetricsCounters exports the tallies through a metrics registry.
type MetricsCounters struct {
	processed *metrics.Counter
	inserted  *metrics.Counter
	errored   *metrics.Counter
	rejected  *metrics.Counter
	failed    *metrics.Counter
	duration  *metrics.Histogram
}

// NewMetricsCounters registers the loader metrics on reg.
func NewMetricsCounters(reg *metrics.Registry) *MetricsCounters {
	return &MetricsCounters{
		processed: reg.Counter("loader_documents_processed_total", "Documents persisted."),
		inserted:  reg.Counter("loader_records_inserted_total", "Vertices and edges written."),
		errored:   reg.Counter("loader_documents_errored_total", "Documents rejected as a whole."),
		rejected:  reg.Counter("loader_records_rejected_total", "Sub-records that failed validation."),
		failed:    reg.Counter("loader_persist_failures_total", "Writes that failed after retries."),
		duration:  reg.Histogram("loader_document_duration_seconds", "Time to process one document.", metrics.DefaultBuckets),
	}
}

func (m *MetricsCounters) DocumentProcessed()    { m.processed.Inc() }
func (m *MetricsCounters) RecordsInserted(n int) { m.inserted.Add(int64(n)) }
func (m *MetricsCounters) DocumentErrored()      { m.errored.Inc() }
func (m *MetricsCounters) RecordsRejected(n int) { m.rejected.Add(int64(n)) }
func (m *MetricsCounters) PersistFailed(n int)   { m.failed.Add(int64(n)) }

func (m *MetricsCounters) DocumentDuration(d time.Duration) { m.duration.Observe(d.Seconds()) }

type nopCounters struct{}

func (nopCounters) DocumentProcessed()             {}
func (nopCounters) RecordsInserted(int)            {}
func (nopCounters) DocumentErrored()               {}
func (nopCounters) RecordsRejected(int)            {}
func (nopCounters) PersistFailed(int)              {}
func (nopCounters) DocumentDuration(time.Duration) {}
