package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Registry holds the accounting collectors.
	Registry = prometheus.NewRegistry()

	entriesPosted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "erp_accounting",
			Subsystem: "posting",
			Name:      "entries_total",
			Help:      "Journal entries created from business documents.",
		},
		[]string{"document"},
	)

	postingFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "erp_accounting",
			Subsystem: "posting",
			Name:      "failures_total",
			Help:      "Document postings aborted, by message key.",
		},
		[]string{"document", "reason"},
	)

	closingRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "erp_accounting",
			Subsystem: "closing",
			Name:      "stage_runs_total",
			Help:      "Period closing stage executions.",
		},
		[]string{"stage", "status"},
	)

	closingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "erp_accounting",
			Subsystem: "closing",
			Name:      "stage_duration_seconds",
			Help:      "Duration of period closing stages.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"stage"},
	)
)

func init() {
	Registry.MustRegister(entriesPosted, postingFailures, closingRuns, closingDuration)
}

// RecordPosting counts a journal entry created for a document type.
func RecordPosting(document string) {
	entriesPosted.WithLabelValues(document).Inc()
}

// RecordPostingFailure counts an aborted posting.
func RecordPostingFailure(document, reason string) {
	postingFailures.WithLabelValues(document, reason).Inc()
}

// RecordClosingStage counts a closing stage run and observes its duration.
func RecordClosingStage(stage string, success bool, took time.Duration) {
	status := "success"
	if !success {
		status = "error"
	}
	closingRuns.WithLabelValues(stage, status).Inc()
	closingDuration.WithLabelValues(stage).Observe(took.Seconds())
}

// PostingCount returns the current value of the posting counter of a document type.
func PostingCount(document string) prometheus.Counter {
	return entriesPosted.WithLabelValues(document)
}

// FailureCount returns the failure counter of a document type and reason.
func FailureCount(document, reason string) prometheus.Counter {
	return postingFailures.WithLabelValues(document, reason)
}

// WriteTextfile dumps the accounting collectors in the text exposition format,
// for the node exporter textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}
