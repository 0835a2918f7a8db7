// Package metrics exposes prometheus instruments for the import pipeline.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ImportOutcomeComplete = "complete"
	ImportOutcomeError    = "error"
	ImportOutcomeSkipped  = "skipped"

	TriggerModeSync       = "sync"
	TriggerModeBackground = "background"
	TriggerModeQueue      = "queue"
)

// ImportMetrics captures import pipeline health signals.
type ImportMetrics struct {
	importsStarted       *prometheus.CounterVec
	importsFinished      *prometheus.CounterVec
	claimRacesLost       prometheus.Counter
	chunkRetries         prometheus.Counter
	subscriptionsCreated prometheus.Counter
	importDuration       prometheus.Histogram
	reaperReclaims       prometheus.Counter
	queueJobs            *prometheus.CounterVec
}

var (
	importMetricsOnce sync.Once
	importMetrics     *ImportMetrics
)

// Import returns the singleton import metrics registry.
func Import() *ImportMetrics {
	importMetricsOnce.Do(func() {
		importMetrics = &ImportMetrics{
			importsStarted: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "revenuecore_imports_started_total",
				Help: "Import attempts that won the claim, by trigger mode.",
			}, []string{"mode"}),
			importsFinished: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "revenuecore_imports_finished_total",
				Help: "Finished imports by outcome.",
			}, []string{"outcome"}),
			claimRacesLost: promauto.NewCounter(prometheus.CounterOpts{
				Name: "revenuecore_import_claim_races_lost_total",
				Help: "Claim attempts abandoned because another context won.",
			}),
			chunkRetries: promauto.NewCounter(prometheus.CounterOpts{
				Name: "revenuecore_import_chunk_retries_total",
				Help: "Chunk writes retried after transient storage errors.",
			}),
			subscriptionsCreated: promauto.NewCounter(prometheus.CounterOpts{
				Name: "revenuecore_subscriptions_created_total",
				Help: "Subscription rows created by imports.",
			}),
			importDuration: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "revenuecore_import_duration_seconds",
				Help:    "Wall time of claimed import executions.",
				Buckets: prometheus.DefBuckets,
			}),
			reaperReclaims: promauto.NewCounter(prometheus.CounterOpts{
				Name: "revenuecore_import_reaper_reclaims_total",
				Help: "Uploads reclaimed from a stale importing state.",
			}),
			queueJobs: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "revenuecore_import_queue_jobs_total",
				Help: "Queue jobs by outcome (enqueued, retried, dropped).",
			}, []string{"outcome"}),
		}
	})
	return importMetrics
}

func (m *ImportMetrics) IncImportStarted(mode string) {
	if m == nil {
		return
	}
	m.importsStarted.WithLabelValues(mode).Inc()
}

func (m *ImportMetrics) IncImportFinished(outcome string) {
	if m == nil {
		return
	}
	m.importsFinished.WithLabelValues(outcome).Inc()
}

func (m *ImportMetrics) IncClaimRaceLost() {
	if m == nil {
		return
	}
	m.claimRacesLost.Inc()
}

func (m *ImportMetrics) IncChunkRetry() {
	if m == nil {
		return
	}
	m.chunkRetries.Inc()
}

func (m *ImportMetrics) AddSubscriptionsCreated(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.subscriptionsCreated.Add(float64(n))
}

func (m *ImportMetrics) ObserveImportDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.importDuration.Observe(d.Seconds())
}

func (m *ImportMetrics) AddReaperReclaims(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.reaperReclaims.Add(float64(n))
}

func (m *ImportMetrics) IncQueueJob(outcome string) {
	if m == nil {
		return
	}
	m.queueJobs.WithLabelValues(outcome).Inc()
}
