package noteserver

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	MetricNameSpace = "noteserver"
)

var (
	settlementsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricNameSpace,
			Name:      "settlements_total",
			Help:      "confirmed settlement transactions",
		},
		[]string{"kind"},
	)
	jobsFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricNameSpace,
			Name:      "jobs_finished_total",
			Help:      "jobs that reached a terminal state",
		},
		[]string{"status"},
	)
	queueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: MetricNameSpace,
			Name:      "queue_depth",
			Help:      "jobs per queue bucket",
		},
		[]string{"bucket"},
	)
	notesIssued = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: MetricNameSpace,
			Name:      "notes_issued_total",
			Help:      "confirmed note issuances",
		},
	)
	oracleUpdates = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: MetricNameSpace,
			Name:      "oracle_updates_total",
			Help:      "oracle price pushes",
		},
	)
)

func init() {
	prometheus.MustRegister(
		settlementsTotal,
		jobsFinished,
		queueDepth,
		notesIssued,
		oracleUpdates,
	)
}

func metricSettlement(principal bool) {
	kind := "coupon"
	if principal {
		kind = "principal"
	}
	settlementsTotal.WithLabelValues(kind).Inc()
}

func metricJobFinished(status string) {
	jobsFinished.WithLabelValues(status).Inc()
}

func metricQueueDepth(bucket string, n int) {
	queueDepth.WithLabelValues(bucket).Set(float64(n))
}

func metricNoteIssued() {
	notesIssued.Inc()
}

func metricOracleUpdate() {
	oracleUpdates.Inc()
}
