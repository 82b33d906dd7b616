package jobs

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	jobRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ingest", Subsystem: "job", Name: "runs_total",
		Help: "Background job runs by outcome",
	}, []string{"job", "outcome"})

	jobDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ingest", Subsystem: "job", Name: "duration_seconds",
		Help:    "Background job duration",
		Buckets: []float64{.1, .5, 1, 5, 15, 60, 300, 900},
	}, []string{"job"})

	jobLastSuccess = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "ingest", Subsystem: "job", Name: "last_success_timestamp_seconds",
		Help: "Unix time of the last successful run",
	}, []string{"job"})
)

func init() {
	prometheus.MustRegister(jobRuns, jobDuration, jobLastSuccess)
}

// observe: синхронизация PRONOTE идёт минуты, поэтому бакеты крупнее DefBuckets.
func observe(name string, started time.Time, err error) {
	jobDuration.WithLabelValues(name).Observe(time.Since(started).Seconds())
	if err != nil {
		jobRuns.WithLabelValues(name, "error").Inc()
		return
	}
	jobRuns.WithLabelValues(name, "ok").Inc()
	jobLastSuccess.WithLabelValues(name).SetToCurrentTime()
}
