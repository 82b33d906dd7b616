package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Runs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ingest", Name: "runs_total", Help: "Orchestrator runs",
	}, []string{"op"})
	Items = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ingest", Name: "items_total", Help: "Processed work items by outcome",
	}, []string{"op", "status"})
	Nodes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ingest", Name: "nodes_total", Help: "Upserted records by kind and action",
	}, []string{"kind", "action"})
	FetchSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ingest", Name: "fetch_seconds", Help: "External fetch latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})
	BreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "ingest", Name: "breaker_state", Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
	}, []string{"source"})
	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ingest", Name: "db_ping_seconds", Help: "DB ping latency",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(Runs, Items, Nodes, FetchSeconds, BreakerState, DBPing)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }

func ObserveFetch(source string, d time.Duration) {
	FetchSeconds.WithLabelValues(source).Observe(d.Seconds())
}

// AddNodes учитывает tally одного вида записей.
func AddNodes(kind string, created, updated, skipped int) {
	if created > 0 {
		Nodes.WithLabelValues(kind, "created").Add(float64(created))
	}
	if updated > 0 {
		Nodes.WithLabelValues(kind, "updated").Add(float64(updated))
	}
	if skipped > 0 {
		Nodes.WithLabelValues(kind, "skipped").Add(float64(skipped))
	}
}
