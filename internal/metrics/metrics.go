package metrics

import (
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PagesFetched = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mastogone_pages_fetched_total",
		Help: "Total status pages fetched",
	})
	PostsMatched = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mastogone_posts_matched_total",
		Help: "Total posts that passed all filters",
	})
	PostsDeleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mastogone_posts_deleted_total",
		Help: "Total posts deleted",
	})
	DeleteFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mastogone_delete_failures_total",
		Help: "Total delete attempts that failed",
	})
	RateLimitPauses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mastogone_rate_limit_pauses_total",
		Help: "Total cooldown pauses taken",
	}, []string{"reason"})
)

func init() {
	prometheus.MustRegister(PagesFetched, PostsMatched, PostsDeleted, DeleteFailures, RateLimitPauses)
}

// StartServer starts a metrics HTTP server on addr (e.g., ":9090").
func StartServer(addr string) {
	if addr == "" {
		addr = os.Getenv("MASTOGONE_METRICS_ADDR")
	}
	if addr == "" {
		return
	}
	http.Handle("/metrics", promhttp.Handler())
	go func() { _ = http.ListenAndServe(addr, nil) }()
}

// IncPause increments the pause counter; reason is "batch" or "http429".
func IncPause(reason string) { RateLimitPauses.WithLabelValues(reason).Inc() }
