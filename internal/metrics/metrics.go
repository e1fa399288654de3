package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SerperRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prospect_serper_requests_total",
			Help: "Total number of search API requests issued",
		},
		[]string{"endpoint", "status"},
	)

	SerperRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prospect_serper_request_duration_seconds",
			Help:    "Duration of search API requests in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"endpoint"},
	)

	PlanRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prospect_plan_requests_total",
			Help: "Total number of plan-generation model calls",
		},
		[]string{"status"},
	)

	LeadsCollectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prospect_leads_collected_total",
			Help: "Leads accumulated during execution, before cross-phase merge",
		},
		[]string{"source"},
	)

	DuplicatesDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prospect_duplicates_dropped_total",
			Help: "Records dropped by deduplication",
		},
		[]string{"phase"},
	)
)

// RecordSerperRequest updates the request counters for one API call.
func RecordSerperRequest(endpoint, status string, duration time.Duration) {
	SerperRequestsTotal.WithLabelValues(endpoint, status).Inc()
	SerperRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// Server encapsulates an HTTP server for Prometheus metrics.
type Server struct {
	srv *http.Server
}

// Start begins listening on the specified port and exposes /metrics.
func Start(port int) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		// Suppress the error from intentional shutdown
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("metrics server failed: %v\n", err)
		}
	}()

	return &Server{srv: srv}
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
