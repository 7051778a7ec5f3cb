package metrics

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ObjectsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "podcfg_objects_created_total",
			Help: "Count of Intersight objects created, by object type.",
		},
		[]string{"object_type"},
	)

	ObjectsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "podcfg_objects_skipped_total",
			Help: "Count of rows skipped because the object already exists.",
		},
		[]string{"object_type"},
	)

	ObjectsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "podcfg_objects_failed_total",
			Help: "Count of rows that failed to create, by object type.",
		},
		[]string{"object_type"},
	)

	APIRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "podcfg_api_retries_total",
			Help: "Count of retried Intersight API requests.",
		},
	)
)

// ListenAndServe exposes the metrics endpoint in the background.
func ListenAndServe(address string) {
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())

		server := &http.Server{
			Addr:              address,
			Handler:           mux,
			ReadHeaderTimeout: 2 * time.Second,
		}

		if err := server.ListenAndServe(); err != nil {
			slog.Error("Failed to serve metrics endpoint", "error", err)
		}
	}()
}
