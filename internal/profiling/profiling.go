package profiling

import (
	"log/slog"
	"net/http"
	_ "net/http/pprof" // nolint:gosec // profiling endpoint listens on localhost.
	"time"
)

const endpoint = "localhost:9091"

// Enable exposes the pprof endpoint in the background.
func Enable() {
	go func() {
		server := &http.Server{
			Addr:              endpoint,
			ReadHeaderTimeout: 2 * time.Second,
		}

		if err := server.ListenAndServe(); err != nil {
			slog.Error("Failed to serve profiling endpoint", "error", err)
		}
	}()

	slog.Info("Profiling endpoint enabled", "endpoint", "http://"+endpoint+"/debug/pprof")
}
