package version

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ucs-toolbox/podcfg/internal/model"
)

// Values are set at build time with -ldflags.
var (
	GitCommit  string
	AppVersion string
	GoVersion  = runtime.Version()
)

// Current returns the build information as log fields.
func Current() []any {
	return []any{
		"version", AppVersion,
		"commit", GitCommit,
		"goVersion", GoVersion,
	}
}

// ExportBuildInfoMetric registers a gauge carrying the build information as
// labels.
func ExportBuildInfoMetric() {
	buildInfo := promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: model.AppName + "_build_info",
			Help: "A metric with a constant '1' value labeled by version, commit and goversion.",
		},
		[]string{"version", "commit", "goversion"},
	)

	buildInfo.WithLabelValues(AppVersion, GitCommit, GoVersion).Set(1)
}
