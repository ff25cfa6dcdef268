package metrics

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AddrEnv names the environment variable that enables the exposition
// endpoint. Unset means no listener: the server normally speaks only the
// stdio tool-call protocol, so scraping is strictly opt-in.
const AddrEnv = "REVIEW_BRIDGE_METRICS_ADDR"

// Handler returns the exposition handler over the default registry.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// ServeIfConfigured starts the exposition listener on the address named by
// AddrEnv, when set. The listener runs for the life of the process; a bind
// failure is logged and never takes the review service down.
func ServeIfConfigured(log *slog.Logger) {
	addr := os.Getenv(AddrEnv)
	if addr == "" {
		return
	}
	if log == nil {
		log = slog.Default()
	}

	server := &http.Server{
		Addr:         addr,
		Handler:      Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Serving metrics", "addr", addr)
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Warn("Metrics listener stopped", "error", err)
		}
	}()
}
