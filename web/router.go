package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/artpar/stacgate/adapters/metrics"
	"github.com/artpar/stacgate/app"
	"github.com/artpar/stacgate/core/registry"
)

// RouterConfig carries the router's collaborators.
type RouterConfig struct {
	Registry  *registry.Registry
	Adapter   *app.Adapter
	Collector *metrics.Collector
	Gatherer  prometheus.Gatherer
	Logger    zerolog.Logger

	// MetricsEndpoint exposes /metrics when true.
	MetricsEndpoint bool
}

// NewRouter builds the HTTP router from the registry's mounted routes.
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(Metrics(cfg.Collector))

	for _, rt := range cfg.Registry.Routes() {
		r.Method(rt.Method, rt.Path, cfg.Adapter.Adapt(rt.Handler, rt.Schema, rt.Encoding))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	if cfg.MetricsEndpoint {
		gatherer := cfg.Gatherer
		if gatherer == nil {
			gatherer = prometheus.DefaultGatherer
		}
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	return r
}
