package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Siddarth2230/shortcode/internal/logging"
	"github.com/Siddarth2230/shortcode/internal/middleware"
	"github.com/Siddarth2230/shortcode/internal/service"
)

type RouterOptions struct {
	MaxBodyBytes   int64
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

// NewRouter sets up routes and middleware. The returned handler enforces
// the request timeout around everything.
func NewRouter(svc *service.CodeService, opts RouterOptions) http.Handler {
	if opts.Logger == nil {
		opts.Logger = logging.NewDiscard()
	}
	h := NewCodeHandler(svc)

	r := mux.NewRouter()
	r.Use(middleware.Logging(opts.Logger))
	r.Use(middleware.Metrics)
	r.Use(middleware.BodyLimit(opts.MaxBodyBytes))

	r.HandleFunc("/code", h.Generate).Methods(http.MethodPost)
	r.HandleFunc("/code", h.Lookup).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	if opts.RequestTimeout <= 0 {
		return r
	}
	return http.TimeoutHandler(r, opts.RequestTimeout, `{"error":"request timed out"}`)
}
