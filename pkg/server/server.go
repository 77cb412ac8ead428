package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/go-logr/logr"
	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/paragor/answer-store/pkg/page"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	APIPrefix = "/api"

	// shutdownTimeout is the time given for outstanding requests to finish
	// before shutdown.
	shutdownTimeout = 5 * time.Second
)

type (
	// Config is the http server config
	Config struct {
		EnableRequestLogging bool
		// AllowedOrigins for cross-origin API requests. Empty allows any.
		AllowedOrigins []string
		// View is rendered on the page routes. APIURL and intervals are
		// taken from here; Title and WithForm are set per route.
		View page.View
	}

	Server struct {
		logr.Logger

		server *http.Server
	}
)

// New constructs the http server serving the answer API and the pages.
func New(logger logr.Logger, svc Service, pages *page.Engine, cfg Config) *Server {
	logger = logger.WithName("http")
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := mux.NewRouter()

	// Catch panics and return 500s
	r.Use(gorillaHandlers.RecoveryHandler(
		gorillaHandlers.RecoveryLogger(recoveryLogger{logger}),
	))

	if cfg.EnableRequestLogging {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				m := httpsnoop.CaptureMetrics(next, w, r)
				logger.Info("request",
					"duration", fmt.Sprintf("%dms", m.Duration.Milliseconds()),
					"status", m.Code,
					"method", r.Method,
					"path", r.URL.Path)
			})
		})
	}

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	// Page routes go before the API subrouter: mux drops an API method
	// mismatch (405) when a later GET route is tried against the request.
	pageHandlers := &pageHandlers{Logger: logger, engine: pages, view: cfg.View}
	pageHandlers.addHandlers(r)

	api := &apiHandlers{
		Logger:  logger,
		svc:     svc,
		metrics: newMetrics(registry),
	}
	api.addHandlers(r.PathPrefix(APIPrefix).Subrouter(), cfg.AllowedOrigins)

	// Any other GET outside the API renders the display page.
	pageHandlers.addFallback(r)

	return &Server{
		Logger: logger,
		server: &http.Server{
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start serves http traffic on the given listener and blocks until the server
// exits due to error or the context is cancelled.
func (s *Server) Start(ctx context.Context, ln net.Listener) error {
	errch := make(chan error, 1)

	go func() {
		errch <- s.server.Serve(ln)
	}()

	s.Info("started server", "address", ln.Addr().String())

	// Block until server stops listening or context is cancelled.
	select {
	case err := <-errch:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.Info("gracefully shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(ctx); err != nil {
			return s.server.Close()
		}

		return nil
	}
}

type recoveryLogger struct {
	logr.Logger
}

func (l recoveryLogger) Println(v ...any) {
	l.Error(fmt.Errorf("%s", fmt.Sprint(v...)), "recovered from panic")
}
