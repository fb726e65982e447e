package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/felixge/httpsnoop"
	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/leg100/roster/internal"
	"github.com/leg100/roster/internal/logr"
)

const (
	// shutdownTimeout is the time given for outstanding requests to finish
	// before shutdown.
	shutdownTimeout = 1 * time.Second

	// readyTimeout is the time given to a readiness check.
	readyTimeout = 2 * time.Second
)

var healthzPayload, _ = json.Marshal(struct {
	Version string
	Commit  string
	Built   string
}{
	Version: internal.Version,
	Commit:  internal.Commit,
	Built:   internal.Built,
})

type (
	// ServerConfig is the http server config
	ServerConfig struct {
		SSL                  bool
		CertFile, KeyFile    string
		EnableRequestLogging bool

		Handlers   []internal.Handlers
		Middleware []mux.MiddlewareFunc
		// Readiness is checked upon requests to /readyz. If nil then the
		// server is always ready.
		Readiness Pinger
		// Gatherer provides metrics served on /metrics. Defaults to the
		// prometheus default gatherer.
		Gatherer prometheus.Gatherer
	}

	// Pinger checks whether a dependency is reachable.
	Pinger interface {
		Ping(ctx context.Context) error
	}

	// Server is the http server for roster
	Server struct {
		logr.Logger
		ServerConfig

		server *http.Server
	}
)

// NewServer constructs the http server for roster
func NewServer(logger logr.Logger, cfg ServerConfig) (*Server, error) {
	if cfg.SSL {
		if cfg.CertFile == "" || cfg.KeyFile == "" {
			return nil, fmt.Errorf("must provide both --cert-file and --key-file")
		}
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}

	r := mux.NewRouter()

	// Catch panics and return 500s
	r.Use(gorillaHandlers.RecoveryHandler(
		gorillaHandlers.PrintRecoveryStack(true),
		gorillaHandlers.RecoveryLogger(recoveryLogger{logger}),
	))

	// Prometheus metrics
	r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-type", "application/json")
		w.Write(healthzPayload)
	})

	r.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if cfg.Readiness != nil {
			ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
			defer cancel()
			if err := cfg.Readiness.Ping(ctx); err != nil {
				logger.Error(err, "readiness check")
				Error(w, fmt.Errorf("%w: %s", internal.ErrUnavailable, err.Error()))
				return
			}
		}
		w.WriteHeader(http.StatusNoContent)
	})

	// Subrouter for service routes
	svcRouter := r.NewRoute().Subrouter()
	svcRouter.Use(cfg.Middleware...)

	// Add handlers for each service
	for _, h := range cfg.Handlers {
		h.AddHandlers(svcRouter)
	}

	// Optionally log every request
	if cfg.EnableRequestLogging {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				m := httpsnoop.CaptureMetrics(next, w, r)
				logger.Info("request",
					"duration", fmt.Sprintf("%dms", m.Duration.Milliseconds()),
					"status", m.Code,
					"method", r.Method,
					"path", fmt.Sprintf("%s?%s", r.URL.Path, r.URL.RawQuery))
			})
		})
	}

	return &Server{
		Logger:       logger,
		ServerConfig: cfg,
		server: &http.Server{
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

// Handler returns the server's root handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts serving http traffic on the given listener and waits until the server exits due to
// error or the context is cancelled.
func (s *Server) Start(ctx context.Context, ln net.Listener) (err error) {
	errch := make(chan error, 1)

	go func() {
		if s.SSL {
			errch <- s.server.ServeTLS(ln, s.CertFile, s.KeyFile)
		} else {
			errch <- s.server.Serve(ln)
		}
	}()

	s.Info("started server", "address", ln.Addr().String(), "ssl", s.SSL)

	// Block until server stops listening or context is cancelled.
	select {
	case err := <-errch:
		if err == http.ErrServerClosed {
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

// recoveryLogger logs panics caught by the recovery handler.
type recoveryLogger struct {
	logr.Logger
}

func (l recoveryLogger) Println(args ...any) {
	l.Error(fmt.Errorf("%s", fmt.Sprint(args...)), "recovered from panic")
}
