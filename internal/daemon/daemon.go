// Package daemon configures and starts the rosterd daemon.
package daemon

import (
	"context"
	"fmt"
	"net"

	"github.com/leg100/roster/internal"
	"github.com/leg100/roster/internal/hashstore"
	"github.com/leg100/roster/internal/http"
	"github.com/leg100/roster/internal/logr"
	"github.com/leg100/roster/internal/student"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

const DefaultAddress = ":8080"

type (
	Daemon struct {
		Config
		logr.Logger

		Store    hashstore.Store
		Students *student.Service

		// ListenAddress is the listening address of the daemon's http server,
		// e.g. localhost:8080
		ListenAddress *net.TCPAddr

		handlers []internal.Handlers
		registry *prometheus.Registry
	}
)

// New builds a new daemon, connecting to the store.
func New(ctx context.Context, logger logr.Logger, cfg Config) (*Daemon, error) {
	if cfg.Store == "" {
		return nil, &internal.ErrMissingParameter{Parameter: "store"}
	}

	store, err := hashstore.Open(ctx, logger.WithValues("component", "store"), cfg.Store, cfg.StoreConnectTimeout)
	if err != nil {
		return nil, err
	}

	// each daemon keeps its own registry so that several daemons can run
	// within one process, as they do in tests.
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	students, err := student.NewService(student.ServiceOptions{
		Store:      store,
		Registerer: registry,
		Logger:     logger.WithValues("component", "students"),
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("setting up student service: %w", err)
	}

	return &Daemon{
		Config:   cfg,
		Logger:   logger,
		Store:    store,
		Students: students,
		handlers: []internal.Handlers{students},
		registry: registry,
	}, nil
}

// Start the daemon. The started channel is closed once the http server is
// listening.
func (d *Daemon) Start(ctx context.Context, started chan struct{}) error {
	// Cancel context the first time a func started with g.Go() fails
	g, ctx := errgroup.WithContext(ctx)

	// close store connections upon exit
	defer func() {
		if err := d.Store.Close(); err != nil {
			d.Error(err, "closing store")
		}
	}()

	// Construct web server and start listening on port
	server, err := http.NewServer(d.Logger, http.ServerConfig{
		SSL:                  d.SSL,
		CertFile:             d.CertFile,
		KeyFile:              d.KeyFile,
		EnableRequestLogging: d.EnableRequestLogging,
		Handlers:             d.handlers,
		Readiness:            d.Store,
		Gatherer:             d.registry,
	})
	if err != nil {
		return fmt.Errorf("setting up http server: %w", err)
	}
	ln, err := net.Listen("tcp", d.Address)
	if err != nil {
		return err
	}
	d.ListenAddress = ln.Addr().(*net.TCPAddr)

	defer ln.Close()

	// Run HTTP/JSON API server
	g.Go(func() error {
		if err := server.Start(ctx, ln); err != nil {
			return fmt.Errorf("http server terminated: %w", err)
		}
		return nil
	})

	// Inform the caller the daemon has started
	close(started)

	// Block until error or Ctrl-C received.
	return g.Wait()
}
