package student

import (
	"context"
	"errors"

	"github.com/gorilla/mux"
	"github.com/leg100/roster/internal"
	"github.com/leg100/roster/internal/hashstore"
	"github.com/leg100/roster/internal/logr"
	"github.com/prometheus/client_golang/prometheus"
)

type (
	Service struct {
		logr.Logger

		db      *db
		api     *api
		metrics *metrics
	}

	ServiceOptions struct {
		Store hashstore.Store
		// Registerer registers the service's metrics. Defaults to the
		// prometheus default registerer.
		Registerer prometheus.Registerer

		logr.Logger
	}
)

func NewService(opts ServiceOptions) (*Service, error) {
	if opts.Registerer == nil {
		opts.Registerer = prometheus.DefaultRegisterer
	}
	metrics, err := newMetrics(opts.Registerer)
	if err != nil {
		return nil, err
	}
	svc := Service{
		Logger:  opts.Logger,
		db:      &db{Store: opts.Store},
		metrics: metrics,
	}
	svc.api = &api{Service: &svc}
	return &svc, nil
}

func (s *Service) AddHandlers(r *mux.Router) {
	s.api.addHandlers(r)
}

// Create creates a student. If a student with the ID already exists then
// internal.ErrResourceAlreadyExists is returned and the existing student is
// left unchanged.
func (s *Service) Create(ctx context.Context, id string, opts Options) error {
	if id == "" {
		return &internal.ErrMissingParameter{Parameter: "id"}
	}
	err := s.db.create(ctx, id, opts)
	s.metrics.observe(createOp, err)
	if err != nil {
		s.Error(err, "creating student", "id", id)
		return err
	}
	s.V(0).Info("created student", "id", id, "name", opts.Name)
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*Student, error) {
	if id == "" {
		return nil, &internal.ErrMissingParameter{Parameter: "id"}
	}
	student, err := s.db.get(ctx, id)
	s.metrics.observe(getOp, err)
	if err != nil {
		// not finding a student is routine enough to not warrant an error
		if errors.Is(err, internal.ErrResourceNotFound) {
			s.V(9).Info("student not found", "id", id)
		} else {
			s.Error(err, "retrieving student", "id", id)
		}
		return nil, err
	}
	s.V(9).Info("retrieved student", "id", id)
	return student, nil
}

// Update replaces every field of an existing student.
func (s *Service) Update(ctx context.Context, id string, opts Options) error {
	if id == "" {
		return &internal.ErrMissingParameter{Parameter: "id"}
	}
	err := s.db.update(ctx, id, opts)
	s.metrics.observe(updateOp, err)
	if err != nil {
		s.Error(err, "updating student", "id", id)
		return err
	}
	s.V(0).Info("updated student", "id", id, "name", opts.Name)
	return nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return &internal.ErrMissingParameter{Parameter: "id"}
	}
	err := s.db.delete(ctx, id)
	s.metrics.observe(deleteOp, err)
	if err != nil {
		s.Error(err, "deleting student", "id", id)
		return err
	}
	s.V(0).Info("deleted student", "id", id)
	return nil
}
