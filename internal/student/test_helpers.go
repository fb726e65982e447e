package student

import (
	"context"
	"testing"

	"github.com/leg100/roster/internal/hashstore"
	"github.com/leg100/roster/internal/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

// NewTestService constructs a service backed by an in-memory store, with
// metrics registered on a private registry.
func NewTestService(t *testing.T) *Service {
	t.Helper()

	svc, err := NewService(ServiceOptions{
		Store:      hashstore.NewMemoryStore(),
		Registerer: prometheus.NewRegistry(),
		Logger:     logr.Discard(),
	})
	require.NoError(t, err)
	return svc
}

type fakeCLIService struct {
	student *Student
	err     error

	created, updated *Options
	deleted          string
}

func (f *fakeCLIService) Create(ctx context.Context, id string, opts Options) error {
	f.created = &opts
	return f.err
}

func (f *fakeCLIService) Get(ctx context.Context, id string) (*Student, error) {
	return f.student, f.err
}

func (f *fakeCLIService) Update(ctx context.Context, id string, opts Options) error {
	f.updated = &opts
	return f.err
}

func (f *fakeCLIService) Delete(ctx context.Context, id string) error {
	f.deleted = id
	return f.err
}
