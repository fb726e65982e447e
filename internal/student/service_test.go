package student

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/leg100/roster/internal"
	"github.com/leg100/roster/internal/hashstore"
	"github.com/leg100/roster/internal/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService(t *testing.T) {
	ctx := context.Background()
	svc := NewTestService(t)

	ann := Options{Name: "Ann", Age: 20, Skills: []string{"python", "go"}}

	t.Run("create and get", func(t *testing.T) {
		id := uuid.NewString()
		require.NoError(t, svc.Create(ctx, id, ann))

		got, err := svc.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, &Student{ID: id, Name: "Ann", Age: 20, Skills: []string{"python", "go"}}, got)
	})

	t.Run("create existing student", func(t *testing.T) {
		id := uuid.NewString()
		require.NoError(t, svc.Create(ctx, id, ann))

		err := svc.Create(ctx, id, Options{Name: "Bob", Age: 30, Skills: []string{"rust"}})
		assert.ErrorIs(t, err, internal.ErrResourceAlreadyExists)

		// original is left unchanged
		got, err := svc.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Ann", got.Name)
		assert.Equal(t, 20, got.Age)
		assert.Equal(t, []string{"python", "go"}, got.Skills)
	})

	t.Run("missing student", func(t *testing.T) {
		id := uuid.NewString()

		_, err := svc.Get(ctx, id)
		assert.ErrorIs(t, err, internal.ErrResourceNotFound)

		err = svc.Update(ctx, id, ann)
		assert.ErrorIs(t, err, internal.ErrResourceNotFound)

		err = svc.Delete(ctx, id)
		assert.ErrorIs(t, err, internal.ErrResourceNotFound)

		// update did not create the student
		_, err = svc.Get(ctx, id)
		assert.ErrorIs(t, err, internal.ErrResourceNotFound)
	})

	t.Run("update replaces all fields", func(t *testing.T) {
		id := uuid.NewString()
		require.NoError(t, svc.Create(ctx, id, ann))

		err := svc.Update(ctx, id, Options{Name: "Annie", Age: 21, Skills: []string{}})
		require.NoError(t, err)

		got, err := svc.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, &Student{ID: id, Name: "Annie", Age: 21, Skills: []string{}}, got)
	})

	t.Run("delete", func(t *testing.T) {
		id := uuid.NewString()
		require.NoError(t, svc.Create(ctx, id, ann))

		require.NoError(t, svc.Delete(ctx, id))

		_, err := svc.Get(ctx, id)
		assert.ErrorIs(t, err, internal.ErrResourceNotFound)

		// id can be reused after deletion
		require.NoError(t, svc.Create(ctx, id, ann))
	})

	t.Run("missing id", func(t *testing.T) {
		var missing *internal.ErrMissingParameter

		assert.ErrorAs(t, svc.Create(ctx, "", ann), &missing)
		_, err := svc.Get(ctx, "")
		assert.ErrorAs(t, err, &missing)
		assert.ErrorAs(t, svc.Update(ctx, "", ann), &missing)
		assert.ErrorAs(t, svc.Delete(ctx, ""), &missing)
	})
}

func TestService_Scenario(t *testing.T) {
	ctx := context.Background()
	svc := NewTestService(t)

	err := svc.Create(ctx, "s1", Options{Name: "Ann", Age: 20, Skills: []string{"python", "go"}})
	require.NoError(t, err)

	got, err := svc.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, &Student{ID: "s1", Name: "Ann", Age: 20, Skills: []string{"python", "go"}}, got)

	require.NoError(t, svc.Delete(ctx, "s1"))

	_, err = svc.Get(ctx, "s1")
	assert.ErrorIs(t, err, internal.ErrResourceNotFound)
}

func TestService_StoreKeys(t *testing.T) {
	ctx := context.Background()
	store := hashstore.NewMemoryStore()
	svc, err := NewService(ServiceOptions{
		Store:      store,
		Registerer: prometheus.NewRegistry(),
		Logger:     logr.Discard(),
	})
	require.NoError(t, err)

	require.NoError(t, svc.Create(ctx, "s1", Options{Name: "Ann", Age: 20, Skills: []string{"python", "go"}}))

	fields, err := store.GetAll(ctx, "student:s1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"name": "Ann", "age": "20", "skills": "python,go"}, fields)

	// reducing skills to none removes the field
	require.NoError(t, svc.Update(ctx, "s1", Options{Name: "Ann", Age: 20}))

	fields, err = store.GetAll(ctx, "student:s1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"name": "Ann", "age": "20"}, fields)
}

func TestService_Metrics(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	svc, err := NewService(ServiceOptions{
		Store:      hashstore.NewMemoryStore(),
		Registerer: reg,
		Logger:     logr.Discard(),
	})
	require.NoError(t, err)

	opts := Options{Name: "Ann", Age: 20}
	require.NoError(t, svc.Create(ctx, "s1", opts))
	_ = svc.Create(ctx, "s1", opts)
	_, _ = svc.Get(ctx, "s2")

	ops := svc.metrics.operations
	assert.Equal(t, 1.0, testutil.ToFloat64(ops.WithLabelValues("create", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(ops.WithLabelValues("create", "conflict")))
	assert.Equal(t, 1.0, testutil.ToFloat64(ops.WithLabelValues("get", "not_found")))

	// constructing a second service on the same registry reuses the collector
	_, err = NewService(ServiceOptions{
		Store:      hashstore.NewMemoryStore(),
		Registerer: reg,
		Logger:     logr.Discard(),
	})
	require.NoError(t, err)
}

func TestService_StoreError(t *testing.T) {
	ctx := context.Background()
	svc, err := NewService(ServiceOptions{
		Store:      &brokenStore{err: errors.New("connection refused")},
		Registerer: prometheus.NewRegistry(),
		Logger:     logr.Discard(),
	})
	require.NoError(t, err)

	err = svc.Create(ctx, "s1", Options{Name: "Ann", Age: 20})
	assert.EqualError(t, err, "connection refused")

	_, err = svc.Get(ctx, "s1")
	assert.EqualError(t, err, "connection refused")
}

// brokenStore is a store that cannot be reached.
type brokenStore struct {
	hashstore.Store

	err error
}

func (s *brokenStore) GetAll(context.Context, string) (map[string]string, error) {
	return nil, s.err
}

func (s *brokenStore) Put(context.Context, string, map[string]string, hashstore.Condition) error {
	return s.err
}

func (s *brokenStore) Delete(context.Context, string) error {
	return s.err
}

func (s *brokenStore) Ping(context.Context) error {
	return s.err
}
