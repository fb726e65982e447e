package daemon

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/leg100/roster/internal"
	rosterhttp "github.com/leg100/roster/internal/http"
	"github.com/leg100/roster/internal/logr"
	"github.com/leg100/roster/internal/student"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaemon_MissingStoreError(t *testing.T) {
	var missing *internal.ErrMissingParameter
	_, err := New(context.Background(), logr.Discard(), Config{})
	require.True(t, errors.As(err, &missing))
}

func TestDaemon_UnsupportedStore(t *testing.T) {
	_, err := New(context.Background(), logr.Discard(), Config{Store: "mongodb://localhost"})
	assert.Error(t, err)
}

// startDaemon starts a daemon listening on a random port, returning a client
// for the daemon's API.
func startDaemon(t *testing.T, cfg Config) (*Daemon, *student.Client) {
	t.Helper()

	cfg.Address = "localhost:0"
	ctx, cancel := context.WithCancel(context.Background())

	d, err := New(ctx, logr.Discard(), cfg)
	require.NoError(t, err)

	started := make(chan struct{})
	done := make(chan error)
	go func() { done <- d.Start(ctx, started) }()

	select {
	case <-started:
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not start")
	}
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})

	client, err := rosterhttp.NewClient(rosterhttp.ClientConfig{
		Address: d.ListenAddress.String(),
		Logger:  logr.Discard(),
	})
	require.NoError(t, err)
	return d, &student.Client{Client: client}
}

func TestDaemon(t *testing.T) {
	stores := map[string]func(t *testing.T) string{
		"memory": func(t *testing.T) string { return "memory://" },
		"redis": func(t *testing.T) string {
			return "redis://" + miniredis.RunT(t).Addr()
		},
	}
	for name, storeURL := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			d, client := startDaemon(t, Config{
				Store:               storeURL(t),
				StoreConnectTimeout: time.Second,
			})

			err := client.Create(ctx, "s1", student.Options{Name: "Ann", Age: 20, Skills: []string{"python", "go"}})
			require.NoError(t, err)

			got, err := client.Get(ctx, "s1")
			require.NoError(t, err)
			assert.Equal(t, &student.Student{ID: "s1", Name: "Ann", Age: 20, Skills: []string{"python", "go"}}, got)

			require.NoError(t, client.Delete(ctx, "s1"))

			_, err = client.Get(ctx, "s1")
			assert.ErrorIs(t, err, internal.ErrResourceNotFound)

			base := "http://" + d.ListenAddress.String()

			t.Run("ready", func(t *testing.T) {
				resp, err := http.Get(base + "/readyz")
				require.NoError(t, err)
				resp.Body.Close()
				assert.Equal(t, 204, resp.StatusCode)
			})

			t.Run("metrics", func(t *testing.T) {
				resp, err := http.Get(base + "/metrics")
				require.NoError(t, err)
				defer resp.Body.Close()
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				assert.Contains(t, string(body), `roster_student_operations_total{operation="create",outcome="success"} 1`)
			})
		})
	}
}

func TestDaemon_StoreGoesAway(t *testing.T) {
	srv := miniredis.RunT(t)
	d, _ := startDaemon(t, Config{
		Store:               "redis://" + srv.Addr(),
		StoreConnectTimeout: time.Second,
	})

	srv.Close()

	resp, err := http.Get("http://" + d.ListenAddress.String() + "/readyz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, 503, resp.StatusCode)
}
