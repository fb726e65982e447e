package student

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/leg100/roster/internal"
	rosterhttp "github.com/leg100/roster/internal/http"
	"github.com/leg100/roster/internal/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	srv := httptest.NewServer(newTestRouter(NewTestService(t)))
	t.Cleanup(srv.Close)

	client, err := rosterhttp.NewClient(rosterhttp.ClientConfig{
		Address: srv.URL,
		Logger:  logr.Discard(),
	})
	require.NoError(t, err)
	return &Client{Client: client}
}

func TestClient(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	id := uuid.NewString()
	ann := Options{Name: "Ann", Age: 20, Skills: []string{"python", "go"}}

	require.NoError(t, client.Create(ctx, id, ann))

	err := client.Create(ctx, id, ann)
	assert.ErrorIs(t, err, internal.ErrResourceAlreadyExists)
	assert.EqualError(t, err, "Student already exists")

	got, err := client.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, &Student{ID: id, Name: "Ann", Age: 20, Skills: []string{"python", "go"}}, got)

	require.NoError(t, client.Update(ctx, id, Options{Name: "Ann", Age: 21, Skills: []string{}}))

	got, err = client.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, &Student{ID: id, Name: "Ann", Age: 21, Skills: []string{}}, got)

	require.NoError(t, client.Delete(ctx, id))

	_, err = client.Get(ctx, id)
	assert.ErrorIs(t, err, internal.ErrResourceNotFound)

	err = client.Update(ctx, id, ann)
	assert.ErrorIs(t, err, internal.ErrResourceNotFound)

	err = client.Delete(ctx, id)
	assert.ErrorIs(t, err, internal.ErrResourceNotFound)
}

func TestClient_EscapesID(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	require.NoError(t, client.Create(ctx, "ann smith", Options{Name: "Ann", Age: 20, Skills: []string{}}))

	got, err := client.Get(ctx, "ann smith")
	require.NoError(t, err)
	assert.Equal(t, "Ann", got.Name)
}
