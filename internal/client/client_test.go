package client_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/todolist/internal/api"
	"github.com/nhle/todolist/internal/client"
	"github.com/nhle/todolist/internal/model"
	appsync "github.com/nhle/todolist/internal/sync"
	"github.com/nhle/todolist/tests/testutil"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newClient(t *testing.T, serverOpts []api.Option, clientOpts ...client.Option) (*client.Client, *httptest.Server) {
	t.Helper()
	hub := appsync.NewHub()
	live := appsync.NewLiveStore(testutil.NewTestStore(t), hub, quiet)
	serverOpts = append([]api.Option{api.WithLogger(quiet)}, serverOpts...)
	srv := httptest.NewServer(api.NewServer(live, serverOpts...).Router())
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})

	clientOpts = append([]client.Option{client.WithLogger(quiet)}, clientOpts...)
	c, err := client.New(srv.URL, clientOpts...)
	require.NoError(t, err)
	return c, srv
}

func TestNew_RejectsBadEndpoints(t *testing.T) {
	for _, endpoint := range []string{"", "localhost:8080", "ftp://example.com", "http://"} {
		_, err := client.New(endpoint)
		assert.Error(t, err, endpoint)
	}

	c, err := client.New("https://todos.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "https://todos.example.com", c.Endpoint())
}

func TestClient_EndToEnd(t *testing.T) {
	ctx := context.Background()
	c, _ := newClient(t, nil)

	created, err := c.Create(ctx, "Buy milk")
	require.NoError(t, err)
	snap, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Todos, 1)
	assert.Equal(t, model.Todo{ID: created.ID, Text: "Buy milk"}, stripTimes(snap.Todos[0]))

	_, err = c.Update(ctx, created.ID, "Buy milk", true)
	require.NoError(t, err)
	snap, err = c.List(ctx)
	require.NoError(t, err)
	assert.True(t, snap.Todos[0].Completed)

	_, err = c.Update(ctx, created.ID, "Buy oat milk", true)
	require.NoError(t, err)
	snap, err = c.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.Todo{ID: created.ID, Text: "Buy oat milk", Completed: true}, stripTimes(snap.Todos[0]))

	require.NoError(t, c.Delete(ctx, created.ID))
	snap, err = c.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Todos)
}

func TestClient_PartialPatches(t *testing.T) {
	ctx := context.Background()
	c, _ := newClient(t, nil)

	created, err := c.Create(ctx, "Trim")
	require.NoError(t, err)

	todo, err := c.SetCompleted(ctx, created.ID, true)
	require.NoError(t, err)
	assert.Equal(t, "Trim", todo.Text)
	assert.True(t, todo.Completed)

	todo, err = c.SetText(ctx, created.ID, "Trim and style")
	require.NoError(t, err)
	assert.Equal(t, "Trim and style", todo.Text)
	assert.True(t, todo.Completed)
}

func TestClient_DeleteTwice(t *testing.T) {
	ctx := context.Background()
	c, _ := newClient(t, nil)

	keep, err := c.Create(ctx, "keep")
	require.NoError(t, err)
	drop, err := c.Create(ctx, "drop")
	require.NoError(t, err)

	require.NoError(t, c.Delete(ctx, drop.ID))
	err = c.Delete(ctx, drop.ID)
	assert.ErrorIs(t, err, client.ErrNotFound)
	assert.Equal(t, client.OutcomeNotFound, client.Classify(err))

	snap, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Todos, 1)
	assert.Equal(t, keep.ID, snap.Todos[0].ID)
}

func TestClient_ConcurrentUpdatesLastWriteWins(t *testing.T) {
	ctx := context.Background()
	c, _ := newClient(t, nil)

	todo, err := c.Create(ctx, "start")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, text := range []string{"A", "B"} {
		wg.Add(1)
		go func(text string) {
			defer wg.Done()
			_, err := c.Update(ctx, todo.ID, text, false)
			assert.NoError(t, err)
		}(text)
	}
	wg.Wait()

	snap, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Todos, 1)
	assert.Contains(t, []string{"A", "B"}, snap.Todos[0].Text)
}

func TestClassify(t *testing.T) {
	ctx := context.Background()

	t.Run("unauthorized is rejected", func(t *testing.T) {
		c, _ := newClient(t, []api.Option{api.WithAuthToken("secret")})
		_, err := c.List(ctx)
		var remote *client.RemoteError
		require.ErrorAs(t, err, &remote)
		assert.Equal(t, http.StatusUnauthorized, remote.Status)
		assert.Equal(t, client.OutcomeRejected, client.Classify(err))
	})

	t.Run("token is sent", func(t *testing.T) {
		c, _ := newClient(t, []api.Option{api.WithAuthToken("secret")}, client.WithToken("secret"))
		_, err := c.List(ctx)
		assert.NoError(t, err)
	})

	t.Run("unreachable is transport", func(t *testing.T) {
		c, srv := newClient(t, nil)
		srv.Close()
		_, err := c.Create(ctx, "x")
		var transport *client.TransportError
		require.ErrorAs(t, err, &transport)
		assert.Equal(t, client.OutcomeTransport, client.Classify(err))
	})

	t.Run("nil is ok", func(t *testing.T) {
		assert.Equal(t, client.OutcomeOK, client.Classify(nil))
		assert.Equal(t, client.OutcomeTransport, client.Classify(errors.New("boom")))
	})
}

func TestSubscribe_DeliversSnapshots(t *testing.T) {
	ctx := context.Background()
	c, _ := newClient(t, nil)

	sub := c.Subscribe(ctx)
	defer sub.Cancel()

	next := func() model.Snapshot {
		t.Helper()
		deadline := time.After(2 * time.Second)
		for {
			select {
			case ev, ok := <-sub.Events():
				require.True(t, ok, "subscription closed")
				if ev.Snapshot != nil {
					return *ev.Snapshot
				}
			case <-deadline:
				t.Fatal("timed out waiting for snapshot")
			}
		}
	}

	assert.Empty(t, next().Todos)

	_, err := c.Create(ctx, "Buy milk")
	require.NoError(t, err)
	snap := next()
	require.Len(t, snap.Todos, 1)
	assert.Equal(t, "Buy milk", snap.Todos[0].Text)
}

func TestSubscribe_CancelClosesEvents(t *testing.T) {
	c, _ := newClient(t, nil)

	sub := c.Subscribe(context.Background())
	sub.Cancel()

	for range sub.Events() {
	}
}

func TestSubscribe_ReportsReconnecting(t *testing.T) {
	c, srv := newClient(t, nil, client.WithReconnectDelay(10*time.Millisecond))
	srv.Close()

	sub := c.Subscribe(context.Background())
	defer sub.Cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-sub.Events():
			if ev.State == client.StateReconnecting {
				assert.Equal(t, client.OutcomeTransport, client.Classify(ev.Err))
				return
			}
		case <-deadline:
			t.Fatal("never reported reconnecting")
		}
	}
}

func stripTimes(t model.Todo) model.Todo {
	return model.Todo{ID: t.ID, Text: t.Text, Completed: t.Completed}
}
