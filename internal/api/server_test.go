package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/todolist/internal/api"
	"github.com/nhle/todolist/internal/model"
	appsync "github.com/nhle/todolist/internal/sync"
	"github.com/nhle/todolist/tests/testutil"
)

func newTestServer(t *testing.T, opts ...api.Option) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := appsync.NewHub()
	live := appsync.NewLiveStore(testutil.NewTestStore(t), hub, logger)
	opts = append([]api.Option{api.WithLogger(logger)}, opts...)
	srv := httptest.NewServer(api.NewServer(live, opts...).Router())
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return srv
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, r)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	return decodeBody[api.ErrorResponse](t, resp).Error.Code
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, api.WithAuthToken("secret"))

	resp := do(t, http.MethodGet, srv.URL+api.PathHealth, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCRUD_EndToEnd(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/todos", `{"text":"Buy milk"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[model.Todo](t, resp)
	assert.Equal(t, "Buy milk", created.Text)
	assert.False(t, created.Completed)

	resp = do(t, http.MethodGet, srv.URL+"/todos", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snap := decodeBody[model.Snapshot](t, resp)
	require.Len(t, snap.Todos, 1)
	assert.Equal(t, created.ID, snap.Todos[0].ID)

	resp = do(t, http.MethodPut, srv.URL+"/todos/"+created.ID, `{"text":"Buy milk","completed":true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decodeBody[model.Todo](t, resp).Completed)

	resp = do(t, http.MethodPatch, srv.URL+"/todos/"+created.ID+"/text", `{"text":"Buy oat milk"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeBody[model.Todo](t, resp)
	assert.Equal(t, "Buy oat milk", updated.Text)
	assert.True(t, updated.Completed)

	resp = do(t, http.MethodPatch, srv.URL+"/todos/"+created.ID+"/completed", `{"completed":false}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated = decodeBody[model.Todo](t, resp)
	assert.Equal(t, "Buy oat milk", updated.Text)
	assert.False(t, updated.Completed)

	resp = do(t, http.MethodDelete, srv.URL+"/todos/"+created.ID, "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, http.MethodDelete, srv.URL+"/todos/"+created.ID, "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, api.CodeNotFound, errorCode(t, resp))

	resp = do(t, http.MethodGet, srv.URL+"/todos", "")
	assert.Empty(t, decodeBody[model.Snapshot](t, resp).Todos)
}

func TestCreate_EmptyTextIsAccepted(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/todos", `{"text":""}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestArgumentValidation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"create missing text", http.MethodPost, "/todos", `{}`},
		{"create wrong type", http.MethodPost, "/todos", `{"text":5}`},
		{"create unknown field", http.MethodPost, "/todos", `{"text":"a","owner":"x"}`},
		{"create not json", http.MethodPost, "/todos", `text=a`},
		{"create trailing data", http.MethodPost, "/todos", `{"text":"a"}{"text":"b"}`},
		{"update missing completed", http.MethodPut, "/todos/x", `{"text":"a"}`},
		{"update missing text", http.MethodPut, "/todos/x", `{"completed":true}`},
		{"set completed missing field", http.MethodPatch, "/todos/x/completed", `{}`},
		{"set text missing field", http.MethodPatch, "/todos/x/text", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, tt.method, srv.URL+tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, api.CodeInvalidArgument, errorCode(t, resp))
		})
	}
}

func TestMutations_NotFound(t *testing.T) {
	srv := newTestServer(t)

	for _, c := range []struct{ method, path, body string }{
		{http.MethodPut, "/todos/missing", `{"text":"a","completed":false}`},
		{http.MethodPatch, "/todos/missing/completed", `{"completed":true}`},
		{http.MethodPatch, "/todos/missing/text", `{"text":"a"}`},
		{http.MethodDelete, "/todos/missing", ""},
	} {
		resp := do(t, c.method, srv.URL+c.path, c.body)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, c.method+" "+c.path)
		assert.Equal(t, api.CodeNotFound, errorCode(t, resp))
	}
}

func TestAuthToken(t *testing.T) {
	srv := newTestServer(t, api.WithAuthToken("secret"))

	resp := do(t, http.MethodGet, srv.URL+"/todos", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, api.CodeUnauthorized, errorCode(t, resp))

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/todos", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer secret")
	ok, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer ok.Body.Close()
	assert.Equal(t, http.StatusOK, ok.StatusCode)
}

func TestSubscribe_PushesSnapshots(t *testing.T) {
	srv := newTestServer(t)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + api.PathSubscribe

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	readSnap := func() model.Snapshot {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var snap model.Snapshot
		require.NoError(t, conn.ReadJSON(&snap))
		return snap
	}

	initial := readSnap()
	assert.Empty(t, initial.Todos)

	body := bytes.NewBufferString(`{"text":"Buy milk"}`)
	resp, err := http.Post(srv.URL+"/todos", "application/json", body)
	require.NoError(t, err)
	resp.Body.Close()

	next := readSnap()
	require.Len(t, next.Todos, 1)
	assert.Equal(t, "Buy milk", next.Todos[0].Text)
	assert.Greater(t, next.Version, initial.Version)
}
