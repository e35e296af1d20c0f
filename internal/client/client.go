// Package client is a typed Go client for the todo API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nhle/todolist/internal/api"
	"github.com/nhle/todolist/internal/model"
)

// Client calls the todo API at a fixed endpoint.
type Client struct {
	base           *url.URL
	token          string
	http           *http.Client
	dialer         *websocket.Dialer
	logger         *slog.Logger
	reconnectDelay time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithToken sends "Authorization: Bearer token" on every call.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger for subscription diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithReconnectDelay sets the pause before re-dialing a dropped subscription.
func WithReconnectDelay(d time.Duration) Option {
	return func(c *Client) { c.reconnectDelay = d }
}

// New creates a Client for the API rooted at endpoint (http or https).
func New(endpoint string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(endpoint, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing endpoint %q: %w", endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("endpoint %q: scheme must be http or https", endpoint)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("endpoint %q: missing host", endpoint)
	}

	c := &Client{
		base:           u,
		http:           &http.Client{},
		dialer:         websocket.DefaultDialer,
		logger:         slog.Default(),
		reconnectDelay: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoint returns the base URL the client talks to.
func (c *Client) Endpoint() string {
	return c.base.String()
}

// List returns every todo as one snapshot.
func (c *Client) List(ctx context.Context) (model.Snapshot, error) {
	var snap model.Snapshot
	err := c.call(ctx, "list", http.MethodGet, api.PathTodos, nil, &snap)
	return snap, err
}

// Create adds a todo with completed=false.
func (c *Client) Create(ctx context.Context, text string) (*model.Todo, error) {
	var todo model.Todo
	if err := c.call(ctx, "create", http.MethodPost, api.PathTodos,
		api.CreateRequest{Text: &text}, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// Update overwrites both text and completed.
func (c *Client) Update(ctx context.Context, id, text string, completed bool) (*model.Todo, error) {
	var todo model.Todo
	if err := c.call(ctx, "update", http.MethodPut, todoPath(id),
		api.UpdateRequest{Text: &text, Completed: &completed}, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// SetCompleted changes only the completed flag.
func (c *Client) SetCompleted(ctx context.Context, id string, completed bool) (*model.Todo, error) {
	var todo model.Todo
	if err := c.call(ctx, "set_completed", http.MethodPatch, todoPath(id)+"/completed",
		api.SetCompletedRequest{Completed: &completed}, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// SetText changes only the text.
func (c *Client) SetText(ctx context.Context, id, text string) (*model.Todo, error) {
	var todo model.Todo
	if err := c.call(ctx, "set_text", http.MethodPatch, todoPath(id)+"/text",
		api.SetTextRequest{Text: &text}, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// Delete removes a todo.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.call(ctx, "delete", http.MethodDelete, todoPath(id), nil, nil)
}

func todoPath(id string) string {
	return api.PathTodos + "/" + url.PathEscape(id)
}

func (c *Client) call(
	ctx context.Context,
	op, method, path string,
	in, out interface{},
) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encoding request: %w", op, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return fmt.Errorf("%s: building request: %w", op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req.Header)

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(op, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

func (c *Client) authorize(h http.Header) {
	if c.token != "" {
		h.Set("Authorization", "Bearer "+c.token)
	}
}

func decodeError(op string, resp *http.Response) error {
	var envelope api.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil || envelope.Error.Code == "" {
		// Not our server speaking (proxy page, crash); treat as transport.
		return &TransportError{Op: op, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	return &RemoteError{
		Op:      op,
		Status:  resp.StatusCode,
		Code:    envelope.Error.Code,
		Message: envelope.Error.Message,
	}
}
