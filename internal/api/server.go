// Package api serves the todo remote procedures over HTTP/JSON and pushes
// live snapshots over WebSocket.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/nhle/todolist/internal/model"
	"github.com/nhle/todolist/internal/store"
	appsync "github.com/nhle/todolist/internal/sync"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 64 << 10

// Backend is the record store as seen by the API: the plain store
// operations plus snapshot reads and live subscriptions.
type Backend interface {
	store.Store
	Snapshot(ctx context.Context) (model.Snapshot, error)
	Subscribe(ctx context.Context) (*appsync.Subscription, error)
}

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	todos    Backend
	logger   *slog.Logger
	token    string
	upgrader websocket.Upgrader
}

// Option configures a Server.
type Option func(*Server)

// WithAuthToken requires every request to carry "Authorization: Bearer token".
func WithAuthToken(token string) Option {
	return func(s *Server) { s.token = token }
}

// WithLogger sets the logger used for request and error logs.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// NewServer creates a Server over the given backend.
func NewServer(todos Backend, opts ...Option) *Server {
	s := &Server{
		todos:  todos,
		logger: slog.Default(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Shells are not browsers; there is no page origin to check.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router returns the route table wrapped in logging and auth middleware.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.Methods(http.MethodGet).Path(PathHealth).HandlerFunc(s.handleHealth)

	api := r.NewRoute().Subrouter()
	api.Use(s.requireToken)
	api.Methods(http.MethodGet).Path(PathSubscribe).HandlerFunc(s.handleSubscribe)
	api.Methods(http.MethodGet).Path(PathTodos).HandlerFunc(s.handleList)
	api.Methods(http.MethodPost).Path(PathTodos).HandlerFunc(s.handleCreate)
	api.Methods(http.MethodPut).Path(pathTodo).HandlerFunc(s.handleUpdate)
	api.Methods(http.MethodDelete).Path(pathTodo).HandlerFunc(s.handleDelete)
	api.Methods(http.MethodPatch).Path(pathTodoComplete).HandlerFunc(s.handleSetCompleted)
	api.Methods(http.MethodPatch).Path(pathTodoText).HandlerFunc(s.handleSetText)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, http.StatusNotFound, CodeNotFound, "no such route")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, http.StatusMethodNotAllowed, CodeInvalidArgument, "method not allowed")
	})
	return r
}
