package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nhle/todolist/internal/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := io.WriteString(w, "ok\n"); err != nil {
		s.logger.Warn("writing health response", "err", err)
	}
}

// handleList serves list(): every todo, as one snapshot.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	snap, err := s.todos.Snapshot(r.Context())
	if err != nil {
		s.writeStoreError(w, r, "list", err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, snap)
}

// handleCreate serves create(text).
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Text == nil {
		s.writeError(w, r, http.StatusBadRequest, CodeInvalidArgument, `field "text" is required`)
		return
	}

	todo, err := s.todos.CreateTodo(r.Context(), *req.Text)
	if err != nil {
		s.writeStoreError(w, r, "create", err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, todo)
}

// handleUpdate serves update(id, text, completed).
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Text == nil || req.Completed == nil {
		s.writeError(w, r, http.StatusBadRequest, CodeInvalidArgument,
			`fields "text" and "completed" are required`)
		return
	}

	todo, err := s.todos.UpdateTodo(r.Context(), mux.Vars(r)["id"], *req.Text, *req.Completed)
	if err != nil {
		s.writeStoreError(w, r, "update", err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, todo)
}

// handleSetCompleted serves setCompleted(id, completed).
func (s *Server) handleSetCompleted(w http.ResponseWriter, r *http.Request) {
	var req SetCompletedRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Completed == nil {
		s.writeError(w, r, http.StatusBadRequest, CodeInvalidArgument, `field "completed" is required`)
		return
	}

	todo, err := s.todos.SetTodoCompleted(r.Context(), mux.Vars(r)["id"], *req.Completed)
	if err != nil {
		s.writeStoreError(w, r, "set_completed", err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, todo)
}

// handleSetText serves setText(id, text).
func (s *Server) handleSetText(w http.ResponseWriter, r *http.Request) {
	var req SetTextRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Text == nil {
		s.writeError(w, r, http.StatusBadRequest, CodeInvalidArgument, `field "text" is required`)
		return
	}

	todo, err := s.todos.SetTodoText(r.Context(), mux.Vars(r)["id"], *req.Text)
	if err != nil {
		s.writeStoreError(w, r, "set_text", err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, todo)
}

// handleDelete serves delete(id).
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.todos.DeleteTodo(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.writeStoreError(w, r, "delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decode reads a JSON body into dst, rejecting unknown fields and trailing
// data. It writes the error response itself and reports whether to go on.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		s.writeError(w, r, http.StatusBadRequest, CodeInvalidArgument,
			fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	if dec.More() {
		s.writeError(w, r, http.StatusBadRequest, CodeInvalidArgument,
			"invalid request body: trailing data")
		return false
	}
	return true
}

func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, r, http.StatusNotFound, CodeNotFound, "todo not found")
		return
	}
	s.logger.Error("store call failed", "op", op, "err", err)
	s.writeError(w, r, http.StatusInternalServerError, CodeInternal, "internal error")
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	s.writeJSON(w, r, status, ErrorResponse{Error: ErrorBody{Code: code, Message: msg}})
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("writing response", "path", r.URL.Path, "err", err)
	}
}
