package store

import (
	"context"
	"errors"

	"github.com/nhle/todolist/internal/model"
)

// ErrNotFound is returned when an operation references a todo that does
// not exist (never created, or already deleted).
var ErrNotFound = errors.New("todo not found")

// Store defines the persistence interface for the shared todo table.
// Every method touches at most one row and is atomic on its own.
type Store interface {
	// ListTodos returns every todo in insertion order.
	ListTodos(ctx context.Context) ([]model.Todo, error)
	GetTodoByID(ctx context.Context, id string) (*model.Todo, error)

	// CreateTodo inserts a todo with the given text and completed=false.
	CreateTodo(ctx context.Context, text string) (*model.Todo, error)

	// UpdateTodo overwrites both text and completed.
	UpdateTodo(ctx context.Context, id, text string, completed bool) (*model.Todo, error)
	SetTodoCompleted(ctx context.Context, id string, completed bool) (*model.Todo, error)
	SetTodoText(ctx context.Context, id, text string) (*model.Todo, error)

	DeleteTodo(ctx context.Context, id string) error
}
