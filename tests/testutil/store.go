package testutil

import (
	"context"
	"testing"

	"github.com/nhle/todolist/internal/model"
	"github.com/nhle/todolist/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t testing.TB) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// SeedTodos creates one todo per text and returns them in creation order.
func SeedTodos(t testing.TB, s store.Store, texts ...string) []model.Todo {
	t.Helper()

	todos := make([]model.Todo, 0, len(texts))
	for _, text := range texts {
		todo, err := s.CreateTodo(context.Background(), text)
		if err != nil {
			t.Fatalf("seeding todo %q: %v", text, err)
		}
		todos = append(todos, *todo)
	}
	return todos
}
