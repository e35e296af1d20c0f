package sync

import (
	"context"
	"fmt"
	"log/slog"
	gosync "sync"
	"time"

	"github.com/nhle/todolist/internal/model"
	"github.com/nhle/todolist/internal/store"
)

// refreshTimeout bounds the re-read of the table after a mutation.
const refreshTimeout = 5 * time.Second

// LiveStore wraps a store.Store and publishes a fresh snapshot to its hub
// after every successful mutation.
type LiveStore struct {
	store  store.Store
	hub    *Hub
	logger *slog.Logger

	// mu orders "mutate, re-read, publish" so versions follow mutations.
	mu gosync.Mutex
}

var _ store.Store = (*LiveStore)(nil)

// NewLiveStore creates a LiveStore publishing to hub.
func NewLiveStore(s store.Store, hub *Hub, logger *slog.Logger) *LiveStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &LiveStore{store: s, hub: hub, logger: logger}
}

// Subscribe registers a subscriber whose first delivery is the current table.
func (l *LiveStore) Subscribe(ctx context.Context) (*Subscription, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.hub.Last(); !ok {
		todos, err := l.store.ListTodos(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading initial snapshot: %w", err)
		}
		l.hub.Publish(todos)
	}
	return l.hub.Subscribe(), nil
}

// Snapshot reads the whole table, stamped with the hub's current version.
func (l *LiveStore) Snapshot(ctx context.Context) (model.Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	todos, err := l.store.ListTodos(ctx)
	if err != nil {
		return model.Snapshot{}, err
	}
	return model.Snapshot{Version: l.hub.Version(), Todos: todos}, nil
}

// ListTodos reads through to the wrapped store.
func (l *LiveStore) ListTodos(ctx context.Context) ([]model.Todo, error) {
	return l.store.ListTodos(ctx)
}

// GetTodoByID reads through to the wrapped store.
func (l *LiveStore) GetTodoByID(ctx context.Context, id string) (*model.Todo, error) {
	return l.store.GetTodoByID(ctx, id)
}

// CreateTodo inserts a todo and publishes.
func (l *LiveStore) CreateTodo(ctx context.Context, text string) (*model.Todo, error) {
	return l.mutate(ctx, "create", func() (*model.Todo, error) {
		return l.store.CreateTodo(ctx, text)
	})
}

// UpdateTodo overwrites a todo and publishes.
func (l *LiveStore) UpdateTodo(ctx context.Context, id, text string, completed bool) (*model.Todo, error) {
	return l.mutate(ctx, "update", func() (*model.Todo, error) {
		return l.store.UpdateTodo(ctx, id, text, completed)
	})
}

// SetTodoCompleted patches the completed flag and publishes.
func (l *LiveStore) SetTodoCompleted(ctx context.Context, id string, completed bool) (*model.Todo, error) {
	return l.mutate(ctx, "set_completed", func() (*model.Todo, error) {
		return l.store.SetTodoCompleted(ctx, id, completed)
	})
}

// SetTodoText patches the text and publishes.
func (l *LiveStore) SetTodoText(ctx context.Context, id, text string) (*model.Todo, error) {
	return l.mutate(ctx, "set_text", func() (*model.Todo, error) {
		return l.store.SetTodoText(ctx, id, text)
	})
}

// DeleteTodo removes a todo and publishes.
func (l *LiveStore) DeleteTodo(ctx context.Context, id string) error {
	_, err := l.mutate(ctx, "delete", func() (*model.Todo, error) {
		return nil, l.store.DeleteTodo(ctx, id)
	})
	return err
}

func (l *LiveStore) mutate(
	ctx context.Context,
	op string,
	fn func() (*model.Todo, error),
) (*model.Todo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	todo, err := fn()
	if err != nil {
		return nil, err
	}

	// The mutation has committed; a failed re-read must not turn it into
	// an error for the caller. Subscribers catch up on the next publish.
	refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
	defer cancel()
	todos, err := l.store.ListTodos(refreshCtx)
	if err != nil {
		l.logger.Error("refreshing snapshot", "op", op, "err", err)
		return todo, nil
	}
	snap := l.hub.Publish(todos)
	l.logger.Debug("published snapshot", "op", op, "version", snap.Version, "todos", len(todos))
	return todo, nil
}
