package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nhle/todolist/internal/model"
)

const todoColumns = "id, text, completed, created_at, updated_at"

// ListTodos returns every todo in insertion order.
func (s *SQLiteStore) ListTodos(ctx context.Context) ([]model.Todo, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT "+todoColumns+" FROM todos ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("querying todos: %w", err)
	}
	defer rows.Close()

	todos := []model.Todo{}
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, todo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating todos: %w", err)
	}
	return todos, nil
}

// GetTodoByID retrieves a single todo by ID.
func (s *SQLiteStore) GetTodoByID(ctx context.Context, id string) (*model.Todo, error) {
	return getTodo(ctx, s.db, id)
}

// CreateTodo inserts a new, not yet completed todo with a fresh UUID.
func (s *SQLiteStore) CreateTodo(ctx context.Context, text string) (*model.Todo, error) {
	now := time.Now().UTC()
	todo := model.Todo{
		ID:        uuid.New().String(),
		Text:      text,
		Completed: false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO todos (id, text, completed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		todo.ID, todo.Text, boolToInt(todo.Completed), todo.CreatedAt, todo.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating todo: %w", err)
	}
	return &todo, nil
}

// UpdateTodo overwrites text and completed of an existing todo.
func (s *SQLiteStore) UpdateTodo(
	ctx context.Context,
	id, text string,
	completed bool,
) (*model.Todo, error) {
	return s.patch(ctx, id,
		"UPDATE todos SET text = ?, completed = ?, updated_at = ? WHERE id = ?",
		text, boolToInt(completed), time.Now().UTC(), id,
	)
}

// SetTodoCompleted changes only the completed flag.
func (s *SQLiteStore) SetTodoCompleted(
	ctx context.Context,
	id string,
	completed bool,
) (*model.Todo, error) {
	return s.patch(ctx, id,
		"UPDATE todos SET completed = ?, updated_at = ? WHERE id = ?",
		boolToInt(completed), time.Now().UTC(), id,
	)
}

// SetTodoText changes only the text.
func (s *SQLiteStore) SetTodoText(ctx context.Context, id, text string) (*model.Todo, error) {
	return s.patch(ctx, id,
		"UPDATE todos SET text = ?, updated_at = ? WHERE id = ?",
		text, time.Now().UTC(), id,
	)
}

// DeleteTodo removes a todo by ID.
func (s *SQLiteStore) DeleteTodo(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM todos WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting todo %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("deleting todo %s: %w", id, ErrNotFound)
	}
	return nil
}

// patch runs a single-row UPDATE and reads the row back in the same
// transaction, so callers see exactly what they wrote.
func (s *SQLiteStore) patch(
	ctx context.Context,
	id string,
	query string,
	args ...interface{},
) (*model.Todo, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("updating todo %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, fmt.Errorf("updating todo %s: %w", id, ErrNotFound)
	}

	todo, err := getTodo(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing todo %s: %w", id, err)
	}
	return todo, nil
}

func getTodo(ctx context.Context, q sqlx.QueryerContext, id string) (*model.Todo, error) {
	row := q.QueryRowxContext(ctx, "SELECT "+todoColumns+" FROM todos WHERE id = ?", id)
	todo, err := scanTodo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("getting todo %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting todo %s: %w", id, err)
	}
	return &todo, nil
}

// scanTodo scans a todo row from sqlx.Rows or sqlx.Row.
func scanTodo(rows interface{ Scan(dest ...interface{}) error }) (model.Todo, error) {
	var (
		todo         model.Todo
		completedInt int
	)

	err := rows.Scan(
		&todo.ID, &todo.Text, &completedInt,
		&todo.CreatedAt, &todo.UpdatedAt,
	)
	if err != nil {
		return model.Todo{}, fmt.Errorf("scanning todo row: %w", err)
	}

	todo.Completed = completedInt != 0
	return todo, nil
}
