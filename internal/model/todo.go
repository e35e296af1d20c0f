package model

import "time"

// Todo is a single entry in the shared list.
type Todo struct {
	ID        string    `json:"id" db:"id"`
	Text      string    `json:"text" db:"text"`
	Completed bool      `json:"completed" db:"completed"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Snapshot is the full set of todos as seen at one point in time.
// Version increases with every snapshot a hub publishes; snapshots read
// directly from a store carry version 0.
type Snapshot struct {
	Version uint64 `json:"version"`
	Todos   []Todo `json:"todos"`
}

// Find returns the todo with the given ID, if the snapshot holds it.
func (s Snapshot) Find(id string) (Todo, bool) {
	for _, t := range s.Todos {
		if t.ID == id {
			return t, true
		}
	}
	return Todo{}, false
}

// Counts returns the total, completed and pending number of todos.
func (s Snapshot) Counts() (total, completed, pending int) {
	for _, t := range s.Todos {
		if t.Completed {
			completed++
		}
	}
	total = len(s.Todos)
	return total, completed, total - completed
}
