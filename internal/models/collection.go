package models

import "time"

// Collection is a user-owned named grouping of tasks.
type Collection struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Task is a unit of work belonging to one collection.
type Task struct {
	ID           int64     `json:"id"`
	CollectionID int64     `json:"collection_id"`
	Name         string    `json:"name"`
	Done         bool      `json:"is_done"`
	CreatedAt    time.Time `json:"created_at"`
}

// CollectionDetail is a collection joined with its owner's username.
type CollectionDetail struct {
	Collection
	OwnerUsername string `json:"username"`
}

// CollectionSummary is a collection with its tasks attached, as shown on
// the list page.
type CollectionSummary struct {
	Collection
	Tasks          []Task `json:"tasks"`
	CompletedTasks int    `json:"completed_tasks"`
}

// TaskOwner resolves a task to the collection and user that own it.
type TaskOwner struct {
	TaskID       int64
	CollectionID int64
	UserID       int64
}

// CountCompleted returns the number of tasks with the done flag set.
func CountCompleted(tasks []Task) int {
	n := 0
	for _, t := range tasks {
		if t.Done {
			n++
		}
	}
	return n
}
