package tasks

import "time"

// Task is a scored work item. Weight scales the score when the bonus
// amount for a performance record is derived.
type Task struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Weight      float64   `json:"weight"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
