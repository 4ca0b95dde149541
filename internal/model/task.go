package model

import "time"

// TaskPriority ranks a task.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// IsValid checks if the priority is known.
func (p TaskPriority) IsValid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Task is a to-do item, optionally tied to a couple.
type Task struct {
	ID          string
	UserID      string
	CoupleID    *string
	Title       string
	Description string
	DueDate     *time.Time
	Priority    TaskPriority
	Completed   bool
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsOverdue reports whether an open task is past its due date.
func (t *Task) IsOverdue(today time.Time) bool {
	return !t.Completed && t.DueDate != nil && DateOf(*t.DueDate).Before(DateOf(today))
}
