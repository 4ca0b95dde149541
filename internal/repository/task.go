package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vowline/vowline/internal/model"
)

// Common errors for task repository operations.
var ErrTaskNotFound = errors.New("task not found")

// TaskFilter defines filters for listing tasks.
type TaskFilter struct {
	UserID      string
	CoupleID    string
	Completed   *bool
	Priority    model.TaskPriority
	OverdueAsOf *time.Time // open tasks due before this date
}

const taskColumns = `id, user_id, couple_id, title, description, due_date, priority, completed,
	completed_at, created_at, updated_at`

// CreateTask inserts a new task.
func (r *Repository) CreateTask(ctx context.Context, task *model.Task) error {
	query := `
		INSERT INTO tasks (id, user_id, couple_id, title, description, due_date, priority,
			completed, completed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.pool.Exec(ctx, query,
		task.ID,
		task.UserID,
		task.CoupleID,
		task.Title,
		task.Description,
		task.DueDate,
		task.Priority,
		task.Completed,
		task.CompletedAt,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrCoupleNotFound
		}
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

// GetTask retrieves a task owned by userID.
func (r *Repository) GetTask(ctx context.Context, userID, id string) (*model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND user_id = $2`

	task, err := scanTask(r.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return task, nil
}

// ListTasks retrieves one page of tasks: open first, then by due date.
func (r *Repository) ListTasks(ctx context.Context, filter TaskFilter, page model.PageRequest) ([]*model.Task, int, error) {
	w := &whereClause{}
	w.and("user_id = " + w.arg(filter.UserID))

	if filter.CoupleID != "" {
		w.and("couple_id = " + w.arg(filter.CoupleID))
	}
	if filter.Completed != nil {
		w.and("completed = " + w.arg(*filter.Completed))
	}
	if filter.Priority != "" {
		w.and("priority = " + w.arg(filter.Priority))
	}
	if filter.OverdueAsOf != nil {
		w.and("completed = FALSE AND due_date < " + w.arg(*filter.OverdueAsOf))
	}

	tasks, total, err := countAndList(ctx, r.pool, "tasks", taskColumns, w,
		"completed ASC, due_date ASC NULLS LAST, created_at DESC", page.Limit(), page.Offset(), scanTask)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// UpdateTask writes a task's mutable fields.
func (r *Repository) UpdateTask(ctx context.Context, task *model.Task) error {
	query := `
		UPDATE tasks
		SET couple_id = $3, title = $4, description = $5, due_date = $6, priority = $7,
			completed = $8, completed_at = $9, updated_at = $10
		WHERE id = $1 AND user_id = $2
	`

	result, err := r.pool.Exec(ctx, query,
		task.ID,
		task.UserID,
		task.CoupleID,
		task.Title,
		task.Description,
		task.DueDate,
		task.Priority,
		task.Completed,
		task.CompletedAt,
		task.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrCoupleNotFound
		}
		return fmt.Errorf("failed to update task: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrTaskNotFound
	}

	return nil
}

// DeleteTask removes a task.
func (r *Repository) DeleteTask(ctx context.Context, userID, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrTaskNotFound
	}

	return nil
}

func scanTask(row pgx.Row) (*model.Task, error) {
	var task model.Task
	err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.CoupleID,
		&task.Title,
		&task.Description,
		&task.DueDate,
		&task.Priority,
		&task.Completed,
		&task.CompletedAt,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &task, nil
}
