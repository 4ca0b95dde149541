package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/vowline/vowline/internal/metrics"
	"github.com/vowline/vowline/internal/model"
	"github.com/vowline/vowline/internal/repository"
)

const maxTaskTitleLength = 200

// TaskService manages the celebrant's to-do list.
type TaskService struct {
	store   TaskStore
	clock   Clock
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewTaskService creates a new TaskService.
func NewTaskService(store TaskStore, clock Clock, recorder metrics.Recorder, logger *slog.Logger) *TaskService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskService{store: store, clock: clock, metrics: recorder, logger: logger}
}

// Today returns the business date used for overdue checks.
func (s *TaskService) Today() time.Time {
	return s.clock.Today()
}

// CreateTaskInput defines input for creating a task.
type CreateTaskInput struct {
	UserID      string
	CoupleID    *string
	Title       string
	Description string
	DueDate     *time.Time
	Priority    model.TaskPriority
}

// CreateTask adds a task, optionally linked to one of the user's couples.
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*model.Task, error) {
	title, err := requireText("title", input.Title, maxTaskTitleLength)
	if err != nil {
		return nil, err
	}
	priority := input.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}
	if !priority.IsValid() {
		return nil, validationErrorf("unknown priority %q", priority)
	}

	coupleID := stringPtrOrNil(input.CoupleID)
	if coupleID != nil {
		if _, err := s.store.GetCouple(ctx, input.UserID, *coupleID); err != nil {
			return nil, storeError("get couple", err)
		}
	}

	now := s.clock.Now()
	task := &model.Task{
		ID:          generateULID(),
		UserID:      input.UserID,
		CoupleID:    coupleID,
		Title:       title,
		Description: input.Description,
		DueDate:     datePtr(input.DueDate),
		Priority:    priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.CreateTask(ctx, task); err != nil {
		return nil, storeError("create task", err)
	}

	s.metrics.IncEntityCreated("task")
	return task, nil
}

// GetTask retrieves a task.
func (s *TaskService) GetTask(ctx context.Context, userID, id string) (*model.Task, error) {
	task, err := s.store.GetTask(ctx, userID, id)
	if err != nil {
		return nil, storeError("get task", err)
	}
	return task, nil
}

// ListTasksInput defines input for listing tasks.
type ListTasksInput struct {
	UserID    string
	Page      int
	PerPage   int
	CoupleID  string
	Completed *bool
	Priority  model.TaskPriority
	Overdue   bool
}

// ListTasks returns one page of tasks, open and soonest-due first.
func (s *TaskService) ListTasks(ctx context.Context, input ListTasksInput) (*model.Page[*model.Task], error) {
	if input.Priority != "" && !input.Priority.IsValid() {
		return nil, validationErrorf("unknown priority %q", input.Priority)
	}

	filter := repository.TaskFilter{
		UserID:    input.UserID,
		CoupleID:  input.CoupleID,
		Completed: input.Completed,
		Priority:  input.Priority,
	}
	if input.Overdue {
		today := s.clock.Today()
		filter.OverdueAsOf = &today
	}

	page := model.NewPageRequest(input.Page, input.PerPage)
	tasks, total, err := s.store.ListTasks(ctx, filter, page)
	if err != nil {
		return nil, storeError("list tasks", err)
	}

	return model.NewPage(tasks, total, page), nil
}

// UpdateTaskInput defines input for updating a task. Nil fields are left
// unchanged.
type UpdateTaskInput struct {
	UserID        string
	ID            string
	CoupleID      *string
	Title         *string
	Description   *string
	DueDate       *time.Time
	Priority      *model.TaskPriority
	Completed     *bool
	ClearCoupleID bool
	ClearDueDate  bool
}

// UpdateTask applies a partial update. Completing a task stamps completed_at;
// reopening clears it.
func (s *TaskService) UpdateTask(ctx context.Context, input UpdateTaskInput) (*model.Task, error) {
	task, err := s.store.GetTask(ctx, input.UserID, input.ID)
	if err != nil {
		return nil, storeError("get task", err)
	}

	if input.ClearCoupleID {
		task.CoupleID = nil
	} else if input.CoupleID != nil {
		coupleID := stringPtrOrNil(input.CoupleID)
		if coupleID != nil {
			if _, err := s.store.GetCouple(ctx, input.UserID, *coupleID); err != nil {
				return nil, storeError("get couple", err)
			}
		}
		task.CoupleID = coupleID
	}
	if input.Title != nil {
		title, err := requireText("title", *input.Title, maxTaskTitleLength)
		if err != nil {
			return nil, err
		}
		task.Title = title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.ClearDueDate {
		task.DueDate = nil
	} else if input.DueDate != nil {
		task.DueDate = datePtr(input.DueDate)
	}
	if input.Priority != nil {
		if !input.Priority.IsValid() {
			return nil, validationErrorf("unknown priority %q", *input.Priority)
		}
		task.Priority = *input.Priority
	}

	now := s.clock.Now()
	if input.Completed != nil && *input.Completed != task.Completed {
		task.Completed = *input.Completed
		if task.Completed {
			task.CompletedAt = &now
		} else {
			task.CompletedAt = nil
		}
	}

	task.UpdatedAt = now
	if err := s.store.UpdateTask(ctx, task); err != nil {
		return nil, storeError("update task", err)
	}

	s.metrics.IncEntityUpdated("task")
	return task, nil
}

// DeleteTask deletes a task.
func (s *TaskService) DeleteTask(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteTask(ctx, userID, id); err != nil {
		return storeError("delete task", err)
	}

	s.metrics.IncEntityDeleted("task")
	return nil
}
