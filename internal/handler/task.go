package handler

import (
	"log/slog"
	"net/http"

	"github.com/vowline/vowline/internal/handler/dto"
	"github.com/vowline/vowline/internal/model"
	"github.com/vowline/vowline/internal/service"
)

// TaskHandler handles HTTP requests for tasks.
type TaskHandler struct {
	errorResponder
	svc *service.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(svc *service.TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{errorResponder: errorResponder{logger: logger}, svc: svc}
}

func (h *TaskHandler) toResponse(t *model.Task) *dto.TaskResponse {
	return dto.ToTaskResponse(t, h.svc.Today())
}

// Create handles POST /api/v1/tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	task, err := h.svc.CreateTask(r.Context(), service.CreateTaskInput{
		UserID:      userID(r),
		CoupleID:    req.CoupleID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     dto.DatePtr(req.DueDate),
		Priority:    model.TaskPriority(req.Priority),
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, h.toResponse(task))
}

// Get handles GET /api/v1/tasks/{id}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	task, err := h.svc.GetTask(r.Context(), userID(r), urlID(r))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.toResponse(task))
}

// List handles GET /api/v1/tasks.
// Filters: couple_id, completed, priority, overdue.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, perPage := pageParams(r)

	completed, err := optionalBoolParam(r, "completed")
	if err != nil {
		badQuery(w, "completed")
		return
	}
	overdue, err := boolParam(r, "overdue")
	if err != nil {
		badQuery(w, "overdue")
		return
	}

	result, err := h.svc.ListTasks(r.Context(), service.ListTasksInput{
		UserID:    userID(r),
		Page:      page,
		PerPage:   perPage,
		CoupleID:  q.Get("couple_id"),
		Completed: completed,
		Priority:  model.TaskPriority(q.Get("priority")),
		Overdue:   overdue,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToPageResponse(result, h.toResponse))
}

// Update handles PATCH /api/v1/tasks/{id}.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input := service.UpdateTaskInput{
		UserID:        userID(r),
		ID:            urlID(r),
		CoupleID:      req.CoupleID.Ptr(),
		ClearCoupleID: req.CoupleID.Cleared(),
		Title:         req.Title,
		Description:   req.Description,
		DueDate:       dto.DatePtr(req.DueDate.Ptr()),
		ClearDueDate:  req.DueDate.Cleared(),
		Completed:     req.Completed,
	}
	if req.Priority != nil {
		priority := model.TaskPriority(*req.Priority)
		input.Priority = &priority
	}

	task, err := h.svc.UpdateTask(r.Context(), input)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.toResponse(task))
}

// Delete handles DELETE /api/v1/tasks/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteTask(r.Context(), userID(r), urlID(r)); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
