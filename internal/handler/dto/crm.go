package dto

import (
	"time"

	"github.com/vowline/vowline/internal/model"
)

// CreateCommunicationRequest is the body of POST /api/v1/couples/{id}/communications.
type CreateCommunicationRequest struct {
	Channel    string     `json:"channel"`
	Direction  string     `json:"direction"`
	Subject    string     `json:"subject,omitempty"`
	Body       string     `json:"body,omitempty"`
	OccurredAt *time.Time `json:"occurred_at,omitempty"`
}

// CommunicationResponse represents a communication log entry.
type CommunicationResponse struct {
	ID         string    `json:"id"`
	CoupleID   string    `json:"couple_id"`
	Channel    string    `json:"channel"`
	Direction  string    `json:"direction"`
	Subject    string    `json:"subject,omitempty"`
	Body       string    `json:"body,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// ToCommunicationResponse converts a CommunicationLog model.
func ToCommunicationResponse(l *model.CommunicationLog) *CommunicationResponse {
	return &CommunicationResponse{
		ID:         l.ID,
		CoupleID:   l.CoupleID,
		Channel:    string(l.Channel),
		Direction:  string(l.Direction),
		Subject:    l.Subject,
		Body:       l.Body,
		OccurredAt: l.OccurredAt,
		CreatedAt:  l.CreatedAt,
	}
}

// CreateTaskRequest is the body of POST /api/v1/tasks.
type CreateTaskRequest struct {
	CoupleID    *string `json:"couple_id,omitempty"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	DueDate     *Date   `json:"due_date,omitempty"`
	Priority    string  `json:"priority,omitempty"`
}

// UpdateTaskRequest is the body of PATCH /api/v1/tasks/{id}.
// null clears couple_id and due_date.
type UpdateTaskRequest struct {
	CoupleID    Nullable[string] `json:"couple_id"`
	Title       *string          `json:"title,omitempty"`
	Description *string          `json:"description,omitempty"`
	DueDate     Nullable[Date]   `json:"due_date"`
	Priority    *string          `json:"priority,omitempty"`
	Completed   *bool            `json:"completed,omitempty"`
}

// TaskResponse represents a task in API responses.
type TaskResponse struct {
	ID          string     `json:"id"`
	CoupleID    *string    `json:"couple_id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	DueDate     *Date      `json:"due_date,omitempty"`
	Priority    string     `json:"priority"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	IsOverdue   bool       `json:"is_overdue"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ToTaskResponse converts a Task model. today decides is_overdue.
func ToTaskResponse(t *model.Task, today time.Time) *TaskResponse {
	return &TaskResponse{
		ID:          t.ID,
		CoupleID:    t.CoupleID,
		Title:       t.Title,
		Description: t.Description,
		DueDate:     NewDate(t.DueDate),
		Priority:    string(t.Priority),
		Completed:   t.Completed,
		CompletedAt: t.CompletedAt,
		IsOverdue:   t.IsOverdue(today),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// CreateEmailTemplateRequest is the body of POST /api/v1/email-templates.
type CreateEmailTemplateRequest struct {
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
}

// UpdateEmailTemplateRequest is the body of PATCH /api/v1/email-templates/{id}.
type UpdateEmailTemplateRequest struct {
	Name     *string `json:"name,omitempty"`
	Category *string `json:"category,omitempty"`
	Subject  *string `json:"subject,omitempty"`
	Body     *string `json:"body,omitempty"`
}

// RenderEmailTemplateRequest is the body of POST /api/v1/email-templates/{id}/render.
type RenderEmailTemplateRequest struct {
	CoupleID string `json:"couple_id"`
	Log      bool   `json:"log,omitempty"`
}

// EmailTemplateResponse represents an email template.
type EmailTemplateResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category,omitempty"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RenderedEmailResponse is a template rendered against a couple.
type RenderedEmailResponse struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

// ToEmailTemplateResponse converts an EmailTemplate model.
func ToEmailTemplateResponse(t *model.EmailTemplate) *EmailTemplateResponse {
	return &EmailTemplateResponse{
		ID:        t.ID,
		Name:      t.Name,
		Category:  t.Category,
		Subject:   t.Subject,
		Body:      t.Body,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

// ToRenderedEmailResponse converts a rendered email.
func ToRenderedEmailResponse(r *model.RenderedEmail) *RenderedEmailResponse {
	to := r.To
	if to == nil {
		to = []string{}
	}
	return &RenderedEmailResponse{To: to, Subject: r.Subject, Body: r.Body}
}
