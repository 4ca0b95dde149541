package dto

import (
	"time"

	"github.com/vowline/vowline/internal/compliance"
)

// CreateLegalFormRequest is the body of POST /api/v1/legal-forms.
type CreateLegalFormRequest struct {
	CoupleID          string  `json:"couple_id"`
	CeremonyID        *string `json:"ceremony_id,omitempty"`
	FormType          string  `json:"form_type"`
	Status            string  `json:"status,omitempty"`
	DeadlineDate      *Date   `json:"deadline_date,omitempty"`
	SubmittedDate     *Date   `json:"submitted_date,omitempty"`
	ApprovedDate      *Date   `json:"approved_date,omitempty"`
	ExpiryDate        *Date   `json:"expiry_date,omitempty"`
	DocumentReference string  `json:"document_reference,omitempty"`
	Notes             string  `json:"notes,omitempty"`
}

// UpdateLegalFormRequest is the body of PATCH /api/v1/legal-forms/{id}.
// null clears ceremony_id, deadline_date and expiry_date.
type UpdateLegalFormRequest struct {
	CeremonyID        Nullable[string] `json:"ceremony_id"`
	Status            *string          `json:"status,omitempty"`
	DeadlineDate      Nullable[Date]   `json:"deadline_date"`
	SubmittedDate     *Date            `json:"submitted_date,omitempty"`
	ApprovedDate      *Date            `json:"approved_date,omitempty"`
	ExpiryDate        Nullable[Date]   `json:"expiry_date"`
	DocumentReference *string          `json:"document_reference,omitempty"`
	Notes             *string          `json:"notes,omitempty"`
}

// LegalFormResponse is a form plus its derived urgency flags.
type LegalFormResponse struct {
	ID                string    `json:"id"`
	CoupleID          string    `json:"couple_id"`
	CeremonyID        *string   `json:"ceremony_id,omitempty"`
	FormType          string    `json:"form_type"`
	Status            string    `json:"status"`
	DeadlineDate      *Date     `json:"deadline_date,omitempty"`
	SubmittedDate     *Date     `json:"submitted_date,omitempty"`
	ApprovedDate      *Date     `json:"approved_date,omitempty"`
	ExpiryDate        *Date     `json:"expiry_date,omitempty"`
	DocumentReference string    `json:"document_reference,omitempty"`
	Notes             string    `json:"notes,omitempty"`
	IsOverdue         bool      `json:"is_overdue"`
	IsExpiringSoon    bool      `json:"is_expiring_soon"`
	DaysUntilDeadline *int      `json:"days_until_deadline"`
	Urgency           string    `json:"urgency"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ComplianceResponse is GET /api/v1/couples/{id}/compliance.
type ComplianceResponse struct {
	CoupleID         string               `json:"couple_id"`
	Status           string               `json:"status"`
	TotalForms       int                  `json:"total_forms"`
	CountsByStatus   map[string]int       `json:"counts_by_status"`
	MissingFormTypes []string             `json:"missing_form_types"`
	OverdueFormIDs   []string             `json:"overdue_form_ids"`
	ExpiringFormIDs  []string             `json:"expiring_form_ids"`
	NextDeadline     *Date                `json:"next_deadline,omitempty"`
	NextDeadlineForm string               `json:"next_deadline_form_id,omitempty"`
	Forms            []*LegalFormResponse `json:"forms"`
}

// ToLegalFormResponse converts a derived form state.
func ToLegalFormResponse(s compliance.FormState) *LegalFormResponse {
	f := s.Form
	return &LegalFormResponse{
		ID:                f.ID,
		CoupleID:          f.CoupleID,
		CeremonyID:        f.CeremonyID,
		FormType:          string(f.FormType),
		Status:            string(f.Status),
		DeadlineDate:      NewDate(f.DeadlineDate),
		SubmittedDate:     NewDate(f.SubmittedDate),
		ApprovedDate:      NewDate(f.ApprovedDate),
		ExpiryDate:        NewDate(f.ExpiryDate),
		DocumentReference: f.DocumentReference,
		Notes:             f.Notes,
		IsOverdue:         s.IsOverdue,
		IsExpiringSoon:    s.IsExpiringSoon,
		DaysUntilDeadline: s.DaysUntilDeadline,
		Urgency:           string(s.Urgency),
		CreatedAt:         f.CreatedAt,
		UpdatedAt:         f.UpdatedAt,
	}
}

// ToLegalFormResponses converts a slice of form states.
func ToLegalFormResponses(states []compliance.FormState) []*LegalFormResponse {
	out := make([]*LegalFormResponse, 0, len(states))
	for _, s := range states {
		out = append(out, ToLegalFormResponse(s))
	}
	return out
}

// ToComplianceResponse converts a couple's compliance summary.
func ToComplianceResponse(s *compliance.Summary) *ComplianceResponse {
	counts := make(map[string]int, len(s.CountsByStatus))
	for status, n := range s.CountsByStatus {
		counts[string(status)] = n
	}
	missing := make([]string, 0, len(s.MissingFormTypes))
	for _, ft := range s.MissingFormTypes {
		missing = append(missing, string(ft))
	}
	return &ComplianceResponse{
		CoupleID:         s.CoupleID,
		Status:           string(s.Status),
		TotalForms:       s.TotalForms,
		CountsByStatus:   counts,
		MissingFormTypes: missing,
		OverdueFormIDs:   nonNil(s.OverdueFormIDs),
		ExpiringFormIDs:  nonNil(s.ExpiringFormIDs),
		NextDeadline:     NewDate(s.NextDeadline),
		NextDeadlineForm: s.NextDeadlineForm,
		Forms:            ToLegalFormResponses(s.Forms),
	}
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
