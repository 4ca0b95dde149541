package dto

import (
	"time"

	"github.com/vowline/vowline/internal/model"
)

// CreateCoupleRequest is the body of POST /api/v1/couples.
type CreateCoupleRequest struct {
	Partner1Name       string   `json:"partner1_name"`
	Partner1Email      string   `json:"partner1_email,omitempty"`
	Partner1Phone      string   `json:"partner1_phone,omitempty"`
	Partner2Name       string   `json:"partner2_name"`
	Partner2Email      string   `json:"partner2_email,omitempty"`
	Partner2Phone      string   `json:"partner2_phone,omitempty"`
	Status             string   `json:"status,omitempty"`
	LeadSource         string   `json:"lead_source,omitempty"`
	Tags               []string `json:"tags,omitempty"`
	WeddingDate        *Date    `json:"wedding_date,omitempty"`
	Notes              string   `json:"notes,omitempty"`
	CreateDefaultForms bool     `json:"create_default_forms,omitempty"`
}

// UpdateCoupleRequest is the body of PATCH /api/v1/couples/{id}.
// wedding_date: null clears the date.
type UpdateCoupleRequest struct {
	Partner1Name  *string        `json:"partner1_name,omitempty"`
	Partner1Email *string        `json:"partner1_email,omitempty"`
	Partner1Phone *string        `json:"partner1_phone,omitempty"`
	Partner2Name  *string        `json:"partner2_name,omitempty"`
	Partner2Email *string        `json:"partner2_email,omitempty"`
	Partner2Phone *string        `json:"partner2_phone,omitempty"`
	Status        *string        `json:"status,omitempty"`
	LeadSource    *string        `json:"lead_source,omitempty"`
	Tags          []string       `json:"tags,omitempty"`
	WeddingDate   Nullable[Date] `json:"wedding_date"`
	Notes         *string        `json:"notes,omitempty"`
}

// CoupleResponse represents a couple in API responses.
type CoupleResponse struct {
	ID            string    `json:"id"`
	Partner1Name  string    `json:"partner1_name"`
	Partner1Email string    `json:"partner1_email,omitempty"`
	Partner1Phone string    `json:"partner1_phone,omitempty"`
	Partner2Name  string    `json:"partner2_name"`
	Partner2Email string    `json:"partner2_email,omitempty"`
	Partner2Phone string    `json:"partner2_phone,omitempty"`
	DisplayName   string    `json:"display_name"`
	Status        string    `json:"status"`
	LeadSource    string    `json:"lead_source,omitempty"`
	Tags          []string  `json:"tags"`
	WeddingDate   *Date     `json:"wedding_date,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ToCoupleResponse converts a Couple model to CoupleResponse DTO.
func ToCoupleResponse(c *model.Couple) *CoupleResponse {
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}
	return &CoupleResponse{
		ID:            c.ID,
		Partner1Name:  c.Partner1Name,
		Partner1Email: c.Partner1Email,
		Partner1Phone: c.Partner1Phone,
		Partner2Name:  c.Partner2Name,
		Partner2Email: c.Partner2Email,
		Partner2Phone: c.Partner2Phone,
		DisplayName:   c.DisplayName(),
		Status:        string(c.Status),
		LeadSource:    c.LeadSource,
		Tags:          tags,
		WeddingDate:   NewDate(c.WeddingDate),
		Notes:         c.Notes,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}
