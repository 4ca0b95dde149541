package dto

import (
	"time"

	"github.com/vowline/vowline/internal/model"
)

// CreateCeremonyRequest is the body of POST /api/v1/ceremonies.
type CreateCeremonyRequest struct {
	CoupleID     string     `json:"couple_id"`
	CeremonyDate *time.Time `json:"ceremony_date"`
	VenueName    string     `json:"venue_name,omitempty"`
	VenueAddress string     `json:"venue_address,omitempty"`
	CeremonyType string     `json:"ceremony_type,omitempty"`
	Status       string     `json:"status,omitempty"`
	Fee          Money      `json:"fee,omitempty"`
	Notes        string     `json:"notes,omitempty"`
}

// UpdateCeremonyRequest is the body of PATCH /api/v1/ceremonies/{id}.
type UpdateCeremonyRequest struct {
	CeremonyDate *time.Time `json:"ceremony_date,omitempty"`
	VenueName    *string    `json:"venue_name,omitempty"`
	VenueAddress *string    `json:"venue_address,omitempty"`
	CeremonyType *string    `json:"ceremony_type,omitempty"`
	Status       *string    `json:"status,omitempty"`
	Fee          *Money     `json:"fee,omitempty"`
	Notes        *string    `json:"notes,omitempty"`
}

// CeremonyResponse represents a ceremony in API responses.
type CeremonyResponse struct {
	ID           string    `json:"id"`
	CoupleID     string    `json:"couple_id"`
	CeremonyDate time.Time `json:"ceremony_date"`
	VenueName    string    `json:"venue_name,omitempty"`
	VenueAddress string    `json:"venue_address,omitempty"`
	CeremonyType string    `json:"ceremony_type"`
	Status       string    `json:"status"`
	Fee          Money     `json:"fee"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ToCeremonyResponse converts a Ceremony model to CeremonyResponse DTO.
func ToCeremonyResponse(c *model.Ceremony) *CeremonyResponse {
	return &CeremonyResponse{
		ID:           c.ID,
		CoupleID:     c.CoupleID,
		CeremonyDate: c.CeremonyDate,
		VenueName:    c.VenueName,
		VenueAddress: c.VenueAddress,
		CeremonyType: c.CeremonyType,
		Status:       string(c.Status),
		Fee:          Money(c.FeeCents),
		Notes:        c.Notes,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

// ToCeremonyResponses converts a slice of ceremonies.
func ToCeremonyResponses(cs []*model.Ceremony) []*CeremonyResponse {
	out := make([]*CeremonyResponse, 0, len(cs))
	for _, c := range cs {
		out = append(out, ToCeremonyResponse(c))
	}
	return out
}
