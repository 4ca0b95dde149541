package model

import "time"

// CeremonyStatus is the lifecycle state of a ceremony.
type CeremonyStatus string

const (
	CeremonyPlanned   CeremonyStatus = "planned"
	CeremonyConfirmed CeremonyStatus = "confirmed"
	CeremonyCompleted CeremonyStatus = "completed"
	CeremonyCancelled CeremonyStatus = "cancelled"
)

// IsValid checks if the ceremony status is known.
func (s CeremonyStatus) IsValid() bool {
	switch s {
	case CeremonyPlanned, CeremonyConfirmed, CeremonyCompleted, CeremonyCancelled:
		return true
	}
	return false
}

// Ceremony is a scheduled ceremony for a couple.
type Ceremony struct {
	ID           string
	UserID       string
	CoupleID     string
	CeremonyDate time.Time
	VenueName    string
	VenueAddress string
	CeremonyType string
	Status       CeremonyStatus
	FeeCents     int64
	Notes        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsUpcoming reports whether the ceremony is still ahead and not cancelled.
func (c *Ceremony) IsUpcoming(now time.Time) bool {
	return c.Status != CeremonyCancelled && c.Status != CeremonyCompleted && !c.CeremonyDate.Before(now)
}
