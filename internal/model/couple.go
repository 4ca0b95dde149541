package model

import (
	"slices"
	"time"
)

// CoupleStatus is the stage of a couple in the lead pipeline.
type CoupleStatus string

const (
	CoupleInquiry      CoupleStatus = "inquiry"
	CoupleConsultation CoupleStatus = "consultation"
	CoupleBooked       CoupleStatus = "booked"
	CoupleCompleted    CoupleStatus = "completed"
	CoupleCancelled    CoupleStatus = "cancelled"
)

// pipelineOrder lists the forward pipeline; cancelled sits outside it.
var pipelineOrder = []CoupleStatus{CoupleInquiry, CoupleConsultation, CoupleBooked, CoupleCompleted}

// ActiveCoupleStatuses are the pipeline stages that still need work.
var ActiveCoupleStatuses = []CoupleStatus{CoupleInquiry, CoupleConsultation, CoupleBooked}

// IsValid checks if the status is a known pipeline status.
func (s CoupleStatus) IsValid() bool {
	return s == CoupleCancelled || slices.Contains(pipelineOrder, s)
}

// IsActive reports whether the couple is still in progress.
func (s CoupleStatus) IsActive() bool {
	return slices.Contains(ActiveCoupleStatuses, s)
}

// CanTransitionTo reports whether moving from s to next is allowed.
// Couples may stay put, move forward along the pipeline, or be cancelled
// from any non-terminal stage.
func (s CoupleStatus) CanTransitionTo(next CoupleStatus) bool {
	if s == next {
		return true
	}
	if !next.IsValid() {
		return false
	}
	if s == CoupleCompleted || s == CoupleCancelled {
		return false
	}
	if next == CoupleCancelled {
		return true
	}
	return slices.Index(pipelineOrder, next) > slices.Index(pipelineOrder, s)
}

// Couple is a pair of partners managed by a celebrant.
type Couple struct {
	ID            string
	UserID        string
	Partner1Name  string
	Partner1Email string
	Partner1Phone string
	Partner2Name  string
	Partner2Email string
	Partner2Phone string
	Status        CoupleStatus
	LeadSource    string
	Tags          []string
	WeddingDate   *time.Time
	Notes         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// DisplayName joins the partner names, e.g. "Alex & Sam".
func (c *Couple) DisplayName() string {
	return c.Partner1Name + " & " + c.Partner2Name
}
