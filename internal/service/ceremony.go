package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/vowline/vowline/internal/metrics"
	"github.com/vowline/vowline/internal/model"
	"github.com/vowline/vowline/internal/repository"
)

const defaultCeremonyType = "wedding"

// CeremonyService handles ceremony scheduling.
type CeremonyService struct {
	store   CeremonyStore
	clock   Clock
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewCeremonyService creates a new CeremonyService.
func NewCeremonyService(store CeremonyStore, clock Clock, recorder metrics.Recorder, logger *slog.Logger) *CeremonyService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CeremonyService{store: store, clock: clock, metrics: recorder, logger: logger}
}

// CreateCeremonyInput defines input for scheduling a ceremony.
type CreateCeremonyInput struct {
	UserID       string
	CoupleID     string
	CeremonyDate time.Time
	VenueName    string
	VenueAddress string
	CeremonyType string
	Status       model.CeremonyStatus
	FeeCents     int64
	Notes        string
}

// CreateCeremony schedules a ceremony for one of the user's couples.
func (s *CeremonyService) CreateCeremony(ctx context.Context, input CreateCeremonyInput) (*model.Ceremony, error) {
	if input.CeremonyDate.IsZero() {
		return nil, validationErrorf("ceremony_date is required")
	}
	if input.FeeCents < 0 {
		return nil, validationErrorf("fee must not be negative")
	}

	status := input.Status
	if status == "" {
		status = model.CeremonyPlanned
	}
	if !status.IsValid() {
		return nil, validationErrorf("unknown ceremony status %q", status)
	}

	ceremonyType := strings.TrimSpace(input.CeremonyType)
	if ceremonyType == "" {
		ceremonyType = defaultCeremonyType
	}

	if _, err := s.store.GetCouple(ctx, input.UserID, input.CoupleID); err != nil {
		return nil, storeError("get couple", err)
	}

	now := s.clock.Now()
	c := &model.Ceremony{
		ID:           generateULID(),
		UserID:       input.UserID,
		CoupleID:     input.CoupleID,
		CeremonyDate: input.CeremonyDate.UTC(),
		VenueName:    strings.TrimSpace(input.VenueName),
		VenueAddress: strings.TrimSpace(input.VenueAddress),
		CeremonyType: ceremonyType,
		Status:       status,
		FeeCents:     input.FeeCents,
		Notes:        input.Notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.CreateCeremony(ctx, c); err != nil {
		return nil, storeError("create ceremony", err)
	}

	s.metrics.IncEntityCreated("ceremony")
	return c, nil
}

// GetCeremony retrieves a ceremony owned by userID.
func (s *CeremonyService) GetCeremony(ctx context.Context, userID, id string) (*model.Ceremony, error) {
	c, err := s.store.GetCeremony(ctx, userID, id)
	if err != nil {
		return nil, storeError("get ceremony", err)
	}
	return c, nil
}

// ListCeremoniesInput defines input for listing ceremonies.
type ListCeremoniesInput struct {
	UserID   string
	Page     int
	PerPage  int
	CoupleID string
	Status   model.CeremonyStatus
	From     *time.Time
	To       *time.Time
	Upcoming bool // from now on, excluding cancelled
}

// ListCeremonies returns one page of the user's ceremonies, soonest first.
func (s *CeremonyService) ListCeremonies(ctx context.Context, input ListCeremoniesInput) (*model.Page[*model.Ceremony], error) {
	if input.Status != "" && !input.Status.IsValid() {
		return nil, validationErrorf("unknown ceremony status %q", input.Status)
	}

	filter := repository.CeremonyFilter{
		UserID:   input.UserID,
		CoupleID: input.CoupleID,
		Status:   input.Status,
		From:     input.From,
		To:       input.To,
	}
	if input.Upcoming {
		now := s.clock.Now()
		if filter.From == nil || filter.From.Before(now) {
			filter.From = &now
		}
		filter.ExcludeCancelled = true
	}

	page := model.NewPageRequest(input.Page, input.PerPage)
	ceremonies, total, err := s.store.ListCeremonies(ctx, filter, page)
	if err != nil {
		return nil, storeError("list ceremonies", err)
	}

	return model.NewPage(ceremonies, total, page), nil
}

// UpdateCeremonyInput defines input for updating a ceremony. Nil fields are
// left unchanged.
type UpdateCeremonyInput struct {
	UserID       string
	ID           string
	CeremonyDate *time.Time
	VenueName    *string
	VenueAddress *string
	CeremonyType *string
	Status       *model.CeremonyStatus
	FeeCents     *int64
	Notes        *string
}

// UpdateCeremony applies a partial update.
func (s *CeremonyService) UpdateCeremony(ctx context.Context, input UpdateCeremonyInput) (*model.Ceremony, error) {
	c, err := s.store.GetCeremony(ctx, input.UserID, input.ID)
	if err != nil {
		return nil, storeError("get ceremony", err)
	}

	if input.CeremonyDate != nil {
		if input.CeremonyDate.IsZero() {
			return nil, validationErrorf("ceremony_date is required")
		}
		c.CeremonyDate = input.CeremonyDate.UTC()
	}
	if input.VenueName != nil {
		c.VenueName = strings.TrimSpace(*input.VenueName)
	}
	if input.VenueAddress != nil {
		c.VenueAddress = strings.TrimSpace(*input.VenueAddress)
	}
	if input.CeremonyType != nil {
		c.CeremonyType = strings.TrimSpace(*input.CeremonyType)
		if c.CeremonyType == "" {
			c.CeremonyType = defaultCeremonyType
		}
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, validationErrorf("unknown ceremony status %q", *input.Status)
		}
		c.Status = *input.Status
	}
	if input.FeeCents != nil {
		if *input.FeeCents < 0 {
			return nil, validationErrorf("fee must not be negative")
		}
		c.FeeCents = *input.FeeCents
	}
	if input.Notes != nil {
		c.Notes = *input.Notes
	}

	c.UpdatedAt = s.clock.Now()
	if err := s.store.UpdateCeremony(ctx, c); err != nil {
		return nil, storeError("update ceremony", err)
	}

	s.metrics.IncEntityUpdated("ceremony")
	return c, nil
}

// DeleteCeremony deletes a ceremony.
func (s *CeremonyService) DeleteCeremony(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteCeremony(ctx, userID, id); err != nil {
		return storeError("delete ceremony", err)
	}

	s.metrics.IncEntityDeleted("ceremony")
	return nil
}
