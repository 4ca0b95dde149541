package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/vowline/vowline/internal/compliance"
	"github.com/vowline/vowline/internal/metrics"
	"github.com/vowline/vowline/internal/model"
	"github.com/vowline/vowline/internal/repository"
)

const (
	maxTags       = 20
	maxTagLength  = 50
	maxNotesBytes = 10000
)

// CoupleService handles the couple pipeline.
type CoupleService struct {
	store   CoupleStore
	clock   Clock
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewCoupleService creates a new CoupleService.
func NewCoupleService(store CoupleStore, clock Clock, recorder metrics.Recorder, logger *slog.Logger) *CoupleService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CoupleService{store: store, clock: clock, metrics: recorder, logger: logger}
}

// CreateCoupleInput defines input for creating a couple.
type CreateCoupleInput struct {
	UserID             string
	Partner1Name       string
	Partner1Email      string
	Partner1Phone      string
	Partner2Name       string
	Partner2Email      string
	Partner2Phone      string
	Status             model.CoupleStatus
	LeadSource         string
	Tags               []string
	WeddingDate        *time.Time
	Notes              string
	CreateDefaultForms bool
}

// CreateCouple creates a couple, optionally with its mandatory NOIM form.
func (s *CoupleService) CreateCouple(ctx context.Context, input CreateCoupleInput) (*model.Couple, error) {
	status := input.Status
	if status == "" {
		status = model.CoupleInquiry
	}
	if !status.IsValid() {
		return nil, validationErrorf("unknown couple status %q", status)
	}

	now := s.clock.Now()
	couple := &model.Couple{
		ID:            generateULID(),
		UserID:        input.UserID,
		Partner1Phone: strings.TrimSpace(input.Partner1Phone),
		Partner2Phone: strings.TrimSpace(input.Partner2Phone),
		Status:        status,
		LeadSource:    strings.TrimSpace(input.LeadSource),
		WeddingDate:   datePtr(input.WeddingDate),
		Notes:         input.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	var err error
	if couple.Partner1Name, err = requireText("partner1_name", input.Partner1Name, maxNameLength); err != nil {
		return nil, err
	}
	if couple.Partner2Name, err = requireText("partner2_name", input.Partner2Name, maxNameLength); err != nil {
		return nil, err
	}
	if couple.Partner1Email, err = optionalEmail("partner1_email", input.Partner1Email); err != nil {
		return nil, err
	}
	if couple.Partner2Email, err = optionalEmail("partner2_email", input.Partner2Email); err != nil {
		return nil, err
	}
	if couple.Tags, err = normalizeTags(input.Tags); err != nil {
		return nil, err
	}
	if len(couple.Notes) > maxNotesBytes {
		return nil, validationErrorf("notes must be at most %d bytes", maxNotesBytes)
	}

	var forms []*model.LegalForm
	if input.CreateDefaultForms {
		forms = append(forms, defaultNOIM(couple, now))
	}

	if err := s.store.CreateCouple(ctx, couple, forms); err != nil {
		return nil, storeError("create couple", err)
	}

	s.metrics.IncEntityCreated("couple")
	if len(forms) > 0 {
		s.metrics.IncEntityCreated("legal_form")
	}

	return couple, nil
}

// GetCouple retrieves a couple owned by userID.
func (s *CoupleService) GetCouple(ctx context.Context, userID, id string) (*model.Couple, error) {
	couple, err := s.store.GetCouple(ctx, userID, id)
	if err != nil {
		return nil, storeError("get couple", err)
	}
	return couple, nil
}

// ListCouplesInput defines input for listing couples.
type ListCouplesInput struct {
	UserID     string
	Page       int
	PerPage    int
	Status     model.CoupleStatus
	Query      string
	Tag        string
	LeadSource string
}

// ListCouples returns one page of the user's couples.
func (s *CoupleService) ListCouples(ctx context.Context, input ListCouplesInput) (*model.Page[*model.Couple], error) {
	if input.Status != "" && !input.Status.IsValid() {
		return nil, validationErrorf("unknown couple status %q", input.Status)
	}

	page := model.NewPageRequest(input.Page, input.PerPage)
	couples, total, err := s.store.ListCouples(ctx, repository.CoupleFilter{
		UserID:     input.UserID,
		Status:     input.Status,
		Query:      strings.TrimSpace(input.Query),
		Tag:        strings.TrimSpace(input.Tag),
		LeadSource: strings.TrimSpace(input.LeadSource),
	}, page)
	if err != nil {
		return nil, storeError("list couples", err)
	}

	return model.NewPage(couples, total, page), nil
}

// UpdateCoupleInput defines input for updating a couple. Nil fields are left
// unchanged.
type UpdateCoupleInput struct {
	UserID           string
	ID               string
	Partner1Name     *string
	Partner1Email    *string
	Partner1Phone    *string
	Partner2Name     *string
	Partner2Email    *string
	Partner2Phone    *string
	Status           *model.CoupleStatus
	LeadSource       *string
	Tags             []string // nil leaves tags unchanged
	WeddingDate      *time.Time
	ClearWeddingDate bool
	Notes            *string
}

// UpdateCouple applies a partial update. Status may only move forward along
// the pipeline or to cancelled.
func (s *CoupleService) UpdateCouple(ctx context.Context, input UpdateCoupleInput) (*model.Couple, error) {
	couple, err := s.store.GetCouple(ctx, input.UserID, input.ID)
	if err != nil {
		return nil, storeError("get couple", err)
	}

	if input.Partner1Name != nil {
		if couple.Partner1Name, err = requireText("partner1_name", *input.Partner1Name, maxNameLength); err != nil {
			return nil, err
		}
	}
	if input.Partner2Name != nil {
		if couple.Partner2Name, err = requireText("partner2_name", *input.Partner2Name, maxNameLength); err != nil {
			return nil, err
		}
	}
	if input.Partner1Email != nil {
		if couple.Partner1Email, err = optionalEmail("partner1_email", *input.Partner1Email); err != nil {
			return nil, err
		}
	}
	if input.Partner2Email != nil {
		if couple.Partner2Email, err = optionalEmail("partner2_email", *input.Partner2Email); err != nil {
			return nil, err
		}
	}
	if input.Partner1Phone != nil {
		couple.Partner1Phone = strings.TrimSpace(*input.Partner1Phone)
	}
	if input.Partner2Phone != nil {
		couple.Partner2Phone = strings.TrimSpace(*input.Partner2Phone)
	}
	if input.Status != nil {
		next := *input.Status
		if !next.IsValid() {
			return nil, validationErrorf("unknown couple status %q", next)
		}
		if !couple.Status.CanTransitionTo(next) {
			return nil, ErrInvalidStatusTransition
		}
		couple.Status = next
	}
	if input.LeadSource != nil {
		couple.LeadSource = strings.TrimSpace(*input.LeadSource)
	}
	if input.Tags != nil {
		if couple.Tags, err = normalizeTags(input.Tags); err != nil {
			return nil, err
		}
	}
	switch {
	case input.ClearWeddingDate:
		couple.WeddingDate = nil
	case input.WeddingDate != nil:
		couple.WeddingDate = datePtr(input.WeddingDate)
	}
	if input.Notes != nil {
		if len(*input.Notes) > maxNotesBytes {
			return nil, validationErrorf("notes must be at most %d bytes", maxNotesBytes)
		}
		couple.Notes = *input.Notes
	}

	couple.UpdatedAt = s.clock.Now()
	if err := s.store.UpdateCouple(ctx, couple); err != nil {
		return nil, storeError("update couple", err)
	}

	s.metrics.IncEntityUpdated("couple")
	return couple, nil
}

// DeleteCouple deletes a couple and everything hanging off it.
func (s *CoupleService) DeleteCouple(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteCouple(ctx, userID, id); err != nil {
		return storeError("delete couple", err)
	}

	s.metrics.IncEntityDeleted("couple")
	s.logger.Info("couple_deleted", "user_id", userID, "couple_id", id)
	return nil
}

// defaultNOIM builds the mandatory NOIM form for a new couple.
func defaultNOIM(couple *model.Couple, now time.Time) *model.LegalForm {
	form := &model.LegalForm{
		ID:        generateULID(),
		UserID:    couple.UserID,
		CoupleID:  couple.ID,
		FormType:  model.MandatoryFormType,
		Status:    model.FormRequired,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if couple.WeddingDate != nil {
		deadline := compliance.DefaultNOIMDeadline(*couple.WeddingDate)
		form.DeadlineDate = &deadline
	}
	return form
}

// normalizeTags trims, drops empties and de-duplicates case-insensitively,
// keeping first-seen order.
func normalizeTags(tags []string) ([]string, error) {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if len(tag) > maxTagLength {
			return nil, validationErrorf("tags must be at most %d characters", maxTagLength)
		}
		key := strings.ToLower(tag)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tag)
	}
	if len(out) > maxTags {
		return nil, validationErrorf("at most %d tags allowed", maxTags)
	}
	return out, nil
}
