package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vowline/vowline/internal/compliance"
	"github.com/vowline/vowline/internal/metrics"
	"github.com/vowline/vowline/internal/model"
	"github.com/vowline/vowline/internal/repository"
)

// DefaultExpiryWindowDays is the look-ahead used for expiring-soon checks
// when none is configured.
const DefaultExpiryWindowDays = 30

const maxDocumentReferenceLength = 200

// LegalFormService tracks compliance documents and derives their urgency.
type LegalFormService struct {
	store      LegalFormStore
	clock      Clock
	windowDays int
	metrics    metrics.Recorder
	logger     *slog.Logger
}

// NewLegalFormService creates a new LegalFormService. A windowDays of zero or
// less uses DefaultExpiryWindowDays.
func NewLegalFormService(store LegalFormStore, clock Clock, windowDays int, recorder metrics.Recorder, logger *slog.Logger) *LegalFormService {
	if windowDays <= 0 {
		windowDays = DefaultExpiryWindowDays
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LegalFormService{store: store, clock: clock, windowDays: windowDays, metrics: recorder, logger: logger}
}

func (s *LegalFormService) evaluator() *compliance.Evaluator {
	return compliance.NewEvaluator(s.clock.Today(), s.windowDays)
}

// CreateLegalFormInput defines input for tracking a legal form.
type CreateLegalFormInput struct {
	UserID            string
	CoupleID          string
	CeremonyID        *string
	FormType          model.FormType
	Status            model.FormStatus
	DeadlineDate      *time.Time
	SubmittedDate     *time.Time
	ApprovedDate      *time.Time
	ExpiryDate        *time.Time
	DocumentReference string
	Notes             string
}

// CreateLegalForm records a legal form for a couple. A NOIM without an
// explicit deadline gets one derived from the couple's wedding date.
func (s *LegalFormService) CreateLegalForm(ctx context.Context, input CreateLegalFormInput) (*compliance.FormState, error) {
	if !input.FormType.IsValid() {
		return nil, validationErrorf("unknown form type %q", input.FormType)
	}
	status := input.Status
	if status == "" {
		status = model.FormRequired
	}
	if !status.IsValid() {
		return nil, validationErrorf("unknown form status %q", status)
	}
	reference := strings.TrimSpace(input.DocumentReference)
	if len(reference) > maxDocumentReferenceLength {
		return nil, validationErrorf("document_reference must be at most %d characters", maxDocumentReferenceLength)
	}

	couple, err := s.store.GetCouple(ctx, input.UserID, input.CoupleID)
	if err != nil {
		return nil, storeError("get couple", err)
	}
	ceremonyID := stringPtrOrNil(input.CeremonyID)
	if err := s.checkCeremony(ctx, input.UserID, input.CoupleID, ceremonyID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	form := &model.LegalForm{
		ID:                generateULID(),
		UserID:            input.UserID,
		CoupleID:          input.CoupleID,
		CeremonyID:        ceremonyID,
		FormType:          input.FormType,
		Status:            status,
		DeadlineDate:      datePtr(input.DeadlineDate),
		SubmittedDate:     datePtr(input.SubmittedDate),
		ApprovedDate:      datePtr(input.ApprovedDate),
		ExpiryDate:        datePtr(input.ExpiryDate),
		DocumentReference: reference,
		Notes:             input.Notes,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if form.DeadlineDate == nil && form.FormType == model.FormNOIM && couple.WeddingDate != nil {
		deadline := compliance.DefaultNOIMDeadline(*couple.WeddingDate)
		form.DeadlineDate = &deadline
	}
	s.stampStatusDates(form)

	if err := s.store.CreateLegalForm(ctx, form); err != nil {
		return nil, storeError("create legal form", err)
	}

	s.metrics.IncEntityCreated("legal_form")
	state := s.evaluator().Form(form)
	return &state, nil
}

// GetLegalForm retrieves a form with its derived urgency.
func (s *LegalFormService) GetLegalForm(ctx context.Context, userID, id string) (*compliance.FormState, error) {
	form, err := s.store.GetLegalForm(ctx, userID, id)
	if err != nil {
		return nil, storeError("get legal form", err)
	}

	state := s.evaluator().Form(form)
	return &state, nil
}

// ListLegalFormsInput defines input for listing legal forms.
type ListLegalFormsInput struct {
	UserID       string
	Page         int
	PerPage      int
	CoupleID     string
	Status       model.FormStatus
	FormType     model.FormType
	Overdue      bool
	ExpiringSoon bool
}

// ListLegalForms returns one page of forms. The overdue and expiring-soon
// filters use the same date rules as the derived flags.
func (s *LegalFormService) ListLegalForms(ctx context.Context, input ListLegalFormsInput) (*model.Page[compliance.FormState], error) {
	if input.Status != "" && !input.Status.IsValid() {
		return nil, validationErrorf("unknown form status %q", input.Status)
	}
	if input.FormType != "" && !input.FormType.IsValid() {
		return nil, validationErrorf("unknown form type %q", input.FormType)
	}

	eval := s.evaluator()
	filter := repository.LegalFormFilter{
		UserID:   input.UserID,
		CoupleID: input.CoupleID,
		Status:   input.Status,
		FormType: input.FormType,
	}
	if input.Overdue {
		today := eval.Today()
		filter.OverdueAsOf = &today
	}
	if input.ExpiringSoon {
		from, until := eval.Today(), eval.WindowEnd()
		filter.ExpiringFrom = &from
		filter.ExpiringUntil = &until
	}

	page := model.NewPageRequest(input.Page, input.PerPage)
	forms, total, err := s.store.ListLegalForms(ctx, filter, page)
	if err != nil {
		return nil, storeError("list legal forms", err)
	}

	return model.NewPage(eval.Forms(forms), total, page), nil
}

// Alerts returns every overdue or expiring-soon form of the user, most urgent
// first.
func (s *LegalFormService) Alerts(ctx context.Context, userID string) ([]compliance.FormState, error) {
	eval := s.evaluator()
	forms, err := s.store.ListLegalFormAlerts(ctx, userID, eval.Today(), eval.WindowEnd())
	if err != nil {
		return nil, storeError("list legal form alerts", err)
	}

	alerts := eval.Alerts(forms)
	if alerts == nil {
		alerts = []compliance.FormState{}
	}
	return alerts, nil
}

// Compliance evaluates the overall compliance status of one couple.
func (s *LegalFormService) Compliance(ctx context.Context, userID, coupleID string) (*compliance.Summary, error) {
	if _, err := s.store.GetCouple(ctx, userID, coupleID); err != nil {
		return nil, storeError("get couple", err)
	}

	forms, err := s.store.ListCoupleLegalForms(ctx, userID, coupleID)
	if err != nil {
		return nil, storeError("list couple legal forms", err)
	}

	return s.evaluator().Evaluate(coupleID, forms), nil
}

// UpdateLegalFormInput defines input for updating a form. Nil fields are
// left unchanged; the Clear flags null out optional dates.
type UpdateLegalFormInput struct {
	UserID            string
	ID                string
	CeremonyID        *string
	Status            *model.FormStatus
	DeadlineDate      *time.Time
	SubmittedDate     *time.Time
	ApprovedDate      *time.Time
	ExpiryDate        *time.Time
	DocumentReference *string
	Notes             *string
	ClearCeremonyID   bool
	ClearDeadline     bool
	ClearExpiry       bool
}

// UpdateLegalForm applies a partial update. Status changes follow the form
// lifecycle; moving to submitted or approved stamps today's date unless one
// is supplied.
func (s *LegalFormService) UpdateLegalForm(ctx context.Context, input UpdateLegalFormInput) (*compliance.FormState, error) {
	form, err := s.store.GetLegalForm(ctx, input.UserID, input.ID)
	if err != nil {
		return nil, storeError("get legal form", err)
	}

	if input.ClearCeremonyID {
		form.CeremonyID = nil
	} else if input.CeremonyID != nil {
		ceremonyID := stringPtrOrNil(input.CeremonyID)
		if err := s.checkCeremony(ctx, form.UserID, form.CoupleID, ceremonyID); err != nil {
			return nil, err
		}
		form.CeremonyID = ceremonyID
	}
	if input.Status != nil {
		next := *input.Status
		if !next.IsValid() {
			return nil, validationErrorf("unknown form status %q", next)
		}
		if !form.Status.CanTransitionTo(next) {
			return nil, fmt.Errorf("%w: form cannot move from %s to %s", ErrInvalidStatusTransition, form.Status, next)
		}
		form.Status = next
	}
	if input.ClearDeadline {
		form.DeadlineDate = nil
	} else if input.DeadlineDate != nil {
		form.DeadlineDate = datePtr(input.DeadlineDate)
	}
	if input.SubmittedDate != nil {
		form.SubmittedDate = datePtr(input.SubmittedDate)
	}
	if input.ApprovedDate != nil {
		form.ApprovedDate = datePtr(input.ApprovedDate)
	}
	if input.ClearExpiry {
		form.ExpiryDate = nil
	} else if input.ExpiryDate != nil {
		form.ExpiryDate = datePtr(input.ExpiryDate)
	}
	if input.DocumentReference != nil {
		reference := strings.TrimSpace(*input.DocumentReference)
		if len(reference) > maxDocumentReferenceLength {
			return nil, validationErrorf("document_reference must be at most %d characters", maxDocumentReferenceLength)
		}
		form.DocumentReference = reference
	}
	if input.Notes != nil {
		form.Notes = *input.Notes
	}
	s.stampStatusDates(form)

	form.UpdatedAt = s.clock.Now()
	if err := s.store.UpdateLegalForm(ctx, form); err != nil {
		return nil, storeError("update legal form", err)
	}

	s.metrics.IncEntityUpdated("legal_form")
	state := s.evaluator().Form(form)
	return &state, nil
}

// DeleteLegalForm deletes a form.
func (s *LegalFormService) DeleteLegalForm(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteLegalForm(ctx, userID, id); err != nil {
		return storeError("delete legal form", err)
	}

	s.metrics.IncEntityDeleted("legal_form")
	return nil
}

// stampStatusDates fills submitted/approved dates implied by the status.
func (s *LegalFormService) stampStatusDates(form *model.LegalForm) {
	today := s.clock.Today()
	switch form.Status {
	case model.FormSubmitted:
		if form.SubmittedDate == nil {
			form.SubmittedDate = &today
		}
	case model.FormApproved:
		if form.SubmittedDate == nil {
			form.SubmittedDate = &today
		}
		if form.ApprovedDate == nil {
			form.ApprovedDate = &today
		}
	}
}

func (s *LegalFormService) checkCeremony(ctx context.Context, userID, coupleID string, ceremonyID *string) error {
	if ceremonyID == nil {
		return nil
	}
	c, err := s.store.GetCeremony(ctx, userID, *ceremonyID)
	if err != nil {
		return storeError("get ceremony", err)
	}
	if c.CoupleID != coupleID {
		return validationErrorf("ceremony does not belong to this couple")
	}
	return nil
}
