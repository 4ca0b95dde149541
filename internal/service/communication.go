package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/vowline/vowline/internal/metrics"
	"github.com/vowline/vowline/internal/model"
)

const maxSubjectLength = 300

// CommunicationService keeps the per-couple contact history.
type CommunicationService struct {
	store   CommunicationStore
	clock   Clock
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewCommunicationService creates a new CommunicationService.
func NewCommunicationService(store CommunicationStore, clock Clock, recorder metrics.Recorder, logger *slog.Logger) *CommunicationService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CommunicationService{store: store, clock: clock, metrics: recorder, logger: logger}
}

// CreateCommunicationInput defines input for logging a communication.
type CreateCommunicationInput struct {
	UserID     string
	CoupleID   string
	Channel    model.Channel
	Direction  model.Direction
	Subject    string
	Body       string
	OccurredAt *time.Time
}

// CreateCommunication logs a contact with a couple. OccurredAt defaults to now.
func (s *CommunicationService) CreateCommunication(ctx context.Context, input CreateCommunicationInput) (*model.CommunicationLog, error) {
	if !input.Channel.IsValid() {
		return nil, validationErrorf("unknown channel %q", input.Channel)
	}
	if !input.Direction.IsValid() {
		return nil, validationErrorf("unknown direction %q", input.Direction)
	}
	subject := strings.TrimSpace(input.Subject)
	if len(subject) > maxSubjectLength {
		return nil, validationErrorf("subject must be at most %d characters", maxSubjectLength)
	}

	if _, err := s.store.GetCouple(ctx, input.UserID, input.CoupleID); err != nil {
		return nil, storeError("get couple", err)
	}

	now := s.clock.Now()
	occurred := now
	if input.OccurredAt != nil && !input.OccurredAt.IsZero() {
		occurred = input.OccurredAt.UTC()
	}

	log := &model.CommunicationLog{
		ID:         generateULID(),
		UserID:     input.UserID,
		CoupleID:   input.CoupleID,
		Channel:    input.Channel,
		Direction:  input.Direction,
		Subject:    subject,
		Body:       input.Body,
		OccurredAt: occurred,
		CreatedAt:  now,
	}

	if err := s.store.CreateCommunication(ctx, log); err != nil {
		return nil, storeError("create communication", err)
	}

	s.metrics.IncEntityCreated("communication")
	return log, nil
}

// ListCoupleCommunications returns one page of a couple's history, newest first.
func (s *CommunicationService) ListCoupleCommunications(ctx context.Context, userID, coupleID string, pageNum, perPage int) (*model.Page[*model.CommunicationLog], error) {
	if _, err := s.store.GetCouple(ctx, userID, coupleID); err != nil {
		return nil, storeError("get couple", err)
	}

	page := model.NewPageRequest(pageNum, perPage)
	logs, total, err := s.store.ListCoupleCommunications(ctx, userID, coupleID, page)
	if err != nil {
		return nil, storeError("list communications", err)
	}

	return model.NewPage(logs, total, page), nil
}

// DeleteCommunication deletes a log entry.
func (s *CommunicationService) DeleteCommunication(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteCommunication(ctx, userID, id); err != nil {
		return storeError("delete communication", err)
	}

	s.metrics.IncEntityDeleted("communication")
	return nil
}
