package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/vowline/vowline/internal/metrics"
	"github.com/vowline/vowline/internal/model"
	"github.com/vowline/vowline/internal/repository"
)

// Upcoming ceremony look-ahead bounds, in days.
const (
	DefaultUpcomingDays = 30
	MaxUpcomingDays     = 365
)

// DashboardService computes the celebrant's overview.
type DashboardService struct {
	store      DashboardStore
	clock      Clock
	windowDays int
	metrics    metrics.Recorder
	logger     *slog.Logger
}

// NewDashboardService creates a new DashboardService. windowDays is the
// expiring-soon look-ahead for legal forms.
func NewDashboardService(store DashboardStore, clock Clock, windowDays int, recorder metrics.Recorder, logger *slog.Logger) *DashboardService {
	if windowDays <= 0 {
		windowDays = DefaultExpiryWindowDays
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{store: store, clock: clock, windowDays: windowDays, metrics: recorder, logger: logger}
}

// Metrics runs the dashboard aggregates for the user. Results are computed
// per request.
func (s *DashboardService) Metrics(ctx context.Context, userID string) (*model.DashboardMetrics, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveDashboardDuration(time.Since(start)) }()

	today := s.clock.Today()
	monthStart, monthEnd := s.clock.MonthBounds()
	win := repository.DashboardWindow{
		Now:        s.clock.Now(),
		Today:      today,
		MonthStart: monthStart,
		MonthEnd:   monthEnd,
		WindowEnd:  today.AddDate(0, 0, s.windowDays),
	}

	m, err := s.store.GetDashboardMetrics(ctx, userID, win)
	if err != nil {
		return nil, storeError("get dashboard metrics", err)
	}
	return m, nil
}

// Upcoming lists the user's non-cancelled ceremonies in the next days days.
// Out-of-range values fall back to DefaultUpcomingDays.
func (s *DashboardService) Upcoming(ctx context.Context, userID string, days int) ([]*model.Ceremony, error) {
	if days < 1 || days > MaxUpcomingDays {
		days = DefaultUpcomingDays
	}

	now := s.clock.Now()
	until := now.AddDate(0, 0, days)
	filter := repository.CeremonyFilter{
		UserID:           userID,
		From:             &now,
		To:               &until,
		ExcludeCancelled: true,
	}

	ceremonies, _, err := s.store.ListCeremonies(ctx, filter, model.PageRequest{Page: 1, PerPage: model.MaxPerPage})
	if err != nil {
		return nil, storeError("list upcoming ceremonies", err)
	}
	if ceremonies == nil {
		ceremonies = []*model.Ceremony{}
	}
	return ceremonies, nil
}
