package compliance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vowline/vowline/internal/model"
)

var today = time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

func day(offset int) *time.Time {
	d := today.AddDate(0, 0, offset)
	return &d
}

func form(id string, typ model.FormType, status model.FormStatus) *model.LegalForm {
	return &model.LegalForm{ID: id, CoupleID: "c1", FormType: typ, Status: status}
}

func TestIsOverdue_IffDeadlineBeforeToday(t *testing.T) {
	t.Parallel()
	e := NewEvaluator(today, 30)

	tests := []struct {
		name     string
		deadline *time.Time
		status   model.FormStatus
		want     bool
	}{
		{"yesterday required", day(-1), model.FormRequired, true},
		{"yesterday submitted", day(-1), model.FormSubmitted, true},
		{"today", day(0), model.FormRequired, false},
		{"tomorrow", day(1), model.FormRequired, false},
		{"no deadline", nil, model.FormRequired, false},
		{"approved past deadline", day(-5), model.FormApproved, false},
		{"rejected past deadline", day(-5), model.FormRejected, false},
		{"expired past deadline", day(-5), model.FormExpired, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := form("f", model.FormNOIM, tt.status)
			f.DeadlineDate = tt.deadline
			assert.Equal(t, tt.want, e.IsOverdue(f))
		})
	}
}

func TestIsOverdue_IgnoresTimeOfDay(t *testing.T) {
	t.Parallel()

	lateToday := time.Date(2026, 10, 19, 23, 59, 0, 0, time.UTC)
	e := NewEvaluator(lateToday, 30)

	f := form("f", model.FormNOIM, model.FormRequired)
	deadline := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	f.DeadlineDate = &deadline

	assert.False(t, e.IsOverdue(f), "deadline today is not overdue at any time of day")
}

func TestIsExpiringSoon_Window(t *testing.T) {
	t.Parallel()
	e := NewEvaluator(today, 30)

	tests := []struct {
		name   string
		expiry *time.Time
		status model.FormStatus
		want   bool
	}{
		{"expires today", day(0), model.FormApproved, true},
		{"expires at window end", day(30), model.FormApproved, true},
		{"expires after window", day(31), model.FormApproved, false},
		{"already expired date", day(-1), model.FormApproved, false},
		{"status expired", day(10), model.FormExpired, false},
		{"no expiry", nil, model.FormApproved, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := form("f", model.FormIdentityEvidence, tt.status)
			f.ExpiryDate = tt.expiry
			assert.Equal(t, tt.want, e.IsExpiringSoon(f))
		})
	}
}

func TestForm_UrgencyAndDays(t *testing.T) {
	t.Parallel()
	e := NewEvaluator(today, 30)

	overdue := form("a", model.FormNOIM, model.FormRequired)
	overdue.DeadlineDate = day(-3)
	state := e.Form(overdue)
	assert.Equal(t, UrgencyOverdue, state.Urgency)
	require.NotNil(t, state.DaysUntilDeadline)
	assert.Equal(t, -3, *state.DaysUntilDeadline)

	dueSoon := form("b", model.FormNOIM, model.FormSubmitted)
	dueSoon.DeadlineDate = day(7)
	assert.Equal(t, UrgencyDueSoon, e.Form(dueSoon).Urgency)

	expiring := form("c", model.FormIdentityEvidence, model.FormApproved)
	expiring.ExpiryDate = day(5)
	assert.Equal(t, UrgencyExpiringSoon, e.Form(expiring).Urgency)

	fine := form("d", model.FormNOIM, model.FormApproved)
	fine.DeadlineDate = day(-10)
	state = e.Form(fine)
	assert.Equal(t, UrgencyOK, state.Urgency)
	assert.False(t, state.IsOverdue)
}

func TestEvaluate_Statuses(t *testing.T) {
	t.Parallel()
	e := NewEvaluator(today, 30)

	t.Run("no forms is incomplete", func(t *testing.T) {
		s := e.Evaluate("c1", nil)
		assert.Equal(t, StatusIncomplete, s.Status)
		assert.Equal(t, []model.FormType{model.FormNOIM}, s.MissingFormTypes)
	})

	t.Run("missing noim is incomplete", func(t *testing.T) {
		s := e.Evaluate("c1", []*model.LegalForm{
			form("a", model.FormIdentityEvidence, model.FormApproved),
		})
		assert.Equal(t, StatusIncomplete, s.Status)
	})

	t.Run("overdue beats incomplete", func(t *testing.T) {
		f := form("a", model.FormIdentityEvidence, model.FormRequired)
		f.DeadlineDate = day(-1)
		s := e.Evaluate("c1", []*model.LegalForm{f})
		assert.Equal(t, StatusOverdue, s.Status)
		assert.Equal(t, []string{"a"}, s.OverdueFormIDs)
	})

	t.Run("outstanding noim is pending", func(t *testing.T) {
		f := form("a", model.FormNOIM, model.FormSubmitted)
		f.DeadlineDate = day(10)
		s := e.Evaluate("c1", []*model.LegalForm{f})
		assert.Equal(t, StatusPending, s.Status)
		require.NotNil(t, s.NextDeadline)
		assert.True(t, s.NextDeadline.Equal(*day(10)))
		assert.Equal(t, "a", s.NextDeadlineForm)
	})

	t.Run("rejected form keeps couple pending", func(t *testing.T) {
		s := e.Evaluate("c1", []*model.LegalForm{
			form("a", model.FormNOIM, model.FormApproved),
			form("b", model.FormDeclaration, model.FormRejected),
		})
		assert.Equal(t, StatusPending, s.Status)
	})

	t.Run("all approved is compliant", func(t *testing.T) {
		s := e.Evaluate("c1", []*model.LegalForm{
			form("a", model.FormNOIM, model.FormApproved),
			form("b", model.FormDeclaration, model.FormApproved),
		})
		assert.Equal(t, StatusCompliant, s.Status)
		assert.Equal(t, 2, s.CountsByStatus[model.FormApproved])
		assert.Empty(t, s.MissingFormTypes)
	})
}

func TestAlerts_OverdueFirstThenByDate(t *testing.T) {
	t.Parallel()
	e := NewEvaluator(today, 30)

	expLate := form("exp-late", model.FormIdentityEvidence, model.FormApproved)
	expLate.ExpiryDate = day(20)
	expEarly := form("exp-early", model.FormIdentityEvidence, model.FormApproved)
	expEarly.ExpiryDate = day(2)
	overdue := form("overdue", model.FormNOIM, model.FormRequired)
	overdue.DeadlineDate = day(-4)
	quiet := form("quiet", model.FormNOIM, model.FormApproved)

	alerts := e.Alerts([]*model.LegalForm{expLate, quiet, expEarly, overdue})

	ids := make([]string, len(alerts))
	for i, a := range alerts {
		ids[i] = a.Form.ID
	}
	assert.Equal(t, []string{"overdue", "exp-early", "exp-late"}, ids)
}

func TestNewEvaluator_DefaultWindow(t *testing.T) {
	t.Parallel()

	e := NewEvaluator(today, 0)
	assert.True(t, e.WindowEnd().Equal(today.AddDate(0, 0, DefaultWindowDays)))
}

func TestDefaultNOIMDeadline(t *testing.T) {
	t.Parallel()

	wedding := time.Date(2027, 3, 20, 15, 30, 0, 0, time.UTC)
	got := DefaultNOIMDeadline(wedding)
	assert.True(t, got.Equal(time.Date(2027, 2, 18, 0, 0, 0, 0, time.UTC)), "got %v", got)
}
