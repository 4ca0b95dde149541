// Package compliance derives legal-form urgency and per-couple compliance
// status from stored dates. Everything here is pure: callers pass "today".
package compliance

import (
	"sort"
	"time"

	"github.com/vowline/vowline/internal/model"
)

// DefaultWindowDays is the look-ahead used for "expiring soon" and "due soon".
const DefaultWindowDays = 30

// Status is the overall compliance classification of a couple.
type Status string

const (
	StatusCompliant  Status = "compliant"
	StatusPending    Status = "pending"
	StatusOverdue    Status = "overdue"
	StatusIncomplete Status = "incomplete"
)

// Urgency is the per-form urgency label, most urgent first.
type Urgency string

const (
	UrgencyOverdue      Urgency = "overdue"
	UrgencyExpiringSoon Urgency = "expiring_soon"
	UrgencyDueSoon      Urgency = "due_soon"
	UrgencyOK           Urgency = "ok"
)

// Evaluator classifies forms against a fixed date and look-ahead window.
type Evaluator struct {
	today  time.Time
	window int
}

// NewEvaluator returns an Evaluator for the given calendar date.
// A non-positive window falls back to DefaultWindowDays.
func NewEvaluator(today time.Time, windowDays int) *Evaluator {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	return &Evaluator{today: model.DateOf(today), window: windowDays}
}

// Today returns the evaluation date.
func (e *Evaluator) Today() time.Time { return e.today }

// WindowEnd returns the last day inside the look-ahead window.
func (e *Evaluator) WindowEnd() time.Time { return e.today.AddDate(0, 0, e.window) }

// FormState is the derived, never-persisted view of one form.
type FormState struct {
	Form              *model.LegalForm
	IsOverdue         bool
	IsExpiringSoon    bool
	DaysUntilDeadline *int
	Urgency           Urgency
}

// IsOverdue reports whether an outstanding form's deadline is before today.
func (e *Evaluator) IsOverdue(f *model.LegalForm) bool {
	if !f.Status.IsOutstanding() || f.DeadlineDate == nil {
		return false
	}
	return model.DateOf(*f.DeadlineDate).Before(e.today)
}

// IsExpiringSoon reports whether the form expires within the window,
// counting today and the window's last day.
func (e *Evaluator) IsExpiringSoon(f *model.LegalForm) bool {
	if f.ExpiryDate == nil || f.Status == model.FormExpired {
		return false
	}
	expiry := model.DateOf(*f.ExpiryDate)
	return !expiry.Before(e.today) && !expiry.After(e.WindowEnd())
}

func (e *Evaluator) isDueSoon(f *model.LegalForm) bool {
	if !f.Status.IsOutstanding() || f.DeadlineDate == nil {
		return false
	}
	deadline := model.DateOf(*f.DeadlineDate)
	return !deadline.Before(e.today) && !deadline.After(e.WindowEnd())
}

// Form derives the state of a single form.
func (e *Evaluator) Form(f *model.LegalForm) FormState {
	state := FormState{
		Form:           f,
		IsOverdue:      e.IsOverdue(f),
		IsExpiringSoon: e.IsExpiringSoon(f),
		Urgency:        UrgencyOK,
	}

	if f.DeadlineDate != nil {
		days := model.DaysBetween(e.today, *f.DeadlineDate)
		state.DaysUntilDeadline = &days
	}

	switch {
	case state.IsOverdue:
		state.Urgency = UrgencyOverdue
	case state.IsExpiringSoon:
		state.Urgency = UrgencyExpiringSoon
	case e.isDueSoon(f):
		state.Urgency = UrgencyDueSoon
	}

	return state
}

// Forms derives the state of every form, preserving order.
func (e *Evaluator) Forms(forms []*model.LegalForm) []FormState {
	states := make([]FormState, len(forms))
	for i, f := range forms {
		states[i] = e.Form(f)
	}
	return states
}

// Summary is the compliance picture of one couple.
type Summary struct {
	CoupleID         string
	Status           Status
	TotalForms       int
	CountsByStatus   map[model.FormStatus]int
	MissingFormTypes []model.FormType
	OverdueFormIDs   []string
	ExpiringFormIDs  []string
	NextDeadline     *time.Time
	NextDeadlineForm string
	Forms            []FormState
}

// Evaluate classifies a couple's forms.
//
// Precedence: overdue, then incomplete (mandatory form absent), then pending
// (anything still required, submitted or rejected), otherwise compliant.
func (e *Evaluator) Evaluate(coupleID string, forms []*model.LegalForm) *Summary {
	summary := &Summary{
		CoupleID:        coupleID,
		TotalForms:      len(forms),
		CountsByStatus:  make(map[model.FormStatus]int),
		OverdueFormIDs:  []string{},
		ExpiringFormIDs: []string{},
		Forms:           e.Forms(forms),
	}

	hasMandatory := false
	outstanding := false
	for _, state := range summary.Forms {
		f := state.Form
		summary.CountsByStatus[f.Status]++

		if f.FormType == model.MandatoryFormType {
			hasMandatory = true
		}
		if f.Status.IsOutstanding() || f.Status == model.FormRejected {
			outstanding = true
		}
		if state.IsOverdue {
			summary.OverdueFormIDs = append(summary.OverdueFormIDs, f.ID)
		}
		if state.IsExpiringSoon {
			summary.ExpiringFormIDs = append(summary.ExpiringFormIDs, f.ID)
		}

		if f.Status.IsOutstanding() && f.DeadlineDate != nil && !state.IsOverdue {
			deadline := model.DateOf(*f.DeadlineDate)
			if summary.NextDeadline == nil || deadline.Before(*summary.NextDeadline) {
				summary.NextDeadline = &deadline
				summary.NextDeadlineForm = f.ID
			}
		}
	}

	if !hasMandatory {
		summary.MissingFormTypes = []model.FormType{model.MandatoryFormType}
	}

	switch {
	case len(summary.OverdueFormIDs) > 0:
		summary.Status = StatusOverdue
	case !hasMandatory:
		summary.Status = StatusIncomplete
	case outstanding:
		summary.Status = StatusPending
	default:
		summary.Status = StatusCompliant
	}

	return summary
}

// Alerts returns the states of forms that are overdue or expiring soon,
// most urgent first, then by nearest date.
func (e *Evaluator) Alerts(forms []*model.LegalForm) []FormState {
	var alerts []FormState
	for _, f := range forms {
		state := e.Form(f)
		if state.IsOverdue || state.IsExpiringSoon {
			alerts = append(alerts, state)
		}
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		if alerts[i].IsOverdue != alerts[j].IsOverdue {
			return alerts[i].IsOverdue
		}
		return alertDate(alerts[i]).Before(alertDate(alerts[j]))
	})

	return alerts
}

func alertDate(s FormState) time.Time {
	if s.IsOverdue && s.Form.DeadlineDate != nil {
		return model.DateOf(*s.Form.DeadlineDate)
	}
	if s.Form.ExpiryDate != nil {
		return model.DateOf(*s.Form.ExpiryDate)
	}
	return time.Time{}
}

// DefaultNOIMDeadline returns the lodgement deadline for a NOIM given the
// wedding date: the notice period before the ceremony.
func DefaultNOIMDeadline(weddingDate time.Time) time.Time {
	return model.DateOf(weddingDate).AddDate(0, 0, -model.NOIMNoticeDays)
}
