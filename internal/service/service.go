// Package service provides business logic for the application.
//
// Services own validation, ownership scoping and state transitions. They talk
// to storage through narrow interfaces satisfied by *repository.Repository
// and by the in-memory store in internal/testutil.
package service

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/vowline/vowline/internal/model"
)

// Service errors.
var (
	ErrValidation              = errors.New("validation failed")
	ErrInvalidStatusTransition = errors.New("invalid status transition")

	ErrCoupleNotFound        = errors.New("couple not found")
	ErrCeremonyNotFound      = errors.New("ceremony not found")
	ErrInvoiceNotFound       = errors.New("invoice not found")
	ErrLegalFormNotFound     = errors.New("legal form not found")
	ErrCommunicationNotFound = errors.New("communication log not found")
	ErrTaskNotFound          = errors.New("task not found")
	ErrEmailTemplateNotFound = errors.New("email template not found")
	ErrUserNotFound          = errors.New("user not found")

	ErrInvoiceNotEditable  = errors.New("invoice items can only change while draft")
	ErrInvoiceNumberExists = errors.New("invoice number already exists")
	ErrTemplateNameExists  = errors.New("email template name already exists")
	ErrTemplateRender      = errors.New("email template could not be rendered")
)

// validationErrorf returns an error wrapping ErrValidation with detail.
func validationErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Clock supplies the current instant and the business calendar date.
type Clock struct {
	now func() time.Time
	loc *time.Location
}

// NewClock returns a wall clock whose dates are taken in loc.
func NewClock(loc *time.Location) Clock {
	return Clock{now: time.Now, loc: loc}
}

// FixedClock returns a clock frozen at t. Used by tests.
func FixedClock(t time.Time, loc *time.Location) Clock {
	return Clock{now: func() time.Time { return t }, loc: loc}
}

// Now returns the current instant in UTC.
func (c Clock) Now() time.Time {
	if c.now == nil {
		return time.Now().UTC()
	}
	return c.now().UTC()
}

// Today returns the current date in the business timezone, as midnight UTC.
func (c Clock) Today() time.Time {
	return model.Today(c.Now(), c.Location())
}

// Location returns the business timezone.
func (c Clock) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}

// MonthBounds returns the first instant of the current month and of the next
// one, in the business timezone.
func (c Clock) MonthBounds() (time.Time, time.Time) {
	local := c.Now().In(c.Location())
	start := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, c.Location())
	return start, start.AddDate(0, 1, 0)
}

func generateULID() string {
	return ulid.Make().String()
}

// requireText trims s and fails validation when it is empty or too long.
func requireText(field, s string, maxLen int) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", validationErrorf("%s is required", field)
	}
	if len(s) > maxLen {
		return "", validationErrorf("%s must be at most %d characters", field, maxLen)
	}
	return s, nil
}

// optionalEmail trims s and validates it when non-empty.
func optionalEmail(field, s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return "", validationErrorf("%s is not a valid email address", field)
	}
	return strings.ToLower(s), nil
}

// datePtr normalises an optional date to midnight UTC.
func datePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := model.DateOf(*t)
	return &d
}

// stringPtrOrNil treats empty strings as absent.
func stringPtrOrNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
