// Package memstore is an in-memory implementation of the service store
// interfaces for unit tests. It returns the same sentinel errors as
// internal/repository and applies the same owner scoping and filters.
package memstore

import (
	"cmp"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/vowline/vowline/internal/model"
	"github.com/vowline/vowline/internal/repository"
)

// Store holds every table in maps guarded by one mutex.
type Store struct {
	mu sync.Mutex

	users          map[string]*model.User
	refreshTokens  map[string]*model.RefreshToken // by hash
	loginAttempts  []*model.LoginAttempt
	couples        map[string]*model.Couple
	ceremonies     map[string]*model.Ceremony
	invoices       map[string]*model.Invoice
	legalForms     map[string]*model.LegalForm
	communications map[string]*model.CommunicationLog
	tasks          map[string]*model.Task
	templates      map[string]*model.EmailTemplate
	denied         map[string]time.Duration

	// Err, when set, is returned by every call.
	Err error
}

// New returns an empty store.
func New() *Store {
	return &Store{
		users:          make(map[string]*model.User),
		refreshTokens:  make(map[string]*model.RefreshToken),
		couples:        make(map[string]*model.Couple),
		ceremonies:     make(map[string]*model.Ceremony),
		invoices:       make(map[string]*model.Invoice),
		legalForms:     make(map[string]*model.LegalForm),
		communications: make(map[string]*model.CommunicationLog),
		tasks:          make(map[string]*model.Task),
		templates:      make(map[string]*model.EmailTemplate),
		denied:         make(map[string]time.Duration),
	}
}

func clone[T any](v *T) *T {
	c := *v
	return &c
}

func page[T any](items []T, p model.PageRequest) ([]T, int) {
	total := len(items)
	start := min(p.Offset(), total)
	end := min(start+p.Limit(), total)
	return items[start:end], total
}

func ownedValues[T any](m map[string]*T, owner func(*T) string, userID string) []*T {
	var out []*T
	for _, v := range m {
		if owner(v) == userID {
			out = append(out, clone(v))
		}
	}
	return out
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// ============================================================================
// Users and auth
// ============================================================================

// CreateUser implements service.UserStore.
func (s *Store) CreateUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repository.ErrEmailExists
		}
	}
	s.users[user.ID] = clone(user)
	return nil
}

// GetUserByID implements service.UserStore.
func (s *Store) GetUserByID(_ context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return clone(u), nil
}

// GetUserByEmail implements service.UserStore.
func (s *Store) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return clone(u), nil
		}
	}
	return nil, repository.ErrUserNotFound
}

// UpdateUserLastLogin implements service.UserStore.
func (s *Store) UpdateUserLastLogin(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	u, ok := s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.LastLoginAt = &at
	return nil
}

// SetUserActive flips a user's active flag.
func (s *Store) SetUserActive(id string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.IsActive = active
	}
}

// CreateRefreshToken implements service.AuthStore.
func (s *Store) CreateRefreshToken(_ context.Context, token *model.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.refreshTokens[token.TokenHash] = clone(token)
	return nil
}

// ConsumeRefreshToken implements service.AuthStore.
func (s *Store) ConsumeRefreshToken(_ context.Context, tokenHash string, now time.Time) (*model.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	t, ok := s.refreshTokens[tokenHash]
	if !ok || t.IsRevoked() || !now.Before(t.ExpiresAt) {
		return nil, repository.ErrRefreshTokenNotFound
	}
	t.RevokedAt = &now
	return clone(t), nil
}

// RevokeUserRefreshTokens implements service.AuthStore.
func (s *Store) RevokeUserRefreshTokens(_ context.Context, userID string, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	var n int64
	for _, t := range s.refreshTokens {
		if t.UserID == userID && !t.IsRevoked() {
			t.RevokedAt = &now
			n++
		}
	}
	return n, nil
}

// RecordLoginAttempt implements service.AuthStore.
func (s *Store) RecordLoginAttempt(_ context.Context, attempt *model.LoginAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.loginAttempts = append(s.loginAttempts, clone(attempt))
	return nil
}

// CountRecentFailedLogins implements service.AuthStore.
func (s *Store) CountRecentFailedLogins(_ context.Context, email string, since time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	for _, a := range s.loginAttempts {
		if a.Succeeded && strings.EqualFold(a.Email, email) && a.AttemptedAt.After(since) {
			since = a.AttemptedAt
		}
	}
	count := 0
	for _, a := range s.loginAttempts {
		if !a.Succeeded && strings.EqualFold(a.Email, email) && !a.AttemptedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

// LoginAttempts returns every recorded attempt.
func (s *Store) LoginAttempts() []*model.LoginAttempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.loginAttempts)
}

// DenyToken implements service.TokenDenylist.
func (s *Store) DenyToken(_ context.Context, tokenID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if ttl > 0 {
		s.denied[tokenID] = ttl
	}
	return nil
}

// IsTokenDenied reports whether a token ID was denylisted.
func (s *Store) IsTokenDenied(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	_, ok := s.denied[tokenID]
	return ok, nil
}

// ============================================================================
// Couples
// ============================================================================

// CreateCouple implements service.CoupleStore.
func (s *Store) CreateCouple(_ context.Context, couple *model.Couple, forms []*model.LegalForm) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.couples[couple.ID] = clone(couple)
	for _, f := range forms {
		s.legalForms[f.ID] = clone(f)
	}
	return nil
}

// GetCouple implements service.CoupleStore.
func (s *Store) GetCouple(_ context.Context, userID, id string) (*model.Couple, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	c, ok := s.couples[id]
	if !ok || c.UserID != userID {
		return nil, repository.ErrCoupleNotFound
	}
	return clone(c), nil
}

// ListCouples implements service.CoupleStore.
func (s *Store) ListCouples(_ context.Context, filter repository.CoupleFilter, p model.PageRequest) ([]*model.Couple, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, 0, s.Err
	}
	all := ownedValues(s.couples, func(c *model.Couple) string { return c.UserID }, filter.UserID)
	all = slices.DeleteFunc(all, func(c *model.Couple) bool {
		if filter.Status != "" && c.Status != filter.Status {
			return true
		}
		if filter.LeadSource != "" && c.LeadSource != filter.LeadSource {
			return true
		}
		if filter.Tag != "" && !slices.Contains(c.Tags, filter.Tag) {
			return true
		}
		if q := filter.Query; q != "" {
			return !(containsFold(c.Partner1Name, q) || containsFold(c.Partner2Name, q) ||
				containsFold(c.Partner1Email, q) || containsFold(c.Partner2Email, q))
		}
		return false
	})
	slices.SortFunc(all, func(a, b *model.Couple) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	items, total := page(all, p)
	return items, total, nil
}

// UpdateCouple implements service.CoupleStore.
func (s *Store) UpdateCouple(_ context.Context, couple *model.Couple) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	c, ok := s.couples[couple.ID]
	if !ok || c.UserID != couple.UserID {
		return repository.ErrCoupleNotFound
	}
	s.couples[couple.ID] = clone(couple)
	return nil
}

// DeleteCouple implements service.CoupleStore. Dependent rows cascade and
// tasks are unlinked.
func (s *Store) DeleteCouple(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	c, ok := s.couples[id]
	if !ok || c.UserID != userID {
		return repository.ErrCoupleNotFound
	}
	delete(s.couples, id)
	for k, v := range s.ceremonies {
		if v.CoupleID == id {
			delete(s.ceremonies, k)
		}
	}
	for k, v := range s.invoices {
		if v.CoupleID == id {
			delete(s.invoices, k)
		}
	}
	for k, v := range s.legalForms {
		if v.CoupleID == id {
			delete(s.legalForms, k)
		}
	}
	for k, v := range s.communications {
		if v.CoupleID == id {
			delete(s.communications, k)
		}
	}
	for _, t := range s.tasks {
		if t.CoupleID != nil && *t.CoupleID == id {
			t.CoupleID = nil
		}
	}
	return nil
}

// ============================================================================
// Ceremonies
// ============================================================================

// CreateCeremony implements service.CeremonyStore.
func (s *Store) CreateCeremony(_ context.Context, c *model.Ceremony) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.couples[c.CoupleID]; !ok {
		return repository.ErrCoupleNotFound
	}
	s.ceremonies[c.ID] = clone(c)
	return nil
}

// GetCeremony implements service.CeremonyStore.
func (s *Store) GetCeremony(_ context.Context, userID, id string) (*model.Ceremony, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	c, ok := s.ceremonies[id]
	if !ok || c.UserID != userID {
		return nil, repository.ErrCeremonyNotFound
	}
	return clone(c), nil
}

// ListCeremonies implements service.CeremonyStore.
func (s *Store) ListCeremonies(_ context.Context, filter repository.CeremonyFilter, p model.PageRequest) ([]*model.Ceremony, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, 0, s.Err
	}
	all := ownedValues(s.ceremonies, func(c *model.Ceremony) string { return c.UserID }, filter.UserID)
	all = slices.DeleteFunc(all, func(c *model.Ceremony) bool {
		switch {
		case filter.CoupleID != "" && c.CoupleID != filter.CoupleID:
			return true
		case filter.Status != "" && c.Status != filter.Status:
			return true
		case filter.From != nil && c.CeremonyDate.Before(*filter.From):
			return true
		case filter.To != nil && !c.CeremonyDate.Before(*filter.To):
			return true
		case filter.ExcludeCancelled && c.Status == model.CeremonyCancelled:
			return true
		}
		return false
	})
	slices.SortFunc(all, func(a, b *model.Ceremony) int {
		if c := a.CeremonyDate.Compare(b.CeremonyDate); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	items, total := page(all, p)
	return items, total, nil
}

// UpdateCeremony implements service.CeremonyStore.
func (s *Store) UpdateCeremony(_ context.Context, c *model.Ceremony) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	existing, ok := s.ceremonies[c.ID]
	if !ok || existing.UserID != c.UserID {
		return repository.ErrCeremonyNotFound
	}
	s.ceremonies[c.ID] = clone(c)
	return nil
}

// DeleteCeremony implements service.CeremonyStore.
func (s *Store) DeleteCeremony(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	c, ok := s.ceremonies[id]
	if !ok || c.UserID != userID {
		return repository.ErrCeremonyNotFound
	}
	delete(s.ceremonies, id)
	for _, inv := range s.invoices {
		if inv.CeremonyID != nil && *inv.CeremonyID == id {
			inv.CeremonyID = nil
		}
	}
	for _, f := range s.legalForms {
		if f.CeremonyID != nil && *f.CeremonyID == id {
			f.CeremonyID = nil
		}
	}
	return nil
}

// ============================================================================
// Invoices
// ============================================================================

func cloneInvoice(inv *model.Invoice) *model.Invoice {
	c := clone(inv)
	c.Items = make([]*model.InvoiceItem, len(inv.Items))
	for i, item := range inv.Items {
		c.Items[i] = clone(item)
	}
	return c
}

func (s *Store) invoiceNumberTaken(inv *model.Invoice) bool {
	for _, other := range s.invoices {
		if other.ID != inv.ID && other.UserID == inv.UserID && other.InvoiceNumber == inv.InvoiceNumber {
			return true
		}
	}
	return false
}

// CreateInvoice implements service.InvoiceStore.
func (s *Store) CreateInvoice(_ context.Context, inv *model.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.couples[inv.CoupleID]; !ok {
		return repository.ErrInvoiceReferenceGone
	}
	if s.invoiceNumberTaken(inv) {
		return repository.ErrInvoiceNumberExists
	}
	s.invoices[inv.ID] = cloneInvoice(inv)
	return nil
}

// GetInvoice implements service.InvoiceStore.
func (s *Store) GetInvoice(_ context.Context, userID, id string) (*model.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	inv, ok := s.invoices[id]
	if !ok || inv.UserID != userID {
		return nil, repository.ErrInvoiceNotFound
	}
	return cloneInvoice(inv), nil
}

// ListInvoices implements service.InvoiceStore.
func (s *Store) ListInvoices(_ context.Context, filter repository.InvoiceFilter, p model.PageRequest) ([]*model.Invoice, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, 0, s.Err
	}
	var all []*model.Invoice
	for _, inv := range s.invoices {
		if inv.UserID != filter.UserID {
			continue
		}
		if filter.CoupleID != "" && inv.CoupleID != filter.CoupleID {
			continue
		}
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		if filter.OverdueAsOf != nil && !inv.IsOverdue(*filter.OverdueAsOf) {
			continue
		}
		all = append(all, cloneInvoice(inv))
	}
	slices.SortFunc(all, func(a, b *model.Invoice) int {
		if c := b.IssueDate.Compare(a.IssueDate); c != 0 {
			return c
		}
		return cmp.Compare(b.InvoiceNumber, a.InvoiceNumber)
	})
	items, total := page(all, p)
	return items, total, nil
}

// UpdateInvoice implements service.InvoiceStore.
func (s *Store) UpdateInvoice(_ context.Context, inv *model.Invoice, replaceItems bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	existing, ok := s.invoices[inv.ID]
	if !ok || existing.UserID != inv.UserID {
		return repository.ErrInvoiceNotFound
	}
	if s.invoiceNumberTaken(inv) {
		return repository.ErrInvoiceNumberExists
	}
	updated := cloneInvoice(inv)
	if !replaceItems {
		updated.Items = existing.Items
	}
	s.invoices[inv.ID] = updated
	return nil
}

// DeleteInvoice implements service.InvoiceStore.
func (s *Store) DeleteInvoice(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	inv, ok := s.invoices[id]
	if !ok || inv.UserID != userID {
		return repository.ErrInvoiceNotFound
	}
	delete(s.invoices, id)
	return nil
}

var invoiceNumberPattern = regexp.MustCompile(`^INV-(\d{4})-(\d+)$`)

// MaxInvoiceSequence implements service.InvoiceStore.
func (s *Store) MaxInvoiceSequence(_ context.Context, userID string, year int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	maxSeq := 0
	for _, inv := range s.invoices {
		if inv.UserID != userID {
			continue
		}
		m := invoiceNumberPattern.FindStringSubmatch(inv.InvoiceNumber)
		if m == nil || m[1] != fmt.Sprintf("%04d", year) {
			continue
		}
		if n, err := strconv.Atoi(m[2]); err == nil && n > maxSeq {
			maxSeq = n
		}
	}
	return maxSeq, nil
}

// MarkOverdueInvoices implements service.InvoiceStore.
func (s *Store) MarkOverdueInvoices(_ context.Context, userID string, today, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	var n int64
	for _, inv := range s.invoices {
		if inv.UserID == userID && inv.Status == model.InvoiceSent && inv.DueDate.Before(today) {
			inv.Status = model.InvoiceOverdue
			inv.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

// ============================================================================
// Legal forms
// ============================================================================

// CreateLegalForm implements service.LegalFormStore.
func (s *Store) CreateLegalForm(_ context.Context, form *model.LegalForm) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.couples[form.CoupleID]; !ok {
		return repository.ErrCoupleNotFound
	}
	s.legalForms[form.ID] = clone(form)
	return nil
}

// GetLegalForm implements service.LegalFormStore.
func (s *Store) GetLegalForm(_ context.Context, userID, id string) (*model.LegalForm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	f, ok := s.legalForms[id]
	if !ok || f.UserID != userID {
		return nil, repository.ErrLegalFormNotFound
	}
	return clone(f), nil
}

func matchesLegalFormFilter(f *model.LegalForm, filter repository.LegalFormFilter) bool {
	switch {
	case f.UserID != filter.UserID:
		return false
	case filter.CoupleID != "" && f.CoupleID != filter.CoupleID:
		return false
	case filter.Status != "" && f.Status != filter.Status:
		return false
	case filter.FormType != "" && f.FormType != filter.FormType:
		return false
	}
	if filter.OverdueAsOf != nil {
		if !f.Status.IsOutstanding() || f.DeadlineDate == nil || !f.DeadlineDate.Before(*filter.OverdueAsOf) {
			return false
		}
	}
	if filter.ExpiringFrom != nil && filter.ExpiringUntil != nil {
		if f.Status == model.FormExpired || f.ExpiryDate == nil ||
			f.ExpiryDate.Before(*filter.ExpiringFrom) || f.ExpiryDate.After(*filter.ExpiringUntil) {
			return false
		}
	}
	return true
}

func compareDeadline(a, b *model.LegalForm) int {
	switch {
	case a.DeadlineDate == nil && b.DeadlineDate == nil:
		return 0
	case a.DeadlineDate == nil:
		return 1
	case b.DeadlineDate == nil:
		return -1
	}
	return a.DeadlineDate.Compare(*b.DeadlineDate)
}

// ListLegalForms implements service.LegalFormStore.
func (s *Store) ListLegalForms(_ context.Context, filter repository.LegalFormFilter, p model.PageRequest) ([]*model.LegalForm, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, 0, s.Err
	}
	var all []*model.LegalForm
	for _, f := range s.legalForms {
		if matchesLegalFormFilter(f, filter) {
			all = append(all, clone(f))
		}
	}
	slices.SortFunc(all, func(a, b *model.LegalForm) int {
		if c := compareDeadline(a, b); c != 0 {
			return c
		}
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	items, total := page(all, p)
	return items, total, nil
}

// ListCoupleLegalForms implements service.LegalFormStore.
func (s *Store) ListCoupleLegalForms(_ context.Context, userID, coupleID string) ([]*model.LegalForm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var out []*model.LegalForm
	for _, f := range s.legalForms {
		if f.UserID == userID && f.CoupleID == coupleID {
			out = append(out, clone(f))
		}
	}
	slices.SortFunc(out, func(a, b *model.LegalForm) int {
		if c := compareDeadline(a, b); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

// ListLegalFormAlerts implements service.LegalFormStore.
func (s *Store) ListLegalFormAlerts(_ context.Context, userID string, today, windowEnd time.Time) ([]*model.LegalForm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	overdue := repository.LegalFormFilter{UserID: userID, OverdueAsOf: &today}
	expiring := repository.LegalFormFilter{UserID: userID, ExpiringFrom: &today, ExpiringUntil: &windowEnd}
	var out []*model.LegalForm
	for _, f := range s.legalForms {
		if matchesLegalFormFilter(f, overdue) || matchesLegalFormFilter(f, expiring) {
			out = append(out, clone(f))
		}
	}
	slices.SortFunc(out, compareDeadline)
	return out, nil
}

// UpdateLegalForm implements service.LegalFormStore.
func (s *Store) UpdateLegalForm(_ context.Context, form *model.LegalForm) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	existing, ok := s.legalForms[form.ID]
	if !ok || existing.UserID != form.UserID {
		return repository.ErrLegalFormNotFound
	}
	s.legalForms[form.ID] = clone(form)
	return nil
}

// DeleteLegalForm implements service.LegalFormStore.
func (s *Store) DeleteLegalForm(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	f, ok := s.legalForms[id]
	if !ok || f.UserID != userID {
		return repository.ErrLegalFormNotFound
	}
	delete(s.legalForms, id)
	return nil
}

// ============================================================================
// Communications
// ============================================================================

// CreateCommunication implements service.CommunicationStore.
func (s *Store) CreateCommunication(_ context.Context, log *model.CommunicationLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.couples[log.CoupleID]; !ok {
		return repository.ErrCoupleNotFound
	}
	s.communications[log.ID] = clone(log)
	return nil
}

// ListCoupleCommunications implements service.CommunicationStore.
func (s *Store) ListCoupleCommunications(_ context.Context, userID, coupleID string, p model.PageRequest) ([]*model.CommunicationLog, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, 0, s.Err
	}
	var all []*model.CommunicationLog
	for _, l := range s.communications {
		if l.UserID == userID && l.CoupleID == coupleID {
			all = append(all, clone(l))
		}
	}
	slices.SortFunc(all, func(a, b *model.CommunicationLog) int {
		if c := b.OccurredAt.Compare(a.OccurredAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	items, total := page(all, p)
	return items, total, nil
}

// DeleteCommunication implements service.CommunicationStore.
func (s *Store) DeleteCommunication(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	l, ok := s.communications[id]
	if !ok || l.UserID != userID {
		return repository.ErrCommunicationNotFound
	}
	delete(s.communications, id)
	return nil
}

// ============================================================================
// Tasks
// ============================================================================

// CreateTask implements service.TaskStore.
func (s *Store) CreateTask(_ context.Context, task *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.tasks[task.ID] = clone(task)
	return nil
}

// GetTask implements service.TaskStore.
func (s *Store) GetTask(_ context.Context, userID, id string) (*model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	t, ok := s.tasks[id]
	if !ok || t.UserID != userID {
		return nil, repository.ErrTaskNotFound
	}
	return clone(t), nil
}

// ListTasks implements service.TaskStore.
func (s *Store) ListTasks(_ context.Context, filter repository.TaskFilter, p model.PageRequest) ([]*model.Task, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, 0, s.Err
	}
	all := ownedValues(s.tasks, func(t *model.Task) string { return t.UserID }, filter.UserID)
	all = slices.DeleteFunc(all, func(t *model.Task) bool {
		switch {
		case filter.CoupleID != "" && (t.CoupleID == nil || *t.CoupleID != filter.CoupleID):
			return true
		case filter.Completed != nil && t.Completed != *filter.Completed:
			return true
		case filter.Priority != "" && t.Priority != filter.Priority:
			return true
		case filter.OverdueAsOf != nil && !t.IsOverdue(*filter.OverdueAsOf):
			return true
		}
		return false
	})
	slices.SortFunc(all, func(a, b *model.Task) int {
		if a.Completed != b.Completed {
			if a.Completed {
				return 1
			}
			return -1
		}
		switch {
		case a.DueDate != nil && b.DueDate != nil:
			if c := a.DueDate.Compare(*b.DueDate); c != 0 {
				return c
			}
		case a.DueDate != nil:
			return -1
		case b.DueDate != nil:
			return 1
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	items, total := page(all, p)
	return items, total, nil
}

// UpdateTask implements service.TaskStore.
func (s *Store) UpdateTask(_ context.Context, task *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	existing, ok := s.tasks[task.ID]
	if !ok || existing.UserID != task.UserID {
		return repository.ErrTaskNotFound
	}
	s.tasks[task.ID] = clone(task)
	return nil
}

// DeleteTask implements service.TaskStore.
func (s *Store) DeleteTask(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	t, ok := s.tasks[id]
	if !ok || t.UserID != userID {
		return repository.ErrTaskNotFound
	}
	delete(s.tasks, id)
	return nil
}

// ============================================================================
// Email templates
// ============================================================================

func (s *Store) templateNameTaken(tmpl *model.EmailTemplate) bool {
	for _, other := range s.templates {
		if other.ID != tmpl.ID && other.UserID == tmpl.UserID && other.Name == tmpl.Name {
			return true
		}
	}
	return false
}

// CreateEmailTemplate implements service.EmailTemplateStore.
func (s *Store) CreateEmailTemplate(_ context.Context, tmpl *model.EmailTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if s.templateNameTaken(tmpl) {
		return repository.ErrTemplateNameExists
	}
	s.templates[tmpl.ID] = clone(tmpl)
	return nil
}

// GetEmailTemplate implements service.EmailTemplateStore.
func (s *Store) GetEmailTemplate(_ context.Context, userID, id string) (*model.EmailTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	t, ok := s.templates[id]
	if !ok || t.UserID != userID {
		return nil, repository.ErrEmailTemplateNotFound
	}
	return clone(t), nil
}

// ListEmailTemplates implements service.EmailTemplateStore.
func (s *Store) ListEmailTemplates(_ context.Context, filter repository.EmailTemplateFilter, p model.PageRequest) ([]*model.EmailTemplate, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, 0, s.Err
	}
	all := ownedValues(s.templates, func(t *model.EmailTemplate) string { return t.UserID }, filter.UserID)
	all = slices.DeleteFunc(all, func(t *model.EmailTemplate) bool {
		if filter.Category != "" && t.Category != filter.Category {
			return true
		}
		if q := filter.Query; q != "" {
			return !containsFold(t.Name, q) && !containsFold(t.Subject, q)
		}
		return false
	})
	slices.SortFunc(all, func(a, b *model.EmailTemplate) int { return cmp.Compare(a.Name, b.Name) })
	items, total := page(all, p)
	return items, total, nil
}

// UpdateEmailTemplate implements service.EmailTemplateStore.
func (s *Store) UpdateEmailTemplate(_ context.Context, tmpl *model.EmailTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	existing, ok := s.templates[tmpl.ID]
	if !ok || existing.UserID != tmpl.UserID {
		return repository.ErrEmailTemplateNotFound
	}
	if s.templateNameTaken(tmpl) {
		return repository.ErrTemplateNameExists
	}
	s.templates[tmpl.ID] = clone(tmpl)
	return nil
}

// DeleteEmailTemplate implements service.EmailTemplateStore.
func (s *Store) DeleteEmailTemplate(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	t, ok := s.templates[id]
	if !ok || t.UserID != userID {
		return repository.ErrEmailTemplateNotFound
	}
	delete(s.templates, id)
	return nil
}

// ============================================================================
// Dashboard
// ============================================================================

// GetDashboardMetrics implements service.DashboardStore with the same rules
// as the SQL aggregates.
func (s *Store) GetDashboardMetrics(_ context.Context, userID string, win repository.DashboardWindow) (*model.DashboardMetrics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	m := &model.DashboardMetrics{CouplesByStatus: make(map[model.CoupleStatus]int)}

	for _, c := range s.couples {
		if c.UserID != userID {
			continue
		}
		m.TotalCouples++
		m.CouplesByStatus[c.Status]++
		if c.Status.IsActive() {
			m.ActiveCouples++
		}
		if !c.CreatedAt.Before(win.MonthStart) && c.CreatedAt.Before(win.MonthEnd) {
			m.NewCouplesThisMonth++
		}
	}

	for _, c := range s.ceremonies {
		if c.UserID != userID {
			continue
		}
		m.TotalCeremonies++
		if !c.CeremonyDate.Before(win.Now) && c.Status != model.CeremonyCancelled {
			m.UpcomingCeremonies++
		}
		if !c.CeremonyDate.Before(win.MonthStart) && c.CeremonyDate.Before(win.MonthEnd) {
			m.CeremoniesThisMonth++
		}
	}

	for _, inv := range s.invoices {
		if inv.UserID != userID {
			continue
		}
		switch inv.Status {
		case model.InvoicePaid:
			m.TotalRevenueCents += inv.TotalCents
		case model.InvoiceSent:
			if !inv.IsOverdue(win.Today) {
				m.OutstandingInvoices++
				m.OutstandingCents += inv.TotalCents
			}
		}
		if inv.IsOverdue(win.Today) {
			m.OverdueInvoices++
			m.OverdueCents += inv.TotalCents
		}
	}

	overdue := repository.LegalFormFilter{UserID: userID, OverdueAsOf: &win.Today}
	expiring := repository.LegalFormFilter{UserID: userID, ExpiringFrom: &win.Today, ExpiringUntil: &win.WindowEnd}
	for _, f := range s.legalForms {
		if f.UserID != userID {
			continue
		}
		if f.Status.IsOutstanding() {
			m.PendingLegalForms++
		}
		if matchesLegalFormFilter(f, overdue) {
			m.OverdueLegalForms++
		}
		if matchesLegalFormFilter(f, expiring) {
			m.ExpiringSoonLegalForms++
		}
	}

	for _, t := range s.tasks {
		if t.UserID != userID {
			continue
		}
		if !t.Completed {
			m.OpenTasks++
		}
		if t.IsOverdue(win.Today) {
			m.OverdueTasks++
		}
	}

	return m, nil
}

// ============================================================================
// Seeding
// ============================================================================

// AddUser inserts a user directly.
func (s *Store) AddUser(u *model.User) {
	s.mu.Lock()
	s.users[u.ID] = clone(u)
	s.mu.Unlock()
}

// AddCouple inserts a couple directly.
func (s *Store) AddCouple(c *model.Couple) {
	s.mu.Lock()
	s.couples[c.ID] = clone(c)
	s.mu.Unlock()
}

// AddCeremony inserts a ceremony directly.
func (s *Store) AddCeremony(c *model.Ceremony) {
	s.mu.Lock()
	s.ceremonies[c.ID] = clone(c)
	s.mu.Unlock()
}

// AddInvoice inserts an invoice directly.
func (s *Store) AddInvoice(inv *model.Invoice) {
	s.mu.Lock()
	s.invoices[inv.ID] = cloneInvoice(inv)
	s.mu.Unlock()
}

// AddLegalForm inserts a legal form directly.
func (s *Store) AddLegalForm(f *model.LegalForm) {
	s.mu.Lock()
	s.legalForms[f.ID] = clone(f)
	s.mu.Unlock()
}

// AddTask inserts a task directly.
func (s *Store) AddTask(t *model.Task) {
	s.mu.Lock()
	s.tasks[t.ID] = clone(t)
	s.mu.Unlock()
}

// AddEmailTemplate inserts a template directly.
func (s *Store) AddEmailTemplate(t *model.EmailTemplate) {
	s.mu.Lock()
	s.templates[t.ID] = clone(t)
	s.mu.Unlock()
}

// Communications returns every communication log of a couple.
func (s *Store) Communications(coupleID string) []*model.CommunicationLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.CommunicationLog
	for _, l := range s.communications {
		if l.CoupleID == coupleID {
			out = append(out, clone(l))
		}
	}
	return out
}

// LegalForms returns every legal form of a couple.
func (s *Store) LegalForms(coupleID string) []*model.LegalForm {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.LegalForm
	for _, f := range s.legalForms {
		if f.CoupleID == coupleID {
			out = append(out, clone(f))
		}
	}
	return out
}
