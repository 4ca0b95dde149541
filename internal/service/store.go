package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vowline/vowline/internal/model"
	"github.com/vowline/vowline/internal/repository"
)

// UserStore persists celebrant accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUserLastLogin(ctx context.Context, id string, at time.Time) error
}

// AuthStore is everything the auth flow persists.
type AuthStore interface {
	UserStore
	CreateRefreshToken(ctx context.Context, token *model.RefreshToken) error
	ConsumeRefreshToken(ctx context.Context, tokenHash string, now time.Time) (*model.RefreshToken, error)
	RevokeUserRefreshTokens(ctx context.Context, userID string, now time.Time) (int64, error)
	RecordLoginAttempt(ctx context.Context, attempt *model.LoginAttempt) error
	CountRecentFailedLogins(ctx context.Context, email string, since time.Time) (int, error)
}

// TokenDenylist revokes access tokens before they expire.
type TokenDenylist interface {
	DenyToken(ctx context.Context, tokenID string, ttl time.Duration) error
}

type coupleGetter interface {
	GetCouple(ctx context.Context, userID, id string) (*model.Couple, error)
}

type ceremonyGetter interface {
	GetCeremony(ctx context.Context, userID, id string) (*model.Ceremony, error)
}

// CoupleStore persists couples.
type CoupleStore interface {
	coupleGetter
	CreateCouple(ctx context.Context, couple *model.Couple, forms []*model.LegalForm) error
	ListCouples(ctx context.Context, filter repository.CoupleFilter, page model.PageRequest) ([]*model.Couple, int, error)
	UpdateCouple(ctx context.Context, couple *model.Couple) error
	DeleteCouple(ctx context.Context, userID, id string) error
}

// CeremonyStore persists ceremonies.
type CeremonyStore interface {
	coupleGetter
	ceremonyGetter
	CreateCeremony(ctx context.Context, c *model.Ceremony) error
	ListCeremonies(ctx context.Context, filter repository.CeremonyFilter, page model.PageRequest) ([]*model.Ceremony, int, error)
	UpdateCeremony(ctx context.Context, c *model.Ceremony) error
	DeleteCeremony(ctx context.Context, userID, id string) error
}

// InvoiceStore persists invoices and their items.
type InvoiceStore interface {
	coupleGetter
	ceremonyGetter
	CreateInvoice(ctx context.Context, inv *model.Invoice) error
	GetInvoice(ctx context.Context, userID, id string) (*model.Invoice, error)
	ListInvoices(ctx context.Context, filter repository.InvoiceFilter, page model.PageRequest) ([]*model.Invoice, int, error)
	UpdateInvoice(ctx context.Context, inv *model.Invoice, replaceItems bool) error
	DeleteInvoice(ctx context.Context, userID, id string) error
	MaxInvoiceSequence(ctx context.Context, userID string, year int) (int, error)
	MarkOverdueInvoices(ctx context.Context, userID string, today, now time.Time) (int64, error)
}

// LegalFormStore persists legal forms.
type LegalFormStore interface {
	coupleGetter
	ceremonyGetter
	CreateLegalForm(ctx context.Context, form *model.LegalForm) error
	GetLegalForm(ctx context.Context, userID, id string) (*model.LegalForm, error)
	ListLegalForms(ctx context.Context, filter repository.LegalFormFilter, page model.PageRequest) ([]*model.LegalForm, int, error)
	ListCoupleLegalForms(ctx context.Context, userID, coupleID string) ([]*model.LegalForm, error)
	ListLegalFormAlerts(ctx context.Context, userID string, today, windowEnd time.Time) ([]*model.LegalForm, error)
	UpdateLegalForm(ctx context.Context, form *model.LegalForm) error
	DeleteLegalForm(ctx context.Context, userID, id string) error
}

// CommunicationStore persists communication logs.
type CommunicationStore interface {
	coupleGetter
	CreateCommunication(ctx context.Context, log *model.CommunicationLog) error
	ListCoupleCommunications(ctx context.Context, userID, coupleID string, page model.PageRequest) ([]*model.CommunicationLog, int, error)
	DeleteCommunication(ctx context.Context, userID, id string) error
}

// TaskStore persists tasks.
type TaskStore interface {
	coupleGetter
	CreateTask(ctx context.Context, task *model.Task) error
	GetTask(ctx context.Context, userID, id string) (*model.Task, error)
	ListTasks(ctx context.Context, filter repository.TaskFilter, page model.PageRequest) ([]*model.Task, int, error)
	UpdateTask(ctx context.Context, task *model.Task) error
	DeleteTask(ctx context.Context, userID, id string) error
}

// EmailTemplateStore persists email templates and records rendered sends.
type EmailTemplateStore interface {
	coupleGetter
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	CreateCommunication(ctx context.Context, log *model.CommunicationLog) error
	CreateEmailTemplate(ctx context.Context, tmpl *model.EmailTemplate) error
	GetEmailTemplate(ctx context.Context, userID, id string) (*model.EmailTemplate, error)
	ListEmailTemplates(ctx context.Context, filter repository.EmailTemplateFilter, page model.PageRequest) ([]*model.EmailTemplate, int, error)
	UpdateEmailTemplate(ctx context.Context, tmpl *model.EmailTemplate) error
	DeleteEmailTemplate(ctx context.Context, userID, id string) error
}

// DashboardStore runs dashboard aggregates.
type DashboardStore interface {
	GetDashboardMetrics(ctx context.Context, userID string, win repository.DashboardWindow) (*model.DashboardMetrics, error)
	ListCeremonies(ctx context.Context, filter repository.CeremonyFilter, page model.PageRequest) ([]*model.Ceremony, int, error)
}

// repoErrors maps repository sentinels to their service counterparts.
var repoErrors = []struct {
	repo, svc error
}{
	{repository.ErrUserNotFound, ErrUserNotFound},
	{repository.ErrEmailExists, ErrEmailExists},
	{repository.ErrCoupleNotFound, ErrCoupleNotFound},
	{repository.ErrCeremonyNotFound, ErrCeremonyNotFound},
	{repository.ErrInvoiceNotFound, ErrInvoiceNotFound},
	{repository.ErrInvoiceNumberExists, ErrInvoiceNumberExists},
	{repository.ErrInvoiceReferenceGone, ErrCoupleNotFound},
	{repository.ErrLegalFormNotFound, ErrLegalFormNotFound},
	{repository.ErrCommunicationNotFound, ErrCommunicationNotFound},
	{repository.ErrTaskNotFound, ErrTaskNotFound},
	{repository.ErrEmailTemplateNotFound, ErrEmailTemplateNotFound},
	{repository.ErrTemplateNameExists, ErrTemplateNameExists},
}

// storeError translates repository sentinels and wraps anything else with op.
func storeError(op string, err error) error {
	for _, pair := range repoErrors {
		if errors.Is(err, pair.repo) {
			return pair.svc
		}
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
