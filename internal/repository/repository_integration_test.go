//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vowline/vowline/internal/model"
	"github.com/vowline/vowline/internal/testutil"
)

func newRepoTestEnv(t *testing.T) (context.Context, *Repository, *model.User) {
	t.Helper()
	ctx, pool := newMigrationTestEnv(t)
	repo := NewWithPool(pool)

	user := testutil.NewTestUser(t)
	require.NoError(t, repo.CreateUser(ctx, user))
	return ctx, repo, user
}

func TestIntegrationRepository_UserEmailUnique(t *testing.T) {
	ctx, repo, user := newRepoTestEnv(t)

	dup := testutil.NewTestUser(t)
	dup.Email = user.Email
	assert.ErrorIs(t, repo.CreateUser(ctx, dup), ErrEmailExists)

	got, err := repo.GetUserByEmail(ctx, user.Email)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = repo.GetUserByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestIntegrationRepository_CoupleScoping(t *testing.T) {
	ctx, repo, user := newRepoTestEnv(t)

	other := testutil.NewTestUser(t)
	require.NoError(t, repo.CreateUser(ctx, other))

	couple := testutil.NewTestCouple(t, user.ID)
	couple.Tags = []string{"garden", "spring"}
	noim := testutil.NewTestLegalForm(t, user.ID, couple.ID, model.FormNOIM)
	require.NoError(t, repo.CreateCouple(ctx, couple, []*model.LegalForm{noim}))

	got, err := repo.GetCouple(ctx, user.ID, couple.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"garden", "spring"}, got.Tags)

	_, err = repo.GetCouple(ctx, other.ID, couple.ID)
	assert.ErrorIs(t, err, ErrCoupleNotFound)
	assert.ErrorIs(t, repo.DeleteCouple(ctx, other.ID, couple.ID), ErrCoupleNotFound)

	forms, err := repo.ListCoupleLegalForms(ctx, user.ID, couple.ID)
	require.NoError(t, err)
	require.Len(t, forms, 1)
	assert.Equal(t, model.FormNOIM, forms[0].FormType)

	couples, total, err := repo.ListCouples(ctx, CoupleFilter{UserID: other.ID}, model.NewPageRequest(1, 20))
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, couples)

	couples, total, err = repo.ListCouples(ctx, CoupleFilter{UserID: user.ID, Tag: "garden"}, model.NewPageRequest(1, 20))
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, couples, 1)

	require.NoError(t, repo.DeleteCouple(ctx, user.ID, couple.ID))
	forms, err = repo.ListCoupleLegalForms(ctx, user.ID, couple.ID)
	require.NoError(t, err)
	assert.Empty(t, forms)
}

func TestIntegrationRepository_InvoiceLifecycle(t *testing.T) {
	ctx, repo, user := newRepoTestEnv(t)

	couple := testutil.NewTestCouple(t, user.ID)
	require.NoError(t, repo.CreateCouple(ctx, couple, nil))

	inv := testutil.NewTestInvoice(t, user.ID, couple.ID, "INV-2026-0007", testutil.Date(2026, 3, 1))
	require.NoError(t, repo.CreateInvoice(ctx, inv))

	got, err := repo.GetInvoice(ctx, user.ID, inv.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, int64(55000), got.TotalCents)
	assert.True(t, got.IssueDate.Equal(testutil.Date(2026, 3, 1)))

	seq, err := repo.MaxInvoiceSequence(ctx, user.ID, 2026)
	require.NoError(t, err)
	assert.Equal(t, 7, seq)

	dup := testutil.NewTestInvoice(t, user.ID, couple.ID, "INV-2026-0007", testutil.Date(2026, 3, 2))
	assert.ErrorIs(t, repo.CreateInvoice(ctx, dup), ErrInvoiceNumberExists)

	// Replace items in the same transaction as the header.
	got.Items = []*model.InvoiceItem{
		{ID: testutil.UniqueID("item"), InvoiceID: got.ID, Description: "Ceremony", Quantity: 1, UnitPriceCents: 80000},
		{ID: testutil.UniqueID("item"), InvoiceID: got.ID, Description: "Travel", Quantity: 2, UnitPriceCents: 5000},
	}
	got.Status = model.InvoiceSent
	got.Recalculate()
	got.UpdatedAt = time.Now().UTC()
	require.NoError(t, repo.UpdateInvoice(ctx, got, true))

	reloaded, err := repo.GetInvoice(ctx, user.ID, inv.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Items, 2)
	assert.Equal(t, "Ceremony", reloaded.Items[0].Description)
	assert.Equal(t, int64(99000), reloaded.TotalCents)

	changed, err := repo.MarkOverdueInvoices(ctx, user.ID, testutil.Date(2026, 4, 1), time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(1), changed)

	reloaded, err = repo.GetInvoice(ctx, user.ID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceOverdue, reloaded.Status)

	require.NoError(t, repo.DeleteInvoice(ctx, user.ID, inv.ID))
	_, err = repo.GetInvoice(ctx, user.ID, inv.ID)
	assert.ErrorIs(t, err, ErrInvoiceNotFound)
}

func TestIntegrationRepository_InvoiceForeignKeys(t *testing.T) {
	ctx, repo, user := newRepoTestEnv(t)

	inv := testutil.NewTestInvoice(t, user.ID, "no-such-couple", "INV-2026-0001", testutil.Date(2026, 3, 1))
	assert.ErrorIs(t, repo.CreateInvoice(ctx, inv), ErrInvoiceReferenceGone)
}

func TestIntegrationRepository_LegalFormFilters(t *testing.T) {
	ctx, repo, user := newRepoTestEnv(t)

	couple := testutil.NewTestCouple(t, user.ID)
	require.NoError(t, repo.CreateCouple(ctx, couple, nil))

	today := testutil.Date(2026, 3, 10)

	overdue := testutil.NewTestLegalForm(t, user.ID, couple.ID, model.FormNOIM)
	overdue.DeadlineDate = testutil.DatePtr(2026, 3, 1)
	approvedLate := testutil.NewTestLegalForm(t, user.ID, couple.ID, model.FormIdentityEvidence)
	approvedLate.Status = model.FormApproved
	approvedLate.DeadlineDate = testutil.DatePtr(2026, 3, 1)
	expiring := testutil.NewTestLegalForm(t, user.ID, couple.ID, model.FormDivorceEvidence)
	expiring.Status = model.FormApproved
	expiring.ExpiryDate = testutil.DatePtr(2026, 3, 20)

	for _, f := range []*model.LegalForm{overdue, approvedLate, expiring} {
		require.NoError(t, repo.CreateLegalForm(ctx, f))
	}

	forms, total, err := repo.ListLegalForms(ctx, LegalFormFilter{UserID: user.ID, OverdueAsOf: &today}, model.NewPageRequest(1, 20))
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, forms, 1)
	assert.Equal(t, overdue.ID, forms[0].ID)

	until := today.AddDate(0, 0, 30)
	forms, _, err = repo.ListLegalForms(ctx, LegalFormFilter{UserID: user.ID, ExpiringFrom: &today, ExpiringUntil: &until}, model.NewPageRequest(1, 20))
	require.NoError(t, err)
	require.Len(t, forms, 1)
	assert.Equal(t, expiring.ID, forms[0].ID)

	alerts, err := repo.ListLegalFormAlerts(ctx, user.ID, today, until)
	require.NoError(t, err)
	assert.Len(t, alerts, 2)
}

func TestIntegrationRepository_EmailTemplateNameUnique(t *testing.T) {
	ctx, repo, user := newRepoTestEnv(t)

	require.NoError(t, repo.CreateEmailTemplate(ctx, testutil.NewTestEmailTemplate(t, user.ID, "Booking confirmed")))
	err := repo.CreateEmailTemplate(ctx, testutil.NewTestEmailTemplate(t, user.ID, "Booking confirmed"))
	assert.ErrorIs(t, err, ErrTemplateNameExists)

	other := testutil.NewTestUser(t)
	require.NoError(t, repo.CreateUser(ctx, other))
	assert.NoError(t, repo.CreateEmailTemplate(ctx, testutil.NewTestEmailTemplate(t, other.ID, "Booking confirmed")))
}

func TestIntegrationRepository_RefreshTokenRotation(t *testing.T) {
	ctx, repo, user := newRepoTestEnv(t)

	now := time.Now().UTC()
	token := &model.RefreshToken{
		ID:        testutil.UniqueID("rt"),
		UserID:    user.ID,
		TokenHash: testutil.UniqueID("hash"),
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
	}
	require.NoError(t, repo.CreateRefreshToken(ctx, token))

	consumed, err := repo.ConsumeRefreshToken(ctx, token.TokenHash, now)
	require.NoError(t, err)
	assert.Equal(t, user.ID, consumed.UserID)

	_, err = repo.ConsumeRefreshToken(ctx, token.TokenHash, now)
	assert.ErrorIs(t, err, ErrRefreshTokenNotFound)

	expired := &model.RefreshToken{
		ID:        testutil.UniqueID("rt"),
		UserID:    user.ID,
		TokenHash: testutil.UniqueID("hash"),
		ExpiresAt: now.Add(-time.Hour),
		CreatedAt: now.Add(-2 * time.Hour),
	}
	require.NoError(t, repo.CreateRefreshToken(ctx, expired))

	removed, err := repo.DeleteExpiredRefreshTokens(ctx, now)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, removed, int64(1))
}

func TestIntegrationRepository_DashboardMetrics(t *testing.T) {
	ctx, repo, user := newRepoTestEnv(t)

	booked := testutil.NewTestCouple(t, user.ID)
	booked.Status = model.CoupleBooked
	cancelled := testutil.NewTestCouple(t, user.ID)
	cancelled.Status = model.CoupleCancelled
	require.NoError(t, repo.CreateCouple(ctx, booked, nil))
	require.NoError(t, repo.CreateCouple(ctx, cancelled, nil))

	paid := testutil.NewTestInvoice(t, user.ID, booked.ID, "INV-2026-0001", testutil.Date(2026, 1, 5))
	paid.Status = model.InvoicePaid
	late := testutil.NewTestInvoice(t, user.ID, booked.ID, "INV-2026-0002", testutil.Date(2026, 1, 5))
	late.Status = model.InvoiceSent
	current := testutil.NewTestInvoice(t, user.ID, booked.ID, "INV-2026-0003", testutil.Date(2026, 3, 5))
	current.Status = model.InvoiceSent
	current.Items[0].UnitPriceCents = 20000
	current.Recalculate()
	for _, inv := range []*model.Invoice{paid, late, current} {
		require.NoError(t, repo.CreateInvoice(ctx, inv))
	}

	task := testutil.NewTestTask(t, user.ID)
	task.DueDate = testutil.DatePtr(2026, 3, 1)
	require.NoError(t, repo.CreateTask(ctx, task))

	now := time.Date(2026, 3, 10, 1, 0, 0, 0, time.UTC)
	m, err := repo.GetDashboardMetrics(ctx, user.ID, DashboardWindow{
		Now:        now,
		Today:      testutil.Date(2026, 3, 10),
		MonthStart: testutil.Date(2026, 3, 1),
		MonthEnd:   testutil.Date(2026, 4, 1),
		WindowEnd:  testutil.Date(2026, 4, 9),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, m.TotalCouples)
	assert.Equal(t, 1, m.ActiveCouples)
	assert.Equal(t, 1, m.CouplesByStatus[model.CoupleBooked])
	assert.Equal(t, int64(55000), m.TotalRevenueCents)
	assert.Equal(t, 1, m.OutstandingInvoices)
	assert.Equal(t, int64(22000), m.OutstandingCents)
	assert.Equal(t, 1, m.OverdueInvoices)
	assert.Equal(t, int64(55000), m.OverdueCents)
	assert.Equal(t, 1, m.OpenTasks)
	assert.Equal(t, 1, m.OverdueTasks)
}
