package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vowline/vowline/internal/compliance"
	"github.com/vowline/vowline/internal/model"
	"github.com/vowline/vowline/internal/testutil"
	"github.com/vowline/vowline/internal/testutil/memstore"
)

func newTestLegalFormService(t *testing.T) (*LegalFormService, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	return NewLegalFormService(store, testClock(t), 30, nil, discardLogger()), store
}

func TestLegalFormService_CreateNOIMDerivesDeadline(t *testing.T) {
	t.Parallel()
	svc, store := newTestLegalFormService(t)
	user := testutil.NewTestUser(t)
	couple := testutil.NewTestCouple(t, user.ID)
	couple.WeddingDate = testutil.DatePtr(2026, time.April, 1)
	store.AddCouple(couple)

	state, err := svc.CreateLegalForm(context.Background(), CreateLegalFormInput{
		UserID:   user.ID,
		CoupleID: couple.ID,
		FormType: model.FormNOIM,
	})
	require.NoError(t, err)

	require.NotNil(t, state.Form.DeadlineDate)
	assert.Equal(t, testutil.Date(2026, time.March, 2), *state.Form.DeadlineDate)
	assert.Equal(t, model.FormRequired, state.Form.Status)
	assert.True(t, state.IsOverdue)
	assert.Equal(t, compliance.UrgencyOverdue, state.Urgency)
	require.NotNil(t, state.DaysUntilDeadline)
	assert.Equal(t, -8, *state.DaysUntilDeadline)
}

func TestLegalFormService_CreateStampsStatusDates(t *testing.T) {
	t.Parallel()
	svc, store := newTestLegalFormService(t)
	user, couple := seedCouple(t, store)

	state, err := svc.CreateLegalForm(context.Background(), CreateLegalFormInput{
		UserID:   user.ID,
		CoupleID: couple.ID,
		FormType: model.FormIdentityEvidence,
		Status:   model.FormApproved,
	})
	require.NoError(t, err)

	today := testutil.Date(2026, time.March, 10)
	require.NotNil(t, state.Form.SubmittedDate)
	require.NotNil(t, state.Form.ApprovedDate)
	assert.Equal(t, today, *state.Form.SubmittedDate)
	assert.Equal(t, today, *state.Form.ApprovedDate)
	assert.Nil(t, state.Form.DeadlineDate)
}

func TestLegalFormService_CreateValidation(t *testing.T) {
	t.Parallel()
	svc, store := newTestLegalFormService(t)
	user, couple := seedCouple(t, store)

	_, err := svc.CreateLegalForm(context.Background(), CreateLegalFormInput{UserID: user.ID, CoupleID: couple.ID, FormType: "passport"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateLegalForm(context.Background(), CreateLegalFormInput{UserID: user.ID, CoupleID: couple.ID, FormType: model.FormNOIM, Status: "lost"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateLegalForm(context.Background(), CreateLegalFormInput{UserID: "intruder", CoupleID: couple.ID, FormType: model.FormNOIM})
	assert.ErrorIs(t, err, ErrCoupleNotFound)
}

func TestLegalFormService_UpdateTransitions(t *testing.T) {
	t.Parallel()
	svc, store := newTestLegalFormService(t)
	user, couple := seedCouple(t, store)
	form := testutil.NewTestLegalForm(t, user.ID, couple.ID, model.FormNOIM)
	store.AddLegalForm(form)
	ctx := context.Background()

	state, err := svc.UpdateLegalForm(ctx, UpdateLegalFormInput{UserID: user.ID, ID: form.ID, Status: ptr(model.FormSubmitted)})
	require.NoError(t, err)
	require.NotNil(t, state.Form.SubmittedDate)
	assert.Nil(t, state.Form.ApprovedDate)

	state, err = svc.UpdateLegalForm(ctx, UpdateLegalFormInput{UserID: user.ID, ID: form.ID, Status: ptr(model.FormRejected)})
	require.NoError(t, err)
	assert.Equal(t, model.FormRejected, state.Form.Status)

	state, err = svc.UpdateLegalForm(ctx, UpdateLegalFormInput{UserID: user.ID, ID: form.ID, Status: ptr(model.FormSubmitted)})
	require.NoError(t, err)
	assert.Equal(t, model.FormSubmitted, state.Form.Status)

	state, err = svc.UpdateLegalForm(ctx, UpdateLegalFormInput{UserID: user.ID, ID: form.ID, Status: ptr(model.FormExpired)})
	require.NoError(t, err)
	assert.Equal(t, model.FormExpired, state.Form.Status)

	_, err = svc.UpdateLegalForm(ctx, UpdateLegalFormInput{UserID: user.ID, ID: form.ID, Status: ptr(model.FormApproved)})
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	_, err = svc.UpdateLegalForm(ctx, UpdateLegalFormInput{UserID: "intruder", ID: form.ID})
	assert.ErrorIs(t, err, ErrLegalFormNotFound)
}

func TestLegalFormService_ListFilters(t *testing.T) {
	t.Parallel()
	svc, store := newTestLegalFormService(t)
	user, couple := seedCouple(t, store)
	ctx := context.Background()

	overdue := testutil.NewTestLegalForm(t, user.ID, couple.ID, model.FormNOIM)
	overdue.DeadlineDate = testutil.DatePtr(2026, time.March, 9)

	approvedLate := testutil.NewTestLegalForm(t, user.ID, couple.ID, model.FormDeclaration)
	approvedLate.Status = model.FormApproved
	approvedLate.DeadlineDate = testutil.DatePtr(2026, time.March, 1)

	expiring := testutil.NewTestLegalForm(t, user.ID, couple.ID, model.FormIdentityEvidence)
	expiring.Status = model.FormApproved
	expiring.ExpiryDate = testutil.DatePtr(2026, time.April, 9)

	beyondWindow := testutil.NewTestLegalForm(t, user.ID, couple.ID, model.FormDivorceEvidence)
	beyondWindow.ExpiryDate = testutil.DatePtr(2026, time.April, 10)

	dueToday := testutil.NewTestLegalForm(t, user.ID, couple.ID, model.FormOther)
	dueToday.DeadlineDate = testutil.DatePtr(2026, time.March, 10)

	for _, f := range []*model.LegalForm{overdue, approvedLate, expiring, beyondWindow, dueToday} {
		store.AddLegalForm(f)
	}

	page, err := svc.ListLegalForms(ctx, ListLegalFormsInput{UserID: user.ID, Overdue: true})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, overdue.ID, page.Items[0].Form.ID)
	assert.True(t, page.Items[0].IsOverdue)

	page, err = svc.ListLegalForms(ctx, ListLegalFormsInput{UserID: user.ID, ExpiringSoon: true})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, expiring.ID, page.Items[0].Form.ID)
	assert.True(t, page.Items[0].IsExpiringSoon)

	page, err = svc.ListLegalForms(ctx, ListLegalFormsInput{UserID: user.ID})
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)

	page, err = svc.ListLegalForms(ctx, ListLegalFormsInput{UserID: "intruder"})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	assert.NotNil(t, page.Items)
}

func TestLegalFormService_Alerts(t *testing.T) {
	t.Parallel()
	svc, store := newTestLegalFormService(t)
	user, couple := seedCouple(t, store)

	expiring := testutil.NewTestLegalForm(t, user.ID, couple.ID, model.FormIdentityEvidence)
	expiring.Status = model.FormApproved
	expiring.ExpiryDate = testutil.DatePtr(2026, time.March, 20)
	overdue := testutil.NewTestLegalForm(t, user.ID, couple.ID, model.FormNOIM)
	overdue.DeadlineDate = testutil.DatePtr(2026, time.February, 1)
	fine := testutil.NewTestLegalForm(t, user.ID, couple.ID, model.FormOther)
	for _, f := range []*model.LegalForm{expiring, overdue, fine} {
		store.AddLegalForm(f)
	}

	alerts, err := svc.Alerts(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, overdue.ID, alerts[0].Form.ID)
	assert.Equal(t, expiring.ID, alerts[1].Form.ID)

	alerts, err = svc.Alerts(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, alerts)
	assert.Empty(t, alerts)
}

func TestLegalFormService_Compliance(t *testing.T) {
	t.Parallel()
	svc, store := newTestLegalFormService(t)
	user, couple := seedCouple(t, store)
	ctx := context.Background()

	summary, err := svc.Compliance(ctx, user.ID, couple.ID)
	require.NoError(t, err)
	assert.Equal(t, compliance.StatusIncomplete, summary.Status)

	noim := testutil.NewTestLegalForm(t, user.ID, couple.ID, model.FormNOIM)
	noim.DeadlineDate = testutil.DatePtr(2026, time.May, 1)
	store.AddLegalForm(noim)

	summary, err = svc.Compliance(ctx, user.ID, couple.ID)
	require.NoError(t, err)
	assert.Equal(t, compliance.StatusPending, summary.Status)

	_, err = svc.UpdateLegalForm(ctx, UpdateLegalFormInput{UserID: user.ID, ID: noim.ID, Status: ptr(model.FormApproved)})
	require.NoError(t, err)

	summary, err = svc.Compliance(ctx, user.ID, couple.ID)
	require.NoError(t, err)
	assert.Equal(t, compliance.StatusCompliant, summary.Status)

	_, err = svc.Compliance(ctx, "intruder", couple.ID)
	assert.ErrorIs(t, err, ErrCoupleNotFound)
}

func TestLegalFormService_DefaultWindow(t *testing.T) {
	t.Parallel()
	svc := NewLegalFormService(memstore.New(), testClock(t), 0, nil, nil)
	assert.Equal(t, DefaultExpiryWindowDays, svc.windowDays)
}
