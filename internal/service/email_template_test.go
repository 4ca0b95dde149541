package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vowline/vowline/internal/model"
	"github.com/vowline/vowline/internal/testutil"
	"github.com/vowline/vowline/internal/testutil/memstore"
)

func newTestEmailTemplateService(t *testing.T) (*EmailTemplateService, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	return NewEmailTemplateService(store, testClock(t), nil, discardLogger()), store
}

func TestEmailTemplateService_Create(t *testing.T) {
	t.Parallel()
	svc, _ := newTestEmailTemplateService(t)
	ctx := context.Background()

	tmpl, err := svc.CreateEmailTemplate(ctx, CreateEmailTemplateInput{
		UserID:   "user-1",
		Name:     " Booking confirmation ",
		Category: "booking",
		Subject:  "See you on {{.WeddingDate}}",
		Body:     "Hi {{.Partner1Name}} and {{.Partner2Name}}",
	})
	require.NoError(t, err)
	assert.Equal(t, "Booking confirmation", tmpl.Name)

	_, err = svc.CreateEmailTemplate(ctx, CreateEmailTemplateInput{
		UserID:  "user-1",
		Name:    "Booking confirmation",
		Subject: "Again",
	})
	assert.ErrorIs(t, err, ErrTemplateNameExists)

	// Same name for another celebrant is fine.
	_, err = svc.CreateEmailTemplate(ctx, CreateEmailTemplateInput{
		UserID:  "user-2",
		Name:    "Booking confirmation",
		Subject: "Hello",
	})
	assert.NoError(t, err)
}

func TestEmailTemplateService_CreateRejectsBadTemplates(t *testing.T) {
	t.Parallel()
	svc, _ := newTestEmailTemplateService(t)

	testCases := []struct {
		name, subject, body string
	}{
		{"missing subject", "", "body"},
		{"unclosed action", "Hi", "Dear {{.Partner1Name"},
		{"unknown placeholder", "Hi {{.Nickname}}", "body"},
		{"unknown body placeholder", "Hi", "{{.Venue}}"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateEmailTemplate(context.Background(), CreateEmailTemplateInput{
				UserID:  "user-1",
				Name:    tc.name,
				Subject: tc.subject,
				Body:    tc.body,
			})
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestEmailTemplateService_Render(t *testing.T) {
	t.Parallel()
	svc, store := newTestEmailTemplateService(t)
	user := testutil.NewTestUser(t)
	store.AddUser(user)
	couple := testutil.NewTestCouple(t, user.ID)
	couple.WeddingDate = testutil.DatePtr(2026, time.June, 20)
	couple.Partner2Email = ""
	store.AddCouple(couple)
	tmpl := testutil.NewTestEmailTemplate(t, user.ID, "Welcome")
	tmpl.Body = "Dear {{.Partner1Name}} and {{.Partner2Name}}, see you {{.WeddingDate}}. {{.CelebrantName}}, {{.BusinessName}}"
	store.AddEmailTemplate(tmpl)
	ctx := context.Background()

	rendered, err := svc.Render(ctx, RenderInput{UserID: user.ID, TemplateID: tmpl.ID, CoupleID: couple.ID})
	require.NoError(t, err)

	assert.Equal(t, "Hello Alex Smith & Sam Jones", rendered.Subject)
	assert.Equal(t, "Dear Alex Smith and Sam Jones, see you 20 June 2026. Jordan Celebrant, Vows by Jordan", rendered.Body)
	assert.Equal(t, []string{"alex@example.com"}, rendered.To)
	assert.Empty(t, store.Communications(couple.ID))

	_, err = svc.Render(ctx, RenderInput{UserID: user.ID, TemplateID: tmpl.ID, CoupleID: couple.ID, Log: true})
	require.NoError(t, err)

	logs := store.Communications(couple.ID)
	require.Len(t, logs, 1)
	assert.Equal(t, model.ChannelEmail, logs[0].Channel)
	assert.Equal(t, model.DirectionOutbound, logs[0].Direction)
	assert.Equal(t, rendered.Subject, logs[0].Subject)
	assert.Equal(t, testNow, logs[0].OccurredAt)
}

func TestEmailTemplateService_RenderScopedToOwner(t *testing.T) {
	t.Parallel()
	svc, store := newTestEmailTemplateService(t)
	user, couple := seedCouple(t, store)
	tmpl := testutil.NewTestEmailTemplate(t, user.ID, "Welcome")
	store.AddEmailTemplate(tmpl)
	ctx := context.Background()

	_, err := svc.Render(ctx, RenderInput{UserID: "intruder", TemplateID: tmpl.ID, CoupleID: couple.ID})
	assert.ErrorIs(t, err, ErrEmailTemplateNotFound)

	other := testutil.NewTestCouple(t, "intruder")
	store.AddCouple(other)
	_, err = svc.Render(ctx, RenderInput{UserID: user.ID, TemplateID: tmpl.ID, CoupleID: other.ID})
	assert.ErrorIs(t, err, ErrCoupleNotFound)
}

func TestEmailTemplateService_RenderStoredBrokenTemplate(t *testing.T) {
	t.Parallel()
	svc, store := newTestEmailTemplateService(t)
	user, couple := seedCouple(t, store)
	tmpl := testutil.NewTestEmailTemplate(t, user.ID, "Legacy")
	tmpl.Body = "{{.Missing}}"
	store.AddEmailTemplate(tmpl)

	_, err := svc.Render(context.Background(), RenderInput{UserID: user.ID, TemplateID: tmpl.ID, CoupleID: couple.ID})
	assert.ErrorIs(t, err, ErrTemplateRender)
}

func TestEmailTemplateService_UpdateAndList(t *testing.T) {
	t.Parallel()
	svc, store := newTestEmailTemplateService(t)
	for _, name := range []string{"Zeta", "Alpha", "Follow-up"} {
		tmpl := testutil.NewTestEmailTemplate(t, "user-1", name)
		if name == "Follow-up" {
			tmpl.Category = "crm"
		}
		store.AddEmailTemplate(tmpl)
	}
	ctx := context.Background()

	page, err := svc.ListEmailTemplates(ctx, ListEmailTemplatesInput{UserID: "user-1"})
	require.NoError(t, err)
	require.Equal(t, 3, page.Total)
	assert.Equal(t, "Alpha", page.Items[0].Name)

	page, err = svc.ListEmailTemplates(ctx, ListEmailTemplatesInput{UserID: "user-1", Category: "crm"})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	target := page.Items[0]

	updated, err := svc.UpdateEmailTemplate(ctx, UpdateEmailTemplateInput{
		UserID: "user-1",
		ID:     target.ID,
		Body:   ptr("Checking in, {{.CoupleName}}"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Checking in, {{.CoupleName}}", updated.Body)
	assert.Equal(t, "Follow-up", updated.Name)

	_, err = svc.UpdateEmailTemplate(ctx, UpdateEmailTemplateInput{UserID: "user-1", ID: target.ID, Name: ptr("Alpha")})
	assert.ErrorIs(t, err, ErrTemplateNameExists)

	_, err = svc.UpdateEmailTemplate(ctx, UpdateEmailTemplateInput{UserID: "user-1", ID: target.ID, Body: ptr("{{if}}")})
	assert.ErrorIs(t, err, ErrValidation)

	require.NoError(t, svc.DeleteEmailTemplate(ctx, "user-1", target.ID))
	_, err = svc.GetEmailTemplate(ctx, "user-1", target.ID)
	assert.ErrorIs(t, err, ErrEmailTemplateNotFound)
}
