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

func newTestCeremonyService(t *testing.T) (*CeremonyService, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	return NewCeremonyService(store, testClock(t), nil, discardLogger()), store
}

func TestCeremonyService_CreateCeremony(t *testing.T) {
	t.Parallel()
	svc, store := newTestCeremonyService(t)
	user, couple := seedCouple(t, store)

	at := time.Date(2026, time.June, 20, 5, 0, 0, 0, time.UTC)
	c, err := svc.CreateCeremony(context.Background(), CreateCeremonyInput{
		UserID:       user.ID,
		CoupleID:     couple.ID,
		CeremonyDate: at,
		VenueName:    " Botanic Gardens ",
		FeeCents:     85000,
	})
	require.NoError(t, err)

	assert.Equal(t, "Botanic Gardens", c.VenueName)
	assert.Equal(t, "wedding", c.CeremonyType)
	assert.Equal(t, model.CeremonyPlanned, c.Status)
	assert.Equal(t, at, c.CeremonyDate)
}

func TestCeremonyService_CreateCeremonyErrors(t *testing.T) {
	t.Parallel()
	svc, store := newTestCeremonyService(t)
	user, couple := seedCouple(t, store)
	at := testNow.AddDate(0, 1, 0)

	testCases := []struct {
		name  string
		input CreateCeremonyInput
		want  error
	}{
		{"missing date", CreateCeremonyInput{UserID: user.ID, CoupleID: couple.ID}, ErrValidation},
		{"negative fee", CreateCeremonyInput{UserID: user.ID, CoupleID: couple.ID, CeremonyDate: at, FeeCents: -1}, ErrValidation},
		{"bad status", CreateCeremonyInput{UserID: user.ID, CoupleID: couple.ID, CeremonyDate: at, Status: "postponed"}, ErrValidation},
		{"unknown couple", CreateCeremonyInput{UserID: user.ID, CoupleID: "missing", CeremonyDate: at}, ErrCoupleNotFound},
		{"other user's couple", CreateCeremonyInput{UserID: "intruder", CoupleID: couple.ID, CeremonyDate: at}, ErrCoupleNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateCeremony(context.Background(), tc.input)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCeremonyService_ListUpcoming(t *testing.T) {
	t.Parallel()
	svc, store := newTestCeremonyService(t)
	user, couple := seedCouple(t, store)

	past := testutil.NewTestCeremony(t, user.ID, couple.ID, testNow.Add(-time.Hour))
	soon := testutil.NewTestCeremony(t, user.ID, couple.ID, testNow.Add(24*time.Hour))
	later := testutil.NewTestCeremony(t, user.ID, couple.ID, testNow.Add(72*time.Hour))
	cancelled := testutil.NewTestCeremony(t, user.ID, couple.ID, testNow.Add(48*time.Hour))
	cancelled.Status = model.CeremonyCancelled
	for _, c := range []*model.Ceremony{past, later, soon, cancelled} {
		store.AddCeremony(c)
	}

	page, err := svc.ListCeremonies(context.Background(), ListCeremoniesInput{UserID: user.ID, Upcoming: true})
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)
	assert.Equal(t, soon.ID, page.Items[0].ID)
	assert.Equal(t, later.ID, page.Items[1].ID)

	page, err = svc.ListCeremonies(context.Background(), ListCeremoniesInput{UserID: user.ID})
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total)
	assert.Equal(t, past.ID, page.Items[0].ID)
}

func TestCeremonyService_UpdateCeremony(t *testing.T) {
	t.Parallel()
	svc, store := newTestCeremonyService(t)
	user, couple := seedCouple(t, store)
	c := testutil.NewTestCeremony(t, user.ID, couple.ID, testNow.AddDate(0, 2, 0))
	store.AddCeremony(c)
	ctx := context.Background()

	updated, err := svc.UpdateCeremony(ctx, UpdateCeremonyInput{
		UserID:   user.ID,
		ID:       c.ID,
		Status:   ptr(model.CeremonyConfirmed),
		FeeCents: ptr(int64(90000)),
	})
	require.NoError(t, err)
	assert.Equal(t, model.CeremonyConfirmed, updated.Status)
	assert.Equal(t, int64(90000), updated.FeeCents)
	assert.Equal(t, c.VenueName, updated.VenueName)

	_, err = svc.UpdateCeremony(ctx, UpdateCeremonyInput{UserID: user.ID, ID: c.ID, FeeCents: ptr(int64(-5))})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.UpdateCeremony(ctx, UpdateCeremonyInput{UserID: "intruder", ID: c.ID})
	assert.ErrorIs(t, err, ErrCeremonyNotFound)
}

func TestCeremonyService_DeleteCeremony(t *testing.T) {
	t.Parallel()
	svc, store := newTestCeremonyService(t)
	user, couple := seedCouple(t, store)
	c := testutil.NewTestCeremony(t, user.ID, couple.ID, testNow)
	store.AddCeremony(c)

	assert.ErrorIs(t, svc.DeleteCeremony(context.Background(), "intruder", c.ID), ErrCeremonyNotFound)
	require.NoError(t, svc.DeleteCeremony(context.Background(), user.ID, c.ID))

	_, err := svc.GetCeremony(context.Background(), user.ID, c.ID)
	assert.ErrorIs(t, err, ErrCeremonyNotFound)
}
