package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vowline/vowline/internal/metrics"
	"github.com/vowline/vowline/internal/model"
	"github.com/vowline/vowline/internal/testutil"
	"github.com/vowline/vowline/internal/testutil/memstore"
)

func TestDashboardService_Metrics(t *testing.T) {
	t.Parallel()
	store := memstore.New()
	recorder := metrics.NewInMemory()
	svc := NewDashboardService(store, testClock(t), 30, recorder, discardLogger())

	user, couple := seedCouple(t, store)
	booked := testutil.NewTestCouple(t, user.ID)
	booked.Status = model.CoupleBooked
	booked.CreatedAt = testNow.AddDate(0, -2, 0)
	store.AddCouple(booked)
	done := testutil.NewTestCouple(t, user.ID)
	done.Status = model.CoupleCompleted
	done.CreatedAt = testNow.AddDate(0, -3, 0)
	store.AddCouple(done)

	// Another celebrant's data must not leak in.
	other := testutil.NewTestCouple(t, "other")
	store.AddCouple(other)
	otherPaid := testutil.NewTestInvoice(t, "other", other.ID, "INV-2026-0001", testNow)
	otherPaid.Status = model.InvoicePaid
	store.AddInvoice(otherPaid)

	store.AddCeremony(testutil.NewTestCeremony(t, user.ID, couple.ID, testNow.Add(48*time.Hour)))
	store.AddCeremony(testutil.NewTestCeremony(t, user.ID, booked.ID, testNow.AddDate(0, -1, 0)))

	paid1 := testutil.NewTestInvoice(t, user.ID, couple.ID, "INV-2026-0001", testNow)
	paid1.Status = model.InvoicePaid
	paid2 := testutil.NewTestInvoice(t, user.ID, booked.ID, "INV-2026-0002", testNow)
	paid2.Status = model.InvoicePaid
	sentLate := testutil.NewTestInvoice(t, user.ID, booked.ID, "INV-2026-0003", testNow.AddDate(0, 0, -30))
	sentLate.Status = model.InvoiceSent
	sentCurrent := testutil.NewTestInvoice(t, user.ID, couple.ID, "INV-2026-0004", testNow)
	sentCurrent.Status = model.InvoiceSent
	for _, inv := range []*model.Invoice{paid1, paid2, sentLate, sentCurrent} {
		store.AddInvoice(inv)
	}

	lateForm := testutil.NewTestLegalForm(t, user.ID, couple.ID, model.FormNOIM)
	lateForm.DeadlineDate = testutil.DatePtr(2026, time.March, 1)
	store.AddLegalForm(lateForm)

	task := testutil.NewTestTask(t, user.ID)
	task.DueDate = testutil.DatePtr(2026, time.March, 9)
	store.AddTask(task)

	m, err := svc.Metrics(context.Background(), user.ID)
	require.NoError(t, err)

	assert.Equal(t, 3, m.TotalCouples)
	assert.Equal(t, 2, m.ActiveCouples)
	assert.Equal(t, 1, m.CouplesByStatus[model.CoupleBooked])
	assert.Equal(t, 2, m.TotalCeremonies)
	assert.Equal(t, 1, m.UpcomingCeremonies)
	assert.Equal(t, paid1.TotalCents+paid2.TotalCents, m.TotalRevenueCents)
	// Outstanding and overdue never count the same invoice.
	assert.Equal(t, 1, m.OutstandingInvoices)
	assert.Equal(t, sentCurrent.TotalCents, m.OutstandingCents)
	assert.Equal(t, 1, m.OverdueInvoices)
	assert.Equal(t, sentLate.TotalCents, m.OverdueCents)
	assert.Equal(t, 1, m.PendingLegalForms)
	assert.Equal(t, 1, m.OverdueLegalForms)
	assert.Equal(t, 1, m.OpenTasks)
	assert.Equal(t, 1, m.OverdueTasks)

	assert.Equal(t, uint64(1), recorder.Snapshot().DashboardCount)
}

func TestDashboardService_Upcoming(t *testing.T) {
	t.Parallel()
	store := memstore.New()
	svc := NewDashboardService(store, testClock(t), 0, nil, nil)
	user, couple := seedCouple(t, store)

	in10 := testutil.NewTestCeremony(t, user.ID, couple.ID, testNow.AddDate(0, 0, 10))
	in60 := testutil.NewTestCeremony(t, user.ID, couple.ID, testNow.AddDate(0, 0, 60))
	cancelled := testutil.NewTestCeremony(t, user.ID, couple.ID, testNow.AddDate(0, 0, 5))
	cancelled.Status = model.CeremonyCancelled
	for _, c := range []*model.Ceremony{in10, in60, cancelled} {
		store.AddCeremony(c)
	}

	testCases := []struct {
		days int
		want int
	}{
		{0, 1},    // default 30
		{90, 2},   // both
		{9, 0},    // none yet
		{1000, 1}, // out of range falls back to 30
	}

	for _, tc := range testCases {
		got, err := svc.Upcoming(context.Background(), user.ID, tc.days)
		require.NoError(t, err)
		assert.Len(t, got, tc.want, "days=%d", tc.days)
	}
}
