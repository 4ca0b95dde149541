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

func newTestTaskService(t *testing.T) (*TaskService, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	return NewTaskService(store, testClock(t), nil, discardLogger()), store
}

func TestTaskService_CreateTask(t *testing.T) {
	t.Parallel()
	svc, store := newTestTaskService(t)
	user, couple := seedCouple(t, store)
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, CreateTaskInput{
		UserID:   user.ID,
		CoupleID: &couple.ID,
		Title:    "  Send NOIM reminder ",
		DueDate:  ptr(time.Date(2026, time.March, 12, 15, 30, 0, 0, time.UTC)),
	})
	require.NoError(t, err)
	assert.Equal(t, "Send NOIM reminder", task.Title)
	assert.Equal(t, model.PriorityMedium, task.Priority)
	assert.Equal(t, testutil.Date(2026, time.March, 12), *task.DueDate)
	assert.False(t, task.Completed)

	standalone, err := svc.CreateTask(ctx, CreateTaskInput{UserID: user.ID, CoupleID: ptr(""), Title: "Renew registration"})
	require.NoError(t, err)
	assert.Nil(t, standalone.CoupleID)

	_, err = svc.CreateTask(ctx, CreateTaskInput{UserID: user.ID, Title: " "})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateTask(ctx, CreateTaskInput{UserID: user.ID, Title: "x", Priority: "urgent"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateTask(ctx, CreateTaskInput{UserID: "intruder", CoupleID: &couple.ID, Title: "x"})
	assert.ErrorIs(t, err, ErrCoupleNotFound)
}

func TestTaskService_CompleteAndReopen(t *testing.T) {
	t.Parallel()
	svc, store := newTestTaskService(t)
	user := testutil.NewTestUser(t)
	task := testutil.NewTestTask(t, user.ID)
	store.AddTask(task)
	ctx := context.Background()

	done, err := svc.UpdateTask(ctx, UpdateTaskInput{UserID: user.ID, ID: task.ID, Completed: ptr(true)})
	require.NoError(t, err)
	assert.True(t, done.Completed)
	require.NotNil(t, done.CompletedAt)
	assert.Equal(t, testNow, *done.CompletedAt)

	reopened, err := svc.UpdateTask(ctx, UpdateTaskInput{UserID: user.ID, ID: task.ID, Completed: ptr(false)})
	require.NoError(t, err)
	assert.False(t, reopened.Completed)
	assert.Nil(t, reopened.CompletedAt)

	_, err = svc.UpdateTask(ctx, UpdateTaskInput{UserID: "intruder", ID: task.ID, Completed: ptr(true)})
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestTaskService_ListTasks(t *testing.T) {
	t.Parallel()
	svc, store := newTestTaskService(t)
	user := testutil.NewTestUser(t)
	ctx := context.Background()

	overdue := testutil.NewTestTask(t, user.ID)
	overdue.DueDate = testutil.DatePtr(2026, time.March, 1)
	overdue.Priority = model.PriorityHigh
	upcoming := testutil.NewTestTask(t, user.ID)
	upcoming.DueDate = testutil.DatePtr(2026, time.March, 20)
	done := testutil.NewTestTask(t, user.ID)
	done.DueDate = testutil.DatePtr(2026, time.February, 1)
	done.Completed = true
	for _, task := range []*model.Task{done, upcoming, overdue} {
		store.AddTask(task)
	}

	page, err := svc.ListTasks(ctx, ListTasksInput{UserID: user.ID})
	require.NoError(t, err)
	require.Equal(t, 3, page.Total)
	assert.Equal(t, overdue.ID, page.Items[0].ID)
	assert.Equal(t, upcoming.ID, page.Items[1].ID)
	assert.Equal(t, done.ID, page.Items[2].ID)

	page, err = svc.ListTasks(ctx, ListTasksInput{UserID: user.ID, Overdue: true})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.True(t, page.Items[0].IsOverdue(svc.Today()))

	page, err = svc.ListTasks(ctx, ListTasksInput{UserID: user.ID, Completed: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	page, err = svc.ListTasks(ctx, ListTasksInput{UserID: user.ID, Priority: model.PriorityHigh})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
}

func TestTaskService_UpdateClearsFields(t *testing.T) {
	t.Parallel()
	svc, store := newTestTaskService(t)
	user, couple := seedCouple(t, store)
	task := testutil.NewTestTask(t, user.ID)
	task.CoupleID = &couple.ID
	task.DueDate = testutil.DatePtr(2026, time.March, 20)
	store.AddTask(task)

	updated, err := svc.UpdateTask(context.Background(), UpdateTaskInput{
		UserID:        user.ID,
		ID:            task.ID,
		ClearCoupleID: true,
		ClearDueDate:  true,
		Title:         ptr("Call venue"),
	})
	require.NoError(t, err)
	assert.Nil(t, updated.CoupleID)
	assert.Nil(t, updated.DueDate)
	assert.Equal(t, "Call venue", updated.Title)
}

func TestTaskService_DeleteTask(t *testing.T) {
	t.Parallel()
	svc, store := newTestTaskService(t)
	user := testutil.NewTestUser(t)
	task := testutil.NewTestTask(t, user.ID)
	store.AddTask(task)

	assert.ErrorIs(t, svc.DeleteTask(context.Background(), "intruder", task.ID), ErrTaskNotFound)
	require.NoError(t, svc.DeleteTask(context.Background(), user.ID, task.ID))
	_, err := svc.GetTask(context.Background(), user.ID, task.ID)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}
