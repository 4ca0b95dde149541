package service

import (
	"io"
	"log/slog"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/vowline/vowline/internal/model"
	"github.com/vowline/vowline/internal/testutil"
	"github.com/vowline/vowline/internal/testutil/memstore"
)

// testNow is 2026-03-10 21:00 in Sydney.
var testNow = time.Date(2026, time.March, 10, 10, 0, 0, 0, time.UTC)

func testClock(t testing.TB) Clock {
	t.Helper()
	loc, err := time.LoadLocation("Australia/Sydney")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return FixedClock(testNow, loc)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr[T any](v T) *T {
	return &v
}

// seedCouple stores a user and one of their couples.
func seedCouple(t testing.TB, store *memstore.Store) (*model.User, *model.Couple) {
	t.Helper()
	user := testutil.NewTestUser(t)
	store.AddUser(user)
	couple := testutil.NewTestCouple(t, user.ID)
	store.AddCouple(couple)
	return user, couple
}
