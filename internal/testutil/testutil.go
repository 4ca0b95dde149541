// Package testutil holds helpers shared by unit and integration tests.
package testutil

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/vowline/vowline/internal/model"
	"github.com/vowline/vowline/migrations"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 420420

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetSchema drops and recreates every table by running the embedded down
// migrations in reverse order followed by the up migrations.
func ResetSchema(ctx context.Context, pool *pgxpool.Pool) error {
	downs, err := migrationFiles(".down.sql")
	if err != nil {
		return err
	}
	for i := len(downs) - 1; i >= 0; i-- {
		if err := execMigration(ctx, pool, downs[i]); err != nil {
			return err
		}
	}
	// golang-migrate bookkeeping would otherwise claim the schema is current.
	if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS schema_migrations"); err != nil {
		return fmt.Errorf("drop schema_migrations: %w", err)
	}

	ups, err := migrationFiles(".up.sql")
	if err != nil {
		return err
	}
	for _, name := range ups {
		if err := execMigration(ctx, pool, name); err != nil {
			return err
		}
	}

	return nil
}

func migrationFiles(suffix string) ([]string, error) {
	entries, err := fs.ReadDir(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	var names []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), suffix) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func execMigration(ctx context.Context, pool *pgxpool.Pool, name string) error {
	sql, err := fs.ReadFile(migrations.FS, name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if _, err := pool.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("apply %s: %w", name, err)
	}
	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ============================================================================
// Test Data Factories
// ============================================================================

var seq atomic.Int64

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d-%d", prefix, time.Now().UnixNano(), seq.Add(1))
}

// UniqueEmail generates a unique email address for tests.
func UniqueEmail(prefix string) string {
	return strings.ToLower(UniqueID(prefix)) + "@example.com"
}

// Date returns a calendar date as midnight UTC.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DatePtr returns a pointer to a calendar date.
func DatePtr(year int, month time.Month, day int) *time.Time {
	d := Date(year, month, day)
	return &d
}

// NewTestUser creates an active test user with sensible defaults. The
// password hash is a placeholder; tests that log in hash a real password.
func NewTestUser(t testing.TB) *model.User {
	t.Helper()
	now := time.Now().UTC()
	return &model.User{
		ID:           UniqueID("user"),
		Email:        UniqueEmail("celebrant"),
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA",
		FullName:     "Jordan Celebrant",
		BusinessName: "Vows by Jordan",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NewTestCouple creates a test couple owned by userID.
func NewTestCouple(t testing.TB, userID string) *model.Couple {
	t.Helper()
	now := time.Now().UTC()
	return &model.Couple{
		ID:            UniqueID("couple"),
		UserID:        userID,
		Partner1Name:  "Alex Smith",
		Partner1Email: "alex@example.com",
		Partner2Name:  "Sam Jones",
		Partner2Email: "sam@example.com",
		Status:        model.CoupleInquiry,
		Tags:          []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// NewTestCeremony creates a planned ceremony for a couple.
func NewTestCeremony(t testing.TB, userID, coupleID string, at time.Time) *model.Ceremony {
	t.Helper()
	now := time.Now().UTC()
	return &model.Ceremony{
		ID:           UniqueID("ceremony"),
		UserID:       userID,
		CoupleID:     coupleID,
		CeremonyDate: at.UTC(),
		VenueName:    "Botanic Gardens",
		CeremonyType: "wedding",
		Status:       model.CeremonyPlanned,
		FeeCents:     80000,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NewTestInvoice creates a draft invoice with one item and computed totals.
func NewTestInvoice(t testing.TB, userID, coupleID, number string, issue time.Time) *model.Invoice {
	t.Helper()
	now := time.Now().UTC()
	inv := &model.Invoice{
		ID:            UniqueID("invoice"),
		UserID:        userID,
		CoupleID:      coupleID,
		InvoiceNumber: number,
		Status:        model.InvoiceDraft,
		IssueDate:     model.DateOf(issue),
		DueDate:       model.DateOf(issue).AddDate(0, 0, 14),
		TaxRateBP:     1000,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	inv.Items = []*model.InvoiceItem{{
		ID:             UniqueID("item"),
		InvoiceID:      inv.ID,
		Description:    "Ceremony fee",
		Quantity:       1,
		UnitPriceCents: 50000,
	}}
	inv.Recalculate()
	return inv
}

// NewTestLegalForm creates a required form for a couple.
func NewTestLegalForm(t testing.TB, userID, coupleID string, formType model.FormType) *model.LegalForm {
	t.Helper()
	now := time.Now().UTC()
	return &model.LegalForm{
		ID:        UniqueID("form"),
		UserID:    userID,
		CoupleID:  coupleID,
		FormType:  formType,
		Status:    model.FormRequired,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTestTask creates an open medium-priority task.
func NewTestTask(t testing.TB, userID string) *model.Task {
	t.Helper()
	now := time.Now().UTC()
	return &model.Task{
		ID:        UniqueID("task"),
		UserID:    userID,
		Title:     "Follow up",
		Priority:  model.PriorityMedium,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTestEmailTemplate creates a template using couple placeholders.
func NewTestEmailTemplate(t testing.TB, userID, name string) *model.EmailTemplate {
	t.Helper()
	now := time.Now().UTC()
	return &model.EmailTemplate{
		ID:        UniqueID("template"),
		UserID:    userID,
		Name:      name,
		Category:  "booking",
		Subject:   "Hello {{.CoupleName}}",
		Body:      "Dear {{.Partner1Name}} and {{.Partner2Name}},\n\n{{.CelebrantName}}",
		CreatedAt: now,
		UpdatedAt: now,
	}
}
