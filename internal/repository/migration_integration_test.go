//go:build integration

package repository

import (
	"context"
	"io/fs"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vowline/vowline/internal/testutil"
	"github.com/vowline/vowline/migrations"
)

// ============================================================================
// Migration Integration Tests
// ============================================================================

func TestIntegrationMigration_ApplyAllTables(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	tables := []string{
		"users",
		"refresh_tokens",
		"login_attempts",
		"couples",
		"ceremonies",
		"invoices",
		"invoice_items",
		"legal_forms",
		"communication_logs",
		"tasks",
		"email_templates",
	}

	for _, table := range tables {
		t.Run(table, func(t *testing.T) {
			exists, err := tableExists(ctx, pool, table)
			if err != nil {
				t.Fatalf("tableExists failed: %v", err)
			}
			if !exists {
				t.Errorf("Table %q should exist after migrations", table)
			}
		})
	}
}

func TestIntegrationMigration_TableColumns(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	columns := map[string][]string{
		"couples": {
			"id", "user_id", "partner1_name", "partner2_name", "status",
			"lead_source", "tags", "wedding_date", "notes", "created_at", "updated_at",
		},
		"invoices": {
			"id", "user_id", "couple_id", "ceremony_id", "invoice_number", "status",
			"issue_date", "due_date", "subtotal_cents", "tax_rate_bp", "tax_cents",
			"total_cents", "paid_date",
		},
		"invoice_items": {
			"id", "invoice_id", "position", "description", "quantity",
			"unit_price_cents", "amount_cents",
		},
		"legal_forms": {
			"id", "user_id", "couple_id", "ceremony_id", "form_type", "status",
			"deadline_date", "submitted_date", "approved_date", "expiry_date",
			"document_reference",
		},
		"refresh_tokens": {
			"id", "user_id", "token_hash", "expires_at", "revoked_at",
		},
		"tasks": {
			"id", "user_id", "couple_id", "title", "due_date", "priority",
			"completed", "completed_at",
		},
	}

	for table, cols := range columns {
		for _, col := range cols {
			t.Run(table+"."+col, func(t *testing.T) {
				exists, err := columnExists(ctx, pool, table, col)
				if err != nil {
					t.Fatalf("columnExists failed: %v", err)
				}
				if !exists {
					t.Errorf("Column %q should exist in %s table", col, table)
				}
			})
		}
	}
}

func TestIntegrationMigration_Constraints(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	seed := []string{
		`INSERT INTO users (id, email, password_hash) VALUES ('u1', 'u1@example.com', 'x')`,
		`INSERT INTO couples (id, user_id, partner1_name, partner2_name) VALUES ('c1', 'u1', 'A', 'B')`,
		`INSERT INTO invoices (id, user_id, couple_id, invoice_number, issue_date, due_date,
			subtotal_cents, tax_cents, total_cents)
		 VALUES ('i1', 'u1', 'c1', 'INV-0001', '2026-01-01', '2026-01-15', 1000, 100, 1100)`,
		`INSERT INTO email_templates (id, user_id, name, subject, body) VALUES ('t1', 'u1', 'Welcome', 's', 'b')`,
	}
	for _, stmt := range seed {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	tests := []struct {
		name string
		sql  string
	}{
		{
			name: "couple status check",
			sql: `INSERT INTO couples (id, user_id, partner1_name, partner2_name, status)
				VALUES ('c2', 'u1', 'A', 'B', 'eloped')`,
		},
		{
			name: "invoice total check",
			sql: `INSERT INTO invoices (id, user_id, couple_id, invoice_number, issue_date, due_date,
				subtotal_cents, tax_cents, total_cents)
				VALUES ('i2', 'u1', 'c1', 'INV-0002', '2026-01-01', '2026-01-15', 1000, 100, 999)`,
		},
		{
			name: "invoice number per user",
			sql: `INSERT INTO invoices (id, user_id, couple_id, invoice_number, issue_date, due_date)
				VALUES ('i3', 'u1', 'c1', 'INV-0001', '2026-01-01', '2026-01-15')`,
		},
		{
			name: "invoice item quantity",
			sql: `INSERT INTO invoice_items (id, invoice_id, position, description, quantity, unit_price_cents, amount_cents)
				VALUES ('it1', 'i1', 0, 'Fee', 0, 1000, 0)`,
		},
		{
			name: "legal form status check",
			sql: `INSERT INTO legal_forms (id, user_id, couple_id, form_type, status)
				VALUES ('f1', 'u1', 'c1', 'noim', 'lost')`,
		},
		{
			name: "communication channel check",
			sql: `INSERT INTO communication_logs (id, user_id, couple_id, channel, direction, occurred_at)
				VALUES ('m1', 'u1', 'c1', 'pigeon', 'inbound', NOW())`,
		},
		{
			name: "task priority check",
			sql:  `INSERT INTO tasks (id, user_id, title, priority) VALUES ('k1', 'u1', 'Call', 'urgent')`,
		},
		{
			name: "template name per user",
			sql:  `INSERT INTO email_templates (id, user_id, name, subject, body) VALUES ('t2', 'u1', 'Welcome', 's', 'b')`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := pool.Exec(ctx, tt.sql); err == nil {
				t.Errorf("expected constraint violation")
			}
		})
	}
}

func TestIntegrationMigration_CoupleDeleteCascades(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	stmts := []string{
		`INSERT INTO users (id, email, password_hash) VALUES ('u1', 'u1@example.com', 'x')`,
		`INSERT INTO couples (id, user_id, partner1_name, partner2_name) VALUES ('c1', 'u1', 'A', 'B')`,
		`INSERT INTO legal_forms (id, user_id, couple_id, form_type) VALUES ('f1', 'u1', 'c1', 'noim')`,
		`INSERT INTO tasks (id, user_id, couple_id, title) VALUES ('k1', 'u1', 'c1', 'Call')`,
		`DELETE FROM couples WHERE id = 'c1'`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}

	var forms int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM legal_forms`).Scan(&forms); err != nil {
		t.Fatalf("count forms: %v", err)
	}
	if forms != 0 {
		t.Errorf("legal forms should cascade with the couple, got %d", forms)
	}

	var coupleID *string
	if err := pool.QueryRow(ctx, `SELECT couple_id FROM tasks WHERE id = 'k1'`).Scan(&coupleID); err != nil {
		t.Fatalf("load task: %v", err)
	}
	if coupleID != nil {
		t.Errorf("task couple_id should be cleared, got %q", *coupleID)
	}
}

func TestIntegrationMigration_RollbackInvoices(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	downSQL, err := fs.ReadFile(migrations.FS, "000004_invoices.down.sql")
	if err != nil {
		t.Fatalf("read down migration: %v", err)
	}
	if _, err := pool.Exec(ctx, string(downSQL)); err != nil {
		t.Fatalf("apply down migration: %v", err)
	}

	for _, table := range []string{"invoices", "invoice_items"} {
		exists, err := tableExists(ctx, pool, table)
		if err != nil {
			t.Fatalf("tableExists failed: %v", err)
		}
		if exists {
			t.Errorf("%s table should not exist after rollback", table)
		}
	}

	upSQL, err := fs.ReadFile(migrations.FS, "000004_invoices.up.sql")
	if err != nil {
		t.Fatalf("read up migration: %v", err)
	}
	if _, err := pool.Exec(ctx, string(upSQL)); err != nil {
		t.Fatalf("reapply up migration: %v", err)
	}
}

func TestIntegrationMigration_Idempotency(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	// Every up migration uses IF NOT EXISTS, so a second apply is a no-op.
	entries, err := fs.Glob(migrations.FS, "*.up.sql")
	if err != nil {
		t.Fatalf("list migrations: %v", err)
	}
	for _, name := range entries {
		upSQL, err := fs.ReadFile(migrations.FS, name)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if _, err := pool.Exec(ctx, string(upSQL)); err != nil {
			t.Fatalf("second apply of %s should not fail: %v", name, err)
		}
	}
}

// ============================================================================
// Helper Functions
// ============================================================================

func tableExists(ctx context.Context, pool *pgxpool.Pool, tableName string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_schema = 'public'
			AND table_name = $1
		)
	`, tableName).Scan(&exists)
	return exists, err
}

func columnExists(ctx context.Context, pool *pgxpool.Pool, tableName, columnName string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT FROM information_schema.columns
			WHERE table_schema = 'public'
			AND table_name = $1
			AND column_name = $2
		)
	`, tableName, columnName).Scan(&exists)
	return exists, err
}

// ============================================================================
// Test Environment Setup
// ============================================================================

func newMigrationTestEnv(t *testing.T) (context.Context, *pgxpool.Pool) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "TEST_DATABASE_URL")

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(pool.Close)

	unlock, err := testutil.AcquireDBLock(ctx, pool)
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	if err := testutil.ResetSchema(ctx, pool); err != nil {
		t.Fatalf("reset schema: %v", err)
	}

	return ctx, pool
}
