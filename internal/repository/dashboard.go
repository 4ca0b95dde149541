package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/vowline/vowline/internal/model"
)

// DashboardWindow fixes the instants and dates the dashboard aggregates are
// computed against.
type DashboardWindow struct {
	Now        time.Time // upcoming ceremonies start here
	Today      time.Time // date, for overdue comparisons
	MonthStart time.Time // instant, start of the current month in the business timezone
	MonthEnd   time.Time // instant, start of next month
	WindowEnd  time.Time // date, last day counted as expiring soon
}

// GetDashboardMetrics runs the user-scoped aggregate queries behind the
// dashboard. Nothing is cached.
func (r *Repository) GetDashboardMetrics(ctx context.Context, userID string, win DashboardWindow) (*model.DashboardMetrics, error) {
	m := &model.DashboardMetrics{CouplesByStatus: make(map[model.CoupleStatus]int)}

	if err := r.coupleMetrics(ctx, userID, win, m); err != nil {
		return nil, err
	}
	if err := r.ceremonyMetrics(ctx, userID, win, m); err != nil {
		return nil, err
	}
	if err := r.invoiceMetrics(ctx, userID, win, m); err != nil {
		return nil, err
	}
	if err := r.legalFormMetrics(ctx, userID, win, m); err != nil {
		return nil, err
	}
	if err := r.taskMetrics(ctx, userID, win, m); err != nil {
		return nil, err
	}

	return m, nil
}

func (r *Repository) coupleMetrics(ctx context.Context, userID string, win DashboardWindow, m *model.DashboardMetrics) error {
	rows, err := r.pool.Query(ctx, `
		SELECT status, COUNT(*), COUNT(*) FILTER (WHERE created_at >= $2 AND created_at < $3)
		FROM couples
		WHERE user_id = $1
		GROUP BY status
	`, userID, win.MonthStart, win.MonthEnd)
	if err != nil {
		return fmt.Errorf("failed to aggregate couples: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status model.CoupleStatus
		var count, newThisMonth int
		if err := rows.Scan(&status, &count, &newThisMonth); err != nil {
			return fmt.Errorf("failed to scan couple aggregate: %w", err)
		}
		m.CouplesByStatus[status] = count
		m.TotalCouples += count
		m.NewCouplesThisMonth += newThisMonth
		if status.IsActive() {
			m.ActiveCouples += count
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating couple aggregates: %w", err)
	}
	return nil
}

func (r *Repository) ceremonyMetrics(ctx context.Context, userID string, win DashboardWindow, m *model.DashboardMetrics) error {
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE ceremony_date >= $2 AND status <> 'cancelled'),
			COUNT(*) FILTER (WHERE ceremony_date >= $3 AND ceremony_date < $4)
		FROM ceremonies
		WHERE user_id = $1
	`, userID, win.Now, win.MonthStart, win.MonthEnd).Scan(
		&m.TotalCeremonies,
		&m.UpcomingCeremonies,
		&m.CeremoniesThisMonth,
	)
	if err != nil {
		return fmt.Errorf("failed to aggregate ceremonies: %w", err)
	}
	return nil
}

// invoiceMetrics splits unpaid invoices into outstanding (sent, not yet
// due) and overdue (status overdue, or sent past due) with no overlap.
func (r *Repository) invoiceMetrics(ctx context.Context, userID string, win DashboardWindow, m *model.DashboardMetrics) error {
	err := r.pool.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(total_cents) FILTER (WHERE status = 'paid'), 0)::BIGINT,
			COUNT(*) FILTER (WHERE status = 'sent' AND due_date >= $2),
			COALESCE(SUM(total_cents) FILTER (WHERE status = 'sent' AND due_date >= $2), 0)::BIGINT,
			COUNT(*) FILTER (WHERE status = 'overdue' OR (status = 'sent' AND due_date < $2)),
			COALESCE(SUM(total_cents) FILTER (WHERE status = 'overdue' OR (status = 'sent' AND due_date < $2)), 0)::BIGINT
		FROM invoices
		WHERE user_id = $1
	`, userID, win.Today).Scan(
		&m.TotalRevenueCents,
		&m.OutstandingInvoices,
		&m.OutstandingCents,
		&m.OverdueInvoices,
		&m.OverdueCents,
	)
	if err != nil {
		return fmt.Errorf("failed to aggregate invoices: %w", err)
	}
	return nil
}

func (r *Repository) legalFormMetrics(ctx context.Context, userID string, win DashboardWindow, m *model.DashboardMetrics) error {
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status IN ('required', 'submitted')),
			COUNT(*) FILTER (WHERE status IN ('required', 'submitted') AND deadline_date < $2),
			COUNT(*) FILTER (WHERE status <> 'expired' AND expiry_date BETWEEN $2 AND $3)
		FROM legal_forms
		WHERE user_id = $1
	`, userID, win.Today, win.WindowEnd).Scan(
		&m.PendingLegalForms,
		&m.OverdueLegalForms,
		&m.ExpiringSoonLegalForms,
	)
	if err != nil {
		return fmt.Errorf("failed to aggregate legal forms: %w", err)
	}
	return nil
}

func (r *Repository) taskMetrics(ctx context.Context, userID string, win DashboardWindow, m *model.DashboardMetrics) error {
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE completed = FALSE),
			COUNT(*) FILTER (WHERE completed = FALSE AND due_date < $2)
		FROM tasks
		WHERE user_id = $1
	`, userID, win.Today).Scan(
		&m.OpenTasks,
		&m.OverdueTasks,
	)
	if err != nil {
		return fmt.Errorf("failed to aggregate tasks: %w", err)
	}
	return nil
}
