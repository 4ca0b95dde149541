package dto

import "github.com/vowline/vowline/internal/model"

// DashboardMetricsResponse is GET /api/v1/dashboard/metrics.
type DashboardMetricsResponse struct {
	Couples    CoupleMetrics    `json:"couples"`
	Ceremonies CeremonyMetrics  `json:"ceremonies"`
	Invoices   InvoiceMetrics   `json:"invoices"`
	LegalForms LegalFormMetrics `json:"legal_forms"`
	Tasks      TaskMetrics      `json:"tasks"`
}

// CoupleMetrics summarises the pipeline.
type CoupleMetrics struct {
	Total        int            `json:"total"`
	Active       int            `json:"active"`
	NewThisMonth int            `json:"new_this_month"`
	ByStatus     map[string]int `json:"by_status"`
}

// CeremonyMetrics summarises ceremonies.
type CeremonyMetrics struct {
	Total     int `json:"total"`
	Upcoming  int `json:"upcoming"`
	ThisMonth int `json:"this_month"`
}

// InvoiceMetrics summarises money.
type InvoiceMetrics struct {
	TotalRevenue      Money `json:"total_revenue"`
	OutstandingCount  int   `json:"outstanding_count"`
	OutstandingAmount Money `json:"outstanding_amount"`
	OverdueCount      int   `json:"overdue_count"`
	OverdueAmount     Money `json:"overdue_amount"`
}

// LegalFormMetrics summarises compliance.
type LegalFormMetrics struct {
	Pending      int `json:"pending"`
	Overdue      int `json:"overdue"`
	ExpiringSoon int `json:"expiring_soon"`
}

// TaskMetrics summarises the to-do list.
type TaskMetrics struct {
	Open    int `json:"open"`
	Overdue int `json:"overdue"`
}

// ToDashboardMetricsResponse converts aggregate metrics.
func ToDashboardMetricsResponse(m *model.DashboardMetrics) *DashboardMetricsResponse {
	byStatus := make(map[string]int, len(m.CouplesByStatus))
	for status, n := range m.CouplesByStatus {
		byStatus[string(status)] = n
	}
	return &DashboardMetricsResponse{
		Couples: CoupleMetrics{
			Total:        m.TotalCouples,
			Active:       m.ActiveCouples,
			NewThisMonth: m.NewCouplesThisMonth,
			ByStatus:     byStatus,
		},
		Ceremonies: CeremonyMetrics{
			Total:     m.TotalCeremonies,
			Upcoming:  m.UpcomingCeremonies,
			ThisMonth: m.CeremoniesThisMonth,
		},
		Invoices: InvoiceMetrics{
			TotalRevenue:      Money(m.TotalRevenueCents),
			OutstandingCount:  m.OutstandingInvoices,
			OutstandingAmount: Money(m.OutstandingCents),
			OverdueCount:      m.OverdueInvoices,
			OverdueAmount:     Money(m.OverdueCents),
		},
		LegalForms: LegalFormMetrics{
			Pending:      m.PendingLegalForms,
			Overdue:      m.OverdueLegalForms,
			ExpiringSoon: m.ExpiringSoonLegalForms,
		},
		Tasks: TaskMetrics{
			Open:    m.OpenTasks,
			Overdue: m.OverdueTasks,
		},
	}
}
