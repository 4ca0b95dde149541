package model

// DashboardMetrics is the aggregate summary shown on the celebrant dashboard.
// Money fields are in cents.
type DashboardMetrics struct {
	TotalCouples        int
	ActiveCouples       int
	NewCouplesThisMonth int
	CouplesByStatus     map[CoupleStatus]int

	TotalCeremonies     int
	UpcomingCeremonies  int
	CeremoniesThisMonth int

	TotalRevenueCents   int64
	OutstandingInvoices int
	OutstandingCents    int64
	OverdueInvoices     int
	OverdueCents        int64

	PendingLegalForms      int
	OverdueLegalForms      int
	ExpiringSoonLegalForms int

	OpenTasks    int
	OverdueTasks int
}
