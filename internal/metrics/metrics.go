// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Login outcomes.
const (
	LoginSuccess = "success"
	LoginInvalid = "invalid"
	LoginLocked  = "locked"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus or keep them in memory.
type Recorder interface {
	// HTTP metrics; route is the chi route pattern, never the raw path
	ObserveHTTPRequest(method, route string, status int, duration time.Duration)
	IncRateLimited(scope string) // scope: "user" or "ip"

	// Auth metrics
	IncRegistration()
	IncLogin(result string)
	IncTokenRefresh(success bool)

	// Entity lifecycle metrics; entity is e.g. "couple", "invoice"
	IncEntityCreated(entity string)
	IncEntityUpdated(entity string)
	IncEntityDeleted(entity string)

	// Dashboard aggregation
	ObserveDashboardDuration(duration time.Duration)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
