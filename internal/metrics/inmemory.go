package metrics

import (
	"maps"
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	HTTPRequests           uint64
	RateLimited            uint64
	Registrations          uint64
	Logins                 map[string]uint64
	TokenRefreshes         uint64
	TokenRefreshFailures   uint64
	EntitiesCreated        map[string]uint64
	EntitiesUpdated        map[string]uint64
	EntitiesDeleted        map[string]uint64
	DashboardCount         uint64
	DashboardDurationTotal time.Duration
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	httpRequests         uint64
	rateLimited          uint64
	registrations        uint64
	tokenRefreshes       uint64
	tokenRefreshFailures uint64
	dashboardCount       uint64
	dashboardTotalNs     int64

	mu      sync.Mutex
	logins  map[string]uint64
	created map[string]uint64
	updated map[string]uint64
	deleted map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		logins:  make(map[string]uint64),
		created: make(map[string]uint64),
		updated: make(map[string]uint64),
		deleted: make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		HTTPRequests:           atomic.LoadUint64(&m.httpRequests),
		RateLimited:            atomic.LoadUint64(&m.rateLimited),
		Registrations:          atomic.LoadUint64(&m.registrations),
		Logins:                 maps.Clone(m.logins),
		TokenRefreshes:         atomic.LoadUint64(&m.tokenRefreshes),
		TokenRefreshFailures:   atomic.LoadUint64(&m.tokenRefreshFailures),
		EntitiesCreated:        maps.Clone(m.created),
		EntitiesUpdated:        maps.Clone(m.updated),
		EntitiesDeleted:        maps.Clone(m.deleted),
		DashboardCount:         atomic.LoadUint64(&m.dashboardCount),
		DashboardDurationTotal: time.Duration(atomic.LoadInt64(&m.dashboardTotalNs)),
	}
}

// ObserveHTTPRequest counts a handled request.
func (m *InMemoryRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	atomic.AddUint64(&m.httpRequests, 1)
}

// IncRateLimited counts a rejected request.
func (m *InMemoryRecorder) IncRateLimited(scope string) {
	atomic.AddUint64(&m.rateLimited, 1)
}

// IncRegistration counts a new account.
func (m *InMemoryRecorder) IncRegistration() {
	atomic.AddUint64(&m.registrations, 1)
}

// IncLogin counts a login attempt by result.
func (m *InMemoryRecorder) IncLogin(result string) {
	m.inc(m.logins, result)
}

// IncTokenRefresh counts a refresh attempt.
func (m *InMemoryRecorder) IncTokenRefresh(success bool) {
	if success {
		atomic.AddUint64(&m.tokenRefreshes, 1)
		return
	}
	atomic.AddUint64(&m.tokenRefreshFailures, 1)
}

// IncEntityCreated counts a created entity.
func (m *InMemoryRecorder) IncEntityCreated(entity string) {
	m.inc(m.created, entity)
}

// IncEntityUpdated counts an updated entity.
func (m *InMemoryRecorder) IncEntityUpdated(entity string) {
	m.inc(m.updated, entity)
}

// IncEntityDeleted counts a deleted entity.
func (m *InMemoryRecorder) IncEntityDeleted(entity string) {
	m.inc(m.deleted, entity)
}

// ObserveDashboardDuration records one dashboard aggregation.
func (m *InMemoryRecorder) ObserveDashboardDuration(duration time.Duration) {
	atomic.AddUint64(&m.dashboardCount, 1)
	atomic.AddInt64(&m.dashboardTotalNs, duration.Nanoseconds())
}

func (m *InMemoryRecorder) inc(counter map[string]uint64, key string) {
	m.mu.Lock()
	counter[key]++
	m.mu.Unlock()
}
