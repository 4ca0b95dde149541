package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {}
func (n *NoopRecorder) IncRateLimited(scope string)                                                 {}
func (n *NoopRecorder) IncRegistration()                                                            {}
func (n *NoopRecorder) IncLogin(result string)                                                      {}
func (n *NoopRecorder) IncTokenRefresh(success bool)                                                {}
func (n *NoopRecorder) IncEntityCreated(entity string)                                              {}
func (n *NoopRecorder) IncEntityUpdated(entity string)                                              {}
func (n *NoopRecorder) IncEntityDeleted(entity string)                                              {}
func (n *NoopRecorder) ObserveDashboardDuration(duration time.Duration)                             {}
