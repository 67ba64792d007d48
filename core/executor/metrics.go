package executor

import "time"

// Metrics receives telemetry from executors and the pool. Implementations
// must be safe for concurrent use.
type Metrics interface {
	// ObserveQuery is called once per statement with its duration and result.
	ObserveQuery(d time.Duration, err error)
	// ObserveConnectionWait records time spent waiting for a worker or a new connection.
	ObserveConnectionWait(d time.Duration)
	// SetQueueDepth reports the number of jobs waiting in worker channels.
	SetQueueDepth(n int)
	// SetPoolSize reports the number of live workers.
	SetPoolSize(n int)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) ObserveQuery(time.Duration, error)   {}
func (NopMetrics) ObserveConnectionWait(time.Duration) {}
func (NopMetrics) SetQueueDepth(int)                   {}
func (NopMetrics) SetPoolSize(int)                     {}
