package monitoring

import "time"

// Launch outcomes
const (
	OutcomeStarted  = "started"
	OutcomeReused   = "reused"
	OutcomeAttached = "attached"
	OutcomeFailed   = "failed"
	OutcomeRejected = "rejected"
)

// Animation kinds
const (
	AnimationMinimize = "minimize"
	AnimationRestore  = "restore"
)

// Timer measures a launch
type Timer struct {
	start   time.Time
	metrics *Metrics
	app     string
}

// NewLaunchTimer starts timing a launch of app
func NewLaunchTimer(metrics *Metrics, app string) *Timer {
	return &Timer{
		start:   time.Now(),
		metrics: metrics,
		app:     app,
	}
}

// Stop records the launch with outcome
func (t *Timer) Stop(outcome string) {
	t.metrics.RecordLaunch(t.app, outcome, time.Since(t.start))
}
