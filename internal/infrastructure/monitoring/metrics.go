package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics.
// A nil *Metrics is valid and records nothing, so domain code can take it optionally.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Window metrics
	WindowsOpen        prometheus.Gauge
	WindowsCreated     prometheus.Counter
	WindowTransitions  *prometheus.CounterVec
	AnimationDuration  *prometheus.HistogramVec
	WindowBusyRejected *prometheus.CounterVec

	// Process metrics
	ProcessesRunning    prometheus.Gauge
	ProcessesStarted    *prometheus.CounterVec
	ProcessesTerminated *prometheus.CounterVec

	// Launch metrics
	Launches       *prometheus.CounterVec
	LaunchDuration *prometheus.HistogramVec

	// Session metrics
	SessionsSaved    prometheus.Counter
	SessionsRestored prometheus.Counter

	// Registry metrics
	RegistryApps    prometheus.Gauge
	ManifestsFailed prometheus.Counter

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec
	WSDropped     prometheus.Counter

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	// Snapshot for the health endpoint
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests    int64   `json:"total_requests"`
	TotalErrors      int64   `json:"total_errors"`
	OpenWindows      int64   `json:"open_windows"`
	RunningProcesses int64   `json:"running_processes"`
	Launches         int64   `json:"launches"`
	FailedLaunches   int64   `json:"failed_launches"`
	TotalDuration    float64 `json:"total_duration_seconds"`
	RequestCount     int64   `json:"request_count"`
}

// NewMetrics creates a metrics collector registered on reg.
// Pass prometheus.DefaultRegisterer in production and prometheus.NewRegistry() in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	m := &Metrics{
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "desk_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "desk_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "desk_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "desk_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),

		// Window metrics
		WindowsOpen: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "desk_windows_open",
				Help: "Number of open windows",
			},
		),
		WindowsCreated: f.NewCounter(
			prometheus.CounterOpts{
				Name: "desk_windows_created_total",
				Help: "Total number of windows created",
			},
		),
		WindowTransitions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "desk_window_transitions_total",
				Help: "Window mode transitions by target mode",
			},
			[]string{"mode"},
		),
		AnimationDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "desk_window_animation_seconds",
				Help:    "Wall time of minimize and restore animations",
				Buckets: []float64{.05, .1, .2, .3, .5, .75, 1, 2},
			},
			[]string{"kind"},
		),
		WindowBusyRejected: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "desk_window_busy_total",
				Help: "Operations rejected because the window was animating",
			},
			[]string{"op"},
		),

		// Process metrics
		ProcessesRunning: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "desk_processes_running",
				Help: "Number of live app processes",
			},
		),
		ProcessesStarted: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "desk_processes_started_total",
				Help: "Processes started per app",
			},
			[]string{"app"},
		),
		ProcessesTerminated: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "desk_processes_terminated_total",
				Help: "Processes terminated per app and reason",
			},
			[]string{"app", "reason"},
		),

		// Launch metrics
		Launches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "desk_launches_total",
				Help: "Launch requests per app and outcome",
			},
			[]string{"app", "outcome"},
		),
		LaunchDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "desk_launch_duration_seconds",
				Help:    "Launch duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"app"},
		),

		// Session metrics
		SessionsSaved: f.NewCounter(
			prometheus.CounterOpts{
				Name: "desk_sessions_saved_total",
				Help: "Total number of sessions saved",
			},
		),
		SessionsRestored: f.NewCounter(
			prometheus.CounterOpts{
				Name: "desk_sessions_restored_total",
				Help: "Total number of sessions restored",
			},
		),

		// Registry metrics
		RegistryApps: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "desk_registry_apps",
				Help: "Number of apps in registry",
			},
		),
		ManifestsFailed: f.NewCounter(
			prometheus.CounterOpts{
				Name: "desk_manifests_failed_total",
				Help: "App manifests that could not be loaded",
			},
		),

		// WebSocket metrics
		WSConnections: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "desk_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "desk_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
		WSDropped: f.NewCounter(
			prometheus.CounterOpts{
				Name: "desk_events_dropped_total",
				Help: "Bus events dropped for slow subscribers",
			},
		),

		// System metrics
		Uptime: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "desk_uptime_seconds",
				Help: "Backend uptime in seconds",
			},
		),
	}

	return m
}

// RunUptime updates the uptime gauge every second until stop is closed.
func (m *Metrics) RunUptime(stop <-chan struct{}) {
	if m == nil {
		return
	}
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Uptime.Set(time.Since(m.startTime).Seconds())
		case <-stop:
			return
		}
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	m.snapshot.RequestCount++
	if status[0] == '4' || status[0] == '5' {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// SetWindowsOpen sets the number of open windows
func (m *Metrics) SetWindowsOpen(count int) {
	if m == nil {
		return
	}
	m.WindowsOpen.Set(float64(count))
	m.mu.Lock()
	m.snapshot.OpenWindows = int64(count)
	m.mu.Unlock()
}

// IncWindowsCreated increments the created windows counter
func (m *Metrics) IncWindowsCreated() {
	if m == nil {
		return
	}
	m.WindowsCreated.Inc()
}

// RecordTransition counts a window reaching mode
func (m *Metrics) RecordTransition(mode string) {
	if m == nil {
		return
	}
	m.WindowTransitions.WithLabelValues(mode).Inc()
}

// RecordAnimation records how long a minimize or restore took
func (m *Metrics) RecordAnimation(kind string, duration time.Duration) {
	if m == nil {
		return
	}
	m.AnimationDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordBusy counts an operation rejected with a busy window
func (m *Metrics) RecordBusy(op string) {
	if m == nil {
		return
	}
	m.WindowBusyRejected.WithLabelValues(op).Inc()
}

// SetProcessesRunning sets the number of live processes
func (m *Metrics) SetProcessesRunning(count int) {
	if m == nil {
		return
	}
	m.ProcessesRunning.Set(float64(count))
	m.mu.Lock()
	m.snapshot.RunningProcesses = int64(count)
	m.mu.Unlock()
}

// RecordProcessStarted counts a started process
func (m *Metrics) RecordProcessStarted(app string) {
	if m == nil {
		return
	}
	m.ProcessesStarted.WithLabelValues(app).Inc()
}

// RecordProcessTerminated counts a terminated process
func (m *Metrics) RecordProcessTerminated(app, reason string) {
	if m == nil {
		return
	}
	m.ProcessesTerminated.WithLabelValues(app, reason).Inc()
}

// RecordLaunch records a launch outcome
func (m *Metrics) RecordLaunch(app, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.Launches.WithLabelValues(app, outcome).Inc()
	m.LaunchDuration.WithLabelValues(app).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.Launches++
	if outcome == OutcomeFailed {
		m.snapshot.FailedLaunches++
	}
	m.mu.Unlock()
}

// IncSessionsSaved increments the sessions saved counter
func (m *Metrics) IncSessionsSaved() {
	if m == nil {
		return
	}
	m.SessionsSaved.Inc()
}

// IncSessionsRestored increments the sessions restored counter
func (m *Metrics) IncSessionsRestored() {
	if m == nil {
		return
	}
	m.SessionsRestored.Inc()
}

// SetRegistryApps sets the number of apps in registry
func (m *Metrics) SetRegistryApps(count int) {
	if m == nil {
		return
	}
	m.RegistryApps.Set(float64(count))
}

// IncManifestsFailed counts a manifest that failed to load
func (m *Metrics) IncManifestsFailed() {
	if m == nil {
		return
	}
	m.ManifestsFailed.Inc()
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	if m == nil {
		return
	}
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncEventsDropped counts an event dropped for a slow subscriber
func (m *Metrics) IncEventsDropped() {
	if m == nil {
		return
	}
	m.WSDropped.Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Dec()
}

// Snapshot returns the current values for the health endpoint
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// UptimeSeconds returns the time since the collector was created
func (m *Metrics) UptimeSeconds() float64 {
	if m == nil {
		return 0
	}
	return time.Since(m.startTime).Seconds()
}
