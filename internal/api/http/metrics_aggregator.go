package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/OmegaDesk/backend/internal/domain/events"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/infrastructure/resilience"
)

// MetricsAggregator serves a JSON view of the desktop metrics for dashboards
// that do not scrape Prometheus
type MetricsAggregator struct {
	metrics  *monitoring.Metrics
	breakers *resilience.Group
	bus      *events.Bus
}

// NewMetricsAggregator creates a metrics aggregator
func NewMetricsAggregator(metrics *monitoring.Metrics, breakers *resilience.Group, bus *events.Bus) *MetricsAggregator {
	return &MetricsAggregator{
		metrics:  metrics,
		breakers: breakers,
		bus:      bus,
	}
}

// MetricsReport is the aggregated JSON document
type MetricsReport struct {
	Timestamp time.Time                  `json:"timestamp"`
	Desktop   monitoring.MetricsSnapshot `json:"desktop"`
	Breakers  []resilience.BreakerStatus `json:"breakers"`
	Summary   MetricsSummary             `json:"summary"`
}

// MetricsSummary provides high-level metrics
type MetricsSummary struct {
	TotalRequests     int64   `json:"total_requests"`
	AverageLatencyMs  float64 `json:"average_latency_ms"`
	ErrorRate         float64 `json:"error_rate"`
	LaunchFailureRate float64 `json:"launch_failure_rate"`
	OpenCircuits      int     `json:"open_circuits"`
	Subscribers       int     `json:"subscribers"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
}

// GetAggregatedMetrics returns the aggregated report
func (ma *MetricsAggregator) GetAggregatedMetrics(c *gin.Context) {
	snapshot := ma.metrics.Snapshot()
	var breakers []resilience.BreakerStatus
	if ma.breakers != nil {
		breakers = ma.breakers.Status()
	}
	if breakers == nil {
		breakers = []resilience.BreakerStatus{}
	}

	c.JSON(http.StatusOK, MetricsReport{
		Timestamp: time.Now(),
		Desktop:   snapshot,
		Breakers:  breakers,
		Summary:   ma.calculateSummary(snapshot, breakers),
	})
}

func (ma *MetricsAggregator) calculateSummary(snapshot monitoring.MetricsSnapshot, breakers []resilience.BreakerStatus) MetricsSummary {
	var avgLatency float64
	if snapshot.RequestCount > 0 {
		avgLatency = (snapshot.TotalDuration / float64(snapshot.RequestCount)) * 1000
	}

	var errorRate float64
	if snapshot.TotalRequests > 0 {
		errorRate = float64(snapshot.TotalErrors) / float64(snapshot.TotalRequests)
	}

	var launchFailures float64
	if snapshot.Launches > 0 {
		launchFailures = float64(snapshot.FailedLaunches) / float64(snapshot.Launches)
	}

	open := 0
	for _, b := range breakers {
		if b.State != resilience.StateClosed {
			open++
		}
	}

	subscribers := 0
	if ma.bus != nil {
		subscribers = ma.bus.Subscribers()
	}

	return MetricsSummary{
		TotalRequests:     snapshot.TotalRequests,
		AverageLatencyMs:  avgLatency,
		ErrorRate:         errorRate,
		LaunchFailureRate: launchFailures,
		OpenCircuits:      open,
		Subscribers:       subscribers,
		UptimeSeconds:     ma.metrics.UptimeSeconds(),
	}
}
