package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Workflow metrics
	WorkflowsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shepherd_workflows_started_total",
			Help: "Total number of recommendation workflows started",
		},
	)

	WorkflowsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shepherd_workflows_completed_total",
			Help: "Total number of recommendation workflows completed",
		},
		[]string{"status"},
	)

	WorkflowDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shepherd_workflow_duration_seconds",
			Help:    "End-to-end workflow execution duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Agent metrics
	AgentExecutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shepherd_agent_executions_total",
			Help: "Total number of agent executions",
		},
		[]string{"agent", "outcome"},
	)

	AgentExecutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shepherd_agent_execution_duration_ms",
			Help:    "Agent execution duration in milliseconds",
			Buckets: []float64{100, 500, 1000, 2000, 5000, 10000, 30000},
		},
		[]string{"agent"},
	)

	AgentTimeouts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shepherd_agent_timeouts_total",
			Help: "Total number of agent completion timeouts",
		},
		[]string{"agent"},
	)

	// Outfit pipeline metrics
	BundlesGenerated = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shepherd_bundles_generated",
			Help:    "Number of bundles produced per combination search",
			Buckets: []float64{0, 1, 2, 5, 10, 20},
		},
	)

	BundleConfidence = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shepherd_bundle_confidence",
			Help:    "Confidence of bundles surviving the minimum-confidence filter",
			Buckets: prometheus.LinearBuckets(0.5, 0.05, 11),
		},
	)

	// Message log metrics
	MessagesWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shepherd_agent_messages_total",
			Help: "Total number of agent messages appended to the log",
		},
		[]string{"type"},
	)

	WatcherPolls = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shepherd_watcher_polls_total",
			Help: "Total number of completion watcher poll iterations",
		},
	)
)

// RecordWorkflowMetrics records metrics for a completed workflow.
func RecordWorkflowMetrics(status string, durationSeconds float64) {
	WorkflowsCompleted.WithLabelValues(status).Inc()
	WorkflowDuration.Observe(durationSeconds)
}

// RecordAgentMetrics records metrics for an agent execution.
func RecordAgentMetrics(agent string, success bool, durationMs float64) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	AgentExecutions.WithLabelValues(agent, outcome).Inc()
	AgentExecutionDuration.WithLabelValues(agent).Observe(durationMs)
}

// RecordBundleMetrics records combination search output metrics.
func RecordBundleMetrics(generated int, confidences []float64) {
	BundlesGenerated.Observe(float64(generated))
	for _, c := range confidences {
		BundleConfidence.Observe(c)
	}
}
