package workflow

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/style-shepherd/orchestrator/internal/agents"
	"github.com/style-shepherd/orchestrator/internal/metrics"
)

// DefaultPollInterval is the message-log polling cadence.
const DefaultPollInterval = 500 * time.Millisecond

// Watcher detects agent completion by polling the message log. No push
// notification is assumed: stages communicate only through the log.
type Watcher struct {
	store    Store
	interval time.Duration
	logger   *zap.Logger
}

// NewWatcher creates a watcher. interval <= 0 uses DefaultPollInterval.
func NewWatcher(store Store, interval time.Duration, logger *zap.Logger) *Watcher {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{store: store, interval: interval, logger: logger}
}

// Wait blocks until the first output or error message appears for
// (workflowID, agent), or timeout elapses. An output returns nil; an error
// message returns *AgentFailureError; expiry returns *AgentTimeoutError.
// Messages after the first output/error are ignored.
func (w *Watcher) Wait(ctx context.Context, workflowID string, agent agents.Type, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		done, err := w.check(ctx, workflowID, agent)
		if done || err != nil {
			return err
		}
		if time.Now().After(deadline) {
			metrics.AgentTimeouts.WithLabelValues(string(agent)).Inc()
			w.logger.Warn("Agent completion timed out",
				zap.String("workflow_id", workflowID),
				zap.String("agent", string(agent)),
				zap.Duration("timeout", timeout),
			)
			return &AgentTimeoutError{WorkflowID: workflowID, Agent: agent, Timeout: timeout}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// check scans the log once. The first output or error message wins; later
// duplicate writes are never reached.
func (w *Watcher) check(ctx context.Context, workflowID string, agent agents.Type) (bool, error) {
	metrics.WatcherPolls.Inc()
	msgs, err := w.store.GetAgentMessages(ctx, workflowID, agent)
	if err != nil {
		return false, fmt.Errorf("poll message log for %s/%s: %w", workflowID, agent, err)
	}
	for _, m := range msgs {
		switch m.MessageType {
		case MessageOutput:
			return true, nil
		case MessageError:
			return true, &AgentFailureError{
				WorkflowID: workflowID,
				Agent:      agent,
				Reason:     errorReason(m.Payload),
			}
		}
	}
	return false, nil
}

func errorReason(payload map[string]interface{}) string {
	if payload != nil {
		if v, ok := payload["error"].(string); ok && v != "" {
			return v
		}
	}
	return "unknown agent error"
}
