package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/style-shepherd/orchestrator/internal/agents"
	"github.com/style-shepherd/orchestrator/internal/metrics"
	"github.com/style-shepherd/orchestrator/internal/ratecontrol"
	"github.com/style-shepherd/orchestrator/internal/tracing"
)

// CollaboratorFn is one external agent computation, already bound to its
// parameters. The returned value becomes the stored AgentResult payload.
type CollaboratorFn func(ctx context.Context) (interface{}, error)

// Invocation describes one agent call.
type Invocation struct {
	WorkflowID string
	Agent      agents.Type
	Params     interface{}
	// Required failures propagate; optional failures are recorded and
	// swallowed so the pipeline proceeds without the contribution.
	Required bool
}

// Executor wraps every collaborator call in the uniform audit pattern:
// input message before invocation, output or error message after, stored
// result and analytics. Executors never write workflow status; that is the
// coordinator's job alone.
type Executor struct {
	store  Store
	limits *ratecontrol.Registry
	logger *zap.Logger
}

// NewExecutor creates an executor. limits may be nil for no throttling.
func NewExecutor(store Store, limits *ratecontrol.Registry, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{store: store, limits: limits, logger: logger}
}

// Run performs one agent invocation. On success it returns the
// collaborator's value; on failure it returns nil and, for required
// invocations, an *AgentFailureError.
func (x *Executor) Run(ctx context.Context, inv Invocation, call CollaboratorFn) (interface{}, error) {
	ctx, span := tracing.StartAgentSpan(ctx, inv.WorkflowID, string(inv.Agent))
	defer span.End()

	// Audit trail first: the input message precedes the invocation.
	if err := x.writeMessage(ctx, inv, MessageInput, toPayload(inv.Params)); err != nil {
		return nil, fmt.Errorf("write input message for %s/%s: %w", inv.WorkflowID, inv.Agent, err)
	}

	if x.limits != nil {
		if err := x.limits.Wait(ctx, string(inv.Agent)); err != nil {
			return nil, x.recordFailure(ctx, inv, time.Now(), err)
		}
	}

	start := time.Now()
	out, err := call(ctx)
	if err != nil {
		return nil, x.recordFailure(ctx, inv, start, err)
	}

	durationMs := time.Since(start).Milliseconds()
	payload := toPayload(out)

	if err := x.store.AddAgentResult(ctx, &AgentResult{
		WorkflowID: inv.WorkflowID,
		AgentType:  inv.Agent,
		Result:     payload,
	}); err != nil {
		return nil, fmt.Errorf("store result for %s/%s: %w", inv.WorkflowID, inv.Agent, err)
	}
	// The output message is the completion signal other stages wait on;
	// it goes last so a stored result is always visible once it appears.
	if err := x.writeMessage(ctx, inv, MessageOutput, payload); err != nil {
		return nil, fmt.Errorf("write output message for %s/%s: %w", inv.WorkflowID, inv.Agent, err)
	}

	x.recordAnalytics(ctx, inv, durationMs, true, "")
	metrics.RecordAgentMetrics(string(inv.Agent), true, float64(durationMs))
	x.logger.Debug("Agent execution succeeded",
		zap.String("workflow_id", inv.WorkflowID),
		zap.String("agent", string(inv.Agent)),
		zap.Int64("duration_ms", durationMs),
	)
	return out, nil
}

// recordFailure writes the error message and analytics. Required failures
// come back as *AgentFailureError; optional ones are swallowed.
func (x *Executor) recordFailure(ctx context.Context, inv Invocation, start time.Time, cause error) error {
	durationMs := time.Since(start).Milliseconds()

	if err := x.writeMessage(ctx, inv, MessageError, map[string]interface{}{
		"error": cause.Error(),
	}); err != nil {
		x.logger.Error("Failed to write error message",
			zap.String("workflow_id", inv.WorkflowID),
			zap.String("agent", string(inv.Agent)),
			zap.Error(err),
		)
	}
	x.recordAnalytics(ctx, inv, durationMs, false, cause.Error())
	metrics.RecordAgentMetrics(string(inv.Agent), false, float64(durationMs))

	if !inv.Required {
		x.logger.Warn("Optional agent failed, continuing without it",
			zap.String("workflow_id", inv.WorkflowID),
			zap.String("agent", string(inv.Agent)),
			zap.Error(cause),
		)
		return nil
	}
	return &AgentFailureError{WorkflowID: inv.WorkflowID, Agent: inv.Agent, Reason: cause.Error()}
}

func (x *Executor) writeMessage(ctx context.Context, inv Invocation, mt MessageType, payload map[string]interface{}) error {
	err := x.store.CreateAgentMessage(ctx, &AgentMessage{
		WorkflowID:  inv.WorkflowID,
		AgentType:   inv.Agent,
		MessageType: mt,
		Payload:     payload,
	})
	if err == nil {
		metrics.MessagesWritten.WithLabelValues(string(mt)).Inc()
	}
	return err
}

func (x *Executor) recordAnalytics(ctx context.Context, inv Invocation, durationMs int64, success bool, errText string) {
	if err := x.store.RecordAnalytics(ctx, &Analytics{
		WorkflowID: inv.WorkflowID,
		AgentType:  inv.Agent,
		DurationMs: durationMs,
		Success:    success,
		Error:      errText,
	}); err != nil {
		x.logger.Error("Failed to record analytics",
			zap.String("workflow_id", inv.WorkflowID),
			zap.String("agent", string(inv.Agent)),
			zap.Error(err),
		)
	}
}

// toPayload converts an arbitrary value into the JSONB-shaped map stored
// with messages and results.
func toPayload(v interface{}) map[string]interface{} {
	if v == nil {
		return nil
	}
	if m, ok := v.(map[string]interface{}); ok {
		return m
	}
	data, err := json.Marshal(v)
	if err != nil {
		return map[string]interface{}{"value": fmt.Sprintf("%v", v)}
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return map[string]interface{}{"value": string(data)}
	}
	return m
}
