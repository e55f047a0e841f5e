package workflow

import (
	"errors"
	"fmt"
	"time"

	"github.com/style-shepherd/orchestrator/internal/agents"
)

// ErrWorkflowNotFound is returned when a workflow id resolves to nothing,
// or when synthesis cannot locate a prerequisite stage's output. The latter
// indicates a coordination bug and is treated as fatal.
var ErrWorkflowNotFound = errors.New("workflow not found")

// AgentFailureError reports that a collaborator raised during execution,
// observed either directly or through an error message in the log.
type AgentFailureError struct {
	WorkflowID string
	Agent      agents.Type
	Reason     string
}

func (e *AgentFailureError) Error() string {
	return fmt.Sprintf("agent %s failed in workflow %s: %s", e.Agent, e.WorkflowID, e.Reason)
}

// AgentTimeoutError reports that no output or error message appeared for
// the agent within the stage budget.
type AgentTimeoutError struct {
	WorkflowID string
	Agent      agents.Type
	Timeout    time.Duration
}

func (e *AgentTimeoutError) Error() string {
	return fmt.Sprintf("agent %s timed out after %s in workflow %s", e.Agent, e.Timeout, e.WorkflowID)
}

// WorkflowError wraps any stage failure with the workflow identity so
// transports can surface the id without the internal reason.
type WorkflowError struct {
	WorkflowID string
	UserID     string
	Stage      Stage
	Err        error
}

func (e *WorkflowError) Error() string {
	return fmt.Sprintf("workflow %s (user %s) failed at %s stage: %v", e.WorkflowID, e.UserID, e.Stage, e.Err)
}

func (e *WorkflowError) Unwrap() error { return e.Err }
