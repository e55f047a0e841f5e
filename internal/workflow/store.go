package workflow

import (
	"context"

	"github.com/style-shepherd/orchestrator/internal/agents"
)

// Store is the persistence collaborator the pipeline runs against. The
// coordinator assumes the implementation serializes concurrent message
// appends safely and serves reads consistently with prior writes; no
// transaction semantics beyond append-then-read-your-writes are required.
type Store interface {
	// CreateWorkflow persists a new workflow record.
	CreateWorkflow(ctx context.Context, wf *Workflow) error
	// UpdateWorkflowStatus advances status and stage. errMsg is recorded
	// only for StatusError. Single-writer: only the coordinator calls this.
	UpdateWorkflowStatus(ctx context.Context, id string, status Status, stage Stage, errMsg string) error
	// SetWorkflowResult attaches the final recommendation to the workflow.
	SetWorkflowResult(ctx context.Context, id string, result *CompleteRecommendation) error
	// GetWorkflow returns the workflow or ErrWorkflowNotFound.
	GetWorkflow(ctx context.Context, id string) (*Workflow, error)

	// CreateAgentMessage appends to the message log. Append-only.
	CreateAgentMessage(ctx context.Context, msg *AgentMessage) error
	// GetAgentMessages returns all messages for the pair in write order.
	GetAgentMessages(ctx context.Context, workflowID string, agent agents.Type) ([]AgentMessage, error)

	// AddAgentResult stores one agent output payload.
	AddAgentResult(ctx context.Context, res *AgentResult) error
	// RecordAnalytics stores one execution record.
	RecordAnalytics(ctx context.Context, a *Analytics) error
}
