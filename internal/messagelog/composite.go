package messagelog

import (
	"context"

	"github.com/style-shepherd/orchestrator/internal/agents"
	"github.com/style-shepherd/orchestrator/internal/workflow"
)

// Composite routes the message log to Redis and everything else to the
// base store. Workflow records, results and analytics stay durable while
// the poll-heavy log lives in memory-speed storage.
type Composite struct {
	base workflow.Store
	log  *RedisLog
}

var _ workflow.Store = (*Composite)(nil)

// NewComposite wires a composite store.
func NewComposite(base workflow.Store, log *RedisLog) *Composite {
	return &Composite{base: base, log: log}
}

func (c *Composite) CreateWorkflow(ctx context.Context, wf *workflow.Workflow) error {
	return c.base.CreateWorkflow(ctx, wf)
}

func (c *Composite) UpdateWorkflowStatus(ctx context.Context, id string, status workflow.Status, stage workflow.Stage, errMsg string) error {
	return c.base.UpdateWorkflowStatus(ctx, id, status, stage, errMsg)
}

func (c *Composite) SetWorkflowResult(ctx context.Context, id string, result *workflow.CompleteRecommendation) error {
	return c.base.SetWorkflowResult(ctx, id, result)
}

func (c *Composite) GetWorkflow(ctx context.Context, id string) (*workflow.Workflow, error) {
	return c.base.GetWorkflow(ctx, id)
}

func (c *Composite) CreateAgentMessage(ctx context.Context, msg *workflow.AgentMessage) error {
	return c.log.Append(ctx, msg)
}

func (c *Composite) GetAgentMessages(ctx context.Context, workflowID string, agent agents.Type) ([]workflow.AgentMessage, error) {
	return c.log.Messages(ctx, workflowID, agent)
}

func (c *Composite) AddAgentResult(ctx context.Context, res *workflow.AgentResult) error {
	return c.base.AddAgentResult(ctx, res)
}

func (c *Composite) RecordAnalytics(ctx context.Context, a *workflow.Analytics) error {
	return c.base.RecordAnalytics(ctx, a)
}
