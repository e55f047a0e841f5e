package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/style-shepherd/orchestrator/internal/agents"
	"github.com/style-shepherd/orchestrator/internal/aggregate"
	"github.com/style-shepherd/orchestrator/internal/metrics"
	"github.com/style-shepherd/orchestrator/internal/outfits"
	"github.com/style-shepherd/orchestrator/internal/tracing"
)

// DefaultStageTimeout bounds how long the coordinator waits for any one
// agent's completion signal.
const DefaultStageTimeout = 30 * time.Second

// Config tunes one coordinator instance.
type Config struct {
	StageTimeout time.Duration
	PollInterval time.Duration
	Weights      outfits.ScoringWeights
	Bounds       outfits.SearchBounds
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		StageTimeout: DefaultStageTimeout,
		PollInterval: DefaultPollInterval,
		Weights:      outfits.DefaultScoringWeights(),
		Bounds:       outfits.DefaultSearchBounds(),
	}
}

// Coordinator drives the staged pipeline for one shopping intent at a time:
// parallel discovery, sequential validation, risk, then synthesis. It is the
// sole writer of workflow status. Agent completion is observed exclusively
// through the message log via the watcher, never through channels shared
// with the agent goroutines.
type Coordinator struct {
	store    Store
	collab   agents.Collaborators
	executor *Executor
	watcher  *Watcher
	cfg      Config
	logger   *zap.Logger
}

// NewCoordinator wires a coordinator. Zero-value cfg fields fall back to
// defaults.
func NewCoordinator(store Store, collab agents.Collaborators, executor *Executor, cfg Config, logger *zap.Logger) *Coordinator {
	if cfg.StageTimeout <= 0 {
		cfg.StageTimeout = DefaultStageTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Weights == (outfits.ScoringWeights{}) {
		cfg.Weights = outfits.DefaultScoringWeights()
	}
	if cfg.Bounds == (outfits.SearchBounds{}) {
		cfg.Bounds = outfits.DefaultSearchBounds()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		store:    store,
		collab:   collab,
		executor: executor,
		watcher:  NewWatcher(store, cfg.PollInterval, logger),
		cfg:      cfg,
		logger:   logger,
	}
}

// mailbox carries typed stage outputs between goroutines inside one run.
// Writes happen inside the agent closures, before the executor appends the
// output message, so a mailbox read after a successful watcher wait always
// sees the value.
type mailbox struct {
	mu      sync.Mutex
	bundles []outfits.Bundle
	looks   []agents.MakeupLook
	sizes   []agents.SizeResult
	risk    *agents.ReturnRiskResult
}

// Execute runs one intent end to end and returns the complete
// recommendation. Any required-stage failure marks the workflow error and
// returns a non-nil error; there are no partial results.
func (c *Coordinator) Execute(ctx context.Context, intent ShoppingIntent) (*CompleteRecommendation, error) {
	start := time.Now()
	wf := &Workflow{
		ID:     uuid.New().String(),
		UserID: intent.UserID,
		Intent: intent,
		Status: StatusPending,
	}
	if err := c.store.CreateWorkflow(ctx, wf); err != nil {
		return nil, fmt.Errorf("create workflow: %w", err)
	}
	ctx, span := tracing.StartWorkflowSpan(ctx, wf.ID, intent.UserID)
	defer span.End()

	// Stage goroutines stop when the run ends, even after a timeout left
	// one behind.
	ctx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	metrics.WorkflowsStarted.Inc()
	c.logger.Info("Workflow started",
		zap.String("workflow_id", wf.ID),
		zap.String("user_id", intent.UserID),
		zap.Float64("budget", intent.Budget),
	)

	box := &mailbox{}
	agentsUsed := []string{string(agents.TypeOutfitSearch)}

	// Discovery: outfit search is required, makeup runs alongside when a
	// selfie reference is present. The coordinator only waits on outfit
	// search; makeup is best effort and its looks are picked up from the
	// mailbox at synthesis if they have landed by then. A slow or hung
	// makeup agent never holds the pipeline.
	if err := c.setStage(ctx, wf.ID, StatusRunning, StageDiscovery); err != nil {
		return nil, c.fail(ctx, wf, start, StageDiscovery, err)
	}
	go c.runOutfitSearch(ctx, wf.ID, intent, box)
	if intent.SelfieRef != "" {
		go c.runMakeup(ctx, wf.ID, intent, box)
	}

	if err := c.watcher.Wait(ctx, wf.ID, agents.TypeOutfitSearch, c.cfg.StageTimeout); err != nil {
		return nil, c.fail(ctx, wf, start, StageDiscovery, err)
	}

	// Validation: per-item size predictions, sequential. Skipped entirely
	// without measurements.
	if intent.Measurements != nil {
		if err := c.setStage(ctx, wf.ID, StatusRunning, StageValidation); err != nil {
			return nil, c.fail(ctx, wf, start, StageValidation, err)
		}
		if err := c.runSizePredictions(ctx, wf.ID, intent, box); err != nil {
			return nil, c.fail(ctx, wf, start, StageValidation, err)
		}
		agentsUsed = append(agentsUsed, string(agents.TypeSizePrediction))
	}

	// Risk: return-risk prediction over the leading cart.
	if err := c.setStage(ctx, wf.ID, StatusRunning, StageRisk); err != nil {
		return nil, c.fail(ctx, wf, start, StageRisk, err)
	}
	go c.runReturnRisk(ctx, wf.ID, intent, box)
	if err := c.watcher.Wait(ctx, wf.ID, agents.TypeReturnRisk, c.cfg.StageTimeout); err != nil {
		return nil, c.fail(ctx, wf, start, StageRisk, err)
	}
	agentsUsed = append(agentsUsed, string(agents.TypeReturnRisk))

	// Synthesis.
	if err := c.setStage(ctx, wf.ID, StatusRunning, StageSynthesis); err != nil {
		return nil, c.fail(ctx, wf, start, StageSynthesis, err)
	}
	rec, err := c.synthesize(wf.ID, box, agentsUsed, start)
	if err != nil {
		return nil, c.fail(ctx, wf, start, StageSynthesis, err)
	}
	if err := c.store.UpdateWorkflowStatus(ctx, wf.ID, StatusAggregated, StageSynthesis, ""); err != nil {
		return nil, c.fail(ctx, wf, start, StageSynthesis, err)
	}
	if err := c.store.SetWorkflowResult(ctx, wf.ID, rec); err != nil {
		return nil, c.fail(ctx, wf, start, StageSynthesis, err)
	}
	if err := c.store.UpdateWorkflowStatus(ctx, wf.ID, StatusDelivered, StageSynthesis, ""); err != nil {
		return nil, c.fail(ctx, wf, start, StageSynthesis, err)
	}

	elapsed := time.Since(start)
	metrics.RecordWorkflowMetrics("success", elapsed.Seconds())
	c.logger.Info("Workflow delivered",
		zap.String("workflow_id", wf.ID),
		zap.Int("recommendations", len(rec.Aggregated.Recommendations)),
		zap.Duration("duration", elapsed),
	)
	return rec, nil
}

func (c *Coordinator) runOutfitSearch(ctx context.Context, workflowID string, intent ShoppingIntent, box *mailbox) {
	inv := Invocation{
		WorkflowID: workflowID,
		Agent:      agents.TypeOutfitSearch,
		Params: agents.OutfitSearchParams{
			UserID:      intent.UserID,
			Budget:      intent.Budget,
			Occasion:    intent.Occasion,
			Style:       intent.Style,
			Preferences: intent.Preferences,
		},
		Required: true,
	}
	_, _ = c.executor.Run(ctx, inv, func(ctx context.Context) (interface{}, error) {
		res, err := c.collab.ComputeOutfits(ctx, inv.Params.(agents.OutfitSearchParams))
		if err != nil {
			return nil, err
		}
		bundles := outfits.Recommend(res.Catalog, intent.Budget, intent.Preferences, c.cfg.Weights, c.cfg.Bounds)
		if len(bundles) == 0 {
			return nil, fmt.Errorf("no outfit combination fits budget %.2f", intent.Budget)
		}
		confidences := make([]float64, len(bundles))
		for i, b := range bundles {
			confidences[i] = b.Confidence
		}
		metrics.RecordBundleMetrics(len(bundles), confidences)

		box.mu.Lock()
		box.bundles = bundles
		box.mu.Unlock()
		return map[string]interface{}{"bundles": len(bundles)}, nil
	})
}

func (c *Coordinator) runMakeup(ctx context.Context, workflowID string, intent ShoppingIntent, box *mailbox) {
	inv := Invocation{
		WorkflowID: workflowID,
		Agent:      agents.TypeMakeup,
		Params: agents.MakeupParams{
			UserID:    intent.UserID,
			Occasion:  intent.Occasion,
			SelfieRef: intent.SelfieRef,
		},
	}
	_, _ = c.executor.Run(ctx, inv, func(ctx context.Context) (interface{}, error) {
		res, err := c.collab.ComputeMakeup(ctx, inv.Params.(agents.MakeupParams))
		if err != nil {
			return nil, err
		}
		box.mu.Lock()
		box.looks = res.Looks
		box.mu.Unlock()
		return res, nil
	})
}

// runSizePredictions validates fit for each distinct product in the
// discovered bundles, in catalog order. One failed prediction fails the
// stage: a cart with unknown fit is worse than no cart.
func (c *Coordinator) runSizePredictions(ctx context.Context, workflowID string, intent ShoppingIntent, box *mailbox) error {
	box.mu.Lock()
	bundles := box.bundles
	box.mu.Unlock()

	seen := make(map[string]bool)
	for _, b := range bundles {
		for _, item := range b.Items {
			if seen[item.ID] {
				continue
			}
			seen[item.ID] = true

			inv := Invocation{
				WorkflowID: workflowID,
				Agent:      agents.TypeSizePrediction,
				Params: agents.SizeParams{
					UserID:       intent.UserID,
					Product:      item,
					Measurements: *intent.Measurements,
				},
				Required: true,
			}
			if err := c.runSizePrediction(ctx, inv, box); err != nil {
				return err
			}
		}
	}
	return nil
}

// runSizePrediction invokes the size agent for one product under the stage
// timeout. The coordinator stops waiting when the budget elapses even if the
// collaborator never honors cancellation; a late result is then discarded
// along with the failed workflow.
func (c *Coordinator) runSizePrediction(ctx context.Context, inv Invocation, box *mailbox) error {
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.StageTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		out, err := c.executor.Run(callCtx, inv, func(ctx context.Context) (interface{}, error) {
			return c.collab.PredictSize(ctx, inv.Params.(agents.SizeParams))
		})
		if err == nil {
			if res, ok := out.(*agents.SizeResult); ok && res != nil {
				box.mu.Lock()
				box.sizes = append(box.sizes, *res)
				box.mu.Unlock()
			}
		}
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-callCtx.Done():
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return &AgentTimeoutError{WorkflowID: inv.WorkflowID, Agent: inv.Agent, Timeout: c.cfg.StageTimeout}
		}
		return callCtx.Err()
	}
}

func (c *Coordinator) runReturnRisk(ctx context.Context, workflowID string, intent ShoppingIntent, box *mailbox) {
	box.mu.Lock()
	var items []outfits.Product
	if len(box.bundles) > 0 {
		items = box.bundles[0].Items
	}
	box.mu.Unlock()

	inv := Invocation{
		WorkflowID: workflowID,
		Agent:      agents.TypeReturnRisk,
		Params:     agents.ReturnRiskParams{UserID: intent.UserID, Items: items},
		Required:   true,
	}
	_, _ = c.executor.Run(ctx, inv, func(ctx context.Context) (interface{}, error) {
		res, err := c.collab.PredictReturnRisk(ctx, inv.Params.(agents.ReturnRiskParams))
		if err != nil {
			return nil, err
		}
		box.mu.Lock()
		box.risk = res
		box.mu.Unlock()
		return res, nil
	})
}

func (c *Coordinator) synthesize(workflowID string, box *mailbox, agentsUsed []string, start time.Time) (*CompleteRecommendation, error) {
	box.mu.Lock()
	bundles := box.bundles
	looks := box.looks
	sizes := box.sizes
	risk := box.risk
	box.mu.Unlock()

	if len(looks) > 0 {
		agentsUsed = append(agentsUsed, string(agents.TypeMakeup))
	}
	var riskScore *float64
	if risk != nil {
		riskScore = &risk.Score
	}
	agg, err := aggregate.Build(bundles, looks, riskScore)
	if err != nil {
		return nil, err
	}
	return &CompleteRecommendation{
		WorkflowID:      workflowID,
		Outfits:         bundles,
		Makeup:          looks,
		SizePredictions: sizes,
		ReturnRisk:      risk,
		Aggregated:      *agg,
		Metadata: RunMetadata{
			ProcessingTimeMs: time.Since(start).Milliseconds(),
			AgentsUsed:       agentsUsed,
			Success:          true,
		},
	}, nil
}

func (c *Coordinator) setStage(ctx context.Context, id string, status Status, stage Stage) error {
	return c.store.UpdateWorkflowStatus(ctx, id, status, stage, "")
}

// fail records the terminal error status and wraps the cause with the
// workflow identity. Callers return whatever comes back from an internal
// workflow directly; outer transports are expected to hide the reason and
// expose only the workflow id.
func (c *Coordinator) fail(ctx context.Context, wf *Workflow, start time.Time, stage Stage, cause error) error {
	if err := c.store.UpdateWorkflowStatus(ctx, wf.ID, StatusError, stage, cause.Error()); err != nil {
		c.logger.Error("Failed to record workflow error status",
			zap.String("workflow_id", wf.ID),
			zap.Error(err),
		)
	}
	metrics.RecordWorkflowMetrics("error", time.Since(start).Seconds())
	c.logger.Error("Workflow failed",
		zap.String("workflow_id", wf.ID),
		zap.String("user_id", wf.UserID),
		zap.String("stage", string(stage)),
		zap.Error(cause),
	)
	return &WorkflowError{WorkflowID: wf.ID, UserID: wf.UserID, Stage: stage, Err: cause}
}
