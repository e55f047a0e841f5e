package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/style-shepherd/orchestrator/internal/agents"
)

// MemoryStore is an arena-style in-memory Store keyed by workflow id:
// single-writer status updates, concurrent-safe message appends. It is the
// default backend when no database is configured, and the workhorse of the
// package tests.
type MemoryStore struct {
	mu     sync.RWMutex
	arenas map[string]*arena
}

type arena struct {
	wf        Workflow
	messages  []AgentMessage
	results   []AgentResult
	analytics []Analytics
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{arenas: make(map[string]*arena)}
}

func (s *MemoryStore) CreateWorkflow(ctx context.Context, wf *Workflow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *wf
	now := time.Now()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	s.arenas[wf.ID] = &arena{wf: cp}
	return nil
}

func (s *MemoryStore) UpdateWorkflowStatus(ctx context.Context, id string, status Status, stage Stage, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.arenas[id]
	if !ok {
		return ErrWorkflowNotFound
	}
	a.wf.Status = status
	a.wf.CurrentStage = stage
	if status == StatusError {
		a.wf.ErrorMessage = errMsg
	}
	a.wf.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) SetWorkflowResult(ctx context.Context, id string, result *CompleteRecommendation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.arenas[id]
	if !ok {
		return ErrWorkflowNotFound
	}
	a.wf.FinalResult = result
	a.wf.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) GetWorkflow(ctx context.Context, id string) (*Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.arenas[id]
	if !ok {
		return nil, ErrWorkflowNotFound
	}
	cp := a.wf
	return &cp, nil
}

func (s *MemoryStore) CreateAgentMessage(ctx context.Context, msg *AgentMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.arenas[msg.WorkflowID]
	if !ok {
		return ErrWorkflowNotFound
	}
	cp := *msg
	if cp.Timestamp.IsZero() {
		cp.Timestamp = time.Now()
	}
	a.messages = append(a.messages, cp)
	return nil
}

func (s *MemoryStore) GetAgentMessages(ctx context.Context, workflowID string, agent agents.Type) ([]AgentMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.arenas[workflowID]
	if !ok {
		return nil, ErrWorkflowNotFound
	}
	out := make([]AgentMessage, 0, len(a.messages))
	for _, m := range a.messages {
		if m.AgentType == agent {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *MemoryStore) AddAgentResult(ctx context.Context, res *AgentResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.arenas[res.WorkflowID]
	if !ok {
		return ErrWorkflowNotFound
	}
	cp := *res
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	a.results = append(a.results, cp)
	return nil
}

func (s *MemoryStore) RecordAnalytics(ctx context.Context, rec *Analytics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.arenas[rec.WorkflowID]
	if !ok {
		return ErrWorkflowNotFound
	}
	cp := *rec
	if cp.Timestamp.IsZero() {
		cp.Timestamp = time.Now()
	}
	a.analytics = append(a.analytics, cp)
	return nil
}

// AgentResults returns stored results for a workflow, for tests and the
// offline training export.
func (s *MemoryStore) AgentResults(workflowID string) []AgentResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.arenas[workflowID]
	if !ok {
		return nil
	}
	out := make([]AgentResult, len(a.results))
	copy(out, a.results)
	return out
}

// AnalyticsFor returns stored analytics for a workflow.
func (s *MemoryStore) AnalyticsFor(workflowID string) []Analytics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.arenas[workflowID]
	if !ok {
		return nil
	}
	out := make([]Analytics, len(a.analytics))
	copy(out, a.analytics)
	return out
}
