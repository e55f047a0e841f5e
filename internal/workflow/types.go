// Package workflow coordinates the multi-agent shopping pipeline: parallel
// discovery, sequential validation and risk stages, and final synthesis.
// Stages communicate through an append-only agent message log; the first
// output or error message per (workflow, agent) pair is the authoritative
// completion signal.
package workflow

import (
	"time"

	"github.com/style-shepherd/orchestrator/internal/agents"
	"github.com/style-shepherd/orchestrator/internal/aggregate"
	"github.com/style-shepherd/orchestrator/internal/outfits"
)

// Status is the lifecycle state of a workflow. Transitions are monotonic
// and written only by the coordinator; delivered and error are terminal.
type Status string

const (
	StatusPending    Status = "pending"
	StatusRunning    Status = "running"
	StatusAggregated Status = "aggregated"
	StatusDelivered  Status = "delivered"
	StatusError      Status = "error"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusError
}

// Stage names one pipeline step.
type Stage string

const (
	StageDiscovery  Stage = "discovery"
	StageValidation Stage = "validation"
	StageRisk       Stage = "risk"
	StageSynthesis  Stage = "synthesis"
)

// MessageType classifies entries in the agent message log.
type MessageType string

const (
	MessageInput  MessageType = "input"
	MessageOutput MessageType = "output"
	MessageError  MessageType = "error"
)

// ShoppingIntent is one end-to-end recommendation request.
type ShoppingIntent struct {
	UserID       string               `json:"user_id"`
	Budget       float64              `json:"budget"`
	Occasion     string               `json:"occasion,omitempty"`
	Style        string               `json:"style,omitempty"`
	Preferences  outfits.Preferences  `json:"preferences,omitempty"`
	Measurements *agents.Measurements `json:"measurements,omitempty"`
	SelfieRef    string               `json:"selfie_ref,omitempty"`
}

// Workflow is the persisted record of one recommendation request and its
// accumulated state. Created on submission, mutated only by the coordinator.
type Workflow struct {
	ID           string                  `json:"id"`
	UserID       string                  `json:"user_id"`
	Intent       ShoppingIntent          `json:"intent"`
	Status       Status                  `json:"status"`
	CurrentStage Stage                   `json:"current_stage,omitempty"`
	FinalResult  *CompleteRecommendation `json:"final_result,omitempty"`
	ErrorMessage string                  `json:"error_message,omitempty"`
	CreatedAt    time.Time               `json:"created_at"`
	UpdatedAt    time.Time               `json:"updated_at"`
}

// AgentMessage is one entry of the append-only message log. Messages are
// never mutated or deleted; total order per (workflow, agent) follows write
// time.
type AgentMessage struct {
	WorkflowID  string                 `json:"workflow_id"`
	AgentType   agents.Type            `json:"agent_type"`
	MessageType MessageType            `json:"message_type"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
}

// AgentResult is one stored agent output. Size prediction emits one per
// item, so multiple results per (workflow, agent) pair are expected.
type AgentResult struct {
	WorkflowID string                 `json:"workflow_id"`
	AgentType  agents.Type            `json:"agent_type"`
	Result     map[string]interface{} `json:"result"`
	CreatedAt  time.Time              `json:"created_at"`
}

// Analytics is the per-invocation execution record.
type Analytics struct {
	WorkflowID string      `json:"workflow_id"`
	AgentType  agents.Type `json:"agent_type"`
	DurationMs int64       `json:"duration_ms"`
	Success    bool        `json:"success"`
	Error      string      `json:"error,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}

// CompleteRecommendation is the full workflow output returned to the caller.
type CompleteRecommendation struct {
	WorkflowID      string                   `json:"workflow_id"`
	Outfits         []outfits.Bundle         `json:"outfits,omitempty"`
	Makeup          []agents.MakeupLook      `json:"makeup,omitempty"`
	SizePredictions []agents.SizeResult      `json:"size_predictions,omitempty"`
	ReturnRisk      *agents.ReturnRiskResult `json:"return_risk,omitempty"`
	Aggregated      aggregate.Result         `json:"aggregated"`
	Metadata        RunMetadata              `json:"metadata"`
}

// RunMetadata summarizes the execution.
type RunMetadata struct {
	ProcessingTimeMs int64    `json:"processing_time_ms"`
	AgentsUsed       []string `json:"agents_used"`
	Success          bool     `json:"success"`
}
