package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/style-shepherd/orchestrator/internal/agents"
)

func TestExecutorSuccess(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	x := NewExecutor(s, nil, nil)

	inv := Invocation{
		WorkflowID: "wf-1",
		Agent:      agents.TypeOutfitSearch,
		Params:     agents.OutfitSearchParams{UserID: "u-1", Budget: 200},
		Required:   true,
	}
	out, err := x.Run(ctx, inv, func(ctx context.Context) (interface{}, error) {
		return map[string]interface{}{"bundles": 3}, nil
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out == nil {
		t.Fatal("Run returned nil output")
	}

	msgs, err := s.GetAgentMessages(ctx, "wf-1", agents.TypeOutfitSearch)
	if err != nil {
		t.Fatalf("GetAgentMessages failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want input and output", len(msgs))
	}
	if msgs[0].MessageType != MessageInput || msgs[1].MessageType != MessageOutput {
		t.Errorf("message types = %s, %s", msgs[0].MessageType, msgs[1].MessageType)
	}
	if msgs[0].Payload["user_id"] != "u-1" {
		t.Errorf("input payload lost params: %+v", msgs[0].Payload)
	}

	results := s.AgentResults("wf-1")
	if len(results) != 1 {
		t.Fatalf("got %d stored results, want 1", len(results))
	}
	recs := s.AnalyticsFor("wf-1")
	if len(recs) != 1 || !recs[0].Success {
		t.Errorf("unexpected analytics: %+v", recs)
	}
}

func TestExecutorRequiredFailure(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	x := NewExecutor(s, nil, nil)

	inv := Invocation{WorkflowID: "wf-1", Agent: agents.TypeOutfitSearch, Required: true}
	_, err := x.Run(ctx, inv, func(ctx context.Context) (interface{}, error) {
		return nil, errors.New("vendor down")
	})
	var failure *AgentFailureError
	if !errors.As(err, &failure) {
		t.Fatalf("Run error = %v, want *AgentFailureError", err)
	}
	if failure.Reason != "vendor down" {
		t.Errorf("Reason = %q, want %q", failure.Reason, "vendor down")
	}

	msgs, _ := s.GetAgentMessages(ctx, "wf-1", agents.TypeOutfitSearch)
	if len(msgs) != 2 || msgs[1].MessageType != MessageError {
		t.Fatalf("expected input then error message, got %+v", msgs)
	}
	if msgs[1].Payload["error"] != "vendor down" {
		t.Errorf("error payload = %+v", msgs[1].Payload)
	}
	if results := s.AgentResults("wf-1"); len(results) != 0 {
		t.Errorf("failure must not store a result, got %d", len(results))
	}
	recs := s.AnalyticsFor("wf-1")
	if len(recs) != 1 || recs[0].Success {
		t.Errorf("unexpected analytics: %+v", recs)
	}
}

func TestExecutorOptionalFailureSwallowed(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	x := NewExecutor(s, nil, nil)

	inv := Invocation{WorkflowID: "wf-1", Agent: agents.TypeMakeup}
	out, err := x.Run(ctx, inv, func(ctx context.Context) (interface{}, error) {
		return nil, errors.New("no selfie match")
	})
	if err != nil {
		t.Fatalf("optional failure must not propagate, got %v", err)
	}
	if out != nil {
		t.Errorf("optional failure output = %v, want nil", out)
	}

	// The error still lands in the log so watchers observe the outcome.
	msgs, _ := s.GetAgentMessages(ctx, "wf-1", agents.TypeMakeup)
	if len(msgs) != 2 || msgs[1].MessageType != MessageError {
		t.Fatalf("expected input then error message, got %+v", msgs)
	}
}

func TestToPayload(t *testing.T) {
	if p := toPayload(nil); p != nil {
		t.Errorf("toPayload(nil) = %v, want nil", p)
	}

	p := toPayload(agents.SizeParams{UserID: "u-1"})
	if p["user_id"] != "u-1" {
		t.Errorf("struct payload = %+v", p)
	}

	m := map[string]interface{}{"k": "v"}
	if got := toPayload(m); got["k"] != "v" {
		t.Errorf("map payload = %+v", got)
	}
}
