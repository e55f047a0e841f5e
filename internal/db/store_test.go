package db

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/style-shepherd/orchestrator/internal/agents"
	"github.com/style-shepherd/orchestrator/internal/workflow"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	t.Cleanup(func() { raw.Close() })
	return NewStoreWithDB(sqlx.NewDb(raw, "sqlmock"), zap.NewNop()), mock
}

func TestCreateWorkflow(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO workflows").
		WithArgs("wf-1", "u-1", sqlmock.AnyArg(), "pending", "", "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.CreateWorkflow(context.Background(), &workflow.Workflow{
		ID:     "wf-1",
		UserID: "u-1",
		Intent: workflow.ShoppingIntent{UserID: "u-1", Budget: 300},
		Status: workflow.StatusPending,
	})
	if err != nil {
		t.Fatalf("CreateWorkflow failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUpdateWorkflowStatus(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("UPDATE workflows").
		WithArgs("wf-1", "error", "risk", "boom", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.UpdateWorkflowStatus(context.Background(), "wf-1", workflow.StatusError, workflow.StageRisk, "boom")
	if err != nil {
		t.Fatalf("UpdateWorkflowStatus failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUpdateWorkflowStatusNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("UPDATE workflows").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.UpdateWorkflowStatus(context.Background(), "missing", workflow.StatusRunning, workflow.StageDiscovery, "")
	if err != workflow.ErrWorkflowNotFound {
		t.Fatalf("error = %v, want ErrWorkflowNotFound", err)
	}
}

func TestGetWorkflow(t *testing.T) {
	store, mock := newMockStore(t)

	intent, _ := json.Marshal(workflow.ShoppingIntent{UserID: "u-1", Budget: 250})
	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "intent", "status", "current_stage", "final_result", "error_message", "created_at", "updated_at",
	}).AddRow("wf-1", "u-1", intent, "running", "discovery", nil, "", now, now)

	mock.ExpectQuery("SELECT (.+) FROM workflows").
		WithArgs("wf-1").
		WillReturnRows(rows)

	wf, err := store.GetWorkflow(context.Background(), "wf-1")
	if err != nil {
		t.Fatalf("GetWorkflow failed: %v", err)
	}
	if wf.Status != workflow.StatusRunning || wf.CurrentStage != workflow.StageDiscovery {
		t.Errorf("unexpected workflow: %+v", wf)
	}
	if wf.Intent.Budget != 250 {
		t.Errorf("intent budget = %v, want 250", wf.Intent.Budget)
	}
	if wf.FinalResult != nil {
		t.Errorf("final result = %+v, want nil", wf.FinalResult)
	}
}

func TestGetWorkflowNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM workflows").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.GetWorkflow(context.Background(), "missing")
	if err != workflow.ErrWorkflowNotFound {
		t.Fatalf("error = %v, want ErrWorkflowNotFound", err)
	}
}

func TestAgentMessageRoundTrip(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO agent_messages").
		WithArgs(sqlmock.AnyArg(), "wf-1", "outfit_search", "output", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.CreateAgentMessage(context.Background(), &workflow.AgentMessage{
		WorkflowID:  "wf-1",
		AgentType:   agents.TypeOutfitSearch,
		MessageType: workflow.MessageOutput,
		Payload:     map[string]interface{}{"bundles": 2},
	})
	if err != nil {
		t.Fatalf("CreateAgentMessage failed: %v", err)
	}

	payload, _ := json.Marshal(map[string]interface{}{"bundles": 2})
	rows := sqlmock.NewRows([]string{
		"id", "workflow_id", "agent_type", "message_type", "payload", "seq", "timestamp",
	}).
		AddRow("11111111-1111-1111-1111-111111111111", "wf-1", "outfit_search", "input", nil, 1, time.Now()).
		AddRow("22222222-2222-2222-2222-222222222222", "wf-1", "outfit_search", "output", payload, 2, time.Now())

	mock.ExpectQuery("SELECT (.+) FROM agent_messages").
		WithArgs("wf-1", "outfit_search").
		WillReturnRows(rows)

	msgs, err := store.GetAgentMessages(context.Background(), "wf-1", agents.TypeOutfitSearch)
	if err != nil {
		t.Fatalf("GetAgentMessages failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].MessageType != workflow.MessageInput || msgs[1].MessageType != workflow.MessageOutput {
		t.Errorf("order wrong: %s, %s", msgs[0].MessageType, msgs[1].MessageType)
	}
	if msgs[1].Payload["bundles"] != float64(2) {
		t.Errorf("payload = %+v", msgs[1].Payload)
	}
}

func TestAddAgentResultAndAnalytics(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO agent_results").
		WithArgs(sqlmock.AnyArg(), "wf-1", "return_risk", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.AddAgentResult(context.Background(), &workflow.AgentResult{
		WorkflowID: "wf-1",
		AgentType:  agents.TypeReturnRisk,
		Result:     map[string]interface{}{"score": 0.2},
	})
	if err != nil {
		t.Fatalf("AddAgentResult failed: %v", err)
	}

	mock.ExpectExec("INSERT INTO agent_analytics").
		WithArgs(sqlmock.AnyArg(), "wf-1", "return_risk", int64(42), true, "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = store.RecordAnalytics(context.Background(), &workflow.Analytics{
		WorkflowID: "wf-1",
		AgentType:  agents.TypeReturnRisk,
		DurationMs: 42,
		Success:    true,
	})
	if err != nil {
		t.Fatalf("RecordAnalytics failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestJSONBScanValue(t *testing.T) {
	j := JSONB{"k": "v"}
	v, err := j.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}

	var out JSONB
	if err := out.Scan(v); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if out["k"] != "v" {
		t.Errorf("round trip = %+v", out)
	}

	var nilOut JSONB
	if err := nilOut.Scan(nil); err != nil || nilOut != nil {
		t.Errorf("Scan(nil) = %v, %v", nilOut, err)
	}
}
