package db

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JSONB represents a PostgreSQL jsonb column
type JSONB map[string]interface{}

// Value implements the driver.Valuer interface
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements the sql.Scanner interface
func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into JSONB", value)
	}

	return json.Unmarshal(bytes, j)
}

// workflowRow maps the workflows table.
type workflowRow struct {
	ID           string    `db:"id"`
	UserID       string    `db:"user_id"`
	Intent       JSONB     `db:"intent"`
	Status       string    `db:"status"`
	CurrentStage string    `db:"current_stage"`
	FinalResult  JSONB     `db:"final_result"`
	ErrorMessage string    `db:"error_message"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// agentMessageRow maps the agent_messages append-only log. seq preserves
// total write order per (workflow, agent) regardless of clock skew.
type agentMessageRow struct {
	ID          uuid.UUID `db:"id"`
	WorkflowID  string    `db:"workflow_id"`
	AgentType   string    `db:"agent_type"`
	MessageType string    `db:"message_type"`
	Payload     JSONB     `db:"payload"`
	Seq         int64     `db:"seq"`
	Timestamp   time.Time `db:"timestamp"`
}

// agentResultRow maps the agent_results table.
type agentResultRow struct {
	ID         uuid.UUID `db:"id"`
	WorkflowID string    `db:"workflow_id"`
	AgentType  string    `db:"agent_type"`
	Result     JSONB     `db:"result"`
	CreatedAt  time.Time `db:"created_at"`
}
