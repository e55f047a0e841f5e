// Package db implements the workflow store on PostgreSQL. The agent message
// log lives in an append-only table with a sequence column; everything else
// is plain row-per-record persistence.
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/style-shepherd/orchestrator/internal/agents"
	"github.com/style-shepherd/orchestrator/internal/workflow"
)

// Config holds database configuration
type Config struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxConnections  int
	IdleConnections int
	MaxLifetime     time.Duration
	SSLMode         string
}

// Store is the PostgreSQL workflow.Store implementation.
type Store struct {
	db     *sqlx.DB
	logger *zap.Logger
}

var _ workflow.Store = (*Store)(nil)

// NewStore opens a connection pool and verifies connectivity.
func NewStore(config *Config, logger *zap.Logger) (*Store, error) {
	if config.MaxConnections == 0 {
		config.MaxConnections = 25
	}
	if config.IdleConnections == 0 {
		config.IdleConnections = 5
	}
	if config.MaxLifetime == 0 {
		config.MaxLifetime = 5 * time.Minute
	}
	if config.SSLMode == "" {
		config.SSLMode = "require"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.Database, config.SSLMode,
	)
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(config.MaxConnections)
	db.SetMaxIdleConns(config.IdleConnections)
	db.SetConnMaxLifetime(config.MaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Database connection established",
		zap.String("host", config.Host),
		zap.String("database", config.Database),
	)
	return &Store{db: db, logger: logger}, nil
}

// NewStoreWithDB wraps an existing connection. Used by tests.
func NewStoreWithDB(db *sqlx.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger}
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies connectivity, for health checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) CreateWorkflow(ctx context.Context, wf *workflow.Workflow) error {
	intent, err := toJSONB(wf.Intent)
	if err != nil {
		return fmt.Errorf("encode intent: %w", err)
	}
	now := time.Now()
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO workflows (id, user_id, intent, status, current_stage, error_message, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    `, wf.ID, wf.UserID, intent, string(wf.Status), string(wf.CurrentStage), wf.ErrorMessage, now, now)
	if err != nil {
		return fmt.Errorf("insert workflow: %w", err)
	}
	return nil
}

func (s *Store) UpdateWorkflowStatus(ctx context.Context, id string, status workflow.Status, stage workflow.Stage, errMsg string) error {
	res, err := s.db.ExecContext(ctx, `
        UPDATE workflows
        SET status = $2, current_stage = $3, error_message = $4, updated_at = $5
        WHERE id = $1
    `, id, string(status), string(stage), errMsg, time.Now())
	if err != nil {
		return fmt.Errorf("update workflow status: %w", err)
	}
	return checkFound(res)
}

func (s *Store) SetWorkflowResult(ctx context.Context, id string, result *workflow.CompleteRecommendation) error {
	payload, err := toJSONB(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
        UPDATE workflows SET final_result = $2, updated_at = $3 WHERE id = $1
    `, id, payload, time.Now())
	if err != nil {
		return fmt.Errorf("set workflow result: %w", err)
	}
	return checkFound(res)
}

func (s *Store) GetWorkflow(ctx context.Context, id string) (*workflow.Workflow, error) {
	var row workflowRow
	err := s.db.GetContext(ctx, &row, `
        SELECT id, user_id, intent, status, current_stage, final_result, error_message, created_at, updated_at
        FROM workflows WHERE id = $1
    `, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, workflow.ErrWorkflowNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select workflow: %w", err)
	}

	wf := &workflow.Workflow{
		ID:           row.ID,
		UserID:       row.UserID,
		Status:       workflow.Status(row.Status),
		CurrentStage: workflow.Stage(row.CurrentStage),
		ErrorMessage: row.ErrorMessage,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	if err := fromJSONB(row.Intent, &wf.Intent); err != nil {
		return nil, fmt.Errorf("decode intent: %w", err)
	}
	if row.FinalResult != nil {
		wf.FinalResult = &workflow.CompleteRecommendation{}
		if err := fromJSONB(row.FinalResult, wf.FinalResult); err != nil {
			return nil, fmt.Errorf("decode final result: %w", err)
		}
	}
	return wf, nil
}

func (s *Store) CreateAgentMessage(ctx context.Context, msg *workflow.AgentMessage) error {
	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO agent_messages (id, workflow_id, agent_type, message_type, payload, timestamp)
        VALUES ($1,$2,$3,$4,$5,$6)
    `, uuid.New(), msg.WorkflowID, string(msg.AgentType), string(msg.MessageType), JSONB(msg.Payload), ts)
	if err != nil {
		return fmt.Errorf("insert agent message: %w", err)
	}
	return nil
}

func (s *Store) GetAgentMessages(ctx context.Context, workflowID string, agent agents.Type) ([]workflow.AgentMessage, error) {
	var rows []agentMessageRow
	err := s.db.SelectContext(ctx, &rows, `
        SELECT id, workflow_id, agent_type, message_type, payload, seq, timestamp
        FROM agent_messages
        WHERE workflow_id = $1 AND agent_type = $2
        ORDER BY seq ASC
    `, workflowID, string(agent))
	if err != nil {
		return nil, fmt.Errorf("select agent messages: %w", err)
	}

	msgs := make([]workflow.AgentMessage, 0, len(rows))
	for _, r := range rows {
		msgs = append(msgs, workflow.AgentMessage{
			WorkflowID:  r.WorkflowID,
			AgentType:   agents.Type(r.AgentType),
			MessageType: workflow.MessageType(r.MessageType),
			Payload:     r.Payload,
			Timestamp:   r.Timestamp,
		})
	}
	return msgs, nil
}

func (s *Store) AddAgentResult(ctx context.Context, res *workflow.AgentResult) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO agent_results (id, workflow_id, agent_type, result, created_at)
        VALUES ($1,$2,$3,$4,$5)
    `, uuid.New(), res.WorkflowID, string(res.AgentType), JSONB(res.Result), time.Now())
	if err != nil {
		return fmt.Errorf("insert agent result: %w", err)
	}
	return nil
}

func (s *Store) RecordAnalytics(ctx context.Context, a *workflow.Analytics) error {
	ts := a.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO agent_analytics (id, workflow_id, agent_type, duration_ms, success, error, timestamp)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
    `, uuid.New(), a.WorkflowID, string(a.AgentType), a.DurationMs, a.Success, a.Error, ts)
	if err != nil {
		return fmt.Errorf("insert analytics: %w", err)
	}
	return nil
}

func checkFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return nil
	}
	if n == 0 {
		return workflow.ErrWorkflowNotFound
	}
	return nil
}

func toJSONB(v interface{}) (JSONB, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m JSONB
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func fromJSONB(j JSONB, out interface{}) error {
	data, err := json.Marshal(j)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
