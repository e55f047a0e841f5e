// Package messagelog keeps the hot agent message log in Redis while
// delegating durable workflow state to another store. Completion polling
// hits the log hundreds of times per workflow; Redis lists absorb that
// read load and RPUSH preserves append order.
package messagelog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/style-shepherd/orchestrator/internal/agents"
	"github.com/style-shepherd/orchestrator/internal/workflow"
)

// DefaultTTL expires message lists well after any workflow could still be
// polling them.
const DefaultTTL = 24 * time.Hour

// RedisLog stores agent messages as Redis lists, one per
// (workflow, agent) pair.
type RedisLog struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisLog connects to Redis and verifies connectivity. The password is
// read from REDIS_PASSWORD.
func NewRedisLog(addr string, logger *zap.Logger) (*RedisLog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     os.Getenv("REDIS_PASSWORD"),
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisLog{client: client, ttl: DefaultTTL, logger: logger}, nil
}

// NewRedisLogWithClient wraps an existing client. Used by tests.
func NewRedisLogWithClient(client *redis.Client, logger *zap.Logger) *RedisLog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisLog{client: client, ttl: DefaultTTL, logger: logger}
}

// Close releases the Redis connection.
func (l *RedisLog) Close() error {
	return l.client.Close()
}

// Ping verifies connectivity, for health checks.
func (l *RedisLog) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

func key(workflowID string, agent agents.Type) string {
	return fmt.Sprintf("shepherd:msgs:%s:%s", workflowID, agent)
}

// Append pushes one message onto the pair's list. RPUSH keeps write order,
// so the first output or error element stays first forever.
func (l *RedisLog) Append(ctx context.Context, msg *workflow.AgentMessage) error {
	cp := *msg
	if cp.Timestamp.IsZero() {
		cp.Timestamp = time.Now()
	}
	data, err := json.Marshal(&cp)
	if err != nil {
		return fmt.Errorf("encode agent message: %w", err)
	}

	k := key(cp.WorkflowID, cp.AgentType)
	pipe := l.client.TxPipeline()
	pipe.RPush(ctx, k, data)
	pipe.Expire(ctx, k, l.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append agent message: %w", err)
	}
	return nil
}

// Messages returns the pair's full log in append order.
func (l *RedisLog) Messages(ctx context.Context, workflowID string, agent agents.Type) ([]workflow.AgentMessage, error) {
	raw, err := l.client.LRange(ctx, key(workflowID, agent), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read agent messages: %w", err)
	}

	msgs := make([]workflow.AgentMessage, 0, len(raw))
	for _, item := range raw {
		var m workflow.AgentMessage
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			// A corrupt entry is logged and skipped rather than wedging
			// every poller on the pair.
			l.logger.Warn("Skipping undecodable agent message",
				zap.String("workflow_id", workflowID),
				zap.String("agent", string(agent)),
				zap.Error(err),
			)
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}
