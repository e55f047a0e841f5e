package agents

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// HTTPCollaborators invokes the agent services over HTTP. Each agent type
// is a POST endpoint under the base URL; responses are the typed result
// payloads.
type HTTPCollaborators struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPCollaborators creates a client for the agent services.
func NewHTTPCollaborators(baseURL string, logger *zap.Logger) *HTTPCollaborators {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPCollaborators{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

var _ Collaborators = (*HTTPCollaborators)(nil)

func (c *HTTPCollaborators) ComputeOutfits(ctx context.Context, params OutfitSearchParams) (*OutfitSearchResult, error) {
	var res OutfitSearchResult
	if err := c.post(ctx, TypeOutfitSearch, params, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *HTTPCollaborators) ComputeMakeup(ctx context.Context, params MakeupParams) (*MakeupResult, error) {
	var res MakeupResult
	if err := c.post(ctx, TypeMakeup, params, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *HTTPCollaborators) PredictSize(ctx context.Context, params SizeParams) (*SizeResult, error) {
	var res SizeResult
	if err := c.post(ctx, TypeSizePrediction, params, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *HTTPCollaborators) PredictReturnRisk(ctx context.Context, params ReturnRiskParams) (*ReturnRiskResult, error) {
	var res ReturnRiskResult
	if err := c.post(ctx, TypeReturnRisk, params, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *HTTPCollaborators) post(ctx context.Context, agent Type, params, out interface{}) error {
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encode %s params: %w", agent, err)
	}

	url := fmt.Sprintf("%s/agents/%s", c.baseURL, agent)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", agent, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", agent, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Bounded read keeps a misbehaving agent from flooding the log.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("Agent returned non-200",
			zap.String("agent", string(agent)),
			zap.Int("status", resp.StatusCode),
		)
		return fmt.Errorf("%s returned status %d: %s", agent, resp.StatusCode, snippet)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", agent, err)
	}
	return nil
}
