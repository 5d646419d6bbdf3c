// Package judge implements the HTTP client for the approval judge service,
// which evaluates submitted proof against a task's acceptance criteria.
package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	httppkg "github.com/taskhive/taskhive-backend/pkg/http"
	"github.com/taskhive/taskhive-backend/pkg/logging"
	"github.com/taskhive/taskhive-backend/pkg/types"
)

// EvaluationRequest carries everything the judge needs to reach a verdict.
type EvaluationRequest struct {
	Criteria     string          `json:"criteria"`
	ProofKind    types.ProofKind `json:"proof_kind"`
	ProofPayload string          `json:"proof_payload"`
	Description  string          `json:"description,omitempty"`
}

// JudgeClient handles communication with the approval judge service
type JudgeClient struct {
	logger     logging.Logger
	config     JudgeClientConfig
	httpClient *httppkg.HTTPClient
}

// NewJudgeClient creates a new instance of JudgeClient
func NewJudgeClient(logger logging.Logger, cfg JudgeClientConfig) (*JudgeClient, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if cfg.JudgeRPCUrl == "" {
		return nil, fmt.Errorf("judge RPC URL cannot be empty")
	}

	retryConfig := httppkg.DefaultHTTPRetryConfig()
	if cfg.RequestTimeout > 0 {
		retryConfig.Timeout = cfg.RequestTimeout
	}

	httpClient, err := httppkg.NewHTTPClient(retryConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	return &JudgeClient{
		logger:     logger,
		config:     cfg,
		httpClient: httpClient,
	}, nil
}

// Evaluate asks the judge for a verdict on the given proof. Any transport,
// status or decode failure is returned as an error and must be treated as
// "the attempt did not complete", never as a rejection.
func (c *JudgeClient) Evaluate(ctx context.Context, req EvaluationRequest) (*types.VerdictResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal evaluation request: %w", err)
	}

	url := fmt.Sprintf("%s/evaluate", c.config.JudgeRPCUrl)
	resp, err := c.httpClient.Post(ctx, url, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("judge service unreachable: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warnf("Failed to close response body: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("judge service error (status=%d): %s", resp.StatusCode, string(msg))
	}

	var verdict types.VerdictResult
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		return nil, fmt.Errorf("failed to decode judge verdict: %w", err)
	}

	return &verdict, nil
}

// Close releases the underlying HTTP connections
func (c *JudgeClient) Close() {
	c.httpClient.Close()
}
