// Package rewards implements the HTTP client for the rewards source, which
// reports and pays out the balance funding the task budget.
package rewards

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	httppkg "github.com/taskhive/taskhive-backend/pkg/http"
	"github.com/taskhive/taskhive-backend/pkg/logging"
	"github.com/taskhive/taskhive-backend/pkg/types"
)

// RewardsClientConfig holds the connection settings for the rewards source.
type RewardsClientConfig struct {
	RewardsRPCUrl  string
	RequestTimeout time.Duration
}

// RewardsClient handles communication with the rewards source
type RewardsClient struct {
	logger     logging.Logger
	config     RewardsClientConfig
	httpClient *httppkg.HTTPClient
}

// NewRewardsClient creates a new instance of RewardsClient
func NewRewardsClient(logger logging.Logger, cfg RewardsClientConfig) (*RewardsClient, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if cfg.RewardsRPCUrl == "" {
		return nil, fmt.Errorf("rewards RPC URL cannot be empty")
	}

	retryConfig := httppkg.DefaultHTTPRetryConfig()
	if cfg.RequestTimeout > 0 {
		retryConfig.Timeout = cfg.RequestTimeout
	}

	httpClient, err := httppkg.NewHTTPClient(retryConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	return &RewardsClient{
		logger:     logger,
		config:     cfg,
		httpClient: httpClient,
	}, nil
}

// QueryBalance returns the balance and claimable rewards for an address.
func (c *RewardsClient) QueryBalance(ctx context.Context, address string) (*types.BalanceResult, error) {
	url := fmt.Sprintf("%s/balance/%s", c.config.RewardsRPCUrl, address)
	resp, err := c.httpClient.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("balance query failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warnf("Failed to close response body: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("rewards service error (status=%d): %s", resp.StatusCode, string(msg))
	}

	var result types.BalanceResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode balance result: %w", err)
	}

	return &result, nil
}

// Claim pays out the claimable rewards for an address. Like a transfer, a
// claim mutates external state and is sent exactly once.
func (c *RewardsClient) Claim(ctx context.Context, address string) (*types.ClaimResult, error) {
	url := fmt.Sprintf("%s/claim/%s", c.config.RewardsRPCUrl, address)
	req, err := http.NewRequestWithContext(ctx, "POST", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create claim request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("claim submission failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warnf("Failed to close response body: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("rewards service error (status=%d): %s", resp.StatusCode, string(msg))
	}

	var result types.ClaimResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode claim result: %w", err)
	}

	return &result, nil
}

// Close releases the underlying HTTP connections
func (c *RewardsClient) Close() {
	c.httpClient.Close()
}
