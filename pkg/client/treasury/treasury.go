// Package treasury implements the HTTP client for the settlement service:
// the funds-transfer executor and the transaction-confirmation checker.
package treasury

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/shopspring/decimal"

	httppkg "github.com/taskhive/taskhive-backend/pkg/http"
	"github.com/taskhive/taskhive-backend/pkg/logging"
	"github.com/taskhive/taskhive-backend/pkg/types"
)

type transferRequest struct {
	ToAddress string          `json:"to_address"`
	Amount    decimal.Decimal `json:"amount"`
}

// TreasuryClient handles communication with the funds-transfer executor and
// the confirmation checker.
type TreasuryClient struct {
	logger     logging.Logger
	config     TreasuryClientConfig
	httpClient *httppkg.HTTPClient
}

// NewTreasuryClient creates a new instance of TreasuryClient
func NewTreasuryClient(logger logging.Logger, cfg TreasuryClientConfig) (*TreasuryClient, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if cfg.TreasuryRPCUrl == "" {
		return nil, fmt.Errorf("treasury RPC URL cannot be empty")
	}

	retryConfig := httppkg.DefaultHTTPRetryConfig()
	if cfg.RequestTimeout > 0 {
		retryConfig.Timeout = cfg.RequestTimeout
	}

	httpClient, err := httppkg.NewHTTPClient(retryConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	return &TreasuryClient{
		logger:     logger,
		config:     cfg,
		httpClient: httpClient,
	}, nil
}

// Transfer submits a funds transfer. The request is sent exactly once: a
// replayed transfer could pay a worker twice, so transport-level retries are
// disabled and a timeout is reported to the caller as a failed attempt.
func (c *TreasuryClient) Transfer(ctx context.Context, toAddress string, amount decimal.Decimal) (*types.TransferResult, error) {
	body, err := json.Marshal(transferRequest{ToAddress: toAddress, Amount: amount})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal transfer request: %w", err)
	}

	url := fmt.Sprintf("%s/transfer", c.config.TreasuryRPCUrl)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create transfer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transfer submission failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warnf("Failed to close response body: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("treasury service error (status=%d): %s", resp.StatusCode, string(msg))
	}

	var result types.TransferResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode transfer result: %w", err)
	}

	return &result, nil
}

// Confirm checks whether a submitted transfer landed. Read-only, so it is
// safe to retry on transient failures.
func (c *TreasuryClient) Confirm(ctx context.Context, signature string) (*types.ConfirmationResult, error) {
	url := fmt.Sprintf("%s/confirm/%s", c.config.TreasuryRPCUrl, signature)
	resp, err := c.httpClient.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("confirmation check failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warnf("Failed to close response body: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("treasury service error (status=%d): %s", resp.StatusCode, string(msg))
	}

	var result types.ConfirmationResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode confirmation result: %w", err)
	}

	return &result, nil
}

// Close releases the underlying HTTP connections
func (c *TreasuryClient) Close() {
	c.httpClient.Close()
}
