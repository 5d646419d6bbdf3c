package treasury

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive-backend/pkg/logging"
	"github.com/taskhive/taskhive-backend/pkg/types"
)

func newClient(t *testing.T, url string) *TreasuryClient {
	t.Helper()
	client, err := NewTreasuryClient(&logging.NoopLogger{}, TreasuryClientConfig{
		TreasuryRPCUrl: url,
		RequestTimeout: 2 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client
}

func TestTransfer(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		require.Equal(t, "/transfer", r.URL.Path)

		var req transferRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Amount.Equal(decimal.RequireFromString("7.50")))

		_ = json.NewEncoder(w).Encode(types.TransferResult{Success: true, Signature: "sig-1"})
	}))
	defer srv.Close()

	client := newClient(t, srv.URL)
	result, err := client.Transfer(context.Background(), "addr", decimal.RequireFromString("7.50"))
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "sig-1", result.Signature)
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))
}

func TestTransferIsNeverRetried(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		http.Error(w, "temporarily unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := newClient(t, srv.URL)
	_, err := client.Transfer(context.Background(), "addr", decimal.RequireFromString("1"))
	require.Error(t, err)
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls), "a transfer must be submitted exactly once")
}

func TestConfirm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/confirm/sig-1", r.URL.Path)
		_ = json.NewEncoder(w).Encode(types.ConfirmationResult{Confirmed: true})
	}))
	defer srv.Close()

	client := newClient(t, srv.URL)
	result, err := client.Confirm(context.Background(), "sig-1")
	require.NoError(t, err)
	assert.True(t, result.Confirmed)
}

func TestConfirmRetriesTransientFailures(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&calls, 1) < 3 {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(types.ConfirmationResult{Confirmed: true})
	}))
	defer srv.Close()

	client := newClient(t, srv.URL)
	result, err := client.Confirm(context.Background(), "sig-1")
	require.NoError(t, err)
	assert.True(t, result.Confirmed)
	assert.GreaterOrEqual(t, atomic.LoadInt64(&calls), int64(3), "confirmation reads are retried")
}
