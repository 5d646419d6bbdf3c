package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive-backend/internal/store"
	"github.com/taskhive/taskhive-backend/pkg/apperrors"
	"github.com/taskhive/taskhive-backend/pkg/logging"
	"github.com/taskhive/taskhive-backend/pkg/types"
)

const fundingAddress = "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"

type mockSource struct {
	balance    *types.BalanceResult
	balanceErr error
	claim      *types.ClaimResult
	claimErr   error
	claimCalls int
}

func (m *mockSource) QueryBalance(ctx context.Context, address string) (*types.BalanceResult, error) {
	if m.balanceErr != nil {
		return nil, m.balanceErr
	}
	return m.balance, nil
}

func (m *mockSource) Claim(ctx context.Context, address string) (*types.ClaimResult, error) {
	m.claimCalls++
	if m.claimErr != nil {
		return nil, m.claimErr
	}
	return m.claim, nil
}

func newTestService(t *testing.T, source *mockSource) (*Service, *store.MemoryStore) {
	t.Helper()
	s := store.NewMemoryStore()
	svc := NewService(s, source, &logging.NoopLogger{}, ServiceConfig{
		FundingAddress: fundingAddress,
	})
	return svc, s
}

func TestRefresh(t *testing.T) {
	source := &mockSource{
		balance: &types.BalanceResult{
			Address:   fundingAddress,
			Balance:   decimal.RequireFromString("120"),
			Claimable: decimal.RequireFromString("3"),
		},
	}
	svc, _ := newTestService(t, source)

	budget, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.True(t, budget.Balance.Equal(decimal.RequireFromString("120")))
	assert.Equal(t, fundingAddress, budget.FundingAddress)
	assert.True(t, budget.TotalPaidOut.IsZero())

	// A later refresh overwrites the balance.
	source.balance.Balance = decimal.RequireFromString("80")
	budget, err = svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.True(t, budget.Balance.Equal(decimal.RequireFromString("80")))
}

func TestRefreshSourceUnavailable(t *testing.T) {
	source := &mockSource{balanceErr: errors.New("timeout")}
	svc, s := newTestService(t, source)

	_, err := svc.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindCollaborator))

	// No partial write.
	_, err = s.GetBudget(context.Background())
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestRefreshWithoutFundingAddress(t *testing.T) {
	s := store.NewMemoryStore()
	svc := NewService(s, &mockSource{}, &logging.NoopLogger{}, ServiceConfig{})

	_, err := svc.Refresh(context.Background())
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestClaimRewards(t *testing.T) {
	source := &mockSource{
		balance: &types.BalanceResult{
			Address: fundingAddress,
			Balance: decimal.RequireFromString("125"),
		},
		claim: &types.ClaimResult{
			Amount:    decimal.RequireFromString("5"),
			Signature: "claim-sig",
		},
	}
	svc, _ := newTestService(t, source)

	budget, err := svc.ClaimRewards(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, source.claimCalls)
	assert.True(t, budget.Balance.Equal(decimal.RequireFromString("125")))
}

func TestClaimRewardsSourceUnavailable(t *testing.T) {
	source := &mockSource{claimErr: errors.New("boom")}
	svc, _ := newTestService(t, source)

	_, err := svc.ClaimRewards(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindCollaborator))
}
