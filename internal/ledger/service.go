// Package ledger tracks the funding budget: the observed balance of the
// funding address and the running total paid out by confirmed settlements.
package ledger

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/taskhive/taskhive-backend/internal/store"
	"github.com/taskhive/taskhive-backend/pkg/apperrors"
	"github.com/taskhive/taskhive-backend/pkg/logging"
	"github.com/taskhive/taskhive-backend/pkg/types"
)

// BalanceSource is the narrow rewards-source surface this service depends on.
type BalanceSource interface {
	QueryBalance(ctx context.Context, address string) (*types.BalanceResult, error)
	Claim(ctx context.Context, address string) (*types.ClaimResult, error)
}

// ServiceConfig carries the funding address and the optional refresh schedule.
type ServiceConfig struct {
	FundingAddress string
	// RefreshSchedule is a cron spec (e.g. "@every 5m"). Empty disables the
	// periodic refresh.
	RefreshSchedule string
}

type Service struct {
	store  store.BudgetRepository
	source BalanceSource
	logger logging.Logger
	config ServiceConfig
	cron   *cron.Cron
}

func NewService(s store.BudgetRepository, source BalanceSource, logger logging.Logger, cfg ServiceConfig) *Service {
	return &Service{
		store:  s,
		source: source,
		logger: logger,
		config: cfg,
	}
}

// Get returns the current budget record.
func (s *Service) Get(ctx context.Context) (types.BudgetData, error) {
	return s.store.GetBudget(ctx)
}

// Refresh queries the rewards source for the funding address and overwrites
// the observed balance. TotalPaidOut is untouched; only confirmed settlements
// move it.
func (s *Service) Refresh(ctx context.Context) (types.BudgetData, error) {
	if s.config.FundingAddress == "" {
		return types.BudgetData{}, apperrors.Validation("no funding address configured")
	}

	balance, err := s.source.QueryBalance(ctx, s.config.FundingAddress)
	if err != nil {
		return types.BudgetData{}, apperrors.Collaborator("rewards source unavailable", err)
	}

	budget, err := s.store.ObserveBalance(ctx, s.config.FundingAddress, balance.Balance)
	if err != nil {
		return types.BudgetData{}, err
	}

	s.logger.Infof("Budget balance refreshed: %s (claimable=%s)", budget.Balance, balance.Claimable)
	return budget, nil
}

// ClaimRewards pays out the claimable rewards into the funding address and
// refreshes the observed balance. The claim is submitted exactly once.
func (s *Service) ClaimRewards(ctx context.Context) (types.BudgetData, error) {
	if s.config.FundingAddress == "" {
		return types.BudgetData{}, apperrors.Validation("no funding address configured")
	}

	claim, err := s.source.Claim(ctx, s.config.FundingAddress)
	if err != nil {
		return types.BudgetData{}, apperrors.Collaborator("rewards claim failed", err)
	}
	s.logger.Infof("Claimed %s in rewards (signature=%s)", claim.Amount, claim.Signature)

	return s.Refresh(ctx)
}

// StartPeriodicRefresh schedules background balance refreshes according to
// the configured cron spec. It is a no-op when no schedule is set.
func (s *Service) StartPeriodicRefresh(ctx context.Context) error {
	if s.config.RefreshSchedule == "" {
		return nil
	}

	c := cron.New()
	_, err := c.AddFunc(s.config.RefreshSchedule, func() {
		if _, err := s.Refresh(ctx); err != nil {
			s.logger.Warnf("Periodic budget refresh failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", s.config.RefreshSchedule, err)
	}

	c.Start()
	s.cron = c
	s.logger.Infof("Periodic budget refresh scheduled: %s", s.config.RefreshSchedule)
	return nil
}

// Stop halts the periodic refresh, waiting for a running refresh to finish.
func (s *Service) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}
