// Package settlement orchestrates payment execution through the treasury
// service. A transfer mutates external funds, so it is submitted exactly once
// per payment; every failure path lands the payment in a terminal failed
// state rather than leaving it stuck in processing.
package settlement

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/taskhive/taskhive-backend/internal/store"
	"github.com/taskhive/taskhive-backend/pkg/apperrors"
	"github.com/taskhive/taskhive-backend/pkg/env"
	"github.com/taskhive/taskhive-backend/pkg/logging"
	"github.com/taskhive/taskhive-backend/pkg/types"
)

// TransferExecutor is the narrow treasury surface this orchestrator depends on.
type TransferExecutor interface {
	Transfer(ctx context.Context, toAddress string, amount decimal.Decimal) (*types.TransferResult, error)
	Confirm(ctx context.Context, signature string) (*types.ConfirmationResult, error)
}

// OrchestratorConfig carries the operator-set settlement limits.
type OrchestratorConfig struct {
	// MaxPaymentAmount caps a single outgoing transfer.
	MaxPaymentAmount decimal.Decimal
	// CallTimeout bounds each external treasury call.
	CallTimeout time.Duration
}

// SettleResult is the per-payment entry reported by SettleAll. Amount is only
// set for completed settlements.
type SettleResult struct {
	PaymentID string              `json:"payment_id"`
	Status    types.PaymentStatus `json:"status"`
	Amount    decimal.Decimal     `json:"amount"`
	Signature string              `json:"signature,omitempty"`
	Error     string              `json:"error,omitempty"`
}

type Orchestrator struct {
	store    store.Store
	executor TransferExecutor
	logger   logging.Logger
	config   OrchestratorConfig
}

func NewOrchestrator(s store.Store, executor TransferExecutor, logger logging.Logger, cfg OrchestratorConfig) *Orchestrator {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 30 * time.Second
	}
	return &Orchestrator{
		store:    s,
		executor: executor,
		logger:   logger,
		config:   cfg,
	}
}

// SettleOne executes a single pending payment end to end: intake validation,
// the processing commitment, one transfer submission, confirmation, and the
// atomic completion commit (payment, budget paid-out, worker earnings).
func (o *Orchestrator) SettleOne(ctx context.Context, paymentID string) (SettleResult, error) {
	payment, err := o.store.GetPayment(ctx, paymentID)
	if err != nil {
		return SettleResult{PaymentID: paymentID, Error: err.Error()}, err
	}
	if payment.Status != types.PaymentStatusPending {
		err := apperrors.Conflict("payment %s is %s, only pending payments can be settled", paymentID, payment.Status)
		return SettleResult{PaymentID: paymentID, Status: payment.Status, Error: err.Error()}, err
	}

	// Intake checks fail the payment terminally before any external call.
	if reason := o.intakeError(payment); reason != "" {
		failed, ferr := o.store.MarkPaymentFailed(ctx, paymentID, "", reason)
		if ferr != nil {
			return SettleResult{PaymentID: paymentID, Error: ferr.Error()}, ferr
		}
		o.logger.Warnf("Payment %s failed intake validation: %s", paymentID, reason)
		return SettleResult{PaymentID: paymentID, Status: failed.Status, Error: reason}, nil
	}

	// Commitment point: once processing, the transfer is considered submitted
	// and the payment can only end completed or failed.
	if _, err := o.store.MarkPaymentProcessing(ctx, paymentID); err != nil {
		return SettleResult{PaymentID: paymentID, Error: err.Error()}, err
	}

	callCtx, cancel := context.WithTimeout(ctx, o.config.CallTimeout)
	transfer, err := o.executor.Transfer(callCtx, payment.ToAddress, payment.Amount)
	cancel()
	if err != nil {
		return o.fail(ctx, paymentID, "", "transfer submission failed: "+err.Error())
	}
	if !transfer.Success {
		reason := transfer.Error
		if reason == "" {
			reason = "transfer rejected by executor"
		}
		return o.fail(ctx, paymentID, transfer.Signature, reason)
	}

	callCtx, cancel = context.WithTimeout(ctx, o.config.CallTimeout)
	confirmation, err := o.executor.Confirm(callCtx, transfer.Signature)
	cancel()
	if err != nil {
		return o.fail(ctx, paymentID, transfer.Signature, "transfer not confirmed: "+err.Error())
	}
	if !confirmation.Confirmed {
		return o.fail(ctx, paymentID, transfer.Signature, "transfer not confirmed")
	}

	completed, err := o.store.CompleteSettlement(ctx, paymentID, transfer.Signature, time.Now().UTC())
	if err != nil {
		return SettleResult{PaymentID: paymentID, Signature: transfer.Signature, Error: err.Error()}, err
	}

	o.logger.Infof("Payment %s settled: %s to %s (signature=%s)", paymentID, completed.Amount, completed.ToAddress, transfer.Signature)
	return SettleResult{PaymentID: paymentID, Status: completed.Status, Amount: completed.Amount, Signature: transfer.Signature}, nil
}

// SettleAll settles every pending payment sequentially, so at most one
// external transfer is in flight. One payment's failure never stops the batch.
func (o *Orchestrator) SettleAll(ctx context.Context) ([]SettleResult, error) {
	pending, err := o.store.ListPayments(ctx, store.PaymentFilter{Status: types.PaymentStatusPending})
	if err != nil {
		return nil, err
	}

	results := make([]SettleResult, 0, len(pending))
	for _, payment := range pending {
		res, err := o.SettleOne(ctx, payment.PaymentID)
		if err != nil {
			o.logger.Warnf("Settlement of payment %s failed: %v", payment.PaymentID, err)
		}
		results = append(results, res)
	}

	o.logger.Infof("Processed %d pending payments", len(results))
	return results, nil
}

// intakeError returns the terminal failure reason for a payment that cannot
// be sent, or empty when the payment is sendable.
func (o *Orchestrator) intakeError(payment types.PaymentData) string {
	if !payment.Amount.IsPositive() {
		return "payment amount must be greater than zero"
	}
	if payment.Amount.GreaterThan(o.config.MaxPaymentAmount) {
		return "payment amount " + payment.Amount.String() + " exceeds the per-transaction maximum of " + o.config.MaxPaymentAmount.String()
	}
	if !env.IsValidPayoutAddress(payment.ToAddress) {
		return "destination address is not a valid payout address"
	}
	return ""
}

func (o *Orchestrator) fail(ctx context.Context, paymentID, signature, reason string) (SettleResult, error) {
	failed, err := o.store.MarkPaymentFailed(ctx, paymentID, signature, reason)
	if err != nil {
		return SettleResult{PaymentID: paymentID, Signature: signature, Error: err.Error()}, err
	}
	o.logger.Warnf("Payment %s failed: %s", paymentID, reason)
	return SettleResult{PaymentID: paymentID, Status: failed.Status, Signature: signature, Error: reason}, nil
}
