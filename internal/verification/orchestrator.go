// Package verification orchestrates submission review through the approval
// judge. The judge is an untrusted collaborator: its failure to answer leaves
// a submission pending and is never recorded as a rejection.
package verification

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/taskhive/taskhive-backend/internal/store"
	"github.com/taskhive/taskhive-backend/pkg/apperrors"
	"github.com/taskhive/taskhive-backend/pkg/client/judge"
	"github.com/taskhive/taskhive-backend/pkg/logging"
	"github.com/taskhive/taskhive-backend/pkg/types"
)

// Evaluator is the narrow judge surface this orchestrator depends on.
type Evaluator interface {
	Evaluate(ctx context.Context, req judge.EvaluationRequest) (*types.VerdictResult, error)
}

// Outcome names the result of verifying one submission.
type Outcome string

const (
	OutcomeApproved Outcome = "approved"
	OutcomeRejected Outcome = "rejected"
	// OutcomeApprovedUnpaid marks an approved submission whose worker has no
	// payout address on file. No payment is created; the task still completes.
	OutcomeApprovedUnpaid Outcome = "approved_unpaid"
	OutcomeError          Outcome = "error"
)

// VerifyResult is the per-submission entry reported by VerifyAll.
type VerifyResult struct {
	SubmissionID string  `json:"submission_id"`
	Outcome      Outcome `json:"outcome"`
	PaymentID    string  `json:"payment_id,omitempty"`
	Error        string  `json:"error,omitempty"`
}

type Orchestrator struct {
	store     store.Store
	evaluator Evaluator
	logger    logging.Logger
}

func NewOrchestrator(s store.Store, evaluator Evaluator, logger logging.Logger) *Orchestrator {
	return &Orchestrator{
		store:     s,
		evaluator: evaluator,
		logger:    logger,
	}
}

// VerifyOne runs a single pending submission through the judge and commits
// the verdict. On approval it creates the submission's one pending payment
// (copying the task reward) and completes the task once every submission slot
// has been used.
func (o *Orchestrator) VerifyOne(ctx context.Context, submissionID string) (VerifyResult, error) {
	sub, err := o.store.GetSubmission(ctx, submissionID)
	if err != nil {
		return VerifyResult{SubmissionID: submissionID, Outcome: OutcomeError, Error: err.Error()}, err
	}
	if sub.Status != types.SubmissionStatusPending {
		err := apperrors.Conflict("submission %s is already %s", submissionID, sub.Status)
		return VerifyResult{SubmissionID: submissionID, Outcome: OutcomeError, Error: err.Error()}, err
	}

	task, err := o.store.GetTask(ctx, sub.TaskID)
	if err != nil {
		return VerifyResult{SubmissionID: submissionID, Outcome: OutcomeError, Error: err.Error()}, err
	}

	verdict, err := o.evaluator.Evaluate(ctx, judge.EvaluationRequest{
		Criteria:     task.Criteria,
		ProofKind:    sub.ProofKind,
		ProofPayload: sub.ProofPayload,
		Description:  sub.Description,
	})
	if err != nil {
		// The attempt did not complete. The submission stays pending and may
		// be retried once the judge is reachable again.
		o.logger.Warnf("Judge unavailable for submission %s: %v", submissionID, err)
		collabErr := apperrors.Collaborator("approval judge unavailable", err)
		return VerifyResult{SubmissionID: submissionID, Outcome: OutcomeError, Error: collabErr.Error()}, collabErr
	}

	score := clampScore(verdict.Score)
	now := time.Now().UTC()

	if !verdict.Approved {
		if _, err := o.store.RecordVerdict(ctx, submissionID, types.SubmissionStatusRejected, verdict.Reasoning, score, now); err != nil {
			return VerifyResult{SubmissionID: submissionID, Outcome: OutcomeError, Error: err.Error()}, err
		}
		o.logger.Infof("Submission %s rejected (score=%d)", submissionID, score)
		return VerifyResult{SubmissionID: submissionID, Outcome: OutcomeRejected}, nil
	}

	if _, err := o.store.RecordVerdict(ctx, submissionID, types.SubmissionStatusApproved, verdict.Reasoning, score, now); err != nil {
		return VerifyResult{SubmissionID: submissionID, Outcome: OutcomeError, Error: err.Error()}, err
	}

	result := VerifyResult{SubmissionID: submissionID, Outcome: OutcomeApproved}

	worker, err := o.store.GetUser(ctx, sub.WorkerID)
	if err != nil {
		return VerifyResult{SubmissionID: submissionID, Outcome: OutcomeError, Error: err.Error()}, err
	}
	if worker.PayoutAddress == "" {
		// Approval stands, but there is nowhere to send the reward. Surface
		// the stranded payout instead of silently skipping it.
		o.logger.Warnf("Submission %s approved but worker %s has no payout address; no payment created", submissionID, sub.WorkerID)
		result.Outcome = OutcomeApprovedUnpaid
	} else {
		payment := types.PaymentData{
			PaymentID:    uuid.New().String(),
			SubmissionID: submissionID,
			TaskID:       sub.TaskID,
			WorkerID:     sub.WorkerID,
			ToAddress:    worker.PayoutAddress,
			Amount:       task.Reward,
			Status:       types.PaymentStatusPending,
			CreatedAt:    now,
		}
		if err := o.store.CreatePayment(ctx, payment); err != nil {
			return VerifyResult{SubmissionID: submissionID, Outcome: OutcomeError, Error: err.Error()}, err
		}
		result.PaymentID = payment.PaymentID
		o.logger.Infof("Submission %s approved, payment %s created for %s", submissionID, payment.PaymentID, payment.Amount)
	}

	// An approved submission finishes the task.
	if !task.Status.IsTerminal() {
		if _, err := o.store.UpdateTaskStatus(ctx, sub.TaskID, types.TaskStatusCompleted); err != nil {
			o.logger.Errorf("Failed to complete task %s after approval: %v", sub.TaskID, err)
		}
	}

	return result, nil
}

// VerifyAll runs every pending submission through VerifyOne sequentially.
// One submission's failure never stops the batch.
func (o *Orchestrator) VerifyAll(ctx context.Context) ([]VerifyResult, error) {
	pending, err := o.store.ListSubmissions(ctx, store.SubmissionFilter{Status: types.SubmissionStatusPending})
	if err != nil {
		return nil, err
	}

	results := make([]VerifyResult, 0, len(pending))
	for _, sub := range pending {
		res, err := o.VerifyOne(ctx, sub.SubmissionID)
		if err != nil {
			o.logger.Warnf("Verification of submission %s failed: %v", sub.SubmissionID, err)
		}
		results = append(results, res)
	}

	o.logger.Infof("Verified %d pending submissions", len(results))
	return results, nil
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
