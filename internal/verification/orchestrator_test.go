package verification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive-backend/internal/store"
	"github.com/taskhive/taskhive-backend/pkg/apperrors"
	"github.com/taskhive/taskhive-backend/pkg/client/judge"
	"github.com/taskhive/taskhive-backend/pkg/logging"
	"github.com/taskhive/taskhive-backend/pkg/types"
)

const payoutAddress = "4Nd1mY5c2kQpW8vJ3xH7rT9bL6gF1sD8eK2aZ5uC7iRw"

// mockEvaluator scripts judge responses per proof payload.
type mockEvaluator struct {
	verdicts map[string]*types.VerdictResult
	err      error
	calls    int
}

func (m *mockEvaluator) Evaluate(ctx context.Context, req judge.EvaluationRequest) (*types.VerdictResult, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if v, ok := m.verdicts[req.ProofPayload]; ok {
		return v, nil
	}
	return &types.VerdictResult{Approved: false, Score: 0, Reasoning: "no verdict scripted"}, nil
}

type fixture struct {
	store *store.MemoryStore
	judge *mockEvaluator
	orch  *Orchestrator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := store.NewMemoryStore()
	j := &mockEvaluator{verdicts: map[string]*types.VerdictResult{}}
	return &fixture{
		store: s,
		judge: j,
		orch:  NewOrchestrator(s, j, &logging.NoopLogger{}),
	}
}

func (f *fixture) seedWorker(t *testing.T, id, payout string) {
	t.Helper()
	require.NoError(t, f.store.CreateUser(context.Background(), types.UserData{
		UserID:        id,
		Handle:        "worker-" + id,
		PayoutAddress: payout,
		CreatedAt:     time.Now().UTC(),
	}))
}

func (f *fixture) seedTask(t *testing.T, id string, cap int) types.TaskData {
	t.Helper()
	task := types.TaskData{
		TaskID:         id,
		Title:          "verify storefront listings",
		Reward:         decimal.RequireFromString("5"),
		Status:         types.TaskStatusOpen,
		Criteria:       "all listings checked",
		MaxSubmissions: cap,
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}
	require.NoError(t, f.store.CreateTask(context.Background(), task))
	return task
}

func (f *fixture) seedSubmission(t *testing.T, id, taskID, workerID, payload string) {
	t.Helper()
	_, err := f.store.RegisterSubmission(context.Background(), taskID)
	require.NoError(t, err)
	require.NoError(t, f.store.CreateSubmission(context.Background(), types.SubmissionData{
		SubmissionID: id,
		TaskID:       taskID,
		WorkerID:     workerID,
		ProofKind:    types.ProofKindText,
		ProofPayload: payload,
		Status:       types.SubmissionStatusPending,
		SubmittedAt:  time.Now().UTC(),
	}))
}

func TestVerifyOneApproved(t *testing.T) {
	f := newFixture(t)
	f.seedWorker(t, "worker-1", payoutAddress)
	f.seedTask(t, "task-1", 3)
	f.seedSubmission(t, "sub-1", "task-1", "worker-1", "all checked")
	f.judge.verdicts["all checked"] = &types.VerdictResult{Approved: true, Score: 92, Reasoning: "thorough"}

	result, err := f.orch.VerifyOne(context.Background(), "sub-1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeApproved, result.Outcome)
	require.NotEmpty(t, result.PaymentID)

	sub, err := f.store.GetSubmission(context.Background(), "sub-1")
	require.NoError(t, err)
	assert.Equal(t, types.SubmissionStatusApproved, sub.Status)
	assert.Equal(t, "thorough", sub.Reasoning)
	require.NotNil(t, sub.Score)
	assert.Equal(t, 92, *sub.Score)
	require.NotNil(t, sub.VerifiedAt)

	// Exactly one payment, amount copied from the task reward.
	payment, err := f.store.GetPayment(context.Background(), result.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, types.PaymentStatusPending, payment.Status)
	assert.True(t, payment.Amount.Equal(decimal.RequireFromString("5")))
	assert.Equal(t, payoutAddress, payment.ToAddress)

	// Approval finishes the task.
	task, err := f.store.GetTask(context.Background(), "task-1")
	require.NoError(t, err)
	assert.Equal(t, types.TaskStatusCompleted, task.Status)
}

func TestVerifyOneRejected(t *testing.T) {
	f := newFixture(t)
	f.seedWorker(t, "worker-1", payoutAddress)
	f.seedTask(t, "task-1", 3)
	f.seedSubmission(t, "sub-1", "task-1", "worker-1", "half done")
	f.judge.verdicts["half done"] = &types.VerdictResult{Approved: false, Score: 30, Reasoning: "incomplete"}

	result, err := f.orch.VerifyOne(context.Background(), "sub-1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeRejected, result.Outcome)
	assert.Empty(t, result.PaymentID)

	sub, err := f.store.GetSubmission(context.Background(), "sub-1")
	require.NoError(t, err)
	assert.Equal(t, types.SubmissionStatusRejected, sub.Status)
	assert.Equal(t, "incomplete", sub.Reasoning)

	// Rejection does not terminate the task; other submissions may still win.
	task, err := f.store.GetTask(context.Background(), "task-1")
	require.NoError(t, err)
	assert.Equal(t, types.TaskStatusOpen, task.Status)

	payments, err := f.store.ListPayments(context.Background(), store.PaymentFilter{})
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestVerifyOneJudgeUnavailable(t *testing.T) {
	f := newFixture(t)
	f.seedWorker(t, "worker-1", payoutAddress)
	f.seedTask(t, "task-1", 3)
	f.seedSubmission(t, "sub-1", "task-1", "worker-1", "all checked")
	f.judge.err = errors.New("connection refused")

	_, err := f.orch.VerifyOne(context.Background(), "sub-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindCollaborator), "an outage must never read as a rejection")

	// The submission stays pending and can be retried.
	sub, err := f.store.GetSubmission(context.Background(), "sub-1")
	require.NoError(t, err)
	assert.Equal(t, types.SubmissionStatusPending, sub.Status)
	assert.Nil(t, sub.VerifiedAt)

	// Once the judge recovers, the same submission verifies cleanly.
	f.judge.err = nil
	f.judge.verdicts["all checked"] = &types.VerdictResult{Approved: true, Score: 80, Reasoning: "fine"}
	result, err := f.orch.VerifyOne(context.Background(), "sub-1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeApproved, result.Outcome)
}

func TestVerifyOneApprovedUnpaid(t *testing.T) {
	f := newFixture(t)
	f.seedWorker(t, "worker-1", "")
	f.seedTask(t, "task-1", 3)
	f.seedSubmission(t, "sub-1", "task-1", "worker-1", "all checked")
	f.judge.verdicts["all checked"] = &types.VerdictResult{Approved: true, Score: 88, Reasoning: "good"}

	result, err := f.orch.VerifyOne(context.Background(), "sub-1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeApprovedUnpaid, result.Outcome)
	assert.Empty(t, result.PaymentID)

	payments, err := f.store.ListPayments(context.Background(), store.PaymentFilter{})
	require.NoError(t, err)
	assert.Empty(t, payments)

	// The task still completes.
	task, err := f.store.GetTask(context.Background(), "task-1")
	require.NoError(t, err)
	assert.Equal(t, types.TaskStatusCompleted, task.Status)
}

func TestVerifyOneDoubleVerifyConflicts(t *testing.T) {
	f := newFixture(t)
	f.seedWorker(t, "worker-1", payoutAddress)
	f.seedTask(t, "task-1", 3)
	f.seedSubmission(t, "sub-1", "task-1", "worker-1", "all checked")
	f.judge.verdicts["all checked"] = &types.VerdictResult{Approved: true, Score: 92, Reasoning: "thorough"}

	_, err := f.orch.VerifyOne(context.Background(), "sub-1")
	require.NoError(t, err)
	callsAfterFirst := f.judge.calls

	_, err = f.orch.VerifyOne(context.Background(), "sub-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
	assert.Equal(t, callsAfterFirst, f.judge.calls, "a settled submission must not reach the judge again")

	payments, err := f.store.ListPayments(context.Background(), store.PaymentFilter{})
	require.NoError(t, err)
	assert.Len(t, payments, 1)
}

func TestVerifyOneScoreClamped(t *testing.T) {
	f := newFixture(t)
	f.seedWorker(t, "worker-1", payoutAddress)
	f.seedTask(t, "task-1", 3)
	f.seedSubmission(t, "sub-1", "task-1", "worker-1", "overachiever")
	f.judge.verdicts["overachiever"] = &types.VerdictResult{Approved: true, Score: 250, Reasoning: "excellent"}

	_, err := f.orch.VerifyOne(context.Background(), "sub-1")
	require.NoError(t, err)

	sub, err := f.store.GetSubmission(context.Background(), "sub-1")
	require.NoError(t, err)
	require.NotNil(t, sub.Score)
	assert.Equal(t, 100, *sub.Score)
}

func TestVerifyAllIsolatesFailures(t *testing.T) {
	f := newFixture(t)
	f.seedWorker(t, "worker-1", payoutAddress)
	f.seedTask(t, "task-1", 5)
	f.seedSubmission(t, "sub-1", "task-1", "worker-1", "good work")
	f.seedSubmission(t, "sub-2", "task-1", "worker-1", "bad work")
	f.judge.verdicts["good work"] = &types.VerdictResult{Approved: true, Score: 90, Reasoning: "fine"}
	f.judge.verdicts["bad work"] = &types.VerdictResult{Approved: false, Score: 20, Reasoning: "sloppy"}

	results, err := f.orch.VerifyAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)

	outcomes := map[string]Outcome{}
	for _, r := range results {
		outcomes[r.SubmissionID] = r.Outcome
	}
	assert.Equal(t, OutcomeApproved, outcomes["sub-1"])
	assert.Equal(t, OutcomeRejected, outcomes["sub-2"])
}
