// Package store holds authoritative state for users, tasks, submissions,
// payments and the budget record. Each repository method is individually
// atomic; conditional transitions (claim, register-submission, settlement
// commit) are expressed as store operations so that no caller ever observes
// or writes a half-applied update.
package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/taskhive/taskhive-backend/pkg/types"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user types.UserData) error
	GetUser(ctx context.Context, userID string) (types.UserData, error)
	GetUserByHandle(ctx context.Context, handle string) (types.UserData, error)
	ListUsersByEarnings(ctx context.Context) ([]types.UserData, error)
}

type TaskFilter struct {
	Status     types.TaskStatus
	AssignedTo string
	Category   string
}

type TaskRepository interface {
	CreateTask(ctx context.Context, task types.TaskData) error
	GetTask(ctx context.Context, taskID string) (types.TaskData, error)
	ListTasks(ctx context.Context, filter TaskFilter) ([]types.TaskData, error)
	// ClaimTask binds an open task to a worker and moves it to in_progress.
	ClaimTask(ctx context.Context, taskID, workerID string) (types.TaskData, error)
	// RegisterSubmission increments the submission counter, bounded by the
	// cap. Reaching the cap flips the task to pending_verification.
	RegisterSubmission(ctx context.Context, taskID string) (types.TaskData, error)
	// UpdateTaskStatus applies a transition-table-checked status change.
	UpdateTaskStatus(ctx context.Context, taskID string, next types.TaskStatus) (types.TaskData, error)
}

type SubmissionFilter struct {
	TaskID   string
	WorkerID string
	Status   types.SubmissionStatus
}

type SubmissionRepository interface {
	CreateSubmission(ctx context.Context, sub types.SubmissionData) error
	GetSubmission(ctx context.Context, submissionID string) (types.SubmissionData, error)
	ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]types.SubmissionData, error)
	// RecordVerdict moves a pending submission to its terminal status and
	// stamps the verification timestamp. A submission transitions once.
	RecordVerdict(ctx context.Context, submissionID string, status types.SubmissionStatus, reasoning string, score int, verifiedAt time.Time) (types.SubmissionData, error)
}

type PaymentFilter struct {
	Status   types.PaymentStatus
	WorkerID string
}

type PaymentRepository interface {
	// CreatePayment persists a new pending payment. At most one payment may
	// exist per submission.
	CreatePayment(ctx context.Context, payment types.PaymentData) error
	GetPayment(ctx context.Context, paymentID string) (types.PaymentData, error)
	ListPayments(ctx context.Context, filter PaymentFilter) ([]types.PaymentData, error)
	// MarkPaymentProcessing is the settlement commitment point.
	MarkPaymentProcessing(ctx context.Context, paymentID string) (types.PaymentData, error)
	// MarkPaymentFailed terminally fails a pending or processing payment,
	// retaining the signature if the transfer was submitted before failing.
	MarkPaymentFailed(ctx context.Context, paymentID, signature, errText string) (types.PaymentData, error)
	// CompleteSettlement applies the confirmed-settlement commit as one
	// atomic unit: payment completed, budget paid-out accrued, worker
	// earnings and counter bumped. The payment must still be processing,
	// which makes the commit idempotent under retried confirmations.
	CompleteSettlement(ctx context.Context, paymentID, signature string, completedAt time.Time) (types.PaymentData, error)
}

type BudgetRepository interface {
	GetBudget(ctx context.Context) (types.BudgetData, error)
	// ObserveBalance overwrites the current balance (and funding address,
	// when non-empty), lazily creating the singleton record.
	ObserveBalance(ctx context.Context, fundingAddress string, balance decimal.Decimal) (types.BudgetData, error)
}

// Store is the full entity store consumed by the orchestrators.
type Store interface {
	UserRepository
	TaskRepository
	SubmissionRepository
	PaymentRepository
	BudgetRepository
	Close()
}
