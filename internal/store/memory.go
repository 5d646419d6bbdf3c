package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/taskhive/taskhive-backend/pkg/apperrors"
	"github.com/taskhive/taskhive-backend/pkg/types"
)

// MemoryStore holds all entity state in memory with a single RWMutex, so
// operations that touch several maps (settlement commit, claim) stay atomic.
type MemoryStore struct {
	mu          sync.RWMutex
	users       map[string]types.UserData
	handles     map[string]string // handle -> user id
	tasks       map[string]types.TaskData
	submissions map[string]types.SubmissionData
	payments    map[string]types.PaymentData
	bySub       map[string]string // submission id -> payment id
	budget      *types.BudgetData
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[string]types.UserData),
		handles:     make(map[string]string),
		tasks:       make(map[string]types.TaskData),
		submissions: make(map[string]types.SubmissionData),
		payments:    make(map[string]types.PaymentData),
		bySub:       make(map[string]string),
	}
}

func (s *MemoryStore) Close() {}

// ---- users ----

func (s *MemoryStore) CreateUser(ctx context.Context, user types.UserData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[user.UserID]; exists {
		return apperrors.Conflict("user %s already exists", user.UserID)
	}
	if _, taken := s.handles[user.Handle]; taken {
		return apperrors.Conflict("handle %q is already registered", user.Handle)
	}
	s.users[user.UserID] = user
	s.handles[user.Handle] = user.UserID
	return nil
}

func (s *MemoryStore) GetUser(ctx context.Context, userID string) (types.UserData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	if !ok {
		return types.UserData{}, apperrors.NotFound("user %s not found", userID)
	}
	return user, nil
}

func (s *MemoryStore) GetUserByHandle(ctx context.Context, handle string) (types.UserData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.handles[handle]
	if !ok {
		return types.UserData{}, apperrors.NotFound("user handle %q not found", handle)
	}
	return s.users[id], nil
}

func (s *MemoryStore) ListUsersByEarnings(ctx context.Context) ([]types.UserData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.UserData, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].TotalEarnings.Equal(out[j].TotalEarnings) {
			return out[i].TotalEarnings.GreaterThan(out[j].TotalEarnings)
		}
		if out[i].TasksCompleted != out[j].TasksCompleted {
			return out[i].TasksCompleted > out[j].TasksCompleted
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

// ---- tasks ----

func (s *MemoryStore) CreateTask(ctx context.Context, task types.TaskData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tasks[task.TaskID]; exists {
		return apperrors.Conflict("task %s already exists", task.TaskID)
	}
	s.tasks[task.TaskID] = task
	return nil
}

func (s *MemoryStore) GetTask(ctx context.Context, taskID string) (types.TaskData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[taskID]
	if !ok {
		return types.TaskData{}, apperrors.NotFound("task %s not found", taskID)
	}
	return task, nil
}

func (s *MemoryStore) ListTasks(ctx context.Context, filter TaskFilter) ([]types.TaskData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.TaskData, 0)
	for _, t := range s.tasks {
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.AssignedTo != "" && t.AssignedTo != filter.AssignedTo {
			continue
		}
		if filter.Category != "" && t.Category != filter.Category {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) ClaimTask(ctx context.Context, taskID, workerID string) (types.TaskData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[taskID]
	if !ok {
		return types.TaskData{}, apperrors.NotFound("task %s not found", taskID)
	}
	if task.Status != types.TaskStatusOpen {
		return types.TaskData{}, apperrors.Conflict("task %s is %s, only open tasks can be claimed", taskID, task.Status)
	}
	task.Status = types.TaskStatusInProgress
	task.AssignedTo = workerID
	task.UpdatedAt = time.Now().UTC()
	s.tasks[taskID] = task
	return task, nil
}

func (s *MemoryStore) RegisterSubmission(ctx context.Context, taskID string) (types.TaskData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[taskID]
	if !ok {
		return types.TaskData{}, apperrors.NotFound("task %s not found", taskID)
	}
	if task.Status != types.TaskStatusOpen && task.Status != types.TaskStatusInProgress {
		return types.TaskData{}, apperrors.Conflict("task %s is %s and does not accept submissions", taskID, task.Status)
	}
	if task.CurrentSubmissions >= task.MaxSubmissions {
		return types.TaskData{}, apperrors.Conflict("task %s submission cap (%d) reached", taskID, task.MaxSubmissions)
	}
	task.CurrentSubmissions++
	if task.CurrentSubmissions == task.MaxSubmissions {
		task.Status = types.TaskStatusPendingVerification
	}
	task.UpdatedAt = time.Now().UTC()
	s.tasks[taskID] = task
	return task, nil
}

func (s *MemoryStore) UpdateTaskStatus(ctx context.Context, taskID string, next types.TaskStatus) (types.TaskData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[taskID]
	if !ok {
		return types.TaskData{}, apperrors.NotFound("task %s not found", taskID)
	}
	if !task.Status.CanTransitionTo(next) {
		return types.TaskData{}, apperrors.Conflict("task %s cannot transition %s -> %s", taskID, task.Status, next)
	}
	task.Status = next
	task.UpdatedAt = time.Now().UTC()
	s.tasks[taskID] = task
	return task, nil
}

// ---- submissions ----

func (s *MemoryStore) CreateSubmission(ctx context.Context, sub types.SubmissionData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.submissions[sub.SubmissionID]; exists {
		return apperrors.Conflict("submission %s already exists", sub.SubmissionID)
	}
	s.submissions[sub.SubmissionID] = sub
	return nil
}

func (s *MemoryStore) GetSubmission(ctx context.Context, submissionID string) (types.SubmissionData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.submissions[submissionID]
	if !ok {
		return types.SubmissionData{}, apperrors.NotFound("submission %s not found", submissionID)
	}
	return sub, nil
}

func (s *MemoryStore) ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]types.SubmissionData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.SubmissionData, 0)
	for _, sub := range s.submissions {
		if filter.TaskID != "" && sub.TaskID != filter.TaskID {
			continue
		}
		if filter.WorkerID != "" && sub.WorkerID != filter.WorkerID {
			continue
		}
		if filter.Status != "" && sub.Status != filter.Status {
			continue
		}
		out = append(out, sub)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out, nil
}

func (s *MemoryStore) RecordVerdict(ctx context.Context, submissionID string, status types.SubmissionStatus, reasoning string, score int, verifiedAt time.Time) (types.SubmissionData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.submissions[submissionID]
	if !ok {
		return types.SubmissionData{}, apperrors.NotFound("submission %s not found", submissionID)
	}
	if !sub.Status.CanTransitionTo(status) {
		return types.SubmissionData{}, apperrors.Conflict("submission %s is already %s", submissionID, sub.Status)
	}
	sub.Status = status
	sub.Reasoning = reasoning
	sub.Score = &score
	sub.VerifiedAt = &verifiedAt
	s.submissions[submissionID] = sub
	return sub, nil
}

// ---- payments ----

func (s *MemoryStore) CreatePayment(ctx context.Context, payment types.PaymentData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.payments[payment.PaymentID]; exists {
		return apperrors.Conflict("payment %s already exists", payment.PaymentID)
	}
	if existing, exists := s.bySub[payment.SubmissionID]; exists {
		return apperrors.Conflict("submission %s already has payment %s", payment.SubmissionID, existing)
	}
	sub, ok := s.submissions[payment.SubmissionID]
	if !ok {
		return apperrors.NotFound("submission %s not found", payment.SubmissionID)
	}
	if sub.Status != types.SubmissionStatusApproved {
		return apperrors.Conflict("submission %s is %s, payments require an approved submission", payment.SubmissionID, sub.Status)
	}
	s.payments[payment.PaymentID] = payment
	s.bySub[payment.SubmissionID] = payment.PaymentID
	return nil
}

func (s *MemoryStore) GetPayment(ctx context.Context, paymentID string) (types.PaymentData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	payment, ok := s.payments[paymentID]
	if !ok {
		return types.PaymentData{}, apperrors.NotFound("payment %s not found", paymentID)
	}
	return payment, nil
}

func (s *MemoryStore) ListPayments(ctx context.Context, filter PaymentFilter) ([]types.PaymentData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.PaymentData, 0)
	for _, p := range s.payments {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.WorkerID != "" && p.WorkerID != filter.WorkerID {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) MarkPaymentProcessing(ctx context.Context, paymentID string) (types.PaymentData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payment, ok := s.payments[paymentID]
	if !ok {
		return types.PaymentData{}, apperrors.NotFound("payment %s not found", paymentID)
	}
	if !payment.Status.CanTransitionTo(types.PaymentStatusProcessing) {
		return types.PaymentData{}, apperrors.Conflict("payment %s is %s, cannot start processing", paymentID, payment.Status)
	}
	payment.Status = types.PaymentStatusProcessing
	s.payments[paymentID] = payment
	return payment, nil
}

func (s *MemoryStore) MarkPaymentFailed(ctx context.Context, paymentID, signature, errText string) (types.PaymentData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payment, ok := s.payments[paymentID]
	if !ok {
		return types.PaymentData{}, apperrors.NotFound("payment %s not found", paymentID)
	}
	if !payment.Status.CanTransitionTo(types.PaymentStatusFailed) {
		return types.PaymentData{}, apperrors.Conflict("payment %s is %s, cannot fail", paymentID, payment.Status)
	}
	payment.Status = types.PaymentStatusFailed
	if signature != "" {
		payment.Signature = signature
	}
	payment.ErrorText = errText
	s.payments[paymentID] = payment
	return payment, nil
}

func (s *MemoryStore) CompleteSettlement(ctx context.Context, paymentID, signature string, completedAt time.Time) (types.PaymentData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payment, ok := s.payments[paymentID]
	if !ok {
		return types.PaymentData{}, apperrors.NotFound("payment %s not found", paymentID)
	}
	if payment.Status != types.PaymentStatusProcessing {
		return types.PaymentData{}, apperrors.Conflict("payment %s is %s, settlement commit requires processing", paymentID, payment.Status)
	}
	worker, ok := s.users[payment.WorkerID]
	if !ok {
		return types.PaymentData{}, apperrors.NotFound("worker %s not found", payment.WorkerID)
	}

	// All checks passed; apply the three-way update in one critical section.
	payment.Status = types.PaymentStatusCompleted
	payment.Signature = signature
	payment.CompletedAt = &completedAt
	s.payments[paymentID] = payment

	if s.budget == nil {
		s.budget = &types.BudgetData{}
	}
	s.budget.TotalPaidOut = s.budget.TotalPaidOut.Add(payment.Amount)
	s.budget.UpdatedAt = completedAt

	worker.TotalEarnings = worker.TotalEarnings.Add(payment.Amount)
	worker.TasksCompleted++
	s.users[payment.WorkerID] = worker

	return payment, nil
}

// ---- budget ----

func (s *MemoryStore) GetBudget(ctx context.Context) (types.BudgetData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.budget == nil {
		return types.BudgetData{}, apperrors.NotFound("budget has not been observed yet")
	}
	return *s.budget, nil
}

func (s *MemoryStore) ObserveBalance(ctx context.Context, fundingAddress string, balance decimal.Decimal) (types.BudgetData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.budget == nil {
		s.budget = &types.BudgetData{}
	}
	if fundingAddress != "" {
		s.budget.FundingAddress = fundingAddress
	}
	s.budget.Balance = balance
	s.budget.UpdatedAt = time.Now().UTC()
	return *s.budget, nil
}
