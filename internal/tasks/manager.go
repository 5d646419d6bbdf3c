// Package tasks implements the task lifecycle: creation, claiming, work
// submission and the terminal transitions. All state changes go through the
// store's atomic operations; this layer owns the validation rules.
package tasks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/taskhive/taskhive-backend/internal/store"
	"github.com/taskhive/taskhive-backend/pkg/apperrors"
	"github.com/taskhive/taskhive-backend/pkg/logging"
	"github.com/taskhive/taskhive-backend/pkg/types"
)

// ManagerConfig carries the operator-set limits on task creation.
type ManagerConfig struct {
	// MaxTaskReward caps the reward an individual task may offer.
	MaxTaskReward decimal.Decimal
}

type Manager struct {
	store  store.Store
	logger logging.Logger
	config ManagerConfig
}

func NewManager(s store.Store, logger logging.Logger, cfg ManagerConfig) *Manager {
	return &Manager{
		store:  s,
		logger: logger,
		config: cfg,
	}
}

// CreateTaskRequest is the input for creating a task.
type CreateTaskRequest struct {
	Title          string          `json:"title" validate:"required"`
	Description    string          `json:"description"`
	Category       string          `json:"category"`
	Reward         decimal.Decimal `json:"reward" validate:"required"`
	Criteria       string          `json:"criteria" validate:"required"`
	MaxSubmissions int             `json:"max_submissions"`
	Deadline       *time.Time      `json:"deadline,omitempty"`
}

// Create validates the request against the configured limits and persists a
// new open task.
func (m *Manager) Create(ctx context.Context, req CreateTaskRequest) (types.TaskData, error) {
	if req.Title == "" {
		return types.TaskData{}, apperrors.Validation("task title is required")
	}
	if req.Criteria == "" {
		return types.TaskData{}, apperrors.Validation("task criteria are required")
	}
	if !req.Reward.IsPositive() {
		return types.TaskData{}, apperrors.Validation("task reward must be greater than zero, got %s", req.Reward)
	}
	if req.MaxSubmissions < 1 {
		return types.TaskData{}, apperrors.Validation("max submissions must be at least 1, got %d", req.MaxSubmissions)
	}
	if req.Reward.GreaterThan(m.config.MaxTaskReward) {
		return types.TaskData{}, apperrors.LimitExceeded("task reward %s exceeds the maximum of %s", req.Reward, m.config.MaxTaskReward)
	}

	now := time.Now().UTC()
	task := types.TaskData{
		TaskID:         uuid.New().String(),
		Title:          req.Title,
		Description:    req.Description,
		Category:       req.Category,
		Reward:         req.Reward,
		Status:         types.TaskStatusOpen,
		Criteria:       req.Criteria,
		MaxSubmissions: req.MaxSubmissions,
		Deadline:       req.Deadline,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := m.store.CreateTask(ctx, task); err != nil {
		return types.TaskData{}, err
	}

	m.logger.Infof("Created task %s (reward=%s, cap=%d)", task.TaskID, task.Reward, task.MaxSubmissions)
	return task, nil
}

func (m *Manager) Get(ctx context.Context, taskID string) (types.TaskData, error) {
	return m.store.GetTask(ctx, taskID)
}

func (m *Manager) List(ctx context.Context, filter store.TaskFilter) ([]types.TaskData, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, apperrors.Validation("unknown task status %q", filter.Status)
	}
	return m.store.ListTasks(ctx, filter)
}

// Claim assigns an open task to a worker. The worker must exist; the
// open-only check happens atomically in the store.
func (m *Manager) Claim(ctx context.Context, taskID, workerID string) (types.TaskData, error) {
	if _, err := m.store.GetUser(ctx, workerID); err != nil {
		return types.TaskData{}, err
	}
	task, err := m.store.ClaimTask(ctx, taskID, workerID)
	if err != nil {
		return types.TaskData{}, err
	}
	m.logger.Infof("Task %s claimed by worker %s", taskID, workerID)
	return task, nil
}

// SubmitWorkRequest is the input for submitting proof of completed work.
type SubmitWorkRequest struct {
	TaskID       string          `json:"task_id" validate:"required"`
	WorkerID     string          `json:"worker_id" validate:"required"`
	ProofKind    types.ProofKind `json:"proof_kind" validate:"required"`
	ProofPayload string          `json:"proof_payload" validate:"required"`
	Description  string          `json:"description"`
}

// SubmitWork records a worker's proof against a task. The submission slot is
// reserved first through the store's bounded counter, so a task at its cap
// rejects the submission before any record is written.
func (m *Manager) SubmitWork(ctx context.Context, req SubmitWorkRequest) (types.SubmissionData, error) {
	if !req.ProofKind.IsValid() {
		return types.SubmissionData{}, apperrors.Validation("unknown proof kind %q", req.ProofKind)
	}
	if req.ProofPayload == "" {
		return types.SubmissionData{}, apperrors.Validation("proof payload is required")
	}
	if _, err := m.store.GetUser(ctx, req.WorkerID); err != nil {
		return types.SubmissionData{}, err
	}
	task, err := m.store.GetTask(ctx, req.TaskID)
	if err != nil {
		return types.SubmissionData{}, err
	}
	if task.AssignedTo != "" && task.AssignedTo != req.WorkerID {
		return types.SubmissionData{}, apperrors.Conflict("task %s is assigned to another worker", req.TaskID)
	}

	// Reserve the slot; fails atomically when the cap is reached or the task
	// stopped accepting submissions.
	if _, err := m.store.RegisterSubmission(ctx, req.TaskID); err != nil {
		return types.SubmissionData{}, err
	}

	sub := types.SubmissionData{
		SubmissionID: uuid.New().String(),
		TaskID:       req.TaskID,
		WorkerID:     req.WorkerID,
		ProofKind:    req.ProofKind,
		ProofPayload: req.ProofPayload,
		Description:  req.Description,
		Status:       types.SubmissionStatusPending,
		SubmittedAt:  time.Now().UTC(),
	}
	if err := m.store.CreateSubmission(ctx, sub); err != nil {
		return types.SubmissionData{}, err
	}

	m.logger.Infof("Submission %s recorded for task %s by worker %s", sub.SubmissionID, req.TaskID, req.WorkerID)
	return sub, nil
}

// Complete moves a task to its completed terminal state.
func (m *Manager) Complete(ctx context.Context, taskID string) (types.TaskData, error) {
	return m.store.UpdateTaskStatus(ctx, taskID, types.TaskStatusCompleted)
}

// Cancel moves a task to its cancelled terminal state. Submissions already
// recorded against the task are left untouched.
func (m *Manager) Cancel(ctx context.Context, taskID string) (types.TaskData, error) {
	task, err := m.store.UpdateTaskStatus(ctx, taskID, types.TaskStatusCancelled)
	if err != nil {
		return types.TaskData{}, err
	}
	m.logger.Infof("Task %s cancelled", taskID)
	return task, nil
}
