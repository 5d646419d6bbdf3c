package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserData is a registered worker account. TotalEarnings and TasksCompleted
// are mutated only by the settlement flow, on confirmed payment completion.
type UserData struct {
	UserID         string          `json:"user_id"`
	Handle         string          `json:"handle"`
	PasswordHash   string          `json:"-"`
	PayoutAddress  string          `json:"payout_address,omitempty"`
	TotalEarnings  decimal.Decimal `json:"total_earnings"`
	TasksCompleted int64           `json:"tasks_completed"`
	CreatedAt      time.Time       `json:"created_at"`
}

// TaskData is a unit of requested work with a fixed reward.
type TaskData struct {
	TaskID             string          `json:"task_id"`
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	Category           string          `json:"category,omitempty"`
	Reward             decimal.Decimal `json:"reward"`
	Status             TaskStatus      `json:"status"`
	Criteria           string          `json:"criteria"`
	MaxSubmissions     int             `json:"max_submissions"`
	CurrentSubmissions int             `json:"current_submissions"`
	Deadline           *time.Time      `json:"deadline,omitempty"`
	AssignedTo         string          `json:"assigned_to,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// SubmissionData is a worker's proof of completion against a task.
// VerifiedAt is stamped exactly once, when the verdict is recorded.
type SubmissionData struct {
	SubmissionID string           `json:"submission_id"`
	TaskID       string           `json:"task_id"`
	WorkerID     string           `json:"worker_id"`
	ProofKind    ProofKind        `json:"proof_kind"`
	ProofPayload string           `json:"proof_payload"`
	Description  string           `json:"description,omitempty"`
	Status       SubmissionStatus `json:"status"`
	Reasoning    string           `json:"reasoning,omitempty"`
	Score        *int             `json:"score,omitempty"`
	SubmittedAt  time.Time        `json:"submitted_at"`
	VerifiedAt   *time.Time       `json:"verified_at,omitempty"`
}

// PaymentData is a transfer record tied 1:1 to an approved submission.
// Amount is copied from the task reward at creation time and never changes.
type PaymentData struct {
	PaymentID    string          `json:"payment_id"`
	SubmissionID string          `json:"submission_id"`
	TaskID       string          `json:"task_id"`
	WorkerID     string          `json:"worker_id"`
	ToAddress    string          `json:"to_address"`
	Amount       decimal.Decimal `json:"amount"`
	Status       PaymentStatus   `json:"status"`
	Signature    string          `json:"signature,omitempty"`
	ErrorText    string          `json:"error,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
}

// BudgetData is the singleton funding record. TotalPaidOut only grows, and
// only by confirmed payment amounts.
type BudgetData struct {
	FundingAddress string          `json:"funding_address"`
	Balance        decimal.Decimal `json:"balance"`
	TotalPaidOut   decimal.Decimal `json:"total_paid_out"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
