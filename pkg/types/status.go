package types

// Status enumerations for the four lifecycle entities. Transitions are
// validated centrally through the tables below rather than by comparing
// strings at call sites.

type TaskStatus string

const (
	TaskStatusOpen                TaskStatus = "open"
	TaskStatusInProgress          TaskStatus = "in_progress"
	TaskStatusPendingVerification TaskStatus = "pending_verification"
	TaskStatusCompleted           TaskStatus = "completed"
	TaskStatusCancelled           TaskStatus = "cancelled"
)

var taskTransitions = map[TaskStatus][]TaskStatus{
	TaskStatusOpen:                {TaskStatusInProgress, TaskStatusPendingVerification, TaskStatusCompleted, TaskStatusCancelled},
	TaskStatusInProgress:          {TaskStatusPendingVerification, TaskStatusCompleted, TaskStatusCancelled},
	TaskStatusPendingVerification: {TaskStatusCompleted, TaskStatusCancelled},
	TaskStatusCompleted:           {},
	TaskStatusCancelled:           {},
}

func (s TaskStatus) IsValid() bool {
	_, ok := taskTransitions[s]
	return ok
}

func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusCancelled
}

func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	for _, allowed := range taskTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type SubmissionStatus string

const (
	SubmissionStatusPending  SubmissionStatus = "pending"
	SubmissionStatusApproved SubmissionStatus = "approved"
	SubmissionStatusRejected SubmissionStatus = "rejected"
)

func (s SubmissionStatus) IsValid() bool {
	switch s {
	case SubmissionStatusPending, SubmissionStatusApproved, SubmissionStatusRejected:
		return true
	}
	return false
}

// A submission transitions exactly once, pending -> approved|rejected.
func (s SubmissionStatus) CanTransitionTo(next SubmissionStatus) bool {
	return s == SubmissionStatusPending &&
		(next == SubmissionStatusApproved || next == SubmissionStatusRejected)
}

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusCompleted  PaymentStatus = "completed"
	PaymentStatusFailed     PaymentStatus = "failed"
)

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:    {PaymentStatusProcessing, PaymentStatusFailed},
	PaymentStatusProcessing: {PaymentStatusCompleted, PaymentStatusFailed},
	PaymentStatusCompleted:  {},
	PaymentStatusFailed:     {},
}

func (s PaymentStatus) IsValid() bool {
	_, ok := paymentTransitions[s]
	return ok
}

func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed
}

func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type ProofKind string

const (
	ProofKindImage ProofKind = "image"
	ProofKindURL   ProofKind = "url"
	ProofKindText  ProofKind = "text"
)

func (k ProofKind) IsValid() bool {
	switch k {
	case ProofKindImage, ProofKindURL, ProofKindText:
		return true
	}
	return false
}
