package types

import "github.com/shopspring/decimal"

// Results returned by the external collaborators. A transport or parse
// failure is reported as an error by the client, never encoded in these
// structs, so callers can tell a verdict from an outage.

// VerdictResult is the approval judge's decision on a submission.
type VerdictResult struct {
	Approved    bool     `json:"approved"`
	Score       int      `json:"score"`
	Reasoning   string   `json:"reasoning"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// TransferResult is the funds executor's response to a transfer request.
type TransferResult struct {
	Success   bool   `json:"success"`
	Signature string `json:"signature,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ConfirmationResult is the confirmation checker's view of a settled transfer.
type ConfirmationResult struct {
	Confirmed bool            `json:"confirmed"`
	Amount    decimal.Decimal `json:"amount,omitempty"`
	From      string          `json:"from,omitempty"`
	To        string          `json:"to,omitempty"`
}

// BalanceResult is the rewards source's balance report for the funding address.
type BalanceResult struct {
	Address   string          `json:"address"`
	Balance   decimal.Decimal `json:"balance"`
	Claimable decimal.Decimal `json:"claimable"`
}

// ClaimResult is the rewards source's response to a claim request.
type ClaimResult struct {
	Amount    decimal.Decimal `json:"amount"`
	Signature string          `json:"signature,omitempty"`
}
