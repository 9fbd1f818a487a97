package dto

import "time"

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// AccountResponse represents an account with its balances.
// Amounts are decimal strings in the account's denomination.
type AccountResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Commodity      string `json:"commodity"`
	Denom          int64  `json:"denom"`
	ClearedBalance string `json:"cleared_balance,omitempty"`
	Balance        string `json:"balance,omitempty"`
	DenomMismatch  bool   `json:"denom_mismatch,omitempty"` // balances omitted
	SplitCount     int    `json:"split_count"`
	UnclearedCount int    `json:"uncleared_count"`
	CreatedAt      string `json:"created_at"`
}

// AccountListResponse is returned when listing accounts.
type AccountListResponse struct {
	Accounts []AccountResponse `json:"accounts"`
	Count    int               `json:"count"`
}

// SplitResponse represents a split in API responses.
type SplitResponse struct {
	ID          string `json:"id"`
	AccountID   string `json:"account_id"`
	Memo        string `json:"memo,omitempty"`
	Amount      string `json:"amount"`
	AmountNum   int64  `json:"amount_num"`
	AmountDenom int64  `json:"amount_denom"`
	Cleared     bool   `json:"cleared"`
	PostedAt    string `json:"posted_at"`
	ClearedAt   string `json:"cleared_at,omitempty"`
}

// SplitListResponse is returned when listing splits.
type SplitListResponse struct {
	Splits []SplitResponse `json:"splits"`
	Count  int             `json:"count"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// AutoClearResponse is returned by POST /api/accounts/{id}/autoclear.
// Code and Message are set for every outcome except "solved", so
// unsuccessful responses also satisfy the APIError shape.
type AutoClearResponse struct {
	Code                 string          `json:"code,omitempty"`
	Message              string          `json:"message,omitempty"`
	RunID                int64           `json:"run_id"`
	AccountID            string          `json:"account_id"`
	Outcome              string          `json:"outcome"`
	Target               string          `json:"target"`
	Delta                string          `json:"delta"`
	DryRun               bool            `json:"dry_run"`
	Applied              bool            `json:"applied"`
	Candidates           int             `json:"candidates"`
	Explored             int             `json:"explored"`
	ClearedSplits        []SplitResponse `json:"cleared_splits"`
	ClearedBalanceBefore string          `json:"cleared_balance_before,omitempty"`
	ClearedBalanceAfter  string          `json:"cleared_balance_after,omitempty"`
	DurationMs           int64           `json:"duration_ms"`
}

// RunResponse represents a recorded auto-clear run.
type RunResponse struct {
	ID              int64    `json:"id"`
	AccountID       string   `json:"account_id"`
	Target          string   `json:"target"`
	Delta           string   `json:"delta"`
	Outcome         string   `json:"outcome"`
	Message         string   `json:"message,omitempty"`
	DryRun          bool     `json:"dry_run"`
	Applied         bool     `json:"applied"`
	CandidateCount  int      `json:"candidate_count"`
	ExploredCount   int      `json:"explored_count"`
	ClearedSplitIDs []string `json:"cleared_split_ids"`
	ClearedBalance  string   `json:"cleared_balance,omitempty"`
	StartedAt       string   `json:"started_at"`
	DurationMs      int64    `json:"duration_ms"`
}

// RunListResponse is returned when listing runs.
type RunListResponse struct {
	Runs  []RunResponse `json:"runs"`
	Count int           `json:"count"`
}

// NewHealthResponse creates a health response with current timestamp.
func NewHealthResponse() HealthResponse {
	return HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
