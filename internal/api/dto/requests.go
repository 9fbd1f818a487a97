package dto

// CreateAccountRequest is the body of POST /api/accounts.
type CreateAccountRequest struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Commodity string `json:"commodity,omitempty"`
	Denom     int64  `json:"denom,omitempty"` // defaults to 100
}

// CreateSplitRequest is the body of POST /api/accounts/{id}/splits.
type CreateSplitRequest struct {
	ID       string `json:"id,omitempty"`
	Memo     string `json:"memo"`
	Amount   string `json:"amount"`          // decimal string, e.g. "-25.10"
	Denom    int64  `json:"denom,omitempty"` // defaults to the account's denomination
	Cleared  bool   `json:"cleared"`
	PostedAt string `json:"posted_at,omitempty"` // RFC3339 or YYYY-MM-DD
}

// AutoClearRequest is the body of POST /api/accounts/{id}/autoclear.
type AutoClearRequest struct {
	Target string `json:"target"`
	DryRun bool   `json:"dry_run"`
}

// SplitListParams represents query parameters for listing splits.
type SplitListParams struct {
	Status string `json:"status"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

// RunListParams represents query parameters for listing auto-clear runs.
type RunListParams struct {
	AccountID string `json:"account_id"`
	Outcome   string `json:"outcome"`
	Limit     int    `json:"limit"`
	Offset    int    `json:"offset"`
}

// DefaultSplitListParams returns default values for split list params.
func DefaultSplitListParams() SplitListParams {
	return SplitListParams{
		Limit: 100,
	}
}

// DefaultRunListParams returns default values for run list params.
func DefaultRunListParams() RunListParams {
	return RunListParams{
		Limit: 20,
	}
}
