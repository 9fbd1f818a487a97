package storage

import (
	"encoding/json"
	"time"

	"github.com/eshaffer321/ledger-autoclear/internal/domain/money"
)

// Account is a ledger account in one commodity
type Account struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Commodity string    `json:"commodity"`
	Denom     int64     `json:"denom"`
	CreatedAt time.Time `json:"created_at"`
}

// Split is a single entry against an account
type Split struct {
	ID          string     `json:"id"`
	AccountID   string     `json:"account_id"`
	Memo        string     `json:"memo"`
	AmountNum   int64      `json:"amount_num"`
	AmountDenom int64      `json:"amount_denom"`
	Cleared     bool       `json:"cleared"`
	PostedAt    time.Time  `json:"posted_at"`
	ClearedAt   *time.Time `json:"cleared_at,omitempty"`
}

// Amount returns the split's fixed-point amount
func (s *Split) Amount() money.Amount {
	return money.Amount{Num: s.AmountNum, Denom: s.AmountDenom}
}

// AutoClearRun records one auto-clear attempt
type AutoClearRun struct {
	ID                int64     `json:"id"`
	AccountID         string    `json:"account_id"`
	TargetNum         int64     `json:"target_num"`
	TargetDenom       int64     `json:"target_denom"`
	DeltaNum          int64     `json:"delta_num"`
	Outcome           string    `json:"outcome"`
	Message           string    `json:"message,omitempty"`
	DryRun            bool      `json:"dry_run"`
	Applied           bool      `json:"applied"`
	CandidateCount    int       `json:"candidate_count"`
	ExploredCount     int       `json:"explored_count"`
	ClearedSplitIDs   []string  `json:"cleared_split_ids"`
	ClearedBalanceNum *int64    `json:"cleared_balance_num,omitempty"` // nil when unknown
	StartedAt         time.Time `json:"started_at"`
	DurationMs        int64     `json:"duration_ms"`

	ClearedSplitIDsJSON string `json:"-"` // For DB storage
}

// Target returns the requested cleared balance
func (r *AutoClearRun) Target() money.Amount {
	return money.Amount{Num: r.TargetNum, Denom: r.TargetDenom}
}

// ClearedBalance returns the cleared balance after the run, or the invalid
// zero Amount when it could not be computed
func (r *AutoClearRun) ClearedBalance() money.Amount {
	if r.ClearedBalanceNum == nil {
		return money.Amount{}
	}
	return money.Amount{Num: *r.ClearedBalanceNum, Denom: r.TargetDenom}
}

// encodeSplitIDs serializes the cleared split IDs to JSON for storage
func (r *AutoClearRun) encodeSplitIDs() error {
	ids := r.ClearedSplitIDs
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	r.ClearedSplitIDsJSON = string(data)
	return nil
}

// decodeSplitIDs deserializes the cleared split IDs from JSON
func (r *AutoClearRun) decodeSplitIDs() error {
	r.ClearedSplitIDs = []string{}
	if r.ClearedSplitIDsJSON == "" {
		return nil
	}
	return json.Unmarshal([]byte(r.ClearedSplitIDsJSON), &r.ClearedSplitIDs)
}
