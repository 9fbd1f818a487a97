// Package ledger holds the account and split model the auto-clear solver reads,
// and applies accepted auto-clear results to it.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/eshaffer321/ledger-autoclear/internal/domain/autoclear"
	"github.com/eshaffer321/ledger-autoclear/internal/domain/money"
)

var (
	// ErrUnknownSplit is returned when a result names a split the account does not own.
	ErrUnknownSplit = errors.New("split does not belong to account")

	// ErrAlreadyCleared is returned when a result names a split that is already cleared.
	ErrAlreadyCleared = errors.New("split is already cleared")
)

// Split is a single ledger entry against an account.
type Split struct {
	ID       string
	Memo     string
	Amount   money.Amount
	Cleared  bool
	PostedAt time.Time
}

// Account owns an ordered collection of splits in one commodity.
type Account struct {
	ID     string
	Name   string
	Denom  int64
	Splits []Split
}

// ClearedBalance sums the amounts of cleared splits.
func (a *Account) ClearedBalance() (money.Amount, error) {
	total := money.Zero(a.Denom)
	for _, s := range a.Splits {
		if !s.Cleared {
			continue
		}
		var err error
		total, err = total.Add(s.Amount)
		if err != nil {
			return money.Amount{}, fmt.Errorf("cleared balance of %s: %w", a.ID, err)
		}
	}
	return total, nil
}

// Balance sums every split regardless of cleared state.
func (a *Account) Balance() (money.Amount, error) {
	total := money.Zero(a.Denom)
	for _, s := range a.Splits {
		var err error
		total, err = total.Add(s.Amount)
		if err != nil {
			return money.Amount{}, fmt.Errorf("balance of %s: %w", a.ID, err)
		}
	}
	return total, nil
}

// Snapshot returns the solver's read-only copy of the splits.
func (a *Account) Snapshot() []autoclear.Split {
	out := make([]autoclear.Split, len(a.Splits))
	for i, s := range a.Splits {
		out[i] = autoclear.Split{ID: s.ID, Amount: s.Amount, Cleared: s.Cleared}
	}
	return out
}

// Apply marks the splits of a solved result as cleared.
//
// Every named split is checked before any flag changes, so either all flips
// happen or none do. Results other than solved leave the account untouched
// and return the result's error.
func (a *Account) Apply(result autoclear.Result) error {
	if !result.Solved() {
		return result.Err()
	}

	index := make(map[string]int, len(a.Splits))
	for i, s := range a.Splits {
		index[s.ID] = i
	}

	positions := make([]int, 0, len(result.SplitIDs))
	seen := make(map[string]bool, len(result.SplitIDs))
	for _, id := range result.SplitIDs {
		i, ok := index[id]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownSplit, id)
		}
		if a.Splits[i].Cleared || seen[id] {
			return fmt.Errorf("%w: %s", ErrAlreadyCleared, id)
		}
		seen[id] = true
		positions = append(positions, i)
	}

	for _, i := range positions {
		a.Splits[i].Cleared = true
	}
	return nil
}
