package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrAccountNotFound is returned by EditAccount for an unknown account.
	ErrAccountNotFound = errors.New("account not found")

	// ErrClearConflict is returned when MarkCleared could not flip every requested split.
	ErrClearConflict = errors.New("splits changed since they were read")
)

// Repository defines the complete storage interface.
// This interface allows swapping implementations (SQLite, in-memory)
// and makes testing with mocks straightforward.
type Repository interface {
	AccountRepository
	SplitRepository
	RunRepository

	// EditAccount runs fn inside an exclusive edit scope for one account.
	// Changes made through the editor are committed only when fn returns nil;
	// the scope is released on every exit path.
	EditAccount(ctx context.Context, accountID string, fn func(AccountEditor) error) error

	Close() error
}

// AccountRepository handles accounts
type AccountRepository interface {
	// CreateAccount stores a new account, assigning an ID when empty
	CreateAccount(ctx context.Context, account *Account) error

	// GetAccount retrieves an account by ID (nil, nil when missing)
	GetAccount(ctx context.Context, id string) (*Account, error)

	// ListAccounts returns all accounts ordered by name
	ListAccounts(ctx context.Context) ([]*Account, error)
}

// SplitRepository handles splits outside an edit scope
type SplitRepository interface {
	// AddSplit stores a new split, assigning an ID when empty
	AddSplit(ctx context.Context, split *Split) error

	// ListSplits returns an account's splits matching the filters
	ListSplits(ctx context.Context, accountID string, filters SplitFilters) ([]*Split, error)
}

// SplitFilters defines filters for listing splits
type SplitFilters struct {
	Status string // "cleared", "uncleared" or empty for all
	Limit  int    // Max results (0 = all)
	Offset int    // Pagination offset
}

// Split status filter values
const (
	SplitStatusCleared   = "cleared"
	SplitStatusUncleared = "uncleared"
)

// RunRepository handles the auto-clear audit log
type RunRepository interface {
	// RecordRun stores a run outside an edit scope and assigns its ID
	RecordRun(ctx context.Context, run *AutoClearRun) error

	// GetRun retrieves a run by ID (nil, nil when missing)
	GetRun(ctx context.Context, id int64) (*AutoClearRun, error)

	// ListRuns returns recent runs, newest first
	ListRuns(ctx context.Context, filters RunFilters) ([]*AutoClearRun, error)
}

// RunFilters defines filters for listing runs
type RunFilters struct {
	AccountID string // Filter by account (empty = all)
	Outcome   string // Filter by outcome (empty = all)
	Limit     int    // Max results (0 = default 50)
	Offset    int
}

// AccountEditor is the view of one account inside an edit scope.
type AccountEditor interface {
	// Account returns the account being edited
	Account() *Account

	// Splits returns a fresh snapshot of every split of the account
	Splits(ctx context.Context) ([]*Split, error)

	// MarkCleared flips exactly the given uncleared splits to cleared.
	// It fails with ErrClearConflict unless every ID matched an uncleared split.
	MarkCleared(ctx context.Context, splitIDs []string, at time.Time) error

	// RecordRun stores a run as part of the edit
	RecordRun(ctx context.Context, run *AutoClearRun) error
}
