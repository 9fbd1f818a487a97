package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/eshaffer321/ledger-autoclear/internal/domain/autoclear"
	"github.com/eshaffer321/ledger-autoclear/internal/domain/ledger"
	"github.com/eshaffer321/ledger-autoclear/internal/domain/money"
	"github.com/eshaffer321/ledger-autoclear/internal/infrastructure/storage"
)

var (
	// ErrInvalidTarget is returned when the target cannot be represented in the account's denomination.
	ErrInvalidTarget = errors.New("invalid auto-clear target")

	// ErrAccountNotFound is returned for unknown account IDs.
	ErrAccountNotFound = storage.ErrAccountNotFound
)

// Request holds parameters for one auto-clear attempt.
type Request struct {
	AccountID string
	Target    string // decimal string, e.g. "-869.30"
	DryRun    bool   // solve and report, but leave splits untouched
}

// RunResult describes what an auto-clear attempt decided and did.
type RunResult struct {
	RunID     int64
	AccountID string
	Target    money.Amount
	Result    autoclear.Result
	DryRun    bool
	Applied   bool

	// ClearedSplits are the splits the solution marks cleared, in ledger order.
	ClearedSplits []*storage.Split

	// Cleared balance before and after the attempt. After equals Before
	// unless the result was solved; dry runs report the balance they would reach.
	// Runs record After, with Applied telling whether it was persisted.
	// Both are the invalid zero Amount when cleared splits mix denominators.
	ClearedBalanceBefore money.Amount
	ClearedBalanceAfter  money.Amount

	Duration time.Duration
}

// Message returns the user-facing text for the outcome.
func (r *RunResult) Message() string {
	return r.Result.Message()
}

// AccountSummary is an account with its current balances.
// When splits use more than one denominator the balances cannot be summed;
// DenomMismatch is set and both balances are left zero.
type AccountSummary struct {
	Account        *storage.Account
	ClearedBalance money.Amount
	Balance        money.Amount
	Splits         int
	Uncleared      int
	DenomMismatch  bool
}

// AutoClearService runs auto-clear against stored accounts.
type AutoClearService struct {
	storage storage.Repository
	solver  *autoclear.Solver
	logger  *slog.Logger
	now     func() time.Time
}

// NewAutoClearService creates a new auto-clear service.
func NewAutoClearService(store storage.Repository, solver *autoclear.Solver, logger *slog.Logger) *AutoClearService {
	if solver == nil {
		solver = autoclear.NewSolver(autoclear.DefaultConfig())
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AutoClearService{
		storage: store,
		solver:  solver,
		logger:  logger,
		now:     time.Now,
	}
}

// Run solves an auto-clear request inside the account's edit scope.
//
// A solved result is applied and recorded in the same transaction. Every other
// outcome leaves the splits untouched but is still recorded as a run. The
// returned error is only set for failures outside the solver's closed outcome
// set (unknown account, bad target, storage errors); callers inspect
// RunResult.Result for the outcome.
func (s *AutoClearService) Run(ctx context.Context, req Request) (*RunResult, error) {
	started := s.now()
	var out *RunResult

	err := s.storage.EditAccount(ctx, req.AccountID, func(ed storage.AccountEditor) error {
		account := ed.Account()

		target, err := money.Parse(req.Target, account.Denom)
		if err != nil {
			return fmt.Errorf("%w %q: %w", ErrInvalidTarget, req.Target, err)
		}

		rows, err := ed.Splits(ctx)
		if err != nil {
			return fmt.Errorf("failed to read splits: %w", err)
		}
		acct := toLedgerAccount(account, rows)

		before, err := acct.ClearedBalance()
		if err != nil {
			// Mixed denominators; the solver reports them as its outcome.
			before = money.Amount{}
		}
		result := s.solver.Solve(acct.Snapshot(), target)

		out = &RunResult{
			AccountID:            account.ID,
			Target:               target,
			Result:               result,
			DryRun:               req.DryRun,
			ClearedBalanceBefore: before,
			ClearedBalanceAfter:  before,
		}

		if result.Solved() {
			if err := acct.Apply(result); err != nil {
				return fmt.Errorf("failed to apply auto-clear result: %w", err)
			}
			if !req.DryRun {
				if err := ed.MarkCleared(ctx, result.SplitIDs, s.now()); err != nil {
					return err
				}
				out.Applied = true
			}
			out.ClearedSplits = selectSplits(rows, result.SplitIDs)
			if after, err := acct.ClearedBalance(); err == nil {
				out.ClearedBalanceAfter = after
			}
		}

		out.Duration = s.now().Sub(started)
		run := s.newRun(out, started)
		if err := ed.RecordRun(ctx, run); err != nil {
			return err
		}
		out.RunID = run.ID
		return nil
	})
	if err != nil {
		s.logger.Error("auto-clear failed",
			"account", req.AccountID,
			"target", req.Target,
			"error", err,
		)
		return nil, err
	}

	s.log(out)
	return out, nil
}

// Summary loads an account and its balances.
func (s *AutoClearService) Summary(ctx context.Context, accountID string) (*AccountSummary, error) {
	account, err := s.storage.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, accountID)
	}

	rows, err := s.storage.ListSplits(ctx, accountID, storage.SplitFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to read splits: %w", err)
	}
	acct := toLedgerAccount(account, rows)

	summary := &AccountSummary{
		Account:        account,
		ClearedBalance: money.Zero(account.Denom),
		Balance:        money.Zero(account.Denom),
		Splits:         len(rows),
	}
	cleared, errCleared := acct.ClearedBalance()
	total, errTotal := acct.Balance()
	switch {
	case errors.Is(errCleared, money.ErrDenomMismatch) || errors.Is(errTotal, money.ErrDenomMismatch):
		summary.DenomMismatch = true
	case errCleared != nil:
		return nil, errCleared
	case errTotal != nil:
		return nil, errTotal
	default:
		summary.ClearedBalance, summary.Balance = cleared, total
	}
	for _, r := range rows {
		if !r.Cleared {
			summary.Uncleared++
		}
	}
	return summary, nil
}

func (s *AutoClearService) newRun(out *RunResult, started time.Time) *storage.AutoClearRun {
	run := &storage.AutoClearRun{
		AccountID:         out.AccountID,
		TargetNum:         out.Target.Num,
		TargetDenom:       out.Target.Denom,
		DeltaNum:          out.Result.Delta.Num,
		Outcome:           string(out.Result.Outcome),
		Message:           out.Message(),
		DryRun:            out.DryRun,
		Applied:           out.Applied,
		CandidateCount:    out.Result.Candidates,
		ExploredCount:     out.Result.Explored,
		ClearedSplitIDs:   out.Result.SplitIDs,
		StartedAt:         started.UTC(),
		DurationMs:        out.Duration.Milliseconds(),
	}
	if out.ClearedBalanceAfter.Valid() {
		num := out.ClearedBalanceAfter.Num
		run.ClearedBalanceNum = &num
	}
	return run
}

func (s *AutoClearService) log(out *RunResult) {
	attrs := []any{
		"account", out.AccountID,
		"target", out.Target.String(),
		"outcome", out.Result.Outcome,
		"candidates", out.Result.Candidates,
		"explored", out.Result.Explored,
		"dry_run", out.DryRun,
		"duration", out.Duration,
	}

	switch {
	case out.Result.Solved():
		attrs = append(attrs, "cleared", len(out.Result.SplitIDs), "cleared_balance", out.ClearedBalanceAfter.String())
		s.logger.Info("auto-clear solved", attrs...)
	case out.Result.IsHardError():
		s.logger.Warn("auto-clear refused", append(attrs, "reason", out.Message())...)
	default:
		s.logger.Info("auto-clear not applied", append(attrs, "reason", out.Message())...)
	}
}

// toLedgerAccount converts stored rows into the domain account the solver reads.
func toLedgerAccount(account *storage.Account, rows []*storage.Split) *ledger.Account {
	acct := &ledger.Account{
		ID:     account.ID,
		Name:   account.Name,
		Denom:  account.Denom,
		Splits: make([]ledger.Split, len(rows)),
	}
	for i, r := range rows {
		acct.Splits[i] = ledger.Split{
			ID:       r.ID,
			Memo:     r.Memo,
			Amount:   r.Amount(),
			Cleared:  r.Cleared,
			PostedAt: r.PostedAt,
		}
	}
	return acct
}

func selectSplits(rows []*storage.Split, ids []string) []*storage.Split {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := make([]*storage.Split, 0, len(ids))
	for _, r := range rows {
		if want[r.ID] {
			out = append(out, r)
		}
	}
	return out
}
