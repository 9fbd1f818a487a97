// Package autoclear decides which uncleared splits to mark cleared so that an
// account's cleared balance reaches a requested target.
//
// The solver works on an immutable snapshot and never mutates anything:
//
//	splits -> CandidatePool -> subset search (guided by the ambiguity policy) -> Result
//
// The search is an exact subset-sum over integer numerators. It is exponential
// in the worst case, so it refuses pools above Config.MaxCandidates and stops
// after Config.MaxNodes frames, reporting OutcomeSearchTooLarge either way.
//
// Example usage:
//
//	solver := autoclear.NewSolver(autoclear.DefaultConfig())
//	result := solver.Solve(account.Snapshot(), target)
//	if result.Solved() {
//		err = account.Apply(result)
//	}
package autoclear

import (
	"errors"

	"github.com/eshaffer321/ledger-autoclear/internal/domain/money"
)

// Config bounds the search.
type Config struct {
	// MaxCandidates is the largest uncleared pool the solver will search.
	MaxCandidates int

	// MaxNodes caps visited search frames. Zero means no cap.
	MaxNodes int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxCandidates: 32,
		MaxNodes:      10_000_000,
	}
}

// Solver runs auto-clear searches.
type Solver struct {
	config Config
}

// NewSolver creates a solver. Non-positive MaxCandidates falls back to the default.
func NewSolver(config Config) *Solver {
	if config.MaxCandidates <= 0 {
		config.MaxCandidates = DefaultConfig().MaxCandidates
	}
	if config.MaxNodes < 0 {
		config.MaxNodes = 0
	}
	return &Solver{config: config}
}

// Config returns the solver's effective configuration.
func (s *Solver) Config() Config {
	return s.config
}

// Solve uses a solver with DefaultConfig.
func Solve(splits []Split, target money.Amount) Result {
	return NewSolver(DefaultConfig()).Solve(splits, target)
}

// Solve decides which uncleared splits must be cleared for the cleared
// balance of splits to equal target.
func (s *Solver) Solve(splits []Split, target money.Amount) Result {
	if !target.Valid() {
		return Result{Outcome: OutcomeDenomMismatch}
	}

	cleared, err := clearedBalance(splits, target.Denom)
	if err != nil {
		return Result{Outcome: outcomeFor(err)}
	}

	delta, err := target.Sub(cleared)
	if err != nil {
		return Result{Outcome: OutcomeSearchTooLarge}
	}
	if delta.IsZero() {
		return Result{Outcome: OutcomeAlreadyBalanced, Delta: delta}
	}

	pool, err := BuildCandidates(splits)
	if err != nil {
		return Result{Outcome: outcomeFor(err), Delta: delta}
	}

	return s.SolvePool(pool, cleared, target)
}

// SolvePool runs the search on an already built pool. current is the account's
// cleared balance before any of the pool's splits are cleared.
func (s *Solver) SolvePool(pool *CandidatePool, current, target money.Amount) Result {
	if !current.SameDenom(target) || !target.Valid() {
		return Result{Outcome: OutcomeDenomMismatch, Candidates: pool.Len()}
	}

	delta, err := target.Sub(current)
	if err != nil {
		return Result{Outcome: OutcomeSearchTooLarge, Candidates: pool.Len()}
	}
	result := Result{Delta: delta, Candidates: pool.Len()}

	if delta.IsZero() {
		result.Outcome = OutcomeAlreadyBalanced
		return result
	}
	if pool.Len() > 0 && pool.Denom != target.Denom {
		result.Outcome = OutcomeDenomMismatch
		return result
	}
	if pool.Len() > s.config.MaxCandidates {
		result.Outcome = OutcomeSearchTooLarge
		return result
	}

	policy := newAmbiguityPolicy(pool)
	search := newSearcher(pool, delta.Num, policy, s.config.MaxNodes)
	finished := search.run()
	result.Explored = search.explored

	if !finished {
		result.Outcome = OutcomeSearchTooLarge
		return result
	}

	result.Outcome, result.SplitIDs = policy.classify()
	return result
}

// clearedBalance sums the cleared splits, which must all use denom.
func clearedBalance(splits []Split, denom int64) (money.Amount, error) {
	total := money.Zero(denom)
	for _, sp := range splits {
		if !sp.Cleared {
			continue
		}
		var err error
		total, err = total.Add(sp.Amount)
		if err != nil {
			return money.Amount{}, err
		}
	}
	return total, nil
}

func outcomeFor(err error) Outcome {
	if errors.Is(err, ErrSearchTooLarge) || errors.Is(err, money.ErrOverflow) {
		return OutcomeSearchTooLarge
	}
	return OutcomeDenomMismatch
}
