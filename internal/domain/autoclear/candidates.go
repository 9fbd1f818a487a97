package autoclear

import (
	"fmt"
	"math"

	"github.com/eshaffer321/ledger-autoclear/internal/domain/money"
)

// Split is the solver's read-only view of a ledger split.
type Split struct {
	ID      string
	Amount  money.Amount
	Cleared bool
}

// Candidate is an uncleared split reduced to its integer numerator.
type Candidate struct {
	SplitID string
	Value   int64
}

// CandidatePool holds the uncleared splits of one solve, all in one denominator.
type CandidatePool struct {
	Denom      int64
	Candidates []Candidate

	// multiplicity counts candidates per exact value across the whole pool.
	multiplicity map[int64]int
}

// BuildCandidates extracts the uncleared splits as solver inputs.
//
// Zero-amount splits are dropped: they cannot move the cleared balance, and
// keeping them would turn every solution into two. A pool whose denominators
// disagree fails with ErrDenomMismatch. A pool whose absolute total does not
// fit in an int64 fails with ErrSearchTooLarge.
func BuildCandidates(splits []Split) (*CandidatePool, error) {
	pool := &CandidatePool{
		Candidates:   make([]Candidate, 0, len(splits)),
		multiplicity: make(map[int64]int),
	}

	var absTotal int64
	for _, s := range splits {
		if s.Cleared {
			continue
		}
		if !s.Amount.Valid() {
			return nil, fmt.Errorf("%w: split %s has denominator %d", ErrDenomMismatch, s.ID, s.Amount.Denom)
		}
		if pool.Denom == 0 {
			pool.Denom = s.Amount.Denom
		} else if s.Amount.Denom != pool.Denom {
			return nil, fmt.Errorf("%w: split %s uses 1/%d, pool uses 1/%d",
				ErrDenomMismatch, s.ID, s.Amount.Denom, pool.Denom)
		}
		if s.Amount.IsZero() {
			continue
		}

		abs := s.Amount.Num
		if abs < 0 {
			if abs == math.MinInt64 {
				return nil, fmt.Errorf("%w: split %s amount out of range", ErrSearchTooLarge, s.ID)
			}
			abs = -abs
		}
		if absTotal > math.MaxInt64-abs {
			return nil, fmt.Errorf("%w: uncleared total out of range", ErrSearchTooLarge)
		}
		absTotal += abs

		pool.Candidates = append(pool.Candidates, Candidate{SplitID: s.ID, Value: s.Amount.Num})
		pool.multiplicity[s.Amount.Num]++
	}

	return pool, nil
}

// Len returns the number of candidates.
func (p *CandidatePool) Len() int {
	return len(p.Candidates)
}

// Multiplicity returns how many candidates carry exactly value.
func (p *CandidatePool) Multiplicity(value int64) int {
	return p.multiplicity[value]
}

// HasDuplicate reports whether value occurs more than once in the pool.
func (p *CandidatePool) HasDuplicate(value int64) bool {
	return p.multiplicity[value] > 1
}
