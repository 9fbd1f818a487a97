package autoclear

// ambiguityPolicy accumulates the subsets the search finds and decides the outcome.
//
// A subset that uses any candidate whose value occurs more than once in the
// pool is ambiguous on its own, even when the arithmetic forces the whole
// group: identical amounts are not reliably distinguishable to the user, so
// those accounts are left for manual reconciliation.
type ambiguityPolicy struct {
	pool *CandidatePool

	found         int
	first         []string
	usesDuplicate bool
}

func newAmbiguityPolicy(pool *CandidatePool) *ambiguityPolicy {
	return &ambiguityPolicy{pool: pool}
}

// observe records one subset summing to the delta. chosen is indexed like order.
func (p *ambiguityPolicy) observe(order []Candidate, chosen []bool) {
	p.found++
	if p.found > 1 {
		return
	}

	ids := make([]string, 0, len(order))
	for i, c := range order {
		if !chosen[i] {
			continue
		}
		ids = append(ids, c.SplitID)
		if p.pool.HasDuplicate(c.Value) {
			p.usesDuplicate = true
		}
	}
	p.first = ids
}

// settled reports that no further subset can change the outcome.
func (p *ambiguityPolicy) settled() bool {
	return p.found > 1 || (p.found == 1 && p.usesDuplicate)
}

// classify returns the outcome and, when solved, the split IDs to clear.
func (p *ambiguityPolicy) classify() (Outcome, []string) {
	switch {
	case p.found == 0:
		return OutcomeUnsatisfiable, nil
	case p.found == 1 && !p.usesDuplicate:
		return OutcomeSolved, p.first
	default:
		return OutcomeAmbiguous, nil
	}
}
