package autoclear

import (
	"sort"
)

// frame is one level of the depth-first search. Frames live in an arena
// indexed by candidate position, so depth never exceeds len(candidates)+1.
type frame struct {
	sum   int64
	state uint8
}

const (
	stateEnter uint8 = iota
	stateTake
	stateSkip
	stateDone
)

// searcher enumerates subsets of the ordered candidates that sum to delta.
type searcher struct {
	order  []Candidate
	delta  int64
	policy *ambiguityPolicy

	// posRemain[i] and negRemain[i] are the sums of the positive and negative
	// values in order[i:], bounding what the remaining candidates can add.
	posRemain []int64
	negRemain []int64

	maxNodes int
	explored int
}

func newSearcher(pool *CandidatePool, delta int64, policy *ambiguityPolicy, maxNodes int) *searcher {
	order := make([]Candidate, len(pool.Candidates))
	copy(order, pool.Candidates)
	sort.SliceStable(order, func(i, j int) bool {
		ai, aj := abs64(order[i].Value), abs64(order[j].Value)
		if ai != aj {
			return ai > aj
		}
		return order[i].SplitID < order[j].SplitID
	})

	n := len(order)
	posRemain := make([]int64, n+1)
	negRemain := make([]int64, n+1)
	for i := n - 1; i >= 0; i-- {
		posRemain[i] = posRemain[i+1]
		negRemain[i] = negRemain[i+1]
		if v := order[i].Value; v > 0 {
			posRemain[i] += v
		} else {
			negRemain[i] += v
		}
	}

	return &searcher{
		order:     order,
		delta:     delta,
		policy:    policy,
		posRemain: posRemain,
		negRemain: negRemain,
		maxNodes:  maxNodes,
	}
}

// reachable reports whether delta lies in [sum+negRemain[pos], sum+posRemain[pos]].
func (s *searcher) reachable(pos int, sum int64) bool {
	return s.delta >= sum+s.negRemain[pos] && s.delta <= sum+s.posRemain[pos]
}

// run explores the include/exclude tree until it is exhausted or the policy
// is settled. It returns false when the node budget ran out first.
func (s *searcher) run() bool {
	n := len(s.order)
	frames := make([]frame, n+1)
	chosen := make([]bool, n)

	depth := 0
	for depth >= 0 {
		f := &frames[depth]

		switch f.state {
		case stateEnter:
			s.explored++
			if s.maxNodes > 0 && s.explored > s.maxNodes {
				return false
			}
			if !s.reachable(depth, f.sum) {
				depth--
				continue
			}
			if depth == n {
				// Bounds at n are zero, so reachable means sum == delta.
				s.policy.observe(s.order, chosen)
				if s.policy.settled() {
					return true
				}
				depth--
				continue
			}
			f.state = stateTake

		case stateTake:
			f.state = stateSkip
			chosen[depth] = true
			frames[depth+1] = frame{sum: f.sum + s.order[depth].Value}
			depth++

		case stateSkip:
			f.state = stateDone
			chosen[depth] = false
			frames[depth+1] = frame{sum: f.sum}
			depth++

		default:
			depth--
		}
	}

	return true
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
