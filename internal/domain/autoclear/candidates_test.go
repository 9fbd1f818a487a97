package autoclear

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/ledger-autoclear/internal/domain/money"
)

func TestBuildCandidates(t *testing.T) {
	t.Run("keeps only uncleared non-zero splits", func(t *testing.T) {
		pool, err := BuildCandidates([]Split{
			split("a", -250, false),
			split("b", -50, true),
			split("c", 0, false),
			split("d", 100, false),
		})
		require.NoError(t, err)

		assert.Equal(t, int64(denom), pool.Denom)
		assert.Equal(t, []Candidate{
			{SplitID: "a", Value: -250},
			{SplitID: "d", Value: 100},
		}, pool.Candidates)
	})

	t.Run("counts duplicate values", func(t *testing.T) {
		pool, err := BuildCandidates([]Split{
			split("x", -10, false),
			split("y", -10, false),
			split("z", -20, false),
		})
		require.NoError(t, err)

		assert.Equal(t, 2, pool.Multiplicity(-10))
		assert.True(t, pool.HasDuplicate(-10))
		assert.False(t, pool.HasDuplicate(-20))
		assert.Equal(t, 0, pool.Multiplicity(5))
	})

	t.Run("rejects mixed denominators", func(t *testing.T) {
		_, err := BuildCandidates([]Split{
			split("a", -250, false),
			{ID: "b", Amount: money.Amount{Num: -5, Denom: 1000}},
		})
		assert.ErrorIs(t, err, ErrDenomMismatch)
	})

	t.Run("cleared splits do not take part in the denominator check", func(t *testing.T) {
		pool, err := BuildCandidates([]Split{
			split("a", -250, false),
			{ID: "b", Amount: money.Amount{Num: -5, Denom: 1000}, Cleared: true},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, pool.Len())
	})

	t.Run("rejects invalid denominators", func(t *testing.T) {
		_, err := BuildCandidates([]Split{{ID: "a", Amount: money.Amount{Num: 1}}})
		assert.ErrorIs(t, err, ErrDenomMismatch)
	})

	t.Run("rejects totals that overflow", func(t *testing.T) {
		_, err := BuildCandidates([]Split{
			split("a", math.MaxInt64, false),
			split("b", -1, false),
		})
		assert.ErrorIs(t, err, ErrSearchTooLarge)
	})

	t.Run("empty input", func(t *testing.T) {
		pool, err := BuildCandidates(nil)
		require.NoError(t, err)
		assert.Zero(t, pool.Len())
	})
}

func TestAmbiguityPolicy(t *testing.T) {
	pool, err := BuildCandidates([]Split{
		split("x", -10, false),
		split("y", -10, false),
		split("z", -30, false),
	})
	require.NoError(t, err)

	t.Run("nothing observed", func(t *testing.T) {
		outcome, ids := newAmbiguityPolicy(pool).classify()
		assert.Equal(t, OutcomeUnsatisfiable, outcome)
		assert.Nil(t, ids)
	})

	t.Run("single distinct subset", func(t *testing.T) {
		p := newAmbiguityPolicy(pool)
		p.observe(pool.Candidates, []bool{false, false, true})
		assert.False(t, p.settled())

		outcome, ids := p.classify()
		assert.Equal(t, OutcomeSolved, outcome)
		assert.Equal(t, []string{"z"}, ids)
	})

	t.Run("single subset through a duplicate group", func(t *testing.T) {
		p := newAmbiguityPolicy(pool)
		p.observe(pool.Candidates, []bool{true, true, false})
		assert.True(t, p.settled())

		outcome, ids := p.classify()
		assert.Equal(t, OutcomeAmbiguous, outcome)
		assert.Nil(t, ids)
	})

	t.Run("two subsets", func(t *testing.T) {
		p := newAmbiguityPolicy(pool)
		p.observe(pool.Candidates, []bool{false, false, true})
		p.observe(pool.Candidates, []bool{true, false, false})
		assert.True(t, p.settled())

		outcome, _ := p.classify()
		assert.Equal(t, OutcomeAmbiguous, outcome)
	})
}
