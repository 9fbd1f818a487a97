package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/ledger-autoclear/internal/domain/autoclear"
	"github.com/eshaffer321/ledger-autoclear/internal/infrastructure/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// seedChecking creates a checking account with a cleared balance of -10.00 and
// three uncleared splits: -2.50, -0.50 and -1.00.
func seedChecking(t *testing.T, repo storage.Repository) *storage.Account {
	t.Helper()
	ctx := context.Background()

	account := &storage.Account{ID: "checking", Name: "Checking", Denom: 100}
	require.NoError(t, repo.CreateAccount(ctx, account))

	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := []struct {
		id      string
		num     int64
		cleared bool
	}{
		{"opening", -1000, true},
		{"groceries", -250, false},
		{"coffee", -50, false},
		{"books", -100, false},
	}
	for i, r := range rows {
		require.NoError(t, repo.AddSplit(ctx, &storage.Split{
			ID:          r.id,
			AccountID:   account.ID,
			AmountNum:   r.num,
			AmountDenom: 100,
			Cleared:     r.cleared,
			PostedAt:    base.AddDate(0, 0, i),
		}))
	}
	return account
}

func newTestService(repo storage.Repository) *AutoClearService {
	return NewAutoClearService(repo, autoclear.NewSolver(autoclear.DefaultConfig()), testLogger())
}

func unclearedIDs(t *testing.T, repo storage.Repository, accountID string) []string {
	t.Helper()
	splits, err := repo.ListSplits(context.Background(), accountID, storage.SplitFilters{Status: storage.SplitStatusUncleared})
	require.NoError(t, err)
	ids := make([]string, len(splits))
	for i, s := range splits {
		ids[i] = s.ID
	}
	return ids
}

func TestAutoClearService_SolvedIsApplied(t *testing.T) {
	repo := storage.NewMockRepository()
	seedChecking(t, repo)
	svc := newTestService(repo)

	out, err := svc.Run(context.Background(), Request{AccountID: "checking", Target: "-13.00"})
	require.NoError(t, err)

	assert.Equal(t, autoclear.OutcomeSolved, out.Result.Outcome)
	assert.ElementsMatch(t, []string{"groceries", "coffee"}, out.Result.SplitIDs)
	assert.True(t, out.Applied)
	assert.Equal(t, "-10.00", out.ClearedBalanceBefore.String())
	assert.Equal(t, "-13.00", out.ClearedBalanceAfter.String())
	require.Len(t, out.ClearedSplits, 2)
	assert.Equal(t, "groceries", out.ClearedSplits[0].ID)

	assert.Equal(t, []string{"books"}, unclearedIDs(t, repo, "checking"))

	run := repo.LastRecordedRun
	require.NotNil(t, run)
	assert.Equal(t, out.RunID, run.ID)
	assert.Equal(t, "solved", run.Outcome)
	assert.True(t, run.Applied)
	assert.Equal(t, int64(-300), run.DeltaNum)
	require.NotNil(t, run.ClearedBalanceNum)
	assert.Equal(t, int64(-1300), *run.ClearedBalanceNum)
	assert.NotZero(t, out.RunID)
	assert.Equal(t, 3, run.CandidateCount)
}

func TestAutoClearService_DryRunLeavesSplits(t *testing.T) {
	repo := storage.NewMockRepository()
	seedChecking(t, repo)
	svc := newTestService(repo)

	out, err := svc.Run(context.Background(), Request{AccountID: "checking", Target: "-13.00", DryRun: true})
	require.NoError(t, err)

	assert.True(t, out.Result.Solved())
	assert.False(t, out.Applied)
	assert.Equal(t, "-13.00", out.ClearedBalanceAfter.String())
	assert.Len(t, unclearedIDs(t, repo, "checking"), 3)
	assert.Equal(t, 0, repo.MarkClearedCalls)

	require.NotNil(t, repo.LastRecordedRun)
	assert.True(t, repo.LastRecordedRun.DryRun)
	assert.False(t, repo.LastRecordedRun.Applied)
}

func TestAutoClearService_UnappliedOutcomes(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		extra   []*storage.Split
		solver  autoclear.Config
		outcome autoclear.Outcome
		message string
	}{
		{
			name:    "already balanced",
			target:  "-10",
			outcome: autoclear.OutcomeAlreadyBalanced,
			message: autoclear.MessageAlreadyBalanced,
		},
		{
			name:    "unsatisfiable",
			target:  "-10.10",
			outcome: autoclear.OutcomeUnsatisfiable,
			message: autoclear.MessageUnsatisfiable,
		},
		{
			name:   "ambiguous",
			target: "-10.50",
			extra: []*storage.Split{
				{ID: "tip", AmountNum: -50, AmountDenom: 100},
			},
			outcome: autoclear.OutcomeAmbiguous,
			message: autoclear.MessageAmbiguous,
		},
		{
			name:   "denominator mismatch",
			target: "-13.00",
			extra: []*storage.Split{
				{ID: "fx", AmountNum: -1234, AmountDenom: 1000},
			},
			outcome: autoclear.OutcomeDenomMismatch,
			message: autoclear.MessageDenomMismatch,
		},
		{
			name:    "search too large",
			target:  "-13.00",
			solver:  autoclear.Config{MaxCandidates: 2},
			outcome: autoclear.OutcomeSearchTooLarge,
			message: autoclear.MessageSearchTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			repo := storage.NewMockRepository()
			seedChecking(t, repo)
			for _, s := range tt.extra {
				s.AccountID = "checking"
				require.NoError(t, repo.AddSplit(ctx, s))
			}
			before := unclearedIDs(t, repo, "checking")

			cfg := tt.solver
			if cfg.MaxCandidates == 0 {
				cfg = autoclear.DefaultConfig()
			}
			svc := NewAutoClearService(repo, autoclear.NewSolver(cfg), testLogger())

			out, err := svc.Run(ctx, Request{AccountID: "checking", Target: tt.target})
			require.NoError(t, err)

			assert.Equal(t, tt.outcome, out.Result.Outcome)
			assert.Equal(t, tt.message, out.Message())
			assert.False(t, out.Applied)
			assert.Empty(t, out.ClearedSplits)
			assert.Equal(t, out.ClearedBalanceBefore, out.ClearedBalanceAfter)
			assert.Equal(t, before, unclearedIDs(t, repo, "checking"))

			require.NotNil(t, repo.LastRecordedRun, "every outcome is recorded")
			assert.Equal(t, string(tt.outcome), repo.LastRecordedRun.Outcome)
			assert.Equal(t, tt.message, repo.LastRecordedRun.Message)
			assert.Empty(t, repo.LastRecordedRun.ClearedSplitIDs)
		})
	}
}

func TestAutoClearService_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown account", func(t *testing.T) {
		svc := newTestService(storage.NewMockRepository())
		_, err := svc.Run(ctx, Request{AccountID: "missing", Target: "0"})
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})

	t.Run("target finer than denomination", func(t *testing.T) {
		repo := storage.NewMockRepository()
		seedChecking(t, repo)

		_, err := newTestService(repo).Run(ctx, Request{AccountID: "checking", Target: "-13.001"})
		assert.ErrorIs(t, err, ErrInvalidTarget)
		assert.Nil(t, repo.LastRecordedRun)
	})

	t.Run("garbage target", func(t *testing.T) {
		repo := storage.NewMockRepository()
		seedChecking(t, repo)

		_, err := newTestService(repo).Run(ctx, Request{AccountID: "checking", Target: "twelve"})
		assert.ErrorIs(t, err, ErrInvalidTarget)
	})

	t.Run("storage failure rolls back", func(t *testing.T) {
		repo := storage.NewMockRepository()
		seedChecking(t, repo)
		repo.MarkClearedErr = errors.New("disk I/O error")

		_, err := newTestService(repo).Run(ctx, Request{AccountID: "checking", Target: "-13.00"})
		assert.EqualError(t, err, "disk I/O error")
		assert.Nil(t, repo.LastRecordedRun)

		repo.MarkClearedErr = nil
		assert.Len(t, unclearedIDs(t, repo, "checking"), 3)
	})
}

func TestAutoClearService_Summary(t *testing.T) {
	repo := storage.NewMockRepository()
	seedChecking(t, repo)
	svc := newTestService(repo)

	summary, err := svc.Summary(context.Background(), "checking")
	require.NoError(t, err)
	assert.Equal(t, "Checking", summary.Account.Name)
	assert.Equal(t, "-10.00", summary.ClearedBalance.String())
	assert.Equal(t, "-14.00", summary.Balance.String())
	assert.Equal(t, 4, summary.Splits)
	assert.Equal(t, 3, summary.Uncleared)

	_, err = svc.Summary(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

// TestAutoClearService_SQLiteSequence clears a real checking account in
// successive statements against SQLite.
func TestAutoClearService_SQLiteSequence(t *testing.T) {
	ctx := context.Background()
	repo, err := storage.NewStorage(filepath.Join(t.TempDir(), "autoclear.db"))
	require.NoError(t, err)
	defer func() { _ = repo.Close() }()

	account := &storage.Account{ID: "checking", Name: "Checking", Denom: 100}
	require.NoError(t, repo.CreateAccount(ctx, account))

	amounts := []struct {
		num     int64
		cleared bool
	}{
		{-8234, true}, {-156326, true}, {-4500, true}, {-694056, true},
		{-7358, true}, {-11700, true}, {-20497, true}, {-11900, true},
		{-8275, true}, {-58700, true}, {+100000, true}, {-13881, true},
		{-5000, true}, {+200000, true}, {-16800, true}, {-152000, true},
		{+160000, false}, {-63610, false}, {-2702, false}, {-15400, false},
		{-3900, false}, {-22042, false}, {-2900, false}, {-10900, false},
		{-44400, false}, {-9200, false}, {-7900, false}, {-1990, false},
		{-7901, false}, {-61200, false},
	}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, a := range amounts {
		require.NoError(t, repo.AddSplit(ctx, &storage.Split{
			ID:          fmt.Sprintf("split-%02d", i+1),
			AccountID:   account.ID,
			AmountNum:   a.num,
			AmountDenom: 100,
			Cleared:     a.cleared,
			PostedAt:    base.AddDate(0, 0, i),
		}))
	}

	svc := newTestService(repo)
	steps := []struct {
		target    string
		outcome   autoclear.Outcome
		cleared   int
		uncleared int
	}{
		{"0", autoclear.OutcomeUnsatisfiable, 0, 14},
		{"-8692.27", autoclear.OutcomeAlreadyBalanced, 0, 14},
		{"-8693.00", autoclear.OutcomeUnsatisfiable, 0, 14},
		{"-8692.30", autoclear.OutcomeSolved, 10, 4},
		{"-9632.72", autoclear.OutcomeSolved, 4, 0},
	}
	for _, step := range steps {
		out, err := svc.Run(ctx, Request{AccountID: account.ID, Target: step.target})
		require.NoError(t, err, step.target)
		require.Equal(t, step.outcome, out.Result.Outcome, step.target)
		assert.Len(t, out.Result.SplitIDs, step.cleared, step.target)
		assert.Len(t, unclearedIDs(t, repo, account.ID), step.uncleared, step.target)

		if out.Result.Solved() {
			summary, err := svc.Summary(ctx, account.ID)
			require.NoError(t, err)
			assert.Equal(t, step.target, summary.ClearedBalance.String())
		}
	}

	runs, err := repo.ListRuns(ctx, storage.RunFilters{AccountID: account.ID})
	require.NoError(t, err)
	require.Len(t, runs, len(steps))
	assert.Equal(t, "solved", runs[0].Outcome)
	assert.Len(t, runs[0].ClearedSplitIDs, 4)
	assert.Equal(t, "unsatisfiable", runs[len(runs)-1].Outcome)
}

func TestAutoClearService_MixedClearedDenominatorsLeaveBalanceUnknown(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewMockRepository()
	seedChecking(t, repo)
	require.NoError(t, repo.AddSplit(ctx, &storage.Split{
		ID: "fx", AccountID: "checking", AmountNum: -1234, AmountDenom: 1000, Cleared: true,
	}))

	out, err := newTestService(repo).Run(ctx, Request{AccountID: "checking", Target: "-13.00"})
	require.NoError(t, err)

	assert.Equal(t, autoclear.OutcomeDenomMismatch, out.Result.Outcome)
	assert.False(t, out.ClearedBalanceBefore.Valid())
	assert.False(t, out.ClearedBalanceAfter.Valid())

	require.NotNil(t, repo.LastRecordedRun)
	assert.Nil(t, repo.LastRecordedRun.ClearedBalanceNum)
	assert.False(t, repo.LastRecordedRun.ClearedBalance().Valid())
}

func TestAutoClearService_SummaryMixedDenominators(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewMockRepository()
	seedChecking(t, repo)
	require.NoError(t, repo.AddSplit(ctx, &storage.Split{ID: "fx", AccountID: "checking", AmountNum: -1234, AmountDenom: 1000}))

	summary, err := newTestService(repo).Summary(ctx, "checking")
	require.NoError(t, err)
	assert.True(t, summary.DenomMismatch)
	assert.True(t, summary.Balance.IsZero())
	assert.Equal(t, 4, summary.Uncleared)
}
