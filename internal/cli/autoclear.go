package cli

import (
	"context"
	"io"

	"github.com/eshaffer321/ledger-autoclear/internal/application/service"
	"github.com/eshaffer321/ledger-autoclear/internal/domain/autoclear"
	"github.com/eshaffer321/ledger-autoclear/internal/infrastructure/config"
	"github.com/eshaffer321/ledger-autoclear/internal/infrastructure/logging"
	"github.com/eshaffer321/ledger-autoclear/internal/infrastructure/storage"
)

// Exit codes of the autoclear command
const (
	ExitSolved     = 0
	ExitError      = 1 // bad flags, unknown account, storage failure
	ExitNotCleared = 2 // already balanced, unsatisfiable or ambiguous
	ExitRefused    = 3 // denominator mismatch or search too large
)

// ExitCodeFor maps an auto-clear outcome to the process exit code
func ExitCodeFor(outcome autoclear.Outcome) int {
	switch outcome {
	case autoclear.OutcomeSolved:
		return ExitSolved
	case autoclear.OutcomeDenomMismatch, autoclear.OutcomeSearchTooLarge:
		return ExitRefused
	default:
		return ExitNotCleared
	}
}

// NewSolver builds the solver from config
func NewSolver(cfg config.SolverConfig) *autoclear.Solver {
	return autoclear.NewSolver(autoclear.Config{
		MaxCandidates: cfg.MaxCandidates,
		MaxNodes:      int(cfg.MaxNodes),
	})
}

// RunAutoClear runs one auto-clear attempt against the configured database
// and prints the result to w. It returns the process exit code.
func RunAutoClear(ctx context.Context, cfg *config.Config, flags AutoClearFlags, w io.Writer) (int, error) {
	loggingCfg := cfg.Observability.Logging
	if flags.Verbose {
		loggingCfg.Level = "debug"
	}
	logger := logging.NewLoggerWithSystem(loggingCfg, "autoclear")

	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return ExitError, err
	}
	defer func() { _ = store.Close() }()

	svc := service.NewAutoClearService(store, NewSolver(cfg.Solver), logger)

	PrintHeader(w, flags.Account, flags.DryRun)
	out, err := svc.Run(ctx, service.Request{
		AccountID: flags.Account,
		Target:    flags.Target,
		DryRun:    flags.DryRun,
	})
	if err != nil {
		return ExitError, err
	}

	PrintRunResult(w, out)
	return ExitCodeFor(out.Result.Outcome), nil
}
