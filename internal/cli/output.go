package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/eshaffer321/ledger-autoclear/internal/application/service"
	"github.com/eshaffer321/ledger-autoclear/internal/domain/money"
)

// PrintHeader prints the command header
func PrintHeader(w io.Writer, accountID string, dryRun bool) {
	mode := "APPLY"
	if dryRun {
		mode = "DRY-RUN"
	}
	fmt.Fprintf(w, "autoclear: %s (%s mode)\n", accountID, mode)
}

// PrintRunResult prints the outcome of an auto-clear run
func PrintRunResult(w io.Writer, out *service.RunResult) {
	fmt.Fprintf(w, "Target: %s | Cleared balance: %s | Delta: %s\n",
		out.Target, formatAmount(out.ClearedBalanceBefore), formatAmount(out.Result.Delta))
	fmt.Fprintf(w, "Candidates: %d | Explored: %d | Took: %s\n\n",
		out.Result.Candidates, out.Result.Explored, out.Duration)

	if !out.Result.Solved() {
		fmt.Fprintf(w, "%s (%s)\n", out.Message(), out.Result.Outcome)
		return
	}

	verb := "Cleared"
	if !out.Applied {
		verb = "Would clear"
	}
	fmt.Fprintf(w, "%s %d split(s):\n", verb, len(out.ClearedSplits))
	for _, s := range out.ClearedSplits {
		memo := s.Memo
		if memo == "" {
			memo = "-"
		}
		fmt.Fprintf(w, "  %s  %12s  %s  %s\n", s.PostedAt.Format("2006-01-02"), s.Amount(), s.ID, memo)
	}
	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "New cleared balance: %s\n", formatAmount(out.ClearedBalanceAfter))
}

// formatAmount renders amounts that could not be computed as "unknown"
func formatAmount(a money.Amount) string {
	if !a.Valid() {
		return "unknown"
	}
	return a.String()
}
