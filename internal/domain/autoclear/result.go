package autoclear

import (
	"errors"

	"github.com/eshaffer321/ledger-autoclear/internal/domain/money"
)

// Outcome is the closed set of auto-clear results.
type Outcome string

const (
	OutcomeAlreadyBalanced Outcome = "already_balanced"
	OutcomeSolved          Outcome = "solved"
	OutcomeUnsatisfiable   Outcome = "unsatisfiable"
	OutcomeAmbiguous       Outcome = "ambiguous"
	OutcomeDenomMismatch   Outcome = "denom_mismatch"
	OutcomeSearchTooLarge  Outcome = "search_too_large"
)

// Sentinel errors, one per non-solved outcome.
var (
	ErrAlreadyBalanced = errors.New("account is already at auto-clear balance")
	ErrUnsatisfiable   = errors.New("no combination of uncleared splits reaches the target")
	ErrAmbiguous       = errors.New("more than one combination of uncleared splits reaches the target")
	ErrDenomMismatch   = errors.New("split amounts use incompatible denominators")
	ErrSearchTooLarge  = errors.New("too many uncleared splits to search")
)

// User-facing messages. The first three match the wording existing callers display.
const (
	MessageUnsatisfiable   = "The selected amount cannot be cleared."
	MessageAlreadyBalanced = "Account is already at Auto-Clear Balance."
	MessageAmbiguous       = "Cannot uniquely clear splits. Found multiple possibilities."
	MessageDenomMismatch   = "Split amounts use incompatible denominators."
	MessageSearchTooLarge  = "Too many uncleared splits to search for an auto-clear solution."
)

// Result is the decision returned by the solver. It never carries side effects;
// a caller applies it (see ledger.Account.Apply) only when Outcome is OutcomeSolved.
type Result struct {
	Outcome Outcome

	// SplitIDs lists the uncleared splits to mark cleared. Only set when solved.
	SplitIDs []string

	// Delta is target minus the current cleared balance, when it could be computed.
	Delta money.Amount

	// Candidates is the number of uncleared splits considered.
	Candidates int

	// Explored counts search frames visited.
	Explored int
}

// Solved reports whether the result can be applied.
func (r Result) Solved() bool {
	return r.Outcome == OutcomeSolved
}

// Message returns the user-facing text for the outcome. Solved results have none.
func (r Result) Message() string {
	switch r.Outcome {
	case OutcomeUnsatisfiable:
		return MessageUnsatisfiable
	case OutcomeAlreadyBalanced:
		return MessageAlreadyBalanced
	case OutcomeAmbiguous:
		return MessageAmbiguous
	case OutcomeDenomMismatch:
		return MessageDenomMismatch
	case OutcomeSearchTooLarge:
		return MessageSearchTooLarge
	}
	return ""
}

// Err maps the outcome to its sentinel error, or nil when solved.
func (r Result) Err() error {
	switch r.Outcome {
	case OutcomeSolved:
		return nil
	case OutcomeAlreadyBalanced:
		return ErrAlreadyBalanced
	case OutcomeUnsatisfiable:
		return ErrUnsatisfiable
	case OutcomeAmbiguous:
		return ErrAmbiguous
	case OutcomeDenomMismatch:
		return ErrDenomMismatch
	case OutcomeSearchTooLarge:
		return ErrSearchTooLarge
	}
	return errors.New("unknown auto-clear outcome: " + string(r.Outcome))
}

// IsHardError reports outcomes that indicate a usage or configuration problem
// rather than a property of the data.
func (r Result) IsHardError() bool {
	return r.Outcome == OutcomeDenomMismatch || r.Outcome == OutcomeSearchTooLarge
}
