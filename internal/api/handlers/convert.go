package handlers

import (
	"time"

	"github.com/eshaffer321/ledger-autoclear/internal/api/dto"
	"github.com/eshaffer321/ledger-autoclear/internal/application/service"
	"github.com/eshaffer321/ledger-autoclear/internal/domain/money"
	"github.com/eshaffer321/ledger-autoclear/internal/infrastructure/storage"
)

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// toAccountResponse converts an account summary to an API response.
func toAccountResponse(s *service.AccountSummary) dto.AccountResponse {
	resp := dto.AccountResponse{
		ID:             s.Account.ID,
		Name:           s.Account.Name,
		Commodity:      s.Account.Commodity,
		Denom:          s.Account.Denom,
		DenomMismatch:  s.DenomMismatch,
		SplitCount:     s.Splits,
		UnclearedCount: s.Uncleared,
		CreatedAt:      formatTime(s.Account.CreatedAt),
	}
	if !s.DenomMismatch {
		resp.ClearedBalance = s.ClearedBalance.String()
		resp.Balance = s.Balance.String()
	}
	return resp
}

// toSplitResponse converts a storage Split to an API response.
func toSplitResponse(s *storage.Split) dto.SplitResponse {
	resp := dto.SplitResponse{
		ID:          s.ID,
		AccountID:   s.AccountID,
		Memo:        s.Memo,
		Amount:      s.Amount().String(),
		AmountNum:   s.AmountNum,
		AmountDenom: s.AmountDenom,
		Cleared:     s.Cleared,
		PostedAt:    formatTime(s.PostedAt),
	}
	if s.ClearedAt != nil {
		resp.ClearedAt = formatTime(*s.ClearedAt)
	}
	return resp
}

// toAutoClearResponse converts a service result to an API response.
func toAutoClearResponse(out *service.RunResult) dto.AutoClearResponse {
	resp := dto.AutoClearResponse{
		RunID:                out.RunID,
		AccountID:            out.AccountID,
		Outcome:              string(out.Result.Outcome),
		Target:               out.Target.String(),
		DryRun:               out.DryRun,
		Applied:              out.Applied,
		Candidates:           out.Result.Candidates,
		Explored:             out.Result.Explored,
		ClearedSplits:        make([]dto.SplitResponse, 0, len(out.ClearedSplits)),
		DurationMs:           out.Duration.Milliseconds(),
	}
	if out.Result.Delta.Valid() {
		resp.Delta = out.Result.Delta.String()
	}
	if out.ClearedBalanceBefore.Valid() {
		resp.ClearedBalanceBefore = out.ClearedBalanceBefore.String()
		resp.ClearedBalanceAfter = out.ClearedBalanceAfter.String()
	}
	if !out.Result.Solved() {
		resp.Code = string(out.Result.Outcome)
		resp.Message = out.Message()
	}
	for _, s := range out.ClearedSplits {
		resp.ClearedSplits = append(resp.ClearedSplits, toSplitResponse(s))
	}
	return resp
}

// toRunResponse converts a storage AutoClearRun to an API response.
func toRunResponse(run *storage.AutoClearRun) dto.RunResponse {
	delta := money.Amount{Num: run.DeltaNum, Denom: run.TargetDenom}
	resp := dto.RunResponse{
		ID:              run.ID,
		AccountID:       run.AccountID,
		Target:          run.Target().String(),
		Delta:           delta.String(),
		Outcome:         run.Outcome,
		Message:         run.Message,
		DryRun:          run.DryRun,
		Applied:         run.Applied,
		CandidateCount:  run.CandidateCount,
		ExploredCount:   run.ExploredCount,
		ClearedSplitIDs: run.ClearedSplitIDs,
		StartedAt:       formatTime(run.StartedAt),
		DurationMs:      run.DurationMs,
	}
	if balance := run.ClearedBalance(); balance.Valid() {
		resp.ClearedBalance = balance.String()
	}
	return resp
}
