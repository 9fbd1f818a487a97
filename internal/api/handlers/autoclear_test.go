package handlers_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/ledger-autoclear/internal/api/dto"
	"github.com/eshaffer321/ledger-autoclear/internal/api/handlers"
	"github.com/eshaffer321/ledger-autoclear/internal/domain/autoclear"
	"github.com/eshaffer321/ledger-autoclear/internal/infrastructure/storage"
)

func runAutoClear(t *testing.T, repo *storage.MockRepository, id string, body interface{}) (*httptest.ResponseRecorder, dto.AutoClearResponse) {
	t.Helper()
	handler := handlers.NewAutoClearHandler(repo, newService(repo))

	rec := httptest.NewRecorder()
	handler.Run(rec, newRequest(t, http.MethodPost, "/api/accounts/"+id+"/autoclear", id, body))

	var response dto.AutoClearResponse
	if rec.Code != http.StatusNotFound && rec.Header().Get("Content-Type") == "application/json" {
		decode(t, rec, &response)
	}
	return rec, response
}

func TestAutoClearHandler_Solved(t *testing.T) {
	repo := storage.NewMockRepository()
	seedAccount(t, repo)

	rec, response := runAutoClear(t, repo, "checking", dto.AutoClearRequest{Target: "-13.00"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "solved", response.Outcome)
	assert.Empty(t, response.Code)
	assert.True(t, response.Applied)
	assert.Equal(t, "-13.00", response.Target)
	assert.Equal(t, "-3.00", response.Delta)
	assert.Equal(t, "-10.00", response.ClearedBalanceBefore)
	assert.Equal(t, "-13.00", response.ClearedBalanceAfter)
	require.Len(t, response.ClearedSplits, 2)
	assert.Equal(t, "groceries", response.ClearedSplits[0].ID)
	assert.Equal(t, "coffee", response.ClearedSplits[1].ID)
	assert.NotZero(t, response.RunID)
}

func TestAutoClearHandler_DryRun(t *testing.T) {
	repo := storage.NewMockRepository()
	seedAccount(t, repo)

	handler := handlers.NewAutoClearHandler(repo, newService(repo))
	rec := httptest.NewRecorder()
	handler.Run(rec, newRequest(t, http.MethodPost, "/api/accounts/checking/autoclear?dry_run=true", "checking",
		dto.AutoClearRequest{Target: "-13.00"}))

	assert.Equal(t, http.StatusOK, rec.Code)
	var response dto.AutoClearResponse
	decode(t, rec, &response)
	assert.True(t, response.DryRun)
	assert.False(t, response.Applied)
	assert.Equal(t, 0, repo.MarkClearedCalls)
}

func TestAutoClearHandler_Outcomes(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		extra   *storage.Split
		status  int
		outcome autoclear.Outcome
		message string
	}{
		{"already balanced", "-10.00", nil, http.StatusUnprocessableEntity, autoclear.OutcomeAlreadyBalanced, autoclear.MessageAlreadyBalanced},
		{"unsatisfiable", "-10.10", nil, http.StatusUnprocessableEntity, autoclear.OutcomeUnsatisfiable, autoclear.MessageUnsatisfiable},
		{
			"ambiguous", "-10.50",
			&storage.Split{ID: "tip", AccountID: "checking", AmountNum: -50, AmountDenom: 100},
			http.StatusUnprocessableEntity, autoclear.OutcomeAmbiguous, autoclear.MessageAmbiguous,
		},
		{
			"denominator mismatch", "-13.00",
			&storage.Split{ID: "fx", AccountID: "checking", AmountNum: -1234, AmountDenom: 1000},
			http.StatusBadRequest, autoclear.OutcomeDenomMismatch, autoclear.MessageDenomMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := storage.NewMockRepository()
			seedAccount(t, repo)
			if tt.extra != nil {
				require.NoError(t, repo.AddSplit(t.Context(), tt.extra))
			}

			rec, response := runAutoClear(t, repo, "checking", dto.AutoClearRequest{Target: tt.target})

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, string(tt.outcome), response.Outcome)
			assert.Equal(t, string(tt.outcome), response.Code)
			assert.Equal(t, tt.message, response.Message)
			assert.False(t, response.Applied)
			assert.Empty(t, response.ClearedSplits)
			assert.Equal(t, response.ClearedBalanceBefore, response.ClearedBalanceAfter)
		})
	}
}

func TestAutoClearHandler_Errors(t *testing.T) {
	t.Run("unknown account", func(t *testing.T) {
		rec, _ := runAutoClear(t, storage.NewMockRepository(), "nope", dto.AutoClearRequest{Target: "1"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("missing target", func(t *testing.T) {
		repo := storage.NewMockRepository()
		seedAccount(t, repo)
		rec, _ := runAutoClear(t, repo, "checking", dto.AutoClearRequest{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("target finer than denomination", func(t *testing.T) {
		repo := storage.NewMockRepository()
		seedAccount(t, repo)
		rec, _ := runAutoClear(t, repo, "checking", dto.AutoClearRequest{Target: "-13.001"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("empty body", func(t *testing.T) {
		repo := storage.NewMockRepository()
		seedAccount(t, repo)
		rec, _ := runAutoClear(t, repo, "checking", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("storage failure", func(t *testing.T) {
		repo := storage.NewMockRepository()
		seedAccount(t, repo)
		repo.RecordRunErr = errors.New("disk full")
		rec, _ := runAutoClear(t, repo, "checking", dto.AutoClearRequest{Target: "-13.00"})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("clear conflict", func(t *testing.T) {
		repo := storage.NewMockRepository()
		seedAccount(t, repo)
		repo.MarkClearedErr = storage.ErrClearConflict
		rec, _ := runAutoClear(t, repo, "checking", dto.AutoClearRequest{Target: "-13.00"})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestStatusForOutcome(t *testing.T) {
	assert.Equal(t, http.StatusOK, handlers.StatusForOutcome(autoclear.OutcomeSolved))
	assert.Equal(t, http.StatusBadRequest, handlers.StatusForOutcome(autoclear.OutcomeDenomMismatch))
	assert.Equal(t, http.StatusUnprocessableEntity, handlers.StatusForOutcome(autoclear.OutcomeSearchTooLarge))
	assert.Equal(t, http.StatusUnprocessableEntity, handlers.StatusForOutcome(autoclear.OutcomeAmbiguous))
}
