package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/eshaffer321/ledger-autoclear/internal/api/dto"
	"github.com/eshaffer321/ledger-autoclear/internal/domain/money"
	"github.com/eshaffer321/ledger-autoclear/internal/infrastructure/storage"
)

// SplitsHandler handles split-related HTTP requests.
type SplitsHandler struct {
	*Base
}

// NewSplitsHandler creates a new splits handler.
func NewSplitsHandler(repo storage.Repository) *SplitsHandler {
	return &SplitsHandler{
		Base: NewBase(repo),
	}
}

// List handles GET /api/accounts/{id}/splits.
// Query: status (cleared|uncleared), limit, offset.
func (h *SplitsHandler) List(w http.ResponseWriter, r *http.Request) {
	account, ok := h.loadAccount(w, r)
	if !ok {
		return
	}

	params := dto.DefaultSplitListParams()
	params.Status = r.URL.Query().Get("status")
	params.Limit = ParseIntParam(r, "limit", params.Limit)
	params.Offset = ParseIntParam(r, "offset", params.Offset)

	switch params.Status {
	case "", storage.SplitStatusCleared, storage.SplitStatusUncleared:
	default:
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("status must be cleared or uncleared"))
		return
	}
	if params.Limit < 0 || params.Offset < 0 {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("limit and offset must not be negative"))
		return
	}

	splits, err := h.repo.ListSplits(r.Context(), account.ID, storage.SplitFilters{
		Status: params.Status,
		Limit:  params.Limit,
		Offset: params.Offset,
	})
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := dto.SplitListResponse{
		Splits: make([]dto.SplitResponse, 0, len(splits)),
		Count:  len(splits),
		Limit:  params.Limit,
		Offset: params.Offset,
	}
	for _, s := range splits {
		response.Splits = append(response.Splits, toSplitResponse(s))
	}

	h.WriteJSON(w, http.StatusOK, response)
}

// Create handles POST /api/accounts/{id}/splits.
func (h *SplitsHandler) Create(w http.ResponseWriter, r *http.Request) {
	account, ok := h.loadAccount(w, r)
	if !ok {
		return
	}

	var req dto.CreateSplitRequest
	if err := DecodeJSON(r, &req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError(err.Error()))
		return
	}

	denom := req.Denom
	if denom == 0 {
		denom = account.Denom
	}
	amount, err := money.Parse(req.Amount, denom)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("invalid amount: "+err.Error()))
		return
	}

	postedAt, err := parsePostedAt(req.PostedAt)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("posted_at must be RFC3339 or YYYY-MM-DD"))
		return
	}

	split := &storage.Split{
		ID:          req.ID,
		AccountID:   account.ID,
		Memo:        req.Memo,
		AmountNum:   amount.Num,
		AmountDenom: amount.Denom,
		Cleared:     req.Cleared,
		PostedAt:    postedAt,
	}
	if split.Cleared {
		clearedAt := time.Now().UTC()
		split.ClearedAt = &clearedAt
	}

	if err := h.repo.AddSplit(r.Context(), split); err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusCreated, toSplitResponse(split))
}

// loadAccount resolves the {id} URL parameter, writing 404 when it is unknown.
func (h *SplitsHandler) loadAccount(w http.ResponseWriter, r *http.Request) (*storage.Account, bool) {
	account, err := h.repo.GetAccount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return nil, false
	}
	if account == nil {
		h.WriteError(w, http.StatusNotFound, dto.NotFoundError("account"))
		return nil, false
	}
	return account, true
}

func parsePostedAt(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, errors.New("unrecognized time format")
	}
	return t, nil
}
