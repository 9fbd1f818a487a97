package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/eshaffer321/ledger-autoclear/internal/api/dto"
	"github.com/eshaffer321/ledger-autoclear/internal/application/service"
	"github.com/eshaffer321/ledger-autoclear/internal/domain/autoclear"
	"github.com/eshaffer321/ledger-autoclear/internal/infrastructure/storage"
)

// AutoClearHandler handles auto-clear requests.
type AutoClearHandler struct {
	*Base
	autoclear *service.AutoClearService
}

// NewAutoClearHandler creates a new auto-clear handler.
func NewAutoClearHandler(repo storage.Repository, svc *service.AutoClearService) *AutoClearHandler {
	return &AutoClearHandler{
		Base:      NewBase(repo),
		autoclear: svc,
	}
}

// Run handles POST /api/accounts/{id}/autoclear.
//
// Solved results return 200. Outcomes that leave the account untouched
// return 422, except a denominator mismatch, which is a data error and
// returns 400. The body is an AutoClearResponse in every case.
func (h *AutoClearHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req dto.AutoClearRequest
	if err := DecodeJSON(r, &req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError(err.Error()))
		return
	}
	if strings.TrimSpace(req.Target) == "" {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("target is required"))
		return
	}

	out, err := h.autoclear.Run(r.Context(), service.Request{
		AccountID: chi.URLParam(r, "id"),
		Target:    req.Target,
		DryRun:    req.DryRun || ParseBoolParam(r, "dry_run", false),
	})
	switch {
	case errors.Is(err, service.ErrAccountNotFound):
		h.WriteError(w, http.StatusNotFound, dto.NotFoundError("account"))
		return
	case errors.Is(err, service.ErrInvalidTarget):
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError(err.Error()))
		return
	case errors.Is(err, storage.ErrClearConflict):
		h.WriteError(w, http.StatusConflict, dto.ConflictError("splits changed while clearing; retry"))
		return
	case err != nil:
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, StatusForOutcome(out.Result.Outcome), toAutoClearResponse(out))
}

// StatusForOutcome maps an auto-clear outcome to an HTTP status code.
func StatusForOutcome(outcome autoclear.Outcome) int {
	switch outcome {
	case autoclear.OutcomeSolved:
		return http.StatusOK
	case autoclear.OutcomeDenomMismatch:
		return http.StatusBadRequest
	default:
		return http.StatusUnprocessableEntity
	}
}
