package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/eshaffer321/ledger-autoclear/internal/api/dto"
	"github.com/eshaffer321/ledger-autoclear/internal/application/service"
	"github.com/eshaffer321/ledger-autoclear/internal/infrastructure/storage"
)

// AccountsHandler handles account-related HTTP requests.
type AccountsHandler struct {
	*Base
	autoclear *service.AutoClearService
}

// NewAccountsHandler creates a new accounts handler.
func NewAccountsHandler(repo storage.Repository, svc *service.AutoClearService) *AccountsHandler {
	return &AccountsHandler{
		Base:      NewBase(repo),
		autoclear: svc,
	}
}

// List handles GET /api/accounts - returns every account with balances.
func (h *AccountsHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.repo.ListAccounts(r.Context())
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := dto.AccountListResponse{
		Accounts: make([]dto.AccountResponse, 0, len(accounts)),
		Count:    len(accounts),
	}
	for _, account := range accounts {
		summary, err := h.autoclear.Summary(r.Context(), account.ID)
		if err != nil {
			h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
			return
		}
		response.Accounts = append(response.Accounts, toAccountResponse(summary))
	}

	h.WriteJSON(w, http.StatusOK, response)
}

// Get handles GET /api/accounts/{id} - returns one account with balances.
func (h *AccountsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	summary, err := h.autoclear.Summary(r.Context(), id)
	if errors.Is(err, service.ErrAccountNotFound) {
		h.WriteError(w, http.StatusNotFound, dto.NotFoundError("account"))
		return
	}
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, toAccountResponse(summary))
}

// Create handles POST /api/accounts.
func (h *AccountsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAccountRequest
	if err := DecodeJSON(r, &req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError(err.Error()))
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("name is required"))
		return
	}
	if req.Denom == 0 {
		req.Denom = 100
	}
	if req.Denom < 0 {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("denom must be positive"))
		return
	}

	if req.ID != "" {
		existing, err := h.repo.GetAccount(r.Context(), req.ID)
		if err != nil {
			h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
			return
		}
		if existing != nil {
			h.WriteError(w, http.StatusConflict, dto.ConflictError("account "+req.ID+" already exists"))
			return
		}
	}

	account := &storage.Account{
		ID:        req.ID,
		Name:      req.Name,
		Commodity: strings.ToUpper(strings.TrimSpace(req.Commodity)),
		Denom:     req.Denom,
	}
	if err := h.repo.CreateAccount(r.Context(), account); err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	summary, err := h.autoclear.Summary(r.Context(), account.ID)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}
	h.WriteJSON(w, http.StatusCreated, toAccountResponse(summary))
}
