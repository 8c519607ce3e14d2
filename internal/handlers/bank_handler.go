package handlers

import (
	"net/http"

	"finquest/internal/service"
)

// BankHandler handles bank link and sync endpoints
type BankHandler struct {
	bank *service.BankService
}

// NewBankHandler creates a new bank handler
func NewBankHandler(bank *service.BankService) *BankHandler {
	return &BankHandler{bank: bank}
}

// Exchange handles POST /bank/link/exchange
func (h *BankHandler) Exchange(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PublicToken string `json:"public_token"`
	}
	if err := decodeJSON(r, &req); err != nil || req.PublicToken == "" {
		respondWithError(w, http.StatusBadRequest, ErrCodeBadRequest, "public_token is required.")
		return
	}

	item, err := h.bank.ExchangePublicToken(r.Context(), IdentityFrom(r), req.PublicToken)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, item)
}

// Sync handles POST /bank/transactions/sync
func (h *BankHandler) Sync(w http.ResponseWriter, r *http.Request) {
	result, err := h.bank.SyncTransactions(r.Context(), IdentityFrom(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// Items handles GET /bank/items
func (h *BankHandler) Items(w http.ResponseWriter, r *http.Request) {
	items, err := h.bank.ListLinkedItems(IdentityFrom(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}
