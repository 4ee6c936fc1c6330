package api

import (
	"net/http"
	"strings"

	"github.com/warp/cardledger/ledger"
)

// =============================================================================
// ACCOUNT HANDLERS
//
//   GET    /api/accounts                       List accounts
//   POST   /api/accounts                       Create account (optional opening balance)
//   GET    /api/accounts/{id}                  Get account
//   DELETE /api/accounts/{id}                  Delete account and its history
//   GET    /api/accounts/{id}/transactions     Transaction history
//   POST   /api/accounts/{id}/transactions     Post a transaction
// =============================================================================

func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.Service.ListAccounts(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	dtos := make([]AccountDTO, len(accounts))
	for i, a := range accounts {
		dtos[i] = toAccountDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := decodeJSONBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	account, err := h.Service.CreateAccount(r.Context(), &ledger.Account{
		Name:        req.Name,
		Type:        ledger.AccountType(req.Type),
		CreditLimit: req.CreditLimit,
		Notes:       req.Notes,
	}, req.OpeningBalance)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountDTO(*account))
}

func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	account, err := h.Service.Account(r.Context(), ledger.AccountID(id))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(*account))
}

func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Service.DeleteAccount(r.Context(), ledger.AccountID(id)); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListAccountTransactions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	txs, err := h.Service.AccountTransactions(r.Context(), ledger.AccountID(id))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	dtos := make([]AccountTransactionDTO, len(txs))
	for i, t := range txs {
		dtos[i] = toAccountTransactionDTO(t)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) PostAccountTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req PostTransactionRequest
	if err := decodeJSONBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	account, tx, err := h.Service.PostAccountTransaction(r.Context(), ledger.AccountID(id), ledger.AccountPosting{
		RelatedType: ledger.AccountRelatedType(req.RelatedType),
		RelatedID:   req.RelatedID,
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, PostTransactionResponse{
		Account:     toAccountDTO(*account),
		Transaction: toAccountTransactionDTO(*tx),
	})
}

// =============================================================================
// ANALYTICS
//
//   GET /api/analytics?retailer=CODE&timeframe=7d
//
// retailer defaults to ALL; timeframe is one of 24h 3d 7d 30d 3m 6m 12m,
// anything else means all time.
// =============================================================================

func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	retailer := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("retailer")))
	if retailer == "" {
		retailer = ledger.AllRetailers
	}
	d, err := h.Service.Dashboard(r.Context(), retailer, r.URL.Query().Get("timeframe"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDashboardDTO(retailer, d))
}

// =============================================================================
// RECONCILIATION
//
//   GET  /api/reconciliation                Check now, nothing recorded
//   POST /api/reconciliation/run            Check now and record the run
//   GET  /api/reconciliation/runs?limit=    Recorded runs, newest first
// =============================================================================

func (h *Handler) GetReconciliation(w http.ResponseWriter, r *http.Request) {
	report, err := h.Service.Reconcile(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReportDTO(report))
}

func (h *Handler) RunReconciliation(w http.ResponseWriter, r *http.Request) {
	run, err := h.Service.RunReconciliation(r.Context(), "manual")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRunDTO(run))
}

func (h *Handler) ListReconciliationRuns(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 20, 1, 500)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	runs, err := h.Service.ReconciliationRuns(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	dtos := make([]ReconciliationRunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toRunDTO(run)
	}
	writeJSON(w, http.StatusOK, dtos)
}
