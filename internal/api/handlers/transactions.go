package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/betonops/reconcile-backend/internal/api/dto"
	"github.com/betonops/reconcile-backend/internal/application/reconcile"
	"github.com/betonops/reconcile-backend/internal/domain/recon"
	"github.com/betonops/reconcile-backend/internal/infrastructure/storage"
)

// TransactionsHandler serves bank transaction queries and imports.
type TransactionsHandler struct {
	Base
	repo    storage.TransactionRepository
	service *reconcile.Service
	logger  *slog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(repo storage.TransactionRepository, service *reconcile.Service, logger *slog.Logger) *TransactionsHandler {
	return &TransactionsHandler{
		repo:    repo,
		service: service,
		logger:  logger,
	}
}

// List handles GET /api/transactions with optional status, limit and offset
// query parameters.
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	filters := storage.TransactionFilters{
		Status: recon.TransactionStatus(r.URL.Query().Get("status")),
		Limit:  ParseIntParam(r, "limit", 50),
		Offset: ParseIntParam(r, "offset", 0),
	}

	txns, err := h.repo.ListTransactions(r.Context(), filters)
	if err != nil {
		h.logger.Error("failed to list transactions", "error", err)
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	responses := make([]dto.TransactionResponse, 0, len(txns))
	for _, txn := range txns {
		responses = append(responses, dto.ToTransactionResponse(txn))
	}

	h.WriteJSON(w, http.StatusOK, dto.TransactionListResponse{
		Transactions: responses,
		TotalCount:   len(responses),
		Limit:        filters.Limit,
		Offset:       filters.Offset,
	})
}

// Get handles GET /api/transactions/{id}.
func (h *TransactionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	txn, err := h.repo.GetTransaction(r.Context(), id)
	if err != nil {
		if errors.Is(err, recon.ErrNotFound) {
			h.WriteError(w, http.StatusNotFound, dto.NotFoundError("transaction"))
			return
		}
		h.logger.Error("failed to get transaction", "transaction_id", id, "error", err)
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.ToTransactionResponse(*txn))
}

// Import handles POST /api/transactions/import.
func (h *TransactionsHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req dto.ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid request body"))
		return
	}
	if len(req.Transactions) == 0 {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("transactions must not be empty"))
		return
	}

	inputs := make([]reconcile.TransactionInput, 0, len(req.Transactions))
	for i, t := range req.Transactions {
		date, err := t.ParseDate()
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, dto.ValidationError(
				fmt.Sprintf("row %d: date must be YYYY-MM-DD", i+1)))
			return
		}
		valueDate, err := t.ParseValueDate()
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, dto.ValidationError(
				fmt.Sprintf("row %d: value_date must be YYYY-MM-DD", i+1)))
			return
		}
		inputs = append(inputs, reconcile.TransactionInput{
			Date:      date,
			ValueDate: valueDate,
			Label:     t.Label,
			BankRef:   t.BankRef,
			Amount:    t.Amount,
			Currency:  t.Currency,
			Type:      recon.TransactionType(t.Type),
		})
	}

	result, err := h.service.Import(r.Context(), inputs)
	if err != nil {
		h.logger.Error("import failed", "error", err)
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusCreated, dto.ImportResponse{
		Imported: result.Imported,
		Rejected: result.Rejected,
		Errors:   result.Errors,
		IDs:      result.IDs,
	})
}
