package handlers

import (
	"log/slog"
	"net/http"

	"github.com/betonops/reconcile-backend/internal/api/dto"
	"github.com/betonops/reconcile-backend/internal/infrastructure/storage"
)

// RecordsHandler serves the reconciliation audit trail.
type RecordsHandler struct {
	Base
	repo   storage.RecordRepository
	logger *slog.Logger
}

// NewRecordsHandler creates a new records handler.
func NewRecordsHandler(repo storage.RecordRepository, logger *slog.Logger) *RecordsHandler {
	return &RecordsHandler{
		repo:   repo,
		logger: logger,
	}
}

// List handles GET /api/records with optional transaction_id and
// receivable_id query parameters.
func (h *RecordsHandler) List(w http.ResponseWriter, r *http.Request) {
	filters := storage.RecordFilters{
		TransactionID: r.URL.Query().Get("transaction_id"),
		ReceivableID:  r.URL.Query().Get("receivable_id"),
		Limit:         ParseIntParam(r, "limit", 100),
	}

	records, err := h.repo.ListRecords(r.Context(), filters)
	if err != nil {
		h.logger.Error("failed to list records", "error", err)
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	responses := make([]dto.RecordResponse, 0, len(records))
	for _, rec := range records {
		responses = append(responses, dto.ToRecordResponse(rec))
	}

	h.WriteJSON(w, http.StatusOK, dto.RecordListResponse{
		Records:    responses,
		TotalCount: len(responses),
	})
}
