package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/betonops/reconcile-backend/internal/api/dto"
	"github.com/betonops/reconcile-backend/internal/application/reconcile"
	"github.com/betonops/reconcile-backend/internal/domain/matching"
	"github.com/betonops/reconcile-backend/internal/domain/recon"
)

// ReconcileHandler serves match suggestions and reconciliation actions.
type ReconcileHandler struct {
	Base
	service *reconcile.Service
	// minScore is the configured auto-reconcile threshold, used when a run
	// does not specify one.
	minScore float64
	logger   *slog.Logger
}

// NewReconcileHandler creates a new reconcile handler.
func NewReconcileHandler(service *reconcile.Service, minScore float64, logger *slog.Logger) *ReconcileHandler {
	return &ReconcileHandler{
		service:  service,
		minScore: minScore,
		logger:   logger,
	}
}

// Suggestions handles GET /api/transactions/{id}/suggestions.
func (h *ReconcileHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	suggestions, err := h.service.Suggestions(r.Context(), id)
	if err != nil {
		if errors.Is(err, recon.ErrNotFound) {
			h.WriteError(w, http.StatusNotFound, dto.NotFoundError("transaction"))
			return
		}
		h.logger.Error("failed to compute suggestions", "transaction_id", id, "error", err)
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	responses := make([]dto.SuggestionResponse, 0, len(suggestions))
	for _, sug := range suggestions {
		responses = append(responses, dto.ToSuggestionResponse(sug))
	}

	h.WriteJSON(w, http.StatusOK, dto.SuggestionListResponse{
		TransactionID: id,
		Suggestions:   responses,
	})
}

// Confirm handles POST /api/transactions/{id}/reconcile.
func (h *ReconcileHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.ReconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid request body"))
		return
	}
	if req.ReceivableID == "" {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("receivable_id is required"))
		return
	}
	kind := recon.ReceivableKind(req.Kind)
	if kind != recon.KindInvoice && kind != recon.KindDelivery {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("kind must be invoice or delivery"))
		return
	}

	sug := matching.Suggestion{
		ReceivableID: req.ReceivableID,
		Kind:         kind,
		ClientID:     req.ClientID,
		ClientName:   req.ClientName,
		Amount:       req.Amount,
		Score:        req.Score,
		Reasons:      req.Reasons,
	}

	err := h.service.ConfirmMatch(r.Context(), id, sug, recon.MatchManual, req.ReconciledBy)
	if err != nil {
		switch {
		case errors.Is(err, recon.ErrNotFound):
			h.WriteError(w, http.StatusNotFound, dto.NotFoundError("transaction"))
		case errors.Is(err, recon.ErrConflict):
			h.WriteError(w, http.StatusConflict, dto.ConflictError("transaction or receivable already settled"))
		default:
			h.logger.Error("failed to confirm match", "transaction_id", id, "error", err)
			h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		}
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "reconciled"})
}

// Ignore handles POST /api/transactions/{id}/ignore.
func (h *ReconcileHandler) Ignore(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.IgnoreRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid request body"))
			return
		}
	}

	err := h.service.Ignore(r.Context(), id, req.Note)
	if err != nil {
		switch {
		case errors.Is(err, recon.ErrNotFound):
			h.WriteError(w, http.StatusNotFound, dto.NotFoundError("transaction"))
		case errors.Is(err, recon.ErrConflict):
			h.WriteError(w, http.StatusConflict, dto.ConflictError("transaction is already reconciled"))
		default:
			h.logger.Error("failed to ignore transaction", "transaction_id", id, "error", err)
			h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		}
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
}

// Auto handles POST /api/reconcile/auto.
func (h *ReconcileHandler) Auto(w http.ResponseWriter, r *http.Request) {
	var req dto.AutoReconcileRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid request body"))
			return
		}
	}
	if req.MinScore < 0 || req.MinScore > 1 {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("min_score must be between 0 and 1"))
		return
	}

	minScore := req.MinScore
	if minScore == 0 {
		minScore = h.minScore
	}

	result, err := h.service.AutoReconcile(r.Context(), minScore)
	if err != nil {
		h.logger.Error("auto-reconcile run failed", "error", err)
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.AutoReconcileResponse{
		Reconciled: result.Reconciled,
		Skipped:    result.Skipped,
		Errors:     result.Errors,
	})
}
