package handlers

import (
	"log/slog"
	"net/http"

	"github.com/betonops/reconcile-backend/internal/api/dto"
	"github.com/betonops/reconcile-backend/internal/application/reconcile"
)

// StatsHandler serves the reconciliation summary.
type StatsHandler struct {
	Base
	service *reconcile.Service
	logger  *slog.Logger
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(service *reconcile.Service, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{
		service: service,
		logger:  logger,
	}
}

// Get handles GET /api/stats.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.logger.Error("failed to compute stats", "error", err)
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.ToStatsResponse(*stats))
}
