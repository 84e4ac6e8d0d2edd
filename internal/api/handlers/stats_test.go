package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betonops/reconcile-backend/internal/api/dto"
	"github.com/betonops/reconcile-backend/internal/api/handlers"
	"github.com/betonops/reconcile-backend/internal/infrastructure/storage"
)

func TestStatsHandler_Get(t *testing.T) {
	repo := storage.NewMockRepository()
	seedMatchableLedger(repo)
	addTransaction(t, repo, "txn-1", "VIR ACME SARL", "15000.00", "2026-03-12")
	addTransaction(t, repo, "txn-2", "PRLV EDF", "-320.00", "2026-03-13")
	applyTestMatch(t, repo, "txn-1", "INV-001")
	require.NoError(t, repo.MarkIgnored(context.Background(), "txn-2", "utility bill"))

	handler := handlers.NewStatsHandler(testService(repo), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.StatsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.Equal(t, 2, response.Total)
	assert.Equal(t, 1, response.ReconciledCount)
	assert.Equal(t, "15000", response.ReconciledAmount)
	assert.Equal(t, 0, response.UnmatchedCount)
	assert.Equal(t, 1, response.IgnoredCount)
}
