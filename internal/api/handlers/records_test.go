package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betonops/reconcile-backend/internal/api/dto"
	"github.com/betonops/reconcile-backend/internal/api/handlers"
	"github.com/betonops/reconcile-backend/internal/domain/recon"
	"github.com/betonops/reconcile-backend/internal/infrastructure/storage"
)

func applyTestMatch(t *testing.T, repo *storage.MockRepository, txnID, receivableID string) {
	t.Helper()
	err := repo.ApplyMatch(context.Background(), &recon.Record{
		ID:                "rec-" + txnID,
		TransactionID:     txnID,
		ReceivableID:      receivableID,
		ReceivableKind:    recon.KindInvoice,
		ClientID:          "c-acme",
		ReceivableAmount:  decimal.RequireFromString("15000.00"),
		TransactionAmount: decimal.RequireFromString("15000.00"),
		Variance:          decimal.Zero,
		MatchType:         recon.MatchManual,
		Confidence:        0.9,
	}, "marie")
	require.NoError(t, err)
}

func TestRecordsHandler_List(t *testing.T) {
	t.Run("returns empty list when nothing reconciled", func(t *testing.T) {
		repo := storage.NewMockRepository()
		handler := handlers.NewRecordsHandler(repo, testLogger())

		req := httptest.NewRequest(http.MethodGet, "/api/records", nil)
		rec := httptest.NewRecorder()

		handler.List(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.RecordListResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Empty(t, response.Records)
	})

	t.Run("filters by transaction id", func(t *testing.T) {
		repo := storage.NewMockRepository()
		seedMatchableLedger(repo)
		repo.AddInvoice(storage.Invoice{
			ID:       "INV-002",
			ClientID: "c-acme",
			Amount:   decimal.RequireFromString("15000.00"),
			IssuedAt: day("2026-03-11"),
		})
		addTransaction(t, repo, "txn-1", "VIR ACME SARL", "15000.00", "2026-03-12")
		addTransaction(t, repo, "txn-2", "VIR ACME SARL BIS", "15000.00", "2026-03-13")
		applyTestMatch(t, repo, "txn-1", "INV-001")
		applyTestMatch(t, repo, "txn-2", "INV-002")

		handler := handlers.NewRecordsHandler(repo, testLogger())

		req := httptest.NewRequest(http.MethodGet, "/api/records?transaction_id=txn-2", nil)
		rec := httptest.NewRecorder()

		handler.List(rec, req)

		var response dto.RecordListResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		require.Len(t, response.Records, 1)
		assert.Equal(t, "txn-2", response.Records[0].TransactionID)
		assert.Equal(t, "INV-002", response.Records[0].ReceivableID)
		assert.Equal(t, "manual", response.Records[0].MatchType)
	})
}
