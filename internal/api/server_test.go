package api_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betonops/reconcile-backend/internal/api"
	"github.com/betonops/reconcile-backend/internal/api/dto"
	"github.com/betonops/reconcile-backend/internal/application/reconcile"
	"github.com/betonops/reconcile-backend/internal/domain/matching"
	"github.com/betonops/reconcile-backend/internal/domain/recon"
	"github.com/betonops/reconcile-backend/internal/infrastructure/storage"
)

func newTestServer(t *testing.T) (*api.Server, *storage.MockRepository) {
	t.Helper()
	repo := storage.NewMockRepository()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := reconcile.NewService(repo, matching.NewEngine(matching.DefaultConfig()), logger)
	server := api.NewServer(api.DefaultConfig(), repo, service, logger)
	return server, repo
}

func seedServerData(t *testing.T, repo *storage.MockRepository) {
	t.Helper()
	repo.AddClient(recon.Client{ID: "c-acme", Name: "ACME SARL"})
	issued, err := time.Parse("2006-01-02", "2026-03-10")
	require.NoError(t, err)
	repo.AddInvoice(storage.Invoice{
		ID:       "INV-001",
		ClientID: "c-acme",
		Amount:   decimal.RequireFromString("15000.00"),
		IssuedAt: issued,
	})
	txnDate, err := time.Parse("2006-01-02", "2026-03-12")
	require.NoError(t, err)
	require.NoError(t, repo.SaveTransaction(context.Background(), &recon.Transaction{
		ID:       "txn-1",
		Date:     txnDate,
		Label:    "VIR ACME SARL FACTURE INV-001",
		Amount:   decimal.RequireFromString("15000.00"),
		Currency: "EUR",
		Type:     recon.TypeCredit,
		Status:   recon.StatusUnmatched,
	}))
}

func TestServer_HealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.HealthResponse
	err := json.NewDecoder(rec.Body).Decode(&response)
	require.NoError(t, err)
	assert.Equal(t, "ok", response.Status)
}

func TestServer_TransactionEndpoints(t *testing.T) {
	t.Run("GET /api/transactions returns transactions", func(t *testing.T) {
		server, repo := newTestServer(t)
		seedServerData(t, repo)

		req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
		rec := httptest.NewRecorder()

		server.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.TransactionListResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		require.Len(t, response.Transactions, 1)
		assert.Equal(t, "txn-1", response.Transactions[0].ID)
	})

	t.Run("GET /api/transactions/{id} returns one transaction", func(t *testing.T) {
		server, repo := newTestServer(t)
		seedServerData(t, repo)

		req := httptest.NewRequest(http.MethodGet, "/api/transactions/txn-1", nil)
		rec := httptest.NewRecorder()

		server.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("GET /api/transactions/{id}/suggestions returns suggestions", func(t *testing.T) {
		server, repo := newTestServer(t)
		seedServerData(t, repo)

		req := httptest.NewRequest(http.MethodGet, "/api/transactions/txn-1/suggestions", nil)
		rec := httptest.NewRecorder()

		server.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.SuggestionListResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		require.NotEmpty(t, response.Suggestions)
		assert.Equal(t, "INV-001", response.Suggestions[0].ReceivableID)
	})
}

func TestServer_ReconcileEndpoints(t *testing.T) {
	t.Run("POST /api/transactions/{id}/reconcile confirms a match", func(t *testing.T) {
		server, repo := newTestServer(t)
		seedServerData(t, repo)

		body := `{"receivable_id": "INV-001", "kind": "invoice", "client_id": "c-acme", "amount": "15000.00", "score": 0.9, "reconciled_by": "marie"}`
		req := httptest.NewRequest(http.MethodPost, "/api/transactions/txn-1/reconcile", strings.NewReader(body))
		rec := httptest.NewRecorder()

		server.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, repo.ApplyMatchCalled)
	})

	t.Run("POST /api/reconcile/auto runs the auto-reconciler", func(t *testing.T) {
		server, repo := newTestServer(t)
		seedServerData(t, repo)

		req := httptest.NewRequest(http.MethodPost, "/api/reconcile/auto", nil)
		rec := httptest.NewRecorder()

		server.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.AutoReconcileResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, 1, response.Reconciled)
	})
}

func TestServer_StatsAndRecordsEndpoints(t *testing.T) {
	server, repo := newTestServer(t)
	seedServerData(t, repo)

	auto := httptest.NewRecorder()
	server.Router().ServeHTTP(auto, httptest.NewRequest(http.MethodPost, "/api/reconcile/auto", nil))
	require.Equal(t, http.StatusOK, auto.Code)

	t.Run("GET /api/stats", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
		rec := httptest.NewRecorder()

		server.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.StatsResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, 1, response.Total)
		assert.Equal(t, 1, response.ReconciledCount)
	})

	t.Run("GET /api/records", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/records", nil)
		rec := httptest.NewRecorder()

		server.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.RecordListResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		require.Len(t, response.Records, 1)
		assert.Equal(t, "automatic", response.Records[0].MatchType)
	})
}
