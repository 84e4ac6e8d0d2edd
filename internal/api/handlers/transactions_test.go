package handlers_test

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

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betonops/reconcile-backend/internal/api/dto"
	"github.com/betonops/reconcile-backend/internal/api/handlers"
	"github.com/betonops/reconcile-backend/internal/application/reconcile"
	"github.com/betonops/reconcile-backend/internal/domain/matching"
	"github.com/betonops/reconcile-backend/internal/domain/recon"
	"github.com/betonops/reconcile-backend/internal/infrastructure/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testService(repo storage.Repository) *reconcile.Service {
	return reconcile.NewService(repo, matching.NewEngine(matching.DefaultConfig()), testLogger())
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return parsed
}

func addTransaction(t *testing.T, repo *storage.MockRepository, id, label, amount, day string) {
	t.Helper()
	err := repo.SaveTransaction(context.Background(), &recon.Transaction{
		ID:       id,
		Date:     mustDate(t, day),
		Label:    label,
		Amount:   decimal.RequireFromString(amount),
		Currency: "EUR",
		Type:     recon.TypeCredit,
		Status:   recon.StatusUnmatched,
	})
	require.NoError(t, err)
}

func TestTransactionsHandler_List(t *testing.T) {
	t.Run("returns empty list when no transactions", func(t *testing.T) {
		repo := storage.NewMockRepository()
		handler := handlers.NewTransactionsHandler(repo, testService(repo), testLogger())

		req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
		rec := httptest.NewRecorder()

		handler.List(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.TransactionListResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Empty(t, response.Transactions)
		assert.Equal(t, 50, response.Limit) // default limit
	})

	t.Run("filters by status", func(t *testing.T) {
		repo := storage.NewMockRepository()
		addTransaction(t, repo, "txn-1", "VIR ACME", "100.00", "2026-03-12")
		addTransaction(t, repo, "txn-2", "FRAIS", "-12.50", "2026-03-12")
		require.NoError(t, repo.MarkIgnored(context.Background(), "txn-2", "fee"))

		handler := handlers.NewTransactionsHandler(repo, testService(repo), testLogger())

		req := httptest.NewRequest(http.MethodGet, "/api/transactions?status=ignored", nil)
		rec := httptest.NewRecorder()

		handler.List(rec, req)

		var response dto.TransactionListResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		require.Len(t, response.Transactions, 1)
		assert.Equal(t, "txn-2", response.Transactions[0].ID)
		assert.Equal(t, "ignored", response.Transactions[0].Status)
	})
}

func TestTransactionsHandler_Get(t *testing.T) {
	newRouter := func(repo *storage.MockRepository) http.Handler {
		handler := handlers.NewTransactionsHandler(repo, testService(repo), testLogger())
		r := chi.NewRouter()
		r.Get("/api/transactions/{id}", handler.Get)
		return r
	}

	t.Run("returns the transaction", func(t *testing.T) {
		repo := storage.NewMockRepository()
		addTransaction(t, repo, "txn-1", "VIR ACME SARL", "15000.00", "2026-03-12")

		req := httptest.NewRequest(http.MethodGet, "/api/transactions/txn-1", nil)
		rec := httptest.NewRecorder()

		newRouter(repo).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.TransactionResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, "txn-1", response.ID)
		assert.Equal(t, "15000", response.Amount)
		assert.Equal(t, "2026-03-12", response.Date)
	})

	t.Run("returns 404 for unknown id", func(t *testing.T) {
		repo := storage.NewMockRepository()

		req := httptest.NewRequest(http.MethodGet, "/api/transactions/missing", nil)
		rec := httptest.NewRecorder()

		newRouter(repo).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)

		var apiErr dto.APIError
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&apiErr))
		assert.Equal(t, dto.ErrCodeNotFound, apiErr.Code)
	})
}

func TestTransactionsHandler_Import(t *testing.T) {
	newHandler := func(repo *storage.MockRepository) *handlers.TransactionsHandler {
		return handlers.NewTransactionsHandler(repo, testService(repo), testLogger())
	}

	t.Run("imports a batch", func(t *testing.T) {
		repo := storage.NewMockRepository()
		body := `{"transactions": [
			{"date": "2026-03-12", "label": "VIR ACME SARL", "amount": "15000.00"},
			{"date": "2026-03-13", "label": "PRLV EDF", "amount": "-320.00", "type": "debit"}
		]}`

		req := httptest.NewRequest(http.MethodPost, "/api/transactions/import", strings.NewReader(body))
		rec := httptest.NewRecorder()

		newHandler(repo).Import(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)

		var response dto.ImportResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, 2, response.Imported)
		assert.Equal(t, 0, response.Rejected)
		assert.Len(t, response.IDs, 2)
	})

	t.Run("reports rejected rows", func(t *testing.T) {
		repo := storage.NewMockRepository()
		body := `{"transactions": [
			{"date": "2026-03-12", "label": "VIR ACME", "amount": "100.00"},
			{"date": "2026-03-12", "label": "zero", "amount": "0"}
		]}`

		req := httptest.NewRequest(http.MethodPost, "/api/transactions/import", strings.NewReader(body))
		rec := httptest.NewRecorder()

		newHandler(repo).Import(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)

		var response dto.ImportResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, 1, response.Imported)
		assert.Equal(t, 1, response.Rejected)
	})

	t.Run("rejects malformed dates", func(t *testing.T) {
		repo := storage.NewMockRepository()
		body := `{"transactions": [{"date": "12/03/2026", "label": "VIR", "amount": "10.00"}]}`

		req := httptest.NewRequest(http.MethodPost, "/api/transactions/import", strings.NewReader(body))
		rec := httptest.NewRecorder()

		newHandler(repo).Import(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects empty body", func(t *testing.T) {
		repo := storage.NewMockRepository()

		req := httptest.NewRequest(http.MethodPost, "/api/transactions/import", strings.NewReader(`{"transactions": []}`))
		rec := httptest.NewRecorder()

		newHandler(repo).Import(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
