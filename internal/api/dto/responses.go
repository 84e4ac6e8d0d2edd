package dto

import (
	"time"

	"github.com/betonops/reconcile-backend/internal/domain/matching"
	"github.com/betonops/reconcile-backend/internal/domain/recon"
)

// HealthResponse is the health check response.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// NewHealthResponse creates a health response with the current timestamp.
func NewHealthResponse() HealthResponse {
	return HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// TransactionResponse represents a bank transaction in API responses.
// Amounts are serialized as strings so clients never round them.
type TransactionResponse struct {
	ID                    string  `json:"id"`
	Date                  string  `json:"date"`
	ValueDate             string  `json:"value_date,omitempty"`
	Label                 string  `json:"label"`
	BankRef               string  `json:"bank_ref,omitempty"`
	Amount                string  `json:"amount"`
	Currency              string  `json:"currency"`
	Type                  string  `json:"type"`
	Status                string  `json:"status"`
	SuggestedClientID     string  `json:"suggested_client_id,omitempty"`
	SuggestedReceivableID string  `json:"suggested_receivable_id,omitempty"`
	Confidence            float64 `json:"confidence,omitempty"`
	ReconciledBy          string  `json:"reconciled_by,omitempty"`
	ReconciledAt          string  `json:"reconciled_at,omitempty"`
	Note                  string  `json:"note,omitempty"`
}

// TransactionListResponse contains paginated transaction results.
type TransactionListResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	TotalCount   int                   `json:"total_count"`
	Limit        int                   `json:"limit"`
	Offset       int                   `json:"offset"`
}

// SuggestionResponse represents one ranked match candidate.
type SuggestionResponse struct {
	ReceivableID string   `json:"receivable_id"`
	Kind         string   `json:"kind"`
	ClientID     string   `json:"client_id"`
	ClientName   string   `json:"client_name"`
	Amount       string   `json:"amount"`
	RefDate      string   `json:"ref_date"`
	Score        float64  `json:"score"`
	Reasons      []string `json:"reasons"`
}

// SuggestionListResponse wraps the suggestions for one transaction.
type SuggestionListResponse struct {
	TransactionID string               `json:"transaction_id"`
	Suggestions   []SuggestionResponse `json:"suggestions"`
}

// RecordResponse represents a reconciliation record for audit queries.
type RecordResponse struct {
	ID                string  `json:"id"`
	TransactionID     string  `json:"transaction_id"`
	ReceivableID      string  `json:"receivable_id"`
	ReceivableKind    string  `json:"receivable_kind"`
	ClientID          string  `json:"client_id,omitempty"`
	ReceivableAmount  string  `json:"receivable_amount"`
	TransactionAmount string  `json:"transaction_amount"`
	Variance          string  `json:"variance"`
	MatchType         string  `json:"match_type"`
	Confidence        float64 `json:"confidence"`
	Reasons           string  `json:"reasons,omitempty"`
	CreatedAt         string  `json:"created_at"`
}

// RecordListResponse wraps audit query results.
type RecordListResponse struct {
	Records    []RecordResponse `json:"records"`
	TotalCount int              `json:"total_count"`
}

// StatsResponse is the reconciliation summary.
type StatsResponse struct {
	Total            int    `json:"total"`
	ReconciledCount  int    `json:"reconciled_count"`
	ReconciledAmount string `json:"reconciled_amount"`
	UnmatchedCount   int    `json:"unmatched_count"`
	UnmatchedAmount  string `json:"unmatched_amount"`
	IgnoredCount     int    `json:"ignored_count"`
}

// ImportResponse reports an import batch.
type ImportResponse struct {
	Imported int      `json:"imported"`
	Rejected int      `json:"rejected"`
	Errors   []string `json:"errors,omitempty"`
	IDs      []string `json:"ids"`
}

// AutoReconcileResponse reports an auto-reconciliation run.
type AutoReconcileResponse struct {
	Reconciled int      `json:"reconciled"`
	Skipped    int      `json:"skipped"`
	Errors     []string `json:"errors,omitempty"`
}

// ToTransactionResponse converts a domain transaction to an API response.
func ToTransactionResponse(txn recon.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:                    txn.ID,
		Date:                  txn.Date.Format("2006-01-02"),
		Label:                 txn.Label,
		BankRef:               txn.BankRef,
		Amount:                txn.Amount.String(),
		Currency:              txn.Currency,
		Type:                  string(txn.Type),
		Status:                string(txn.Status),
		SuggestedClientID:     txn.SuggestedClientID,
		SuggestedReceivableID: txn.SuggestedReceivableID,
		Confidence:            txn.Confidence,
		ReconciledBy:          txn.ReconciledBy,
		Note:                  txn.Note,
	}
	if txn.ValueDate != nil {
		resp.ValueDate = txn.ValueDate.Format("2006-01-02")
	}
	if txn.ReconciledAt != nil {
		resp.ReconciledAt = txn.ReconciledAt.Format(time.RFC3339)
	}
	return resp
}

// ToSuggestionResponse converts a match suggestion to an API response.
func ToSuggestionResponse(sug matching.Suggestion) SuggestionResponse {
	return SuggestionResponse{
		ReceivableID: sug.ReceivableID,
		Kind:         string(sug.Kind),
		ClientID:     sug.ClientID,
		ClientName:   sug.ClientName,
		Amount:       sug.Amount.String(),
		RefDate:      sug.RefDate.Format("2006-01-02"),
		Score:        sug.Score,
		Reasons:      sug.Reasons,
	}
}

// ToRecordResponse converts a reconciliation record to an API response.
func ToRecordResponse(r recon.Record) RecordResponse {
	return RecordResponse{
		ID:                r.ID,
		TransactionID:     r.TransactionID,
		ReceivableID:      r.ReceivableID,
		ReceivableKind:    string(r.ReceivableKind),
		ClientID:          r.ClientID,
		ReceivableAmount:  r.ReceivableAmount.String(),
		TransactionAmount: r.TransactionAmount.String(),
		Variance:          r.Variance.String(),
		MatchType:         string(r.MatchType),
		Confidence:        r.Confidence,
		Reasons:           r.Reasons,
		CreatedAt:         r.CreatedAt.Format(time.RFC3339),
	}
}

// ToStatsResponse converts domain stats to an API response.
func ToStatsResponse(stats recon.Stats) StatsResponse {
	return StatsResponse{
		Total:            stats.Total,
		ReconciledCount:  stats.ReconciledCount,
		ReconciledAmount: stats.ReconciledAmount.String(),
		UnmatchedCount:   stats.UnmatchedCount,
		UnmatchedAmount:  stats.UnmatchedAmount.String(),
		IgnoredCount:     stats.IgnoredCount,
	}
}
