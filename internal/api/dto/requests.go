package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ImportRequest carries a batch of raw statement lines to ingest.
type ImportRequest struct {
	Transactions []ImportTransaction `json:"transactions"`
}

// ImportTransaction is one raw statement line. Dates use YYYY-MM-DD.
type ImportTransaction struct {
	Date      string          `json:"date"`
	ValueDate string          `json:"value_date,omitempty"`
	Label     string          `json:"label"`
	BankRef   string          `json:"bank_ref,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency,omitempty"`
	Type      string          `json:"type,omitempty"`
}

// ParseDate parses the transaction date.
func (t ImportTransaction) ParseDate() (time.Time, error) {
	return time.Parse("2006-01-02", t.Date)
}

// ParseValueDate parses the optional value date; nil when absent.
func (t ImportTransaction) ParseValueDate() (*time.Time, error) {
	if t.ValueDate == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", t.ValueDate)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// ReconcileRequest confirms one suggestion for a transaction. The fields
// mirror the suggestion the operator picked from the suggestions endpoint.
type ReconcileRequest struct {
	ReceivableID string          `json:"receivable_id"`
	Kind         string          `json:"kind"`
	ClientID     string          `json:"client_id"`
	ClientName   string          `json:"client_name,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	Score        float64         `json:"score"`
	Reasons      []string        `json:"reasons,omitempty"`
	ReconciledBy string          `json:"reconciled_by,omitempty"`
}

// IgnoreRequest marks a transaction as ignored with an optional note.
type IgnoreRequest struct {
	Note string `json:"note,omitempty"`
}

// AutoReconcileRequest tunes an auto-reconciliation run. A zero MinScore
// uses the configured default.
type AutoReconcileRequest struct {
	MinScore float64 `json:"min_score,omitempty"`
}
