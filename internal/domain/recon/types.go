// Package recon defines the core reconciliation domain: bank transactions,
// receivables, clients and the immutable reconciliation records that link
// them together.
package recon

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus tracks where a bank transaction sits in the
// reconciliation lifecycle.
type TransactionStatus string

const (
	StatusUnmatched  TransactionStatus = "unmatched"
	StatusReconciled TransactionStatus = "reconciled"
	StatusIgnored    TransactionStatus = "ignored"
)

// TransactionType distinguishes money in from money out.
type TransactionType string

const (
	TypeDebit  TransactionType = "debit"
	TypeCredit TransactionType = "credit"
)

// ReceivableKind identifies which pool a receivable came from.
// Delivery-derived receivables carry estimated amounts since no invoice
// exists for them yet.
type ReceivableKind string

const (
	KindInvoice  ReceivableKind = "invoice"
	KindDelivery ReceivableKind = "delivery"
)

// ReceivableStatus is the payment state of a receivable.
type ReceivableStatus string

const (
	ReceivableUnpaid ReceivableStatus = "unpaid"
	ReceivablePaid   ReceivableStatus = "paid"
)

// MatchType records whether a human or the auto-reconciler confirmed a match.
type MatchType string

const (
	MatchManual    MatchType = "manual"
	MatchAutomatic MatchType = "automatic"
)

// Transaction is a raw bank-statement line. Transactions are created on
// import with StatusUnmatched and are only ever mutated by the reconciliation
// recorder or an explicit ignore; they are never deleted.
type Transaction struct {
	ID                    string            `json:"id"`
	Date                  time.Time         `json:"date"`
	ValueDate             *time.Time        `json:"value_date,omitempty"`
	Label                 string            `json:"label"`
	BankRef               string            `json:"bank_ref,omitempty"`
	Amount                decimal.Decimal   `json:"amount"`
	Currency              string            `json:"currency"`
	Type                  TransactionType   `json:"type"`
	Status                TransactionStatus `json:"status"`
	SuggestedClientID     string            `json:"suggested_client_id,omitempty"`
	SuggestedReceivableID string            `json:"suggested_receivable_id,omitempty"`
	Confidence            float64           `json:"confidence,omitempty"`
	ReconciledBy          string            `json:"reconciled_by,omitempty"`
	ReconciledAt          *time.Time        `json:"reconciled_at,omitempty"`
	Note                  string            `json:"note,omitempty"`
	CreatedAt             time.Time         `json:"created_at"`
}

// Receivable is the unified view of money owed by a client: an open invoice
// or an unpaid delivery record that has not been invoiced yet. The ledger is
// the source of truth; the engine only reads receivables and requests the
// transition to paid on confirmation.
type Receivable struct {
	ID       string           `json:"id"`
	ClientID string           `json:"client_id"`
	Amount   decimal.Decimal  `json:"amount"`
	RefDate  time.Time        `json:"ref_date"`
	Kind     ReceivableKind   `json:"kind"`
	Status   ReceivableStatus `json:"status"`
}

// Client carries the display name used for name-token matching against
// transaction labels.
type Client struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Record is the immutable audit entry written when a match is confirmed.
// Variance is signed: transaction amount minus receivable amount, so a
// non-zero value indicates partial payment, overpayment or a bank fee.
type Record struct {
	ID                string          `json:"id"`
	TransactionID     string          `json:"transaction_id"`
	ReceivableID      string          `json:"receivable_id"`
	ReceivableKind    ReceivableKind  `json:"receivable_kind"`
	ClientID          string          `json:"client_id"`
	ReceivableAmount  decimal.Decimal `json:"receivable_amount"`
	TransactionAmount decimal.Decimal `json:"transaction_amount"`
	Variance          decimal.Decimal `json:"variance"`
	MatchType         MatchType       `json:"match_type"`
	Confidence        float64         `json:"confidence"`
	Reasons           string          `json:"reasons"`
	CreatedAt         time.Time       `json:"created_at"`
}

// EstimateDeliveryAmount computes the expected payment for a delivery that
// has no invoice yet: volume x (unit sale price + unit delivery price),
// taxes included.
func EstimateDeliveryAmount(volume, unitSalePrice, unitDeliveryPrice, taxRate decimal.Decimal) decimal.Decimal {
	unit := unitSalePrice.Add(unitDeliveryPrice)
	return volume.Mul(unit).Mul(decimal.NewFromInt(1).Add(taxRate))
}
