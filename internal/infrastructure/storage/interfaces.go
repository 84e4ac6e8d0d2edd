package storage

import (
	"context"

	"github.com/betonops/reconcile-backend/internal/domain/recon"
)

// Repository defines the complete storage interface.
// This interface allows swapping implementations (SQLite, PostgreSQL, etc.)
// and makes testing with mocks straightforward.
type Repository interface {
	TransactionRepository
	RecordRepository
	Ledger
	Close() error
}

// TransactionRepository handles bank transaction persistence.
type TransactionRepository interface {
	// SaveTransaction inserts a new transaction.
	SaveTransaction(ctx context.Context, txn *recon.Transaction) error

	// GetTransaction retrieves a transaction by id.
	// Returns recon.ErrNotFound if it does not exist.
	GetTransaction(ctx context.Context, id string) (*recon.Transaction, error)

	// ListTransactions returns transactions matching the given filters.
	ListTransactions(ctx context.Context, filters TransactionFilters) ([]recon.Transaction, error)

	// MarkIgnored transitions an unmatched transaction to ignored, storing
	// an optional note. Ignoring an already-ignored transaction is a no-op.
	// Returns recon.ErrConflict if the transaction is reconciled.
	MarkIgnored(ctx context.Context, id, note string) error

	// GetStats returns aggregate counts and amounts by status.
	GetStats(ctx context.Context) (*recon.Stats, error)
}

// RecordRepository handles reconciliation records and the atomic
// confirmation of a match.
type RecordRepository interface {
	// ApplyMatch commits a confirmed match as one unit of work: it inserts
	// the record, flips the transaction to reconciled and marks the
	// receivable paid. The status transitions are conditional updates; if
	// the transaction is no longer unmatched or the receivable no longer
	// unpaid, nothing is written and recon.ErrConflict is returned.
	// actor is the identity stored on the transaction row.
	ApplyMatch(ctx context.Context, record *recon.Record, actor string) error

	// GetRecordByTransaction retrieves the record for a transaction.
	// Returns recon.ErrNotFound if none exists.
	GetRecordByTransaction(ctx context.Context, txnID string) (*recon.Record, error)

	// ListRecords returns records matching the given filters, newest first.
	ListRecords(ctx context.Context, filters RecordFilters) ([]recon.Record, error)
}

// Ledger provides read access to outstanding receivables and the client
// directory. The receivable tables are owned by the invoicing side of the
// system; the engine only lists unpaid entries and, through ApplyMatch,
// marks the matched one paid.
type Ledger interface {
	// ListUnpaidInvoices returns open invoices as receivables.
	ListUnpaidInvoices(ctx context.Context) ([]recon.Receivable, error)

	// ListUnpaidDeliveries returns unpaid, uninvoiced delivery records as
	// receivables with estimated amounts.
	ListUnpaidDeliveries(ctx context.Context) ([]recon.Receivable, error)

	// ListClients returns the client directory.
	ListClients(ctx context.Context) ([]recon.Client, error)

	// SaveClient, SaveInvoice and SaveDelivery seed ledger data. They exist
	// for imports and tests; production ledger rows arrive from the
	// invoicing workflow.
	SaveClient(ctx context.Context, client recon.Client) error
	SaveInvoice(ctx context.Context, inv Invoice) error
	SaveDelivery(ctx context.Context, del Delivery) error
}

// TransactionFilters defines filters for listing transactions.
type TransactionFilters struct {
	Status recon.TransactionStatus // empty = all
	Limit  int                     // 0 = default 50
	Offset int                     // pagination offset
}

// RecordFilters defines filters for audit queries over records.
type RecordFilters struct {
	TransactionID string
	ReceivableID  string
	Limit         int
}
