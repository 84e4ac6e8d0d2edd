package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/betonops/reconcile-backend/internal/domain/recon"
)

// MockRepository is an in-memory implementation of Repository for testing.
// It stores all data in maps and slices, making tests fast and isolated.
// All methods are safe for concurrent use so race-oriented tests can hammer
// ApplyMatch from multiple goroutines.
type MockRepository struct {
	mu           sync.Mutex
	transactions map[string]*recon.Transaction
	records      map[string]*recon.Record // keyed by transaction id
	invoices     map[string]*Invoice
	deliveries   map[string]*Delivery
	clients      map[string]recon.Client

	// Hooks for test assertions
	ApplyMatchCalled  bool
	LastAppliedRecord *recon.Record
	LastActor         string

	// Error injection for testing error paths
	SaveTransactionErr error
	ListErr            error
	ApplyMatchErr      error
	MarkIgnoredErr     error
}

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		transactions: make(map[string]*recon.Transaction),
		records:      make(map[string]*recon.Record),
		invoices:     make(map[string]*Invoice),
		deliveries:   make(map[string]*Delivery),
		clients:      make(map[string]recon.Client),
	}
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// Close does nothing for mock
func (m *MockRepository) Close() error {
	return nil
}

// AddClient seeds a client directory entry.
func (m *MockRepository) AddClient(c recon.Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[c.ID] = c
}

// AddInvoice seeds an invoice ledger row.
func (m *MockRepository) AddInvoice(inv Invoice) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if inv.Status == "" {
		inv.Status = recon.ReceivableUnpaid
	}
	copied := inv
	m.invoices[inv.ID] = &copied
}

// AddDelivery seeds a delivery ledger row.
func (m *MockRepository) AddDelivery(del Delivery) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if del.Status == "" {
		del.Status = recon.ReceivableUnpaid
	}
	copied := del
	m.deliveries[del.ID] = &copied
}

// SaveTransaction saves a transaction to the in-memory map
func (m *MockRepository) SaveTransaction(ctx context.Context, txn *recon.Transaction) error {
	if m.SaveTransactionErr != nil {
		return m.SaveTransactionErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *txn
	m.transactions[txn.ID] = &copied
	return nil
}

// GetTransaction retrieves a transaction from the in-memory map
func (m *MockRepository) GetTransaction(ctx context.Context, id string) (*recon.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	txn, ok := m.transactions[id]
	if !ok {
		return nil, fmt.Errorf("transaction %s: %w", id, recon.ErrNotFound)
	}
	copied := *txn
	return &copied, nil
}

// ListTransactions returns transactions matching the filters, in stable id order.
func (m *MockRepository) ListTransactions(ctx context.Context, filters TransactionFilters) ([]recon.Transaction, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.transactions))
	for id := range m.transactions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var txns []recon.Transaction
	for _, id := range ids {
		txn := m.transactions[id]
		if filters.Status != "" && txn.Status != filters.Status {
			continue
		}
		txns = append(txns, *txn)
	}

	if filters.Offset > 0 {
		if filters.Offset >= len(txns) {
			return nil, nil
		}
		txns = txns[filters.Offset:]
	}
	if filters.Limit > 0 && len(txns) > filters.Limit {
		txns = txns[:filters.Limit]
	}

	return txns, nil
}

// MarkIgnored mirrors the SQLite conditional update semantics.
func (m *MockRepository) MarkIgnored(ctx context.Context, id, note string) error {
	if m.MarkIgnoredErr != nil {
		return m.MarkIgnoredErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	txn, ok := m.transactions[id]
	if !ok {
		return fmt.Errorf("transaction %s: %w", id, recon.ErrNotFound)
	}
	switch txn.Status {
	case recon.StatusIgnored:
		return nil // idempotent
	case recon.StatusReconciled:
		return fmt.Errorf("transaction %s is reconciled: %w", id, recon.ErrConflict)
	}

	txn.Status = recon.StatusIgnored
	txn.Note = note
	return nil
}

// GetStats aggregates the in-memory transaction set.
func (m *MockRepository) GetStats(ctx context.Context) (*recon.Stats, error) {
	m.mu.Lock()
	txns := make([]recon.Transaction, 0, len(m.transactions))
	for _, txn := range m.transactions {
		txns = append(txns, *txn)
	}
	m.mu.Unlock()

	stats := recon.ComputeStats(txns)
	return &stats, nil
}

// ApplyMatch mirrors the SQLite all-or-nothing confirmation.
func (m *MockRepository) ApplyMatch(ctx context.Context, record *recon.Record, actor string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ApplyMatchCalled = true
	m.LastAppliedRecord = record
	m.LastActor = actor
	if m.ApplyMatchErr != nil {
		return m.ApplyMatchErr
	}

	if _, exists := m.records[record.TransactionID]; exists {
		return fmt.Errorf("transaction %s already has a record: %w", record.TransactionID, recon.ErrConflict)
	}

	txn, ok := m.transactions[record.TransactionID]
	if !ok {
		return fmt.Errorf("transaction %s: %w", record.TransactionID, recon.ErrNotFound)
	}
	if txn.Status != recon.StatusUnmatched {
		return fmt.Errorf("transaction %s is %s: %w", record.TransactionID, txn.Status, recon.ErrConflict)
	}

	// Check the receivable before mutating anything.
	var receivableStatus *recon.ReceivableStatus
	if record.ReceivableKind == recon.KindDelivery {
		if del, ok := m.deliveries[record.ReceivableID]; ok {
			receivableStatus = &del.Status
		}
	} else {
		if inv, ok := m.invoices[record.ReceivableID]; ok {
			receivableStatus = &inv.Status
		}
	}
	if receivableStatus == nil {
		return fmt.Errorf("receivable %s: %w", record.ReceivableID, recon.ErrNotFound)
	}
	if *receivableStatus != recon.ReceivableUnpaid {
		return fmt.Errorf("receivable %s is paid: %w", record.ReceivableID, recon.ErrConflict)
	}

	copied := *record
	m.records[record.TransactionID] = &copied

	txn.Status = recon.StatusReconciled
	txn.SuggestedClientID = record.ClientID
	txn.SuggestedReceivableID = record.ReceivableID
	txn.Confidence = record.Confidence
	txn.ReconciledBy = actor
	t := record.CreatedAt
	txn.ReconciledAt = &t

	*receivableStatus = recon.ReceivablePaid
	return nil
}

// GetRecordByTransaction retrieves a record from the in-memory map
func (m *MockRepository) GetRecordByTransaction(ctx context.Context, txnID string) (*recon.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[txnID]
	if !ok {
		return nil, fmt.Errorf("record for transaction %s: %w", txnID, recon.ErrNotFound)
	}
	copied := *record
	return &copied, nil
}

// ListRecords returns records matching the filters.
func (m *MockRepository) ListRecords(ctx context.Context, filters RecordFilters) ([]recon.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	txnIDs := make([]string, 0, len(m.records))
	for id := range m.records {
		txnIDs = append(txnIDs, id)
	}
	sort.Strings(txnIDs)

	var records []recon.Record
	for _, id := range txnIDs {
		r := m.records[id]
		if filters.TransactionID != "" && r.TransactionID != filters.TransactionID {
			continue
		}
		if filters.ReceivableID != "" && r.ReceivableID != filters.ReceivableID {
			continue
		}
		records = append(records, *r)
	}

	if filters.Limit > 0 && len(records) > filters.Limit {
		records = records[:filters.Limit]
	}

	return records, nil
}

// ListUnpaidInvoices returns seeded unpaid invoices as receivables.
func (m *MockRepository) ListUnpaidInvoices(ctx context.Context) ([]recon.Receivable, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.invoices))
	for id := range m.invoices {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var receivables []recon.Receivable
	for _, id := range ids {
		inv := m.invoices[id]
		if inv.Status != recon.ReceivableUnpaid {
			continue
		}
		receivables = append(receivables, inv.Receivable())
	}
	return receivables, nil
}

// ListUnpaidDeliveries returns seeded unpaid, uninvoiced deliveries as receivables.
func (m *MockRepository) ListUnpaidDeliveries(ctx context.Context) ([]recon.Receivable, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.deliveries))
	for id := range m.deliveries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var receivables []recon.Receivable
	for _, id := range ids {
		del := m.deliveries[id]
		if del.Status != recon.ReceivableUnpaid || del.Invoiced {
			continue
		}
		receivables = append(receivables, del.Receivable())
	}
	return receivables, nil
}

// ListClients returns seeded clients.
func (m *MockRepository) ListClients(ctx context.Context) ([]recon.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.clients))
	for id := range m.clients {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	clients := make([]recon.Client, 0, len(ids))
	for _, id := range ids {
		clients = append(clients, m.clients[id])
	}
	return clients, nil
}

// SaveClient stores a client directory entry.
func (m *MockRepository) SaveClient(ctx context.Context, client recon.Client) error {
	m.AddClient(client)
	return nil
}

// SaveInvoice stores an invoice ledger row.
func (m *MockRepository) SaveInvoice(ctx context.Context, inv Invoice) error {
	m.AddInvoice(inv)
	return nil
}

// SaveDelivery stores a delivery ledger row.
func (m *MockRepository) SaveDelivery(ctx context.Context, del Delivery) error {
	m.AddDelivery(del)
	return nil
}
