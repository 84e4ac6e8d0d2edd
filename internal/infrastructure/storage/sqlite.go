package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/betonops/reconcile-backend/internal/domain/recon"
)

// Storage provides SQLite database access for the reconciliation engine.
// It implements the Repository interface.
type Storage struct {
	db *sql.DB
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage creates a new storage instance with SQLite database
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints (SQLite-specific)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Storage{db: db}

	// Run all pending migrations
	if err := s.runMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// SaveTransaction inserts a new bank transaction.
func (s *Storage) SaveTransaction(ctx context.Context, txn *recon.Transaction) error {
	query := `
	INSERT INTO bank_transactions
	(id, date, value_date, label, bank_ref, amount, currency, type, status,
	 note, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		txn.ID,
		txn.Date,
		nullTime(txn.ValueDate),
		txn.Label,
		nullString(txn.BankRef),
		txn.Amount.String(),
		txn.Currency,
		string(txn.Type),
		string(txn.Status),
		nullString(txn.Note),
		txn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save transaction %s: %w", txn.ID, err)
	}

	return nil
}

const transactionColumns = `
	id, date, value_date, label, bank_ref, amount, currency, type, status,
	suggested_client_id, suggested_receivable_id, confidence,
	reconciled_by, reconciled_at, note, created_at`

// GetTransaction retrieves a transaction by id.
func (s *Storage) GetTransaction(ctx context.Context, id string) (*recon.Transaction, error) {
	query := `SELECT` + transactionColumns + ` FROM bank_transactions WHERE id = ?`

	row := s.db.QueryRowContext(ctx, query, id)
	txn, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("transaction %s: %w", id, recon.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	return txn, nil
}

// ListTransactions returns transactions matching the given filters,
// newest first.
func (s *Storage) ListTransactions(ctx context.Context, filters TransactionFilters) ([]recon.Transaction, error) {
	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT` + transactionColumns + ` FROM bank_transactions`
	args := []interface{}{}
	if filters.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(filters.Status))
	}
	query += ` ORDER BY date DESC, id LIMIT ? OFFSET ?`
	args = append(args, limit, filters.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var txns []recon.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, *txn)
	}

	return txns, rows.Err()
}

// MarkIgnored transitions an unmatched transaction to ignored. The update is
// conditional on the current status so a concurrent reconciliation cannot be
// overwritten.
func (s *Storage) MarkIgnored(ctx context.Context, id, note string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE bank_transactions SET status = ?, note = ?
		WHERE id = ? AND status = ?
	`, string(recon.StatusIgnored), nullString(note), id, string(recon.StatusUnmatched))
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 1 {
		return nil
	}

	// Nothing updated: either missing, already ignored (fine) or reconciled.
	var status string
	err = s.db.QueryRowContext(ctx, `SELECT status FROM bank_transactions WHERE id = ?`, id).Scan(&status)
	if err == sql.ErrNoRows {
		return fmt.Errorf("transaction %s: %w", id, recon.ErrNotFound)
	}
	if err != nil {
		return err
	}
	if status == string(recon.StatusIgnored) {
		return nil
	}

	return fmt.Errorf("transaction %s is %s: %w", id, status, recon.ErrConflict)
}

// GetStats aggregates the full transaction set. Amounts are summed with
// decimals in Go rather than SQL because the amount column is TEXT.
func (s *Storage) GetStats(ctx context.Context) (*recon.Stats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, amount FROM bank_transactions`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	stats := recon.Stats{
		ReconciledAmount: decimal.Zero,
		UnmatchedAmount:  decimal.Zero,
	}
	for rows.Next() {
		var status, amountStr string
		if err := rows.Scan(&status, &amountStr); err != nil {
			return nil, err
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("corrupt amount %q: %w", amountStr, err)
		}

		stats.Total++
		switch recon.TransactionStatus(status) {
		case recon.StatusReconciled:
			stats.ReconciledCount++
			stats.ReconciledAmount = stats.ReconciledAmount.Add(amount)
		case recon.StatusIgnored:
			stats.IgnoredCount++
		default:
			stats.UnmatchedCount++
			stats.UnmatchedAmount = stats.UnmatchedAmount.Add(amount)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &stats, nil
}

// ApplyMatch commits a confirmed match in a single database transaction.
// Both status transitions are conditional updates; zero affected rows on
// either one means another caller got there first and the whole unit rolls
// back with recon.ErrConflict.
func (s *Storage) ApplyMatch(ctx context.Context, record *recon.Record, actor string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO reconciliation_records
		(id, transaction_id, receivable_id, receivable_kind, client_id,
		 receivable_amount, transaction_amount, variance, match_type,
		 confidence, reasons, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.ID,
		record.TransactionID,
		record.ReceivableID,
		string(record.ReceivableKind),
		record.ClientID,
		record.ReceivableAmount.String(),
		record.TransactionAmount.String(),
		record.Variance.String(),
		string(record.MatchType),
		record.Confidence,
		record.Reasons,
		record.CreatedAt,
	)
	if err != nil {
		// Only a constraint violation means someone else settled this
		// transaction first; the UNIQUE index on transaction_id backs up the
		// conditional update below. Lock contention, I/O failures and the
		// like must reach the caller as storage errors, not conflicts.
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return fmt.Errorf("transaction %s already has a record: %w", record.TransactionID, recon.ErrConflict)
		}
		return fmt.Errorf("failed to insert record for transaction %s: %w", record.TransactionID, err)
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE bank_transactions
		SET status = ?, suggested_client_id = ?, suggested_receivable_id = ?,
		    confidence = ?, reconciled_by = ?, reconciled_at = ?
		WHERE id = ? AND status = ?
	`,
		string(recon.StatusReconciled),
		record.ClientID,
		record.ReceivableID,
		record.Confidence,
		actor,
		record.CreatedAt,
		record.TransactionID,
		string(recon.StatusUnmatched),
	)
	if err != nil {
		return err
	}
	if err := requireOneRow(result, "transaction", record.TransactionID); err != nil {
		return err
	}

	receivableTable := "invoices"
	if record.ReceivableKind == recon.KindDelivery {
		receivableTable = "deliveries"
	}
	result, err = tx.ExecContext(ctx, `
		UPDATE `+receivableTable+`
		SET status = ?
		WHERE id = ? AND status = ?
	`, string(recon.ReceivablePaid), record.ReceivableID, string(recon.ReceivableUnpaid))
	if err != nil {
		return err
	}
	if err := requireOneRow(result, "receivable", record.ReceivableID); err != nil {
		return err
	}

	return tx.Commit()
}

// GetRecordByTransaction retrieves the reconciliation record for a transaction.
func (s *Storage) GetRecordByTransaction(ctx context.Context, txnID string) (*recon.Record, error) {
	records, err := s.ListRecords(ctx, RecordFilters{TransactionID: txnID, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("record for transaction %s: %w", txnID, recon.ErrNotFound)
	}
	return &records[0], nil
}

// ListRecords returns reconciliation records matching the filters, newest first.
func (s *Storage) ListRecords(ctx context.Context, filters RecordFilters) ([]recon.Record, error) {
	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `
	SELECT id, transaction_id, receivable_id, receivable_kind, client_id,
	       receivable_amount, transaction_amount, variance, match_type,
	       confidence, reasons, created_at
	FROM reconciliation_records`
	args := []interface{}{}
	var conds []string
	if filters.TransactionID != "" {
		conds = append(conds, "transaction_id = ?")
		args = append(args, filters.TransactionID)
	}
	if filters.ReceivableID != "" {
		conds = append(conds, "receivable_id = ?")
		args = append(args, filters.ReceivableID)
	}
	for i, cond := range conds {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var records []recon.Record
	for rows.Next() {
		var r recon.Record
		var kind, matchType, recvAmount, txnAmount, variance string
		var clientID, reasons sql.NullString
		err := rows.Scan(
			&r.ID,
			&r.TransactionID,
			&r.ReceivableID,
			&kind,
			&clientID,
			&recvAmount,
			&txnAmount,
			&variance,
			&matchType,
			&r.Confidence,
			&reasons,
			&r.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		r.ReceivableKind = recon.ReceivableKind(kind)
		r.MatchType = recon.MatchType(matchType)
		r.ClientID = clientID.String
		r.Reasons = reasons.String
		if r.ReceivableAmount, err = decimal.NewFromString(recvAmount); err != nil {
			return nil, err
		}
		if r.TransactionAmount, err = decimal.NewFromString(txnAmount); err != nil {
			return nil, err
		}
		if r.Variance, err = decimal.NewFromString(variance); err != nil {
			return nil, err
		}

		records = append(records, r)
	}

	return records, rows.Err()
}

// ListUnpaidInvoices returns open invoices as receivables.
func (s *Storage) ListUnpaidInvoices(ctx context.Context) ([]recon.Receivable, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, client_id, amount, issued_at
		FROM invoices WHERE status = ?
		ORDER BY issued_at
	`, string(recon.ReceivableUnpaid))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var receivables []recon.Receivable
	for rows.Next() {
		r := recon.Receivable{Kind: recon.KindInvoice, Status: recon.ReceivableUnpaid}
		var amount string
		if err := rows.Scan(&r.ID, &r.ClientID, &amount, &r.RefDate); err != nil {
			return nil, err
		}
		if r.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, err
		}
		receivables = append(receivables, r)
	}

	return receivables, rows.Err()
}

// ListUnpaidDeliveries returns unpaid, uninvoiced deliveries as receivables.
// Amounts are estimated from volume and unit prices since no invoice exists.
func (s *Storage) ListUnpaidDeliveries(ctx context.Context) ([]recon.Receivable, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, client_id, volume, unit_sale_price, unit_delivery_price,
		       tax_rate, delivered_at
		FROM deliveries WHERE status = ? AND invoiced = 0
		ORDER BY delivered_at
	`, string(recon.ReceivableUnpaid))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var receivables []recon.Receivable
	for rows.Next() {
		var d Delivery
		var volume, salePrice, deliveryPrice, taxRate string
		if err := rows.Scan(&d.ID, &d.ClientID, &volume, &salePrice, &deliveryPrice, &taxRate, &d.DeliveredAt); err != nil {
			return nil, err
		}
		if d.Volume, err = decimal.NewFromString(volume); err != nil {
			return nil, err
		}
		if d.UnitSalePrice, err = decimal.NewFromString(salePrice); err != nil {
			return nil, err
		}
		if d.UnitDeliveryPrice, err = decimal.NewFromString(deliveryPrice); err != nil {
			return nil, err
		}
		if d.TaxRate, err = decimal.NewFromString(taxRate); err != nil {
			return nil, err
		}
		d.Status = recon.ReceivableUnpaid

		receivables = append(receivables, d.Receivable())
	}

	return receivables, rows.Err()
}

// ListClients returns the client directory.
func (s *Storage) ListClients(ctx context.Context) ([]recon.Client, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM clients ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var clients []recon.Client
	for rows.Next() {
		var c recon.Client
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}

	return clients, rows.Err()
}

// SaveClient inserts or updates a client directory entry.
func (s *Storage) SaveClient(ctx context.Context, client recon.Client) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO clients (id, name) VALUES (?, ?)
	`, client.ID, client.Name)
	return err
}

// SaveInvoice inserts or updates an invoice ledger row.
func (s *Storage) SaveInvoice(ctx context.Context, inv Invoice) error {
	status := inv.Status
	if status == "" {
		status = recon.ReceivableUnpaid
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO invoices (id, client_id, amount, issued_at, status)
		VALUES (?, ?, ?, ?, ?)
	`, inv.ID, inv.ClientID, inv.Amount.String(), inv.IssuedAt, string(status))
	return err
}

// SaveDelivery inserts or updates a delivery ledger row.
func (s *Storage) SaveDelivery(ctx context.Context, del Delivery) error {
	status := del.Status
	if status == "" {
		status = recon.ReceivableUnpaid
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO deliveries
		(id, client_id, volume, unit_sale_price, unit_delivery_price, tax_rate,
		 delivered_at, invoiced, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		del.ID,
		del.ClientID,
		del.Volume.String(),
		del.UnitSalePrice.String(),
		del.UnitDeliveryPrice.String(),
		del.TaxRate.String(),
		del.DeliveredAt,
		del.Invoiced,
		string(status),
	)
	return err
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanTransaction scans one bank transaction row.
func scanTransaction(row scanner) (*recon.Transaction, error) {
	var txn recon.Transaction
	var amount, txnType, status string
	var valueDate, reconciledAt sql.NullTime
	var bankRef, suggestedClient, suggestedReceivable, reconciledBy, note sql.NullString
	var confidence sql.NullFloat64

	err := row.Scan(
		&txn.ID,
		&txn.Date,
		&valueDate,
		&txn.Label,
		&bankRef,
		&amount,
		&txn.Currency,
		&txnType,
		&status,
		&suggestedClient,
		&suggestedReceivable,
		&confidence,
		&reconciledBy,
		&reconciledAt,
		&note,
		&txn.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	txn.Type = recon.TransactionType(txnType)
	txn.Status = recon.TransactionStatus(status)
	txn.BankRef = bankRef.String
	txn.SuggestedClientID = suggestedClient.String
	txn.SuggestedReceivableID = suggestedReceivable.String
	txn.ReconciledBy = reconciledBy.String
	txn.Note = note.String
	txn.Confidence = confidence.Float64
	if valueDate.Valid {
		t := valueDate.Time
		txn.ValueDate = &t
	}
	if reconciledAt.Valid {
		t := reconciledAt.Time
		txn.ReconciledAt = &t
	}
	if txn.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("corrupt amount %q: %w", amount, err)
	}

	return &txn, nil
}

// requireOneRow converts a zero-row conditional update into a conflict.
func requireOneRow(result sql.Result, kind, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected != 1 {
		return fmt.Errorf("%s %s changed state concurrently: %w", kind, id, recon.ErrConflict)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
