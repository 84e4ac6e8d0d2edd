package storage

import (
	"database/sql"
	"fmt"
	"log"
)

// Migration represents a database schema migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.Tx) error
}

// allMigrations defines all migrations in order
var allMigrations = []Migration{
	{
		Version: 1,
		Name:    "initial_schema",
		Up:      migration001InitialSchema,
	},
	{
		Version: 2,
		Name:    "add_ledger_tables",
		Up:      migration002AddLedgerTables,
	},
}

// runMigrations executes all pending migrations
func (s *Storage) runMigrations() error {
	if err := s.ensureMigrationsTable(); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := s.getAppliedMigrations()
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	for _, migration := range allMigrations {
		if applied[migration.Version] {
			continue // Already applied
		}

		log.Printf("Running migration %d: %s", migration.Version, migration.Name)

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Name, err)
		}

		_, err = tx.Exec(`
			INSERT INTO schema_migrations (version, name) VALUES (?, ?)
		`, migration.Version, migration.Name)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// ensureMigrationsTable creates the schema_migrations table
func (s *Storage) ensureMigrationsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`

	_, err := s.db.Exec(query)
	return err
}

// getAppliedMigrations returns a set of applied migration versions
func (s *Storage) getAppliedMigrations() (map[int]bool, error) {
	applied := make(map[int]bool)

	rows, err := s.db.Query(`SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}

	return applied, rows.Err()
}

// ================================================================
// MIGRATION FUNCTIONS
// ================================================================

// migration001InitialSchema creates the bank transaction and
// reconciliation record tables.
//
// Amounts are stored as TEXT so decimal values round-trip exactly;
// REAL columns would silently lose precision on large amounts.
func migration001InitialSchema(db *sql.Tx) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS bank_transactions (
			id TEXT PRIMARY KEY,
			date TIMESTAMP NOT NULL,
			value_date TIMESTAMP,
			label TEXT NOT NULL,
			bank_ref TEXT,
			amount TEXT NOT NULL,
			currency TEXT NOT NULL DEFAULT 'EUR',
			type TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'unmatched',
			suggested_client_id TEXT,
			suggested_receivable_id TEXT,
			confidence REAL,
			reconciled_by TEXT,
			reconciled_at TIMESTAMP,
			note TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_bank_transactions_status
		 ON bank_transactions(status)`,

		`CREATE INDEX IF NOT EXISTS idx_bank_transactions_date
		 ON bank_transactions(date DESC)`,

		// One non-superseded record per transaction, enforced by the
		// schema itself.
		`CREATE TABLE IF NOT EXISTS reconciliation_records (
			id TEXT PRIMARY KEY,
			transaction_id TEXT NOT NULL UNIQUE,
			receivable_id TEXT NOT NULL,
			receivable_kind TEXT NOT NULL,
			client_id TEXT,
			receivable_amount TEXT NOT NULL,
			transaction_amount TEXT NOT NULL,
			variance TEXT NOT NULL,
			match_type TEXT NOT NULL,
			confidence REAL NOT NULL,
			reasons TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (transaction_id) REFERENCES bank_transactions(id)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_reconciliation_records_receivable
		 ON reconciliation_records(receivable_id)`,

		`CREATE INDEX IF NOT EXISTS idx_reconciliation_records_created
		 ON reconciliation_records(created_at DESC)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}

	return nil
}

// migration002AddLedgerTables creates the receivable ledger tables: clients,
// invoices and deliveries. The invoicing workflow owns these rows; the
// reconciliation engine reads unpaid entries and flips status to 'paid' on
// confirmation.
func migration002AddLedgerTables(db *sql.Tx) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS clients (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS invoices (
			id TEXT PRIMARY KEY,
			client_id TEXT NOT NULL,
			amount TEXT NOT NULL,
			issued_at TIMESTAMP NOT NULL,
			status TEXT NOT NULL DEFAULT 'unpaid',
			FOREIGN KEY (client_id) REFERENCES clients(id)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_invoices_status
		 ON invoices(status)`,

		`CREATE TABLE IF NOT EXISTS deliveries (
			id TEXT PRIMARY KEY,
			client_id TEXT NOT NULL,
			volume TEXT NOT NULL,
			unit_sale_price TEXT NOT NULL,
			unit_delivery_price TEXT NOT NULL,
			tax_rate TEXT NOT NULL,
			delivered_at TIMESTAMP NOT NULL,
			invoiced BOOLEAN NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'unpaid',
			FOREIGN KEY (client_id) REFERENCES clients(id)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_deliveries_status
		 ON deliveries(status, invoiced)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to create ledger tables: %w", err)
		}
	}

	return nil
}
