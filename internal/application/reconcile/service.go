// Package reconcile orchestrates the reconciliation workflow: ingesting bank
// transactions, producing match suggestions, recording confirmed matches and
// running the automatic reconciler over all pending transactions.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/betonops/reconcile-backend/internal/domain/matching"
	"github.com/betonops/reconcile-backend/internal/domain/recon"
	"github.com/betonops/reconcile-backend/internal/infrastructure/storage"
)

// SystemActor is the reconciler identity recorded for automatic matches.
const SystemActor = "auto-reconciler"

// DefaultAutoMinScore is the confidence threshold below which the
// auto-reconciler leaves a transaction untouched.
const DefaultAutoMinScore = 0.80

// Service wires the matching engine to the repository. All collaborators are
// injected; the service holds no global state.
type Service struct {
	repo   storage.Repository
	engine *matching.Engine
	logger *slog.Logger
}

// NewService creates a reconciliation service.
func NewService(repo storage.Repository, engine *matching.Engine, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		engine: engine,
		logger: logger,
	}
}

// TransactionInput is a raw statement line supplied by the import boundary.
// The engine does not parse bank file formats; whatever produced this input
// already has.
type TransactionInput struct {
	Date      time.Time             `json:"date"`
	ValueDate *time.Time            `json:"value_date,omitempty"`
	Label     string                `json:"label"`
	BankRef   string                `json:"bank_ref,omitempty"`
	Amount    decimal.Decimal       `json:"amount"`
	Currency  string                `json:"currency,omitempty"`
	Type      recon.TransactionType `json:"type"`
}

// ImportResult reports how an import batch fared. Rejected rows never enter
// the store.
type ImportResult struct {
	Imported int      `json:"imported"`
	Rejected int      `json:"rejected"`
	Errors   []string `json:"errors,omitempty"`
	IDs      []string `json:"ids"`
}

// AutoResult reports an auto-reconciliation run.
type AutoResult struct {
	Reconciled int      `json:"reconciled"`
	Skipped    int      `json:"skipped"`
	Errors     []string `json:"errors,omitempty"`
}

// Import validates and stores a batch of transactions with status unmatched.
// Invalid rows are rejected row by row; a bad row does not sink the batch.
func (s *Service) Import(ctx context.Context, inputs []TransactionInput) (*ImportResult, error) {
	result := &ImportResult{}

	for i, input := range inputs {
		if err := validateInput(input); err != nil {
			result.Rejected++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}

		txn := &recon.Transaction{
			ID:        uuid.NewString(),
			Date:      input.Date,
			ValueDate: input.ValueDate,
			Label:     input.Label,
			BankRef:   input.BankRef,
			Amount:    input.Amount,
			Currency:  defaultCurrency(input.Currency),
			Type:      inputType(input),
			Status:    recon.StatusUnmatched,
			CreatedAt: time.Now().UTC(),
		}

		if err := s.repo.SaveTransaction(ctx, txn); err != nil {
			return nil, fmt.Errorf("failed to import row %d: %w", i+1, err)
		}

		result.Imported++
		result.IDs = append(result.IDs, txn.ID)
	}

	s.logger.Info("imported transactions",
		"imported", result.Imported,
		"rejected", result.Rejected,
	)

	return result, nil
}

// Suggestions runs the matching engine for one transaction against the
// current ledger snapshot. Read-only; discarding the result has no side
// effects.
func (s *Service) Suggestions(ctx context.Context, txnID string) ([]matching.Suggestion, error) {
	txn, err := s.repo.GetTransaction(ctx, txnID)
	if err != nil {
		return nil, err
	}

	receivables, clients, err := s.ledgerSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	return s.engine.FindMatches(*txn, receivables, clients), nil
}

// ConfirmMatch records a confirmed suggestion as one atomic unit: the
// reconciliation record, the transaction status flip and the receivable
// payment all land together or not at all. A transaction that is no longer
// unmatched, or a receivable that is no longer unpaid, yields
// recon.ErrConflict with no state change.
func (s *Service) ConfirmMatch(ctx context.Context, txnID string, sug matching.Suggestion, matchType recon.MatchType, actor string) error {
	txn, err := s.repo.GetTransaction(ctx, txnID)
	if err != nil {
		return err
	}

	if matchType == recon.MatchAutomatic {
		actor = SystemActor
	}
	if actor == "" {
		actor = "operator"
	}

	record := &recon.Record{
		ID:                uuid.NewString(),
		TransactionID:     txnID,
		ReceivableID:      sug.ReceivableID,
		ReceivableKind:    sug.Kind,
		ClientID:          sug.ClientID,
		ReceivableAmount:  sug.Amount,
		TransactionAmount: txn.Amount,
		Variance:          txn.Amount.Sub(sug.Amount),
		MatchType:         matchType,
		Confidence:        sug.Score,
		Reasons:           strings.Join(sug.Reasons, "; "),
		CreatedAt:         time.Now().UTC(),
	}

	if err := s.repo.ApplyMatch(ctx, record, actor); err != nil {
		return err
	}

	s.logger.Info("match confirmed",
		"transaction_id", txnID,
		"receivable_id", sug.ReceivableID,
		"match_type", string(matchType),
		"score", sug.Score,
		"variance", record.Variance.String(),
	)

	return nil
}

// Ignore transitions an unmatched transaction to ignored without touching any
// receivable. Ignoring an already-ignored transaction succeeds as a no-op.
func (s *Service) Ignore(ctx context.Context, txnID, note string) error {
	if err := s.repo.MarkIgnored(ctx, txnID, note); err != nil {
		return err
	}
	s.logger.Info("transaction ignored", "transaction_id", txnID)
	return nil
}

// AutoReconcile confirms the best suggestion for every unmatched transaction
// whose score meets minScore. Each confirmation is independent: a conflict or
// storage error on one transaction is collected and the run continues.
func (s *Service) AutoReconcile(ctx context.Context, minScore float64) (*AutoResult, error) {
	if minScore <= 0 {
		minScore = DefaultAutoMinScore
	}

	txns, err := s.repo.ListTransactions(ctx, storage.TransactionFilters{
		Status: recon.StatusUnmatched,
		Limit:  10000,
	})
	if err != nil {
		return nil, err
	}

	receivables, clients, err := s.ledgerSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	result := &AutoResult{}
	// Receivables consumed earlier in this run are filtered out up front;
	// the conditional update in ApplyMatch still guards against anything
	// this filter cannot see.
	consumed := make(map[string]bool)

	for _, txn := range txns {
		candidates := availableReceivables(receivables, consumed)
		suggestions := s.engine.FindMatches(txn, candidates, clients)
		if len(suggestions) == 0 || suggestions[0].Score < minScore {
			result.Skipped++
			continue
		}

		best := suggestions[0]
		err := s.ConfirmMatch(ctx, txn.ID, best, recon.MatchAutomatic, SystemActor)
		if err != nil {
			if errors.Is(err, recon.ErrConflict) {
				result.Skipped++
			} else {
				result.Errors = append(result.Errors, fmt.Sprintf("transaction %s: %v", txn.ID, err))
			}
			continue
		}

		consumed[best.ReceivableID] = true
		result.Reconciled++
	}

	s.logger.Info("auto-reconcile run finished",
		"min_score", minScore,
		"reconciled", result.Reconciled,
		"skipped", result.Skipped,
		"errors", len(result.Errors),
	)

	return result, nil
}

// Stats returns the current reconciliation summary. Always recomputed; the
// caller may poll it freely.
func (s *Service) Stats(ctx context.Context) (*recon.Stats, error) {
	return s.repo.GetStats(ctx)
}

// ledgerSnapshot loads both receivable pools and the client directory.
func (s *Service) ledgerSnapshot(ctx context.Context) ([]recon.Receivable, []recon.Client, error) {
	invoices, err := s.repo.ListUnpaidInvoices(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list unpaid invoices: %w", err)
	}
	deliveries, err := s.repo.ListUnpaidDeliveries(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list unpaid deliveries: %w", err)
	}
	clients, err := s.repo.ListClients(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list clients: %w", err)
	}

	receivables := make([]recon.Receivable, 0, len(invoices)+len(deliveries))
	receivables = append(receivables, invoices...)
	receivables = append(receivables, deliveries...)

	return receivables, clients, nil
}

// availableReceivables drops receivables already consumed in this run.
func availableReceivables(receivables []recon.Receivable, consumed map[string]bool) []recon.Receivable {
	if len(consumed) == 0 {
		return receivables
	}
	out := make([]recon.Receivable, 0, len(receivables))
	for _, r := range receivables {
		if consumed[r.ID] {
			continue
		}
		out = append(out, r)
	}
	return out
}

// validateInput rejects malformed statement lines at the boundary.
func validateInput(input TransactionInput) error {
	if input.Date.IsZero() {
		return recon.NewValidationError("date", "is required")
	}
	if input.Amount.IsZero() {
		return recon.NewValidationError("amount", "must be non-zero")
	}
	if strings.TrimSpace(input.Label) == "" {
		return recon.NewValidationError("label", "is required")
	}
	if input.Type != "" && input.Type != recon.TypeDebit && input.Type != recon.TypeCredit {
		return recon.NewValidationError("type", "must be debit or credit")
	}
	return nil
}

// defaultCurrency falls back to EUR, the producer's operating currency.
func defaultCurrency(currency string) string {
	if currency == "" {
		return "EUR"
	}
	return strings.ToUpper(currency)
}

// inputType derives the type from the amount sign when the import source
// does not provide one.
func inputType(input TransactionInput) recon.TransactionType {
	if input.Type != "" {
		return input.Type
	}
	if input.Amount.IsNegative() {
		return recon.TypeDebit
	}
	return recon.TypeCredit
}
