package recon

import "github.com/shopspring/decimal"

// Stats summarizes the current transaction set by reconciliation status.
type Stats struct {
	Total            int             `json:"total"`
	ReconciledCount  int             `json:"reconciled_count"`
	ReconciledAmount decimal.Decimal `json:"reconciled_amount"`
	UnmatchedCount   int             `json:"unmatched_count"`
	UnmatchedAmount  decimal.Decimal `json:"unmatched_amount"`
	IgnoredCount     int             `json:"ignored_count"`
}

// ComputeStats aggregates a snapshot of transactions. It is a pure function
// and must be recomputed after every state-changing operation; results are
// never cached.
func ComputeStats(txns []Transaction) Stats {
	stats := Stats{
		ReconciledAmount: decimal.Zero,
		UnmatchedAmount:  decimal.Zero,
	}

	for _, txn := range txns {
		stats.Total++
		switch txn.Status {
		case StatusReconciled:
			stats.ReconciledCount++
			stats.ReconciledAmount = stats.ReconciledAmount.Add(txn.Amount)
		case StatusIgnored:
			stats.IgnoredCount++
		default:
			stats.UnmatchedCount++
			stats.UnmatchedAmount = stats.UnmatchedAmount.Add(txn.Amount)
		}
	}

	return stats
}
