package cli

import (
	"fmt"
	"strings"

	"github.com/betonops/reconcile-backend/internal/application/reconcile"
	"github.com/betonops/reconcile-backend/internal/domain/recon"
)

// PrintImportSummary prints the result of an import batch.
func PrintImportSummary(result *reconcile.ImportResult) {
	fmt.Printf("Imported: %d | Rejected: %d\n", result.Imported, result.Rejected)
	if len(result.Errors) > 0 {
		fmt.Println("\nRejected rows:")
		for _, msg := range result.Errors {
			fmt.Printf("  - %s\n", msg)
		}
	}
}

// PrintAutoSummary prints the result of an auto-reconciliation run.
func PrintAutoSummary(result *reconcile.AutoResult, minScore float64) {
	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("Auto-reconcile (min score %.2f): Reconciled=%d Skipped=%d Errors=%d\n",
		minScore,
		result.Reconciled,
		result.Skipped,
		len(result.Errors))

	if len(result.Errors) > 0 {
		fmt.Println("\nErrors:")
		for _, msg := range result.Errors {
			fmt.Printf("  - %s\n", msg)
		}
	}
}

// PrintStats prints the reconciliation summary.
func PrintStats(stats *recon.Stats) {
	fmt.Printf("Transactions: %d\n", stats.Total)
	fmt.Printf("  Reconciled: %d (%s)\n", stats.ReconciledCount, stats.ReconciledAmount.StringFixed(2))
	fmt.Printf("  Unmatched:  %d (%s)\n", stats.UnmatchedCount, stats.UnmatchedAmount.StringFixed(2))
	fmt.Printf("  Ignored:    %d\n", stats.IgnoredCount)
}
