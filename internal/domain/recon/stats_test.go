package recon_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/betonops/reconcile-backend/internal/domain/recon"
)

func txn(status recon.TransactionStatus, amount string) recon.Transaction {
	return recon.Transaction{
		Status: status,
		Amount: decimal.RequireFromString(amount),
	}
}

func TestComputeStats(t *testing.T) {
	t.Run("empty set", func(t *testing.T) {
		stats := recon.ComputeStats(nil)

		assert.Equal(t, 0, stats.Total)
		assert.True(t, stats.ReconciledAmount.IsZero())
		assert.True(t, stats.UnmatchedAmount.IsZero())
	})

	t.Run("buckets by status", func(t *testing.T) {
		txns := []recon.Transaction{
			txn(recon.StatusReconciled, "15000.00"),
			txn(recon.StatusReconciled, "7250.50"),
			txn(recon.StatusUnmatched, "320.00"),
			txn(recon.StatusIgnored, "-89.90"),
		}

		stats := recon.ComputeStats(txns)

		assert.Equal(t, 4, stats.Total)
		assert.Equal(t, 2, stats.ReconciledCount)
		assert.Equal(t, "22250.5", stats.ReconciledAmount.String())
		assert.Equal(t, 1, stats.UnmatchedCount)
		assert.Equal(t, "320", stats.UnmatchedAmount.String())
		assert.Equal(t, 1, stats.IgnoredCount)
	})

	t.Run("counts always add up to the total", func(t *testing.T) {
		txns := []recon.Transaction{
			txn(recon.StatusUnmatched, "100.00"),
			txn(recon.StatusIgnored, "200.00"),
			txn(recon.StatusReconciled, "300.00"),
			txn(recon.StatusUnmatched, "400.00"),
		}

		stats := recon.ComputeStats(txns)

		assert.Equal(t, stats.Total, stats.ReconciledCount+stats.UnmatchedCount+stats.IgnoredCount)
	})
}

func TestEstimateDeliveryAmount(t *testing.T) {
	// 30 m3 at (95 + 12) per m3, 20% tax: 30 * 107 * 1.2 = 3852.
	amount := recon.EstimateDeliveryAmount(
		decimal.NewFromInt(30),
		decimal.NewFromInt(95),
		decimal.NewFromInt(12),
		decimal.RequireFromString("0.2"),
	)

	assert.Equal(t, "3852", amount.String())
}
