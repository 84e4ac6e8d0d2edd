package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/betonops/reconcile-backend/internal/application/reconcile"
	"github.com/betonops/reconcile-backend/internal/cli"
	"github.com/betonops/reconcile-backend/internal/domain/recon"
)

// importRow is one statement line in an import file. Dates use YYYY-MM-DD.
type importRow struct {
	Date      string          `json:"date"`
	ValueDate string          `json:"value_date,omitempty"`
	Label     string          `json:"label"`
	BankRef   string          `json:"bank_ref,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency,omitempty"`
	Type      string          `json:"type,omitempty"`
}

func newImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import bank transactions from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(cmd)
			service, store, _, err := openService(cmd, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rows, err := readImportFile(args[0])
			if err != nil {
				return err
			}

			inputs := make([]reconcile.TransactionInput, 0, len(rows))
			for i, row := range rows {
				input, err := row.toInput()
				if err != nil {
					return fmt.Errorf("row %d: %w", i+1, err)
				}
				inputs = append(inputs, input)
			}

			result, err := service.Import(cmd.Context(), inputs)
			if err != nil {
				return err
			}

			cli.PrintImportSummary(result)
			return nil
		},
	}
}

func readImportFile(path string) ([]importRow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read import file: %w", err)
	}

	var rows []importRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse import file: %w", err)
	}
	return rows, nil
}

func (r importRow) toInput() (reconcile.TransactionInput, error) {
	date, err := time.Parse("2006-01-02", r.Date)
	if err != nil {
		return reconcile.TransactionInput{}, fmt.Errorf("date must be YYYY-MM-DD: %w", err)
	}

	var valueDate *time.Time
	if r.ValueDate != "" {
		parsed, err := time.Parse("2006-01-02", r.ValueDate)
		if err != nil {
			return reconcile.TransactionInput{}, fmt.Errorf("value_date must be YYYY-MM-DD: %w", err)
		}
		valueDate = &parsed
	}

	return reconcile.TransactionInput{
		Date:      date,
		ValueDate: valueDate,
		Label:     r.Label,
		BankRef:   r.BankRef,
		Amount:    r.Amount,
		Currency:  r.Currency,
		Type:      recon.TransactionType(r.Type),
	}, nil
}
