package storage

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/betonops/reconcile-backend/internal/domain/recon"
)

// Invoice is a ledger row for an issued, not yet paid invoice.
type Invoice struct {
	ID       string                 `json:"id"`
	ClientID string                 `json:"client_id"`
	Amount   decimal.Decimal        `json:"amount"`
	IssuedAt time.Time              `json:"issued_at"`
	Status   recon.ReceivableStatus `json:"status"`
}

// Delivery is a ledger row for a completed delivery that has not been
// invoiced yet. Its receivable amount is an estimate derived from the
// delivered volume and unit prices.
type Delivery struct {
	ID                string                 `json:"id"`
	ClientID          string                 `json:"client_id"`
	Volume            decimal.Decimal        `json:"volume"`
	UnitSalePrice     decimal.Decimal        `json:"unit_sale_price"`
	UnitDeliveryPrice decimal.Decimal        `json:"unit_delivery_price"`
	TaxRate           decimal.Decimal        `json:"tax_rate"`
	DeliveredAt       time.Time              `json:"delivered_at"`
	Invoiced          bool                   `json:"invoiced"`
	Status            recon.ReceivableStatus `json:"status"`
}

// Receivable converts an invoice to the unified receivable view.
func (i Invoice) Receivable() recon.Receivable {
	return recon.Receivable{
		ID:       i.ID,
		ClientID: i.ClientID,
		Amount:   i.Amount,
		RefDate:  i.IssuedAt,
		Kind:     recon.KindInvoice,
		Status:   i.Status,
	}
}

// Receivable converts a delivery to the unified receivable view with its
// estimated amount.
func (d Delivery) Receivable() recon.Receivable {
	return recon.Receivable{
		ID:       d.ID,
		ClientID: d.ClientID,
		Amount:   recon.EstimateDeliveryAmount(d.Volume, d.UnitSalePrice, d.UnitDeliveryPrice, d.TaxRate),
		RefDate:  d.DeliveredAt,
		Kind:     recon.KindDelivery,
		Status:   d.Status,
	}
}
