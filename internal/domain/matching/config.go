package matching

// Config holds the factor weights and tolerances used to score candidate
// receivables against a bank transaction.
//
// Invoice and delivery candidates carry different weights on purpose: a
// delivery-derived amount is itself an estimate, so less of the score rides
// on it and more on the client reference.
type Config struct {
	// Amount factor weights.
	InvoiceAmountWeight  float64
	DeliveryAmountWeight float64

	// Client-reference factor weights.
	InvoiceClientWeight  float64
	DeliveryClientWeight float64

	// Receivable-id-in-label factor weight, shared by both kinds.
	ReferenceWeight float64

	// Date-proximity factor weight, shared by both kinds.
	DateWeight float64

	// Invoice date tolerances: full weight within the tight window, half
	// weight within the wide one.
	InvoiceDateTightDays int
	InvoiceDateWideDays  int

	// Delivery date tolerance: full weight within the window, nothing
	// beyond it.
	DeliveryDateDays int

	// Candidates scoring below InclusionThreshold are not surfaced at all.
	InclusionThreshold float64

	// MaxSuggestions caps the ranked list.
	MaxSuggestions int
}

// DefaultConfig returns the production scoring configuration.
func DefaultConfig() Config {
	return Config{
		InvoiceAmountWeight:  0.40,
		DeliveryAmountWeight: 0.35,
		InvoiceClientWeight:  0.35,
		DeliveryClientWeight: 0.30,
		ReferenceWeight:      0.15,
		DateWeight:           0.10,
		InvoiceDateTightDays: 7,
		InvoiceDateWideDays:  30,
		DeliveryDateDays:     14,
		InclusionThreshold:   0.20,
		MaxSuggestions:       5,
	}
}

// amountWeight returns the amount factor weight for a candidate kind.
func (c Config) amountWeight(delivery bool) float64 {
	if delivery {
		return c.DeliveryAmountWeight
	}
	return c.InvoiceAmountWeight
}

// clientWeight returns the client-reference factor weight for a candidate kind.
func (c Config) clientWeight(delivery bool) float64 {
	if delivery {
		return c.DeliveryClientWeight
	}
	return c.InvoiceClientWeight
}
