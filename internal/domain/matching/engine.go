// Package matching scores bank transactions against outstanding receivables.
//
// The engine is pure: given the same transaction, receivables and clients it
// always produces the same ranked suggestion list, and it never touches
// storage. Four independent factors contribute to a composite score in
// [0,1]: amount proximity, client name tokens in the label, the receivable
// id appearing in the label, and date proximity.
//
// Example usage:
//
//	engine := matching.NewEngine(matching.DefaultConfig())
//	suggestions := engine.FindMatches(txn, receivables, clients)
//	if len(suggestions) > 0 {
//		best := suggestions[0]
//	}
package matching

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/betonops/reconcile-backend/internal/domain/recon"
)

// Relative amount difference breakpoints. Within onePercent the factor keeps
// 87.5% of its weight, within fivePercent half, beyond that nothing.
var (
	onePercent  = decimal.NewFromFloat(0.01)
	fivePercent = decimal.NewFromFloat(0.05)
)

// minTokenLen filters noise words ("et", "de", "SA") out of client names
// before token matching.
const minTokenLen = 2

// Suggestion is one ranked match candidate. Suggestions are ephemeral: they
// are recomputed on demand and never persisted.
type Suggestion struct {
	ReceivableID string               `json:"receivable_id"`
	Kind         recon.ReceivableKind `json:"kind"`
	ClientID     string               `json:"client_id"`
	ClientName   string               `json:"client_name"`
	Amount       decimal.Decimal      `json:"amount"`
	RefDate      time.Time            `json:"ref_date"`
	Score        float64              `json:"score"`
	Reasons      []string             `json:"reasons"`
}

// Engine scores receivable candidates for bank transactions.
type Engine struct {
	config Config
}

// NewEngine creates an engine with the given scoring configuration.
func NewEngine(config Config) *Engine {
	return &Engine{config: config}
}

// FindMatches scores every unpaid receivable against the transaction and
// returns the candidates above the inclusion threshold, best first, capped
// at the configured maximum. Ties keep input order; callers must not read
// meaning into the ordering of equal scores.
func (e *Engine) FindMatches(txn recon.Transaction, receivables []recon.Receivable, clients []recon.Client) []Suggestion {
	names := clientNames(clients)
	label := strings.ToLower(txn.Label)

	var suggestions []Suggestion
	for _, r := range receivables {
		if r.Status != recon.ReceivableUnpaid {
			continue
		}

		score, reasons := e.scoreCandidate(txn, label, r, names[r.ClientID])
		if score < e.config.InclusionThreshold {
			continue
		}

		suggestions = append(suggestions, Suggestion{
			ReceivableID: r.ID,
			Kind:         r.Kind,
			ClientID:     r.ClientID,
			ClientName:   names[r.ClientID],
			Amount:       r.Amount,
			RefDate:      r.RefDate,
			Score:        score,
			Reasons:      reasons,
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Score > suggestions[j].Score
	})

	if len(suggestions) > e.config.MaxSuggestions {
		suggestions = suggestions[:e.config.MaxSuggestions]
	}

	return suggestions
}

// scoreCandidate sums the four factor contributions for one receivable.
func (e *Engine) scoreCandidate(txn recon.Transaction, label string, r recon.Receivable, clientName string) (float64, []string) {
	delivery := r.Kind == recon.KindDelivery
	var score float64
	var reasons []string

	if s, reason := e.amountFactor(txn.Amount, r.Amount, delivery); s > 0 {
		score += s
		reasons = append(reasons, reason)
	}

	if s, reason := e.clientFactor(label, clientName, delivery); s > 0 {
		score += s
		reasons = append(reasons, reason)
	}

	if r.ID != "" && strings.Contains(label, strings.ToLower(r.ID)) {
		score += e.config.ReferenceWeight
		reasons = append(reasons, fmt.Sprintf("reference %s found in label", r.ID))
	}

	if s, reason := e.dateFactor(txn.Date, r.RefDate, delivery); s > 0 {
		score += s
		reasons = append(reasons, reason)
	}

	return score, reasons
}

// amountFactor compares amounts by relative difference. A zero receivable
// amount contributes nothing so estimation bugs upstream cannot divide by
// zero here.
func (e *Engine) amountFactor(txnAmount, recvAmount decimal.Decimal, delivery bool) (float64, string) {
	recvAbs := recvAmount.Abs()
	if recvAbs.IsZero() {
		return 0, ""
	}

	weight := e.config.amountWeight(delivery)
	txnAbs := txnAmount.Abs()

	if txnAbs.Equal(recvAbs) {
		return weight, "exact amount match"
	}

	relDiff := txnAbs.Sub(recvAbs).Abs().Div(recvAbs)
	switch {
	case relDiff.LessThanOrEqual(onePercent):
		return weight * 0.875, "amount within 1%"
	case relDiff.LessThanOrEqual(fivePercent):
		return weight * 0.5, "amount within 5%"
	}

	return 0, ""
}

// clientFactor counts how many tokens of the client name appear in the
// transaction label.
func (e *Engine) clientFactor(label, clientName string, delivery bool) (float64, string) {
	tokens := nameTokens(clientName)
	if len(tokens) == 0 {
		return 0, ""
	}

	var matched []string
	for _, token := range tokens {
		if strings.Contains(label, token) {
			matched = append(matched, token)
		}
	}
	if len(matched) == 0 {
		return 0, ""
	}

	weight := e.config.clientWeight(delivery)
	contribution := weight * float64(len(matched)) / float64(len(tokens))
	return contribution, fmt.Sprintf("client name tokens in label: %s", strings.Join(matched, ", "))
}

// dateFactor rewards date proximity. Invoices get full weight inside the
// tight window and half inside the wide one; deliveries get a single wider
// full-weight window because delivery dates are looser than invoice dates.
func (e *Engine) dateFactor(txnDate, refDate time.Time, delivery bool) (float64, string) {
	days := math.Abs(txnDate.Sub(refDate).Hours() / 24)

	if delivery {
		if days <= float64(e.config.DeliveryDateDays) {
			return e.config.DateWeight, fmt.Sprintf("delivery within %d days", e.config.DeliveryDateDays)
		}
		return 0, ""
	}

	switch {
	case days <= float64(e.config.InvoiceDateTightDays):
		return e.config.DateWeight, fmt.Sprintf("date within %d days", e.config.InvoiceDateTightDays)
	case days <= float64(e.config.InvoiceDateWideDays):
		return e.config.DateWeight * 0.5, fmt.Sprintf("date within %d days", e.config.InvoiceDateWideDays)
	}

	return 0, ""
}

// clientNames builds an id -> display name lookup.
func clientNames(clients []recon.Client) map[string]string {
	names := make(map[string]string, len(clients))
	for _, c := range clients {
		names[c.ID] = c.Name
	}
	return names
}

// nameTokens lowercases and splits a client name, dropping short tokens.
func nameTokens(name string) []string {
	var tokens []string
	for _, token := range strings.Fields(strings.ToLower(name)) {
		if len(token) > minTokenLen {
			tokens = append(tokens, token)
		}
	}
	return tokens
}
