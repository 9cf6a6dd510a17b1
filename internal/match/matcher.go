// Package match decides whether an extracted invoice corresponds to a
// purchase-order or ledger reference record, and classifies the outcome.
//
// Candidate selection keys on the invoice number when one was extracted and
// falls back to vendor, date and amount proximity otherwise. Every invoice
// maps to at most one reference per pass; ties that survive the
// field-distance tie-break are reported as ambiguous mismatches instead of
// being resolved arbitrarily, and two invoices landing on the same reference
// are both demoted to duplicate mismatches.
package match

import (
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"invoiceaudit/internal/extract"
	"invoiceaudit/internal/logger"
	"invoiceaudit/pkg/models"
)

// distanceEpsilon bounds float comparison when ranking candidates.
const distanceEpsilon = 1e-9

// Config holds the matching tolerances. Values come from configuration;
// nothing here is guessed at match time.
type Config struct {
	// AmountTolerance is the absolute difference still considered agreement
	// (currency rounding).
	AmountTolerance decimal.Decimal

	// DateToleranceDays is the day difference still considered agreement.
	DateToleranceDays int

	// VendorMinScore is the minimum similarity score (0-100) for two vendor
	// names to count as the same party.
	VendorMinScore int
}

// DefaultConfig returns the documented defaults: one cent amount tolerance,
// exact date agreement, vendor score 70.
func DefaultConfig() Config {
	return Config{
		AmountTolerance:   decimal.New(1, -2),
		DateToleranceDays: 0,
		VendorMinScore:    70,
	}
}

// Matcher classifies extracted invoices against a reference set. It is
// stateless between calls and safe for concurrent use.
type Matcher struct {
	cfg Config
	log zerolog.Logger
}

func New(cfg Config) *Matcher {
	return &Matcher{
		cfg: cfg,
		log: logger.WithComponent("matcher"),
	}
}

// Match selects the best candidate for one invoice and classifies the pair.
// Duplicate demotion happens afterwards in FlagDuplicates, once the whole
// batch is known.
func (m *Matcher) Match(inv models.InvoiceRecord, refs []models.ReferenceRecord) models.MatchResult {
	result := models.MatchResult{Invoice: inv, Status: models.StatusUnmatched}

	if inv.HasInvoiceNumber() {
		if candidates := m.byInvoiceNumber(inv, refs); len(candidates) > 0 {
			m.classifyKeyed(&result, inv, candidates)
			return result
		}
	}

	if candidates := m.byProximity(inv, refs); len(candidates) > 0 {
		m.classifyProximity(&result, inv, candidates)
		return result
	}

	m.log.Debug().
		Str("invoice_number", inv.InvoiceNumber).
		Str("vendor", inv.VendorName).
		Msg("no reference candidate shares a key field")
	return result
}

// byInvoiceNumber returns every reference sharing the normalized invoice
// number.
func (m *Matcher) byInvoiceNumber(inv models.InvoiceRecord, refs []models.ReferenceRecord) []models.ReferenceRecord {
	key := normKey(inv.InvoiceNumber)
	var out []models.ReferenceRecord
	for _, ref := range refs {
		if normKey(ref.InvoiceNumber) == key && key != "" {
			out = append(out, ref)
		}
	}
	return out
}

// byProximity returns references agreeing with the invoice on the fallback
// key: every field present on the invoice among vendor, date and amount must
// agree, and at least two of them must be present.
func (m *Matcher) byProximity(inv models.InvoiceRecord, refs []models.ReferenceRecord) []models.ReferenceRecord {
	var out []models.ReferenceRecord
	for _, ref := range refs {
		agreeing := 0
		if inv.HasVendorName() {
			if vendorScore(inv.VendorName, ref.VendorName) < m.cfg.VendorMinScore {
				continue
			}
			agreeing++
		}
		if inv.HasInvoiceDate() {
			if dateDiffDays(*inv.InvoiceDate, ref.InvoiceDate) > m.cfg.DateToleranceDays {
				continue
			}
			agreeing++
		}
		if inv.HasTotalAmount() {
			if !m.amountAgrees(*inv.TotalAmount, ref.TotalAmount) {
				continue
			}
			agreeing++
		}
		if agreeing >= 2 {
			out = append(out, ref)
		}
	}
	return out
}

// classifyKeyed handles candidates that share the invoice-number key.
func (m *Matcher) classifyKeyed(result *models.MatchResult, inv models.InvoiceRecord, candidates []models.ReferenceRecord) {
	best, ambiguous := m.closest(inv, candidates)
	if ambiguous {
		result.Status = models.StatusMismatch
		result.AddReason(models.ReasonAmbiguous)
		m.log.Warn().
			Str("invoice_number", inv.InvoiceNumber).
			Int("candidates", len(candidates)).
			Msg("ambiguous match: multiple references tied on field distance")
		return
	}

	result.Reference = best

	// Material conflict on the key match: amount beyond tolerance is flagged
	// for audit, never reported as a match.
	if inv.HasTotalAmount() && !m.amountAgrees(*inv.TotalAmount, best.TotalAmount) {
		result.Status = models.StatusMismatch
		result.AddReason(extract.FieldTotalAmount)
		return
	}

	var disagreements []string
	if !inv.HasTotalAmount() {
		disagreements = append(disagreements, extract.FieldTotalAmount)
	}
	if inv.HasInvoiceDate() {
		if dateDiffDays(*inv.InvoiceDate, best.InvoiceDate) > m.cfg.DateToleranceDays {
			disagreements = append(disagreements, extract.FieldInvoiceDate)
		}
	} else {
		disagreements = append(disagreements, extract.FieldInvoiceDate)
	}
	if inv.HasVendorName() && vendorScore(inv.VendorName, best.VendorName) < m.cfg.VendorMinScore {
		disagreements = append(disagreements, extract.FieldVendorName)
	}

	if len(disagreements) == 0 {
		result.Status = models.StatusMatched
		return
	}
	result.Status = models.StatusPartial
	for _, field := range disagreements {
		result.AddReason(field)
	}
}

// classifyProximity handles fallback candidates. Without invoice-number
// agreement the outcome can be at most PARTIAL.
func (m *Matcher) classifyProximity(result *models.MatchResult, inv models.InvoiceRecord, candidates []models.ReferenceRecord) {
	best, ambiguous := m.closest(inv, candidates)
	if ambiguous {
		result.Status = models.StatusMismatch
		result.AddReason(models.ReasonAmbiguous)
		return
	}

	result.Reference = best
	result.Status = models.StatusPartial
	result.AddReason(extract.FieldInvoiceNumber)
	if !inv.HasTotalAmount() {
		result.AddReason(extract.FieldTotalAmount)
	}
	if !inv.HasInvoiceDate() {
		result.AddReason(extract.FieldInvoiceDate)
	}
}

// closest picks the candidate with the smallest total absolute field
// distance. A residual tie is reported as ambiguous instead of picking one.
func (m *Matcher) closest(inv models.InvoiceRecord, candidates []models.ReferenceRecord) (*models.ReferenceRecord, bool) {
	bestIdx := 0
	bestDist := fieldDistance(inv, candidates[0])
	tied := false
	for i := 1; i < len(candidates); i++ {
		d := fieldDistance(inv, candidates[i])
		switch {
		case d < bestDist-distanceEpsilon:
			bestIdx, bestDist, tied = i, d, false
		case d < bestDist+distanceEpsilon:
			tied = true
		}
	}
	if tied {
		return nil, true
	}
	return &candidates[bestIdx], false
}

func (m *Matcher) amountAgrees(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().Cmp(m.cfg.AmountTolerance) <= 0
}

// FlagDuplicates demotes every group of MATCHED results sharing one
// reference record: two invoices settling the same purchase order signal a
// duplicate submission, so both are reported as MISMATCH rather than
// silently deduplicated. With perSource set, grouping is scoped to the
// reference source instead of the whole batch.
func FlagDuplicates(results []*models.MatchResult, perSource bool) {
	groups := make(map[string][]*models.MatchResult)
	for _, r := range results {
		if r == nil || r.Status != models.StatusMatched || r.Reference == nil {
			continue
		}
		key := r.Reference.ReferenceID
		if perSource {
			key = r.Reference.SourceName + "\x00" + key
		}
		groups[key] = append(groups[key], r)
	}

	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		for _, r := range group {
			r.Status = models.StatusMismatch
			r.AddReason(models.ReasonDuplicate)
		}
	}
}
