package match

import (
	"math"
	"strings"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"invoiceaudit/pkg/models"
)

// normKey upper-cases and strips whitespace so invoice numbers compare
// independent of OCR spacing.
func normKey(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}

func normVendor(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

// vendorScore rates vendor-name similarity on a 0-100 scale. Exact
// (normalized) equality scores 100; otherwise the score degrades with
// Levenshtein distance. A subsequence hit of one name inside the other keeps
// short forms like "Acme" vs "Acme Supplies Ltd" above typical thresholds.
func vendorScore(a, b string) int {
	na, nb := normVendor(a), normVendor(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 100
	}

	longest := len(na)
	if len(nb) > longest {
		longest = len(nb)
	}
	dist := fuzzy.LevenshteinDistance(na, nb)
	score := 100 - (100*dist)/longest
	if score < 0 {
		score = 0
	}

	shorter, longer := na, nb
	if len(nb) < len(na) {
		shorter, longer = nb, na
	}
	if len(shorter) >= 3 && fuzzy.MatchNormalizedFold(shorter, longer) && score < 80 {
		score = 80
	}
	return score
}

func dateDiffDays(a, b time.Time) int {
	diff := a.Sub(b).Hours() / 24
	return int(math.Abs(math.Round(diff)))
}

// fieldDistance is the total absolute distance between an extracted record
// and a reference, summed over the fields present on the invoice. Used only
// to rank otherwise equally qualified candidates.
func fieldDistance(inv models.InvoiceRecord, ref models.ReferenceRecord) float64 {
	d := 0.0
	if inv.HasTotalAmount() {
		diff := inv.TotalAmount.Sub(ref.TotalAmount).Abs()
		f, _ := diff.Float64()
		d += f
	}
	if inv.HasInvoiceDate() {
		d += float64(dateDiffDays(*inv.InvoiceDate, ref.InvoiceDate))
	}
	if inv.HasVendorName() {
		d += float64(fuzzy.LevenshteinDistance(normVendor(inv.VendorName), normVendor(ref.VendorName)))
	}
	if inv.HasInvoiceNumber() && normKey(inv.InvoiceNumber) != normKey(ref.InvoiceNumber) {
		d += 1
	}
	return d
}
