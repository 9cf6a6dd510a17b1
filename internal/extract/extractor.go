// Package extract turns raw invoice text into a structured InvoiceRecord.
//
// Extraction is a pure function of (text, rule set, options): there is no
// state across invocations, fields that no rule matches are left absent and
// never guessed, and malformed input never causes a panic. Amounts are
// normalized to canonical decimals and dates to UTC calendar dates; any value
// that was resolved by a configured preference instead of the document itself
// is recorded as low confidence on the record.
package extract

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"invoiceaudit/pkg/models"
)

// Field names used in LowConfidence markers and match reasons.
const (
	FieldInvoiceNumber = "invoice_number"
	FieldVendorName    = "vendor_name"
	FieldInvoiceDate   = "invoice_date"
	FieldTotalAmount   = "total_amount"
)

// Options carries the configured extraction preferences.
type Options struct {
	// Locale resolves ambiguous numeric day/month ordering.
	Locale Locale

	// ExtraDateLayouts are additional Go date layouts accepted after the
	// builtin set.
	ExtraDateLayouts []string
}

// Extract applies the rule set to raw page text and returns the structured
// record. For every field the first matching rule wins.
func Extract(text string, rules *RuleSet, opts Options) models.InvoiceRecord {
	if rules == nil {
		rules = DefaultRules()
	}
	if opts.Locale == "" {
		opts.Locale = LocaleDMY
	}

	record := models.InvoiceRecord{}

	if value, ok := firstCapture(rules.InvoiceNumber, text); ok {
		record.InvoiceNumber = strings.TrimRight(value, ".,;:")
	}

	if value, ok := firstCapture(rules.VendorName, text); ok {
		record.VendorName = collapseSpaces(value)
	}

	if value, ok := firstCapture(rules.InvoiceDate, text); ok {
		if date, low, err := ParseDate(value, opts.Locale, opts.ExtraDateLayouts); err == nil {
			record.InvoiceDate = &date
			if low {
				record.LowConfidence = append(record.LowConfidence, FieldInvoiceDate)
			}
		}
	}

	extractTotal(&record, rules.TotalAmount, text)

	return record
}

// extractTotal applies the amount rules. The first rule that matches wins,
// but every match of that rule is inspected: two plausible, distinct totals
// make the field ambiguous, so it stays absent and is flagged rather than
// picked arbitrarily.
func extractTotal(record *models.InvoiceRecord, rules []*regexp.Regexp, text string) {
	for _, rule := range rules {
		matches := rule.FindAllStringSubmatch(text, -1)
		if len(matches) == 0 {
			continue
		}

		var distinct []decimal.Decimal
		for _, m := range matches {
			amount, err := ParseAmount(m[1])
			if err != nil {
				continue
			}
			if !containsAmount(distinct, amount) {
				distinct = append(distinct, amount)
			}
		}

		switch len(distinct) {
		case 0:
			// Matched text never parsed; field stays absent.
		case 1:
			record.TotalAmount = &distinct[0]
		default:
			record.LowConfidence = append(record.LowConfidence, FieldTotalAmount)
		}
		return
	}
}

func firstCapture(rules []*regexp.Regexp, text string) (string, bool) {
	for _, rule := range rules {
		if m := rule.FindStringSubmatch(text); m != nil {
			value := strings.TrimSpace(m[1])
			if value != "" {
				return value, true
			}
		}
	}
	return "", false
}

func containsAmount(amounts []decimal.Decimal, a decimal.Decimal) bool {
	for _, existing := range amounts {
		if existing.Equal(a) {
			return true
		}
	}
	return false
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
