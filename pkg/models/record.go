package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceRecord holds the fields extracted from a single invoice document.
// Every field is optional: a field the extractor could not resolve is left
// absent, never guessed. Records are immutable once built.
type InvoiceRecord struct {
	// InvoiceNumber is the human-readable invoice identifier. Empty when absent.
	InvoiceNumber string

	// VendorName is the supplier name as printed on the invoice. Empty when absent.
	VendorName string

	// InvoiceDate is the issue date in canonical form (UTC midnight). Nil when absent.
	InvoiceDate *time.Time

	// TotalAmount is the invoice total in canonical decimal form. Nil when absent.
	TotalAmount *decimal.Decimal

	// LowConfidence lists fields whose value was resolved by a configured
	// preference (e.g. ambiguous day/month ordering) or left absent because
	// the document offered more than one plausible value.
	LowConfidence []string
}

// HasInvoiceNumber reports whether an invoice number was extracted.
func (r *InvoiceRecord) HasInvoiceNumber() bool { return r.InvoiceNumber != "" }

// HasVendorName reports whether a vendor name was extracted.
func (r *InvoiceRecord) HasVendorName() bool { return r.VendorName != "" }

// HasInvoiceDate reports whether an invoice date was extracted.
func (r *InvoiceRecord) HasInvoiceDate() bool { return r.InvoiceDate != nil }

// HasTotalAmount reports whether a total amount was extracted.
func (r *InvoiceRecord) HasTotalAmount() bool { return r.TotalAmount != nil }

// ReferenceRecord is a purchase-order or ledger entry the invoice is audited
// against. Externally supplied, immutable.
type ReferenceRecord struct {
	// ReferenceID identifies the purchase order or ledger row.
	ReferenceID string

	InvoiceNumber string
	VendorName    string
	InvoiceDate   time.Time
	TotalAmount   decimal.Decimal

	// SourceName names the reference source the record came from
	// (file path or table). Used for per-source duplicate scoping.
	SourceName string
}

// MatchStatus classifies the outcome of matching one invoice against the
// reference records.
type MatchStatus string

const (
	// StatusMatched means invoice number, amount and date all agree exactly
	// with a unique reference record (amount within the configured tolerance).
	StatusMatched MatchStatus = "MATCHED"

	// StatusPartial means a unique candidate was found but one or more
	// non-key fields disagree. Reasons list each disagreeing field.
	StatusPartial MatchStatus = "PARTIAL"

	// StatusMismatch means a candidate with a matching key exists but
	// conflicts materially, or the match is ambiguous or a duplicate.
	// Flagged for audit, never silently dropped.
	StatusMismatch MatchStatus = "MISMATCH"

	// StatusUnmatched means no reference record shares any key field.
	StatusUnmatched MatchStatus = "UNMATCHED"
)

// Well-known reason codes carried on MatchResult.
const (
	ReasonAmbiguous        = "ambiguous"
	ReasonDuplicate        = "duplicate"
	ReasonExtractionFailed = "extraction_failed"
)

// MatchResult is the terminal outcome for one invoice. It is created by the
// matcher and consumed by the report writer; no further mutation happens
// after the duplicate pass.
type MatchResult struct {
	Invoice   InvoiceRecord
	Reference *ReferenceRecord
	Status    MatchStatus
	Reasons   []string
}

// AddReason appends a reason code, keeping the list deduplicated and ordered.
func (m *MatchResult) AddReason(reason string) {
	for _, r := range m.Reasons {
		if r == reason {
			return
		}
	}
	m.Reasons = append(m.Reasons, reason)
}

// ReferenceID returns the matched reference identifier, or "" when unmatched.
func (m *MatchResult) ReferenceID() string {
	if m.Reference == nil {
		return ""
	}
	return m.Reference.ReferenceID
}
