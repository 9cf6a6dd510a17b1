package extract

import "regexp"

// RuleSet holds the ordered pattern rules applied per field. For each field
// the first rule that matches wins; a field no rule matches stays absent.
// Rules are data, the engine in extractor.go is generic.
type RuleSet struct {
	InvoiceNumber []*regexp.Regexp
	VendorName    []*regexp.Regexp
	InvoiceDate   []*regexp.Regexp
	TotalAmount   []*regexp.Regexp
}

// Capture-group fragments shared between rules.
const (
	numberToken = `([A-Za-z0-9][A-Za-z0-9/_\-]*)`
	dateToken   = `(\d{1,4}[./\-]\d{1,2}[./\-]\d{2,4}` +
		`|\d{1,2}\s+[A-Za-z]{3,9}\.?,?\s+\d{4}` +
		`|[A-Za-z]{3,9}\.?\s+\d{1,2},?\s+\d{4})`
	amountToken = `((?:[€$£¥]\s*)?-?\d[\d.,']*)`
)

// DefaultRules returns the builtin rule set covering common invoice label
// variants. Callers may prepend their own patterns for unusual layouts.
func DefaultRules() *RuleSet {
	return &RuleSet{
		InvoiceNumber: []*regexp.Regexp{
			regexp.MustCompile(`(?i)invoice\s*(?:number|no\.?|num\.?|id)\s*[:#\-]?\s*` + numberToken),
			regexp.MustCompile(`(?i)invoice\s*#\s*:?\s*` + numberToken),
			regexp.MustCompile(`(?i)\brechnungs(?:nummer|nr\.?)\s*[:#]?\s*` + numberToken),
		},
		VendorName: []*regexp.Regexp{
			regexp.MustCompile(`(?im)^\s*(?:vendor|supplier|seller|sold\s+by|remit\s+to)\s*[:\-]\s*(\S[^\r\n]*)`),
			regexp.MustCompile(`(?im)^\s*from\s*:\s*(\S[^\r\n]*)`),
		},
		InvoiceDate: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:invoice\s+date|date\s+of\s+issue|issue\s+date|issued(?:\s+on)?|datum)\s*[:\-]?\s*` + dateToken),
			regexp.MustCompile(`(?i)\bdate\s*[:\-]?\s*` + dateToken),
		},
		TotalAmount: []*regexp.Regexp{
			regexp.MustCompile(`(?im)^\s*(?:total\s+due|amount\s+due|grand\s+total|total\s+amount|balance\s+due|gesamtbetrag)\s*(?:\(?[A-Z]{3}\)?)?\s*[:\-]?\s*` + amountToken),
			regexp.MustCompile(`(?im)^\s*total\s*(?:\(?[A-Z]{3}\)?)?\s*[:\-]?\s*` + amountToken),
		},
	}
}
