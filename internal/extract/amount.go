package extract

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// currency markers stripped before separator analysis
var currencyTokens = []string{"€", "$", "£", "¥", "EUR", "USD", "GBP", "CHF", "eur", "usd", "gbp", "chf"}

// ParseAmount normalizes a textual monetary amount to a canonical decimal.
// It strips currency symbols and codes, then resolves thousands and decimal
// separators for both US ("1,234.56") and European ("1.234,56") conventions.
func ParseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("empty amount string")
	}

	// Accounting negatives: "(1,234.50)"
	isNegative := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		isNegative = true
		cleaned = cleaned[1 : len(cleaned)-1]
	}
	cleaned = strings.TrimSpace(cleaned)
	if strings.HasPrefix(cleaned, "-") {
		isNegative = true
		cleaned = strings.TrimPrefix(cleaned, "-")
	}

	for _, token := range currencyTokens {
		cleaned = strings.ReplaceAll(cleaned, token, "")
	}
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.ReplaceAll(cleaned, "'", "") // Swiss thousands separator
	cleaned = strings.TrimSpace(cleaned)

	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("no digits in amount: %q", s)
	}
	for _, r := range cleaned {
		if (r < '0' || r > '9') && r != '.' && r != ',' {
			return decimal.Zero, fmt.Errorf("unexpected character %q in amount: %q", r, s)
		}
	}

	cleaned = normalizeSeparators(cleaned)

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unable to parse amount %q: %w", s, err)
	}
	if isNegative {
		amount = amount.Neg()
	}
	return amount, nil
}

// normalizeSeparators rewrites an amount string to plain "1234.56" form.
// When both separators appear, the last one is the decimal separator. A lone
// comma followed by three digits is read as a thousands separator; a lone dot
// is read as the decimal separator unless it repeats.
func normalizeSeparators(s string) string {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastDot > lastComma {
			// US style: 1,234.56
			s = strings.ReplaceAll(s, ",", "")
		} else {
			// European style: 1.234,56
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") == 1 && len(s)-lastComma-1 <= 2 {
			// Decimal comma: 1234,56
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			// Thousands commas: 1,234 or 1,234,567
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastDot >= 0:
		if strings.Count(s, ".") > 1 {
			// Repeated dots can only be thousands separators: 1.234.567
			s = strings.ReplaceAll(s, ".", "")
		}
	}
	return s
}
