// Package reference loads purchase-order and ledger records the audit run
// matches invoices against. Two sources exist: CSV files and SQLite tables.
// Malformed rows are logged and skipped; only a source that cannot be opened
// at all is fatal to the run.
package reference

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"invoiceaudit/internal/extract"
	"invoiceaudit/pkg/models"
)

// Source yields the full reference record set for one matching pass.
type Source interface {
	// Name identifies the source (file path or table) for logs and
	// per-source duplicate scoping.
	Name() string

	Load(ctx context.Context) ([]models.ReferenceRecord, error)
}

// Options carries the parsing preferences reference rows share with the
// field extractor: the same canonical forms are used on both sides of a
// comparison.
type Options struct {
	Locale           extract.Locale
	ExtraDateLayouts []string
}

// Open resolves a source spec to a Source. A spec of the form
// "sqlite://path/to/ledger.db?table=purchase_orders" opens a SQLite table;
// anything else is treated as a CSV file path.
func Open(spec string, opts Options) (Source, error) {
	if strings.HasPrefix(spec, "sqlite://") {
		u, err := url.Parse(spec)
		if err != nil {
			return nil, fmt.Errorf("invalid sqlite source spec %q: %w", spec, err)
		}
		path := u.Host + u.Path
		table := u.Query().Get("table")
		if table == "" {
			return nil, fmt.Errorf("sqlite source spec %q is missing the table parameter", spec)
		}
		return NewSQLite(path, table, opts)
	}
	return NewCSV(spec, opts), nil
}

// buildRecord normalizes one raw reference row. Shared by the CSV and SQLite
// sources so both produce identical canonical forms.
func buildRecord(id, number, vendor, dateStr, amountStr, sourceName string, opts Options) (models.ReferenceRecord, error) {
	record := models.ReferenceRecord{
		ReferenceID:   strings.TrimSpace(id),
		InvoiceNumber: strings.TrimSpace(number),
		VendorName:    strings.Join(strings.Fields(vendor), " "),
		SourceName:    sourceName,
	}

	if record.InvoiceNumber == "" && record.VendorName == "" {
		return models.ReferenceRecord{}, fmt.Errorf("row has neither invoice number nor vendor")
	}
	if record.ReferenceID == "" {
		record.ReferenceID = record.InvoiceNumber
	}

	if strings.TrimSpace(dateStr) != "" {
		locale := opts.Locale
		if locale == "" {
			locale = extract.LocaleDMY
		}
		date, _, err := extract.ParseDate(dateStr, locale, opts.ExtraDateLayouts)
		if err != nil {
			return models.ReferenceRecord{}, fmt.Errorf("invalid date %q: %w", dateStr, err)
		}
		record.InvoiceDate = date
	}

	if strings.TrimSpace(amountStr) != "" {
		amount, err := extract.ParseAmount(amountStr)
		if err != nil {
			return models.ReferenceRecord{}, fmt.Errorf("invalid amount %q: %w", amountStr, err)
		}
		record.TotalAmount = amount
	}

	return record, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
