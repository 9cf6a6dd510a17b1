package reference

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog"

	"invoiceaudit/internal/logger"
	"invoiceaudit/pkg/models"
)

// csvRow mirrors one reference CSV row. Separate fields per header alias let
// gocsv accept the common purchase-order and ledger export layouts without a
// mapping config.
type csvRow struct {
	ReferenceID string `csv:"reference_id"`
	PONumber    string `csv:"po_number"`

	InvoiceNumber    string `csv:"invoice_number"`
	InvoiceNumberAlt string `csv:"invoicenumber"`

	VendorName string `csv:"vendor_name"`
	Vendor     string `csv:"vendor"`
	Supplier   string `csv:"supplier"`

	InvoiceDate string `csv:"invoice_date"`
	Date        string `csv:"date"`

	TotalAmount string `csv:"total_amount"`
	Amount      string `csv:"amount"`
	Total       string `csv:"total"`
}

// CSVSource reads reference records from a purchase-order or ledger CSV.
type CSVSource struct {
	path string
	opts Options
	log  zerolog.Logger
}

func NewCSV(path string, opts Options) *CSVSource {
	return &CSVSource{
		path: path,
		opts: opts,
		log:  logger.WithComponent("reference-csv"),
	}
}

func (s *CSVSource) Name() string { return s.path }

func (s *CSVSource) Load(ctx context.Context) ([]models.ReferenceRecord, error) {
	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open reference CSV: %w", err)
	}
	defer file.Close()

	return s.parse(ctx, file)
}

func (s *CSVSource) parse(ctx context.Context, r io.Reader) ([]models.ReferenceRecord, error) {
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		cr := csv.NewReader(in)
		cr.LazyQuotes = true
		cr.TrimLeadingSpace = true
		return cr
	})

	var rows []csvRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse reference CSV: %w", err)
	}

	records := make([]models.ReferenceRecord, 0, len(rows))
	skipped := 0
	for i, row := range rows {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		rowNum := i + 2 // header plus 1-based indexing

		record, err := buildRecord(
			firstNonEmpty(row.ReferenceID, row.PONumber),
			firstNonEmpty(row.InvoiceNumber, row.InvoiceNumberAlt),
			firstNonEmpty(row.VendorName, row.Vendor, row.Supplier),
			firstNonEmpty(row.InvoiceDate, row.Date),
			firstNonEmpty(row.TotalAmount, row.Amount, row.Total),
			s.path,
			s.opts,
		)
		if err != nil {
			skipped++
			s.log.Warn().Err(err).Int("row", rowNum).Msg("skipping malformed reference row")
			continue
		}
		records = append(records, record)
	}

	s.log.Info().
		Int("total_rows", len(rows)).
		Int("loaded", len(records)).
		Int("skipped", skipped).
		Str("path", s.path).
		Msg("reference CSV loaded")

	return records, nil
}
