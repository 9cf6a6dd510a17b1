// Package report serializes audit results. The canonical output is a CSV
// with one row per processed invoice; the same rows can also be rendered to
// an XLSX workbook for review workflows.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gocarina/gocsv"

	"invoiceaudit/pkg/models"
)

// Row is one audit report line. Column order and names are part of the
// output contract.
type Row struct {
	FileName           string `csv:"file_name"`
	InvoiceNumber      string `csv:"invoice_number"`
	VendorName         string `csv:"vendor_name"`
	InvoiceDate        string `csv:"invoice_date"`
	TotalAmount        string `csv:"total_amount"`
	MatchedReferenceID string `csv:"matched_reference_id"`
	Status             string `csv:"status"`
	Reasons            string `csv:"reasons"`
}

// NewRow renders one match result. Absent fields stay empty rather than
// being filled with placeholders.
func NewRow(fileName string, result models.MatchResult) Row {
	row := Row{
		FileName:           fileName,
		InvoiceNumber:      result.Invoice.InvoiceNumber,
		VendorName:         result.Invoice.VendorName,
		MatchedReferenceID: result.ReferenceID(),
		Status:             string(result.Status),
		Reasons:            strings.Join(result.Reasons, ";"),
	}
	if result.Invoice.HasInvoiceDate() {
		row.InvoiceDate = result.Invoice.InvoiceDate.Format("2006-01-02")
	}
	if result.Invoice.HasTotalAmount() {
		row.TotalAmount = result.Invoice.TotalAmount.StringFixed(2)
	}
	return row
}

// WriteCSV writes the report rows to w, header included.
func WriteCSV(w io.Writer, rows []Row) error {
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("failed to write report CSV: %w", err)
	}
	return nil
}

// WriteCSVFile writes the report to a CSV file, truncating any existing one.
func WriteCSVFile(path string, rows []Row) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	if err := WriteCSV(file, rows); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
