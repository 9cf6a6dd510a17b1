package reference

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoiceaudit/internal/extract"
)

const refCSV = `reference_id,invoice_number,vendor_name,invoice_date,total_amount
PO-1,INV-001,Acme Supplies Ltd,2024-03-05,"1,234.50"
PO-2,INV-002,Globex Corp,2024-04-01,80.00
PO-3,INV-003,Initech,not-a-date,50.00
PO-4,INV-004,Umbrella GmbH,2024-05-10,not-an-amount
,,,,
PO-6,INV-006,Soylent Inc,2024-06-01,19.99
`

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "refs.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCSVSourceSkipsMalformedRows(t *testing.T) {
	src := NewCSV(writeTempCSV(t, refCSV), Options{Locale: extract.LocaleDMY})

	records, err := src.Load(context.Background())
	require.NoError(t, err)

	// PO-3 (bad date), PO-4 (bad amount) and the empty row are skipped.
	require.Len(t, records, 3)
	assert.Equal(t, "PO-1", records[0].ReferenceID)
	assert.Equal(t, "INV-001", records[0].InvoiceNumber)
	assert.Equal(t, "Acme Supplies Ltd", records[0].VendorName)
	assert.True(t, records[0].InvoiceDate.Equal(time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)))
	want, _ := decimal.NewFromString("1234.50")
	assert.True(t, want.Equal(records[0].TotalAmount))
	assert.Equal(t, "PO-6", records[2].ReferenceID)
}

func TestCSVSourceAlternateHeaders(t *testing.T) {
	content := "po_number,invoicenumber,supplier,date,amount\nPO-9,INV-009,Hooli,05.03.2024,42.00\n"
	src := NewCSV(writeTempCSV(t, content), Options{Locale: extract.LocaleDMY})

	records, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "PO-9", records[0].ReferenceID)
	assert.Equal(t, "INV-009", records[0].InvoiceNumber)
	assert.Equal(t, "Hooli", records[0].VendorName)
	assert.Equal(t, time.March, records[0].InvoiceDate.Month())
}

func TestCSVSourceMissingFileIsFatal(t *testing.T) {
	src := NewCSV(filepath.Join(t.TempDir(), "does-not-exist.csv"), Options{})
	_, err := src.Load(context.Background())
	assert.Error(t, err)
}

func TestSQLiteSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)

	_, err = db.Exec(`CREATE TABLE purchase_orders (
		reference_id TEXT,
		invoice_number TEXT,
		vendor_name TEXT,
		invoice_date TEXT,
		total_amount TEXT
	)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO purchase_orders VALUES
		('PO-1', 'INV-001', 'Acme Supplies Ltd', '2024-03-05', '1234.50'),
		('PO-2', 'INV-002', 'Globex Corp', '2024-04-01', 'garbage'),
		('PO-3', 'INV-003', 'Initech', '2024-05-01', '99.00')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	src, err := Open("sqlite://"+path+"?table=purchase_orders", Options{Locale: extract.LocaleDMY})
	require.NoError(t, err)

	records, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "PO-1", records[0].ReferenceID)
	assert.Equal(t, "PO-3", records[1].ReferenceID)
}

func TestOpenRejectsBadSQLiteSpecs(t *testing.T) {
	_, err := Open("sqlite:///tmp/ledger.db", Options{})
	assert.Error(t, err, "missing table parameter")

	_, err = Open("sqlite:///tmp/ledger.db?table=drop%20tables", Options{})
	assert.Error(t, err, "invalid table name")
}

func TestBuildRecordDefaultsReferenceID(t *testing.T) {
	record, err := buildRecord("", "INV-42", "Acme", "2024-01-02", "10.00", "refs.csv", Options{})
	require.NoError(t, err)
	assert.Equal(t, "INV-42", record.ReferenceID)
	assert.Equal(t, "refs.csv", record.SourceName)
}

func TestBuildRecordRejectsEmptyRow(t *testing.T) {
	_, err := buildRecord("", "", "", "", "", "refs.csv", Options{})
	assert.Error(t, err)
}
