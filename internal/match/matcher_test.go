package match

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoiceaudit/internal/extract"
	"invoiceaudit/pkg/models"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func invoice(number, vendor, date, amount string) models.InvoiceRecord {
	rec := models.InvoiceRecord{InvoiceNumber: number, VendorName: vendor}
	if date != "" {
		t, err := time.Parse("2006-01-02", date)
		if err != nil {
			panic(err)
		}
		rec.InvoiceDate = &t
	}
	if amount != "" {
		d := dec(amount)
		rec.TotalAmount = &d
	}
	return rec
}

func reference(id, number, vendor, date, amount string) models.ReferenceRecord {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return models.ReferenceRecord{
		ReferenceID:   id,
		InvoiceNumber: number,
		VendorName:    vendor,
		InvoiceDate:   t,
		TotalAmount:   dec(amount),
	}
}

func TestMatchExactAgreement(t *testing.T) {
	m := New(DefaultConfig())
	refs := []models.ReferenceRecord{
		reference("PO-1", "INV-001", "Acme Supplies Ltd", "2024-03-05", "1234.50"),
		reference("PO-2", "INV-002", "Globex Corp", "2024-04-01", "80.00"),
	}

	result := m.Match(invoice("INV-001", "Acme Supplies Ltd", "2024-03-05", "1234.50"), refs)

	assert.Equal(t, models.StatusMatched, result.Status)
	require.NotNil(t, result.Reference)
	assert.Equal(t, "PO-1", result.Reference.ReferenceID)
	assert.Empty(t, result.Reasons)
}

func TestMatchAmountWithinTolerance(t *testing.T) {
	m := New(DefaultConfig())
	refs := []models.ReferenceRecord{reference("PO-1", "INV-001", "Acme", "2024-03-05", "100.00")}

	result := m.Match(invoice("INV-001", "Acme", "2024-03-05", "100.01"), refs)

	assert.Equal(t, models.StatusMatched, result.Status)
}

func TestMatchAmountBeyondToleranceIsMismatch(t *testing.T) {
	m := New(DefaultConfig())
	refs := []models.ReferenceRecord{reference("PO-1", "INV-001", "Acme", "2024-03-05", "100.00")}

	result := m.Match(invoice("INV-001", "Acme", "2024-03-05", "150.00"), refs)

	assert.Equal(t, models.StatusMismatch, result.Status)
	assert.Contains(t, result.Reasons, extract.FieldTotalAmount)
	require.NotNil(t, result.Reference)
	assert.Equal(t, "PO-1", result.Reference.ReferenceID)
}

func TestMatchVendorDisagreementIsPartial(t *testing.T) {
	m := New(DefaultConfig())
	refs := []models.ReferenceRecord{reference("PO-1", "INV-001", "Globex Corporation", "2024-03-05", "100.00")}

	result := m.Match(invoice("INV-001", "Initech LLC", "2024-03-05", "100.00"), refs)

	assert.Equal(t, models.StatusPartial, result.Status)
	assert.Contains(t, result.Reasons, extract.FieldVendorName)
}

func TestMatchVendorShortFormAgrees(t *testing.T) {
	m := New(DefaultConfig())
	refs := []models.ReferenceRecord{reference("PO-1", "INV-001", "Acme Supplies Ltd", "2024-03-05", "100.00")}

	result := m.Match(invoice("INV-001", "Acme", "2024-03-05", "100.00"), refs)

	assert.Equal(t, models.StatusMatched, result.Status)
}

func TestMatchDateDisagreementIsPartial(t *testing.T) {
	m := New(DefaultConfig())
	refs := []models.ReferenceRecord{reference("PO-1", "INV-001", "Acme", "2024-03-05", "100.00")}

	result := m.Match(invoice("INV-001", "Acme", "2024-03-09", "100.00"), refs)

	assert.Equal(t, models.StatusPartial, result.Status)
	assert.Contains(t, result.Reasons, extract.FieldInvoiceDate)
}

func TestMatchDateWithinConfiguredTolerance(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DateToleranceDays = 5
	m := New(cfg)
	refs := []models.ReferenceRecord{reference("PO-1", "INV-001", "Acme", "2024-03-05", "100.00")}

	result := m.Match(invoice("INV-001", "Acme", "2024-03-09", "100.00"), refs)

	assert.Equal(t, models.StatusMatched, result.Status)
}

func TestMatchUnmatchedWhenNoKeyShared(t *testing.T) {
	m := New(DefaultConfig())
	refs := []models.ReferenceRecord{
		reference("PO-1", "INV-001", "Acme", "2024-03-05", "100.00"),
		reference("PO-2", "INV-002", "Globex", "2024-04-01", "80.00"),
	}

	result := m.Match(invoice("ZZZ-999", "Wayne Enterprises", "2020-01-01", "5.00"), refs)

	assert.Equal(t, models.StatusUnmatched, result.Status)
	assert.Nil(t, result.Reference)
}

func TestMatchAmbiguousTieIsMismatch(t *testing.T) {
	m := New(DefaultConfig())
	// Two references with the same invoice number and identical fields:
	// the tie-break cannot separate them.
	refs := []models.ReferenceRecord{
		reference("PO-1", "INV-001", "Acme", "2024-03-05", "100.00"),
		reference("PO-2", "INV-001", "Acme", "2024-03-05", "100.00"),
	}

	result := m.Match(invoice("INV-001", "Acme", "2024-03-05", "100.00"), refs)

	assert.Equal(t, models.StatusMismatch, result.Status)
	assert.Contains(t, result.Reasons, models.ReasonAmbiguous)
	assert.Nil(t, result.Reference)
}

func TestMatchTieBreakBySmallestDistance(t *testing.T) {
	m := New(DefaultConfig())
	refs := []models.ReferenceRecord{
		reference("PO-1", "INV-001", "Acme", "2024-03-05", "100.00"),
		reference("PO-2", "INV-001", "Acme", "2024-03-05", "250.00"),
	}

	result := m.Match(invoice("INV-001", "Acme", "2024-03-05", "100.00"), refs)

	assert.Equal(t, models.StatusMatched, result.Status)
	require.NotNil(t, result.Reference)
	assert.Equal(t, "PO-1", result.Reference.ReferenceID)
}

func TestMatchProximityFallbackWithoutInvoiceNumber(t *testing.T) {
	m := New(DefaultConfig())
	refs := []models.ReferenceRecord{
		reference("PO-1", "INV-001", "Acme Supplies Ltd", "2024-03-05", "1234.50"),
		reference("PO-2", "INV-002", "Globex", "2024-04-01", "80.00"),
	}

	result := m.Match(invoice("", "Acme Supplies Ltd", "2024-03-05", "1234.50"), refs)

	assert.Equal(t, models.StatusPartial, result.Status)
	require.NotNil(t, result.Reference)
	assert.Equal(t, "PO-1", result.Reference.ReferenceID)
	assert.Contains(t, result.Reasons, extract.FieldInvoiceNumber)
}

func TestMatchMissingAmountBlocksMatched(t *testing.T) {
	m := New(DefaultConfig())
	refs := []models.ReferenceRecord{reference("PO-1", "INV-001", "Acme", "2024-03-05", "100.00")}

	result := m.Match(invoice("INV-001", "Acme", "2024-03-05", ""), refs)

	assert.Equal(t, models.StatusPartial, result.Status)
	assert.Contains(t, result.Reasons, extract.FieldTotalAmount)
}

func TestFlagDuplicatesDemotesBothMatches(t *testing.T) {
	m := New(DefaultConfig())
	refs := []models.ReferenceRecord{reference("PO-1", "INV-001", "Acme", "2024-03-05", "100.00")}

	first := m.Match(invoice("INV-001", "Acme", "2024-03-05", "100.00"), refs)
	second := m.Match(invoice("INV-001", "Acme", "2024-03-05", "100.00"), refs)
	require.Equal(t, models.StatusMatched, first.Status)
	require.Equal(t, models.StatusMatched, second.Status)

	FlagDuplicates([]*models.MatchResult{&first, &second}, false)

	assert.Equal(t, models.StatusMismatch, first.Status)
	assert.Contains(t, first.Reasons, models.ReasonDuplicate)
	assert.Equal(t, models.StatusMismatch, second.Status)
	assert.Contains(t, second.Reasons, models.ReasonDuplicate)
}

func TestFlagDuplicatesLeavesSingleMatchAlone(t *testing.T) {
	m := New(DefaultConfig())
	refs := []models.ReferenceRecord{reference("PO-1", "INV-001", "Acme", "2024-03-05", "100.00")}

	only := m.Match(invoice("INV-001", "Acme", "2024-03-05", "100.00"), refs)
	FlagDuplicates([]*models.MatchResult{&only}, false)

	assert.Equal(t, models.StatusMatched, only.Status)
	assert.NotContains(t, only.Reasons, models.ReasonDuplicate)
}
