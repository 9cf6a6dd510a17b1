// Package textract acquires raw text from PDF invoices.
//
// Three providers are available: the native provider reads the PDF text
// layer directly, the tesseract provider rasterizes pages and runs them
// through a local Tesseract install, and the vision provider uses the Google
// Cloud Vision API. The Fallback extractor chains a native attempt with an
// OCR engine for scanned documents whose text layer is empty or too sparse.
package textract

import (
	"context"
	"io"
	"strings"
	"time"
	"unicode"
)

// Source names reported on results.
const (
	SourceNative    = "native"
	SourceTesseract = "tesseract"
	SourceVision    = "vision"
)

// DefaultMinTextRunes is the minimum number of non-space runes the native
// text layer must yield before OCR fallback is skipped.
const DefaultMinTextRunes = 64

// Extractor extracts text from one PDF document.
type Extractor interface {
	// ExtractText returns the concatenated text of all pages in reading order.
	ExtractText(ctx context.Context, pdfData io.Reader) (*Result, error)

	// Name identifies the provider ("native", "tesseract", "vision", ...).
	Name() string
}

// Result is the outcome of text acquisition for one document.
type Result struct {
	// Text is the extracted text, pages concatenated in reading order.
	Text string

	// PageCount is the number of pages processed.
	PageCount int

	// Source names the provider that produced the text.
	Source string

	// Confidence is the average OCR confidence (0.0-1.0) where the provider
	// reports one; zero otherwise.
	Confidence float32

	// ProcessingDuration is how long acquisition took.
	ProcessingDuration time.Duration
}

// Fallback tries the primary extractor first and falls back to the OCR
// extractor when the primary fails or yields too little text (scanned
// documents with no usable text layer).
type Fallback struct {
	Primary      Extractor
	OCR          Extractor
	MinTextRunes int
}

// NewFallback chains primary and ocr with the default density threshold.
func NewFallback(primary, ocr Extractor) *Fallback {
	return &Fallback{Primary: primary, OCR: ocr, MinTextRunes: DefaultMinTextRunes}
}

func (f *Fallback) Name() string { return f.Primary.Name() + "+" + f.OCR.Name() }

func (f *Fallback) ExtractText(ctx context.Context, pdfData io.Reader) (*Result, error) {
	// Both attempts need the data; buffer it once.
	data, err := io.ReadAll(pdfData)
	if err != nil {
		return nil, WrapError("ExtractText", err, "failed to read PDF data")
	}

	primary, primaryErr := f.Primary.ExtractText(ctx, strings.NewReader(string(data)))
	if primaryErr == nil && countTextRunes(primary.Text) >= f.minRunes() {
		return primary, nil
	}
	if ctx.Err() != nil {
		return nil, WrapError("ExtractText", ctx.Err(), "canceled before OCR fallback")
	}

	ocr, ocrErr := f.OCR.ExtractText(ctx, strings.NewReader(string(data)))
	if ocrErr != nil {
		if primaryErr == nil {
			// Sparse text layer and failed OCR: the sparse text is still the
			// best answer available.
			return primary, nil
		}
		return nil, ocrErr
	}
	return ocr, nil
}

func (f *Fallback) minRunes() int {
	if f.MinTextRunes > 0 {
		return f.MinTextRunes
	}
	return DefaultMinTextRunes
}

func countTextRunes(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
