package textract

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExtractor struct {
	name   string
	text   string
	err    error
	called int
}

func (s *stubExtractor) Name() string { return s.name }

func (s *stubExtractor) ExtractText(ctx context.Context, pdfData io.Reader) (*Result, error) {
	s.called++
	if _, err := io.ReadAll(pdfData); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	return &Result{Text: s.text, PageCount: 1, Source: s.name}, nil
}

func TestFallbackPrefersDenseNativeText(t *testing.T) {
	native := &stubExtractor{name: SourceNative, text: strings.Repeat("invoice text ", 20)}
	ocr := &stubExtractor{name: SourceTesseract, text: "ocr text"}
	f := NewFallback(native, ocr)

	result, err := f.ExtractText(context.Background(), strings.NewReader("%PDF-data"))
	require.NoError(t, err)
	assert.Equal(t, SourceNative, result.Source)
	assert.Zero(t, ocr.called)
}

func TestFallbackUsesOCRForSparseTextLayer(t *testing.T) {
	native := &stubExtractor{name: SourceNative, text: "p1"}
	ocr := &stubExtractor{name: SourceTesseract, text: "Invoice Number: INV-1\nTotal: 10.00"}
	f := NewFallback(native, ocr)

	result, err := f.ExtractText(context.Background(), strings.NewReader("%PDF-data"))
	require.NoError(t, err)
	assert.Equal(t, SourceTesseract, result.Source)
	assert.Equal(t, 1, native.called)
}

func TestFallbackUsesOCRWhenNativeFails(t *testing.T) {
	native := &stubExtractor{name: SourceNative, err: WrapError("ExtractText", ErrEmptyDocument, "no text layer")}
	ocr := &stubExtractor{name: SourceTesseract, text: "scanned invoice body"}
	f := NewFallback(native, ocr)

	result, err := f.ExtractText(context.Background(), strings.NewReader("%PDF-data"))
	require.NoError(t, err)
	assert.Equal(t, SourceTesseract, result.Source)
}

func TestFallbackKeepsSparseTextWhenOCRFails(t *testing.T) {
	native := &stubExtractor{name: SourceNative, text: "Total: 10.00"}
	ocr := &stubExtractor{name: SourceTesseract, err: WrapError("ExtractText", ErrOCRFailed, "tesseract missing")}
	f := NewFallback(native, ocr)

	result, err := f.ExtractText(context.Background(), strings.NewReader("%PDF-data"))
	require.NoError(t, err)
	assert.Equal(t, SourceNative, result.Source)
	assert.Equal(t, "Total: 10.00", result.Text)
}

func TestFallbackPropagatesBothFailures(t *testing.T) {
	native := &stubExtractor{name: SourceNative, err: WrapError("ExtractText", ErrInvalidPDF, "bad header")}
	ocr := &stubExtractor{name: SourceTesseract, err: WrapError("ExtractText", ErrOCRFailed, "engine down")}
	f := NewFallback(native, ocr)

	_, err := f.ExtractText(context.Background(), strings.NewReader("junk"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOCRFailed))
}

func TestNativeRejectsNonPDFInput(t *testing.T) {
	n := NewNative()
	_, err := n.ExtractText(context.Background(), strings.NewReader("definitely not a pdf"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidPDF))
}

func TestErrorWrappingPreservesSentinel(t *testing.T) {
	err := WrapError("ExtractText", ErrEmptyDocument, "no text layer")
	assert.True(t, errors.Is(err, ErrEmptyDocument))

	var te *Error
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "ExtractText", te.Op)

	// Double wrapping keeps the original operation.
	again := WrapError("Outer", err, "")
	var te2 *Error
	require.True(t, errors.As(again, &te2))
	assert.Equal(t, "ExtractText", te2.Op)
}

func TestCountTextRunes(t *testing.T) {
	assert.Equal(t, 0, countTextRunes("  \n\t "))
	assert.Equal(t, 7, countTextRunes("a b c defg"))
}
