package textract

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gen2brain/go-fitz"
	"github.com/otiai10/gosseract/v2"
	"github.com/rs/zerolog"

	"invoiceaudit/internal/logger"
)

// DefaultOCRDPI is the rasterization resolution used when none is configured.
// 300 DPI is the usual sweet spot for Tesseract on printed invoices.
const DefaultOCRDPI = 300

// TesseractExtractor OCRs scanned PDFs with a local Tesseract install.
// Pages are rasterized with MuPDF (go-fitz) and fed to Tesseract one by one.
type TesseractExtractor struct {
	languages []string
	dpi       float64
	log       zerolog.Logger
}

// NewTesseract creates the extractor. languages are Tesseract language codes
// ("eng", "deu", ...); empty means Tesseract's default. dpi <= 0 selects
// DefaultOCRDPI.
func NewTesseract(languages []string, dpi float64) *TesseractExtractor {
	if dpi <= 0 {
		dpi = DefaultOCRDPI
	}
	return &TesseractExtractor{
		languages: languages,
		dpi:       dpi,
		log:       logger.WithComponent("textract-tesseract"),
	}
}

func (t *TesseractExtractor) Name() string { return SourceTesseract }

func (t *TesseractExtractor) ExtractText(ctx context.Context, pdfData io.Reader) (*Result, error) {
	const op = "ExtractText"
	start := time.Now()

	data, err := io.ReadAll(pdfData)
	if err != nil {
		return nil, WrapError(op, err, "failed to read PDF data")
	}

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, WrapError(op, ErrInvalidPDF, err.Error())
	}
	defer doc.Close()

	client := gosseract.NewClient()
	defer client.Close()
	if len(t.languages) > 0 {
		if err := client.SetLanguage(t.languages...); err != nil {
			return nil, WrapError(op, ErrOCRFailed, fmt.Sprintf("set languages %v: %v", t.languages, err))
		}
	}

	var text strings.Builder
	pageCount := doc.NumPage()
	for page := 0; page < pageCount; page++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, WrapError(op, ctxErr, fmt.Sprintf("canceled at page %d", page+1))
		}

		png, err := doc.ImagePNG(page, t.dpi)
		if err != nil {
			t.log.Warn().Err(err).Int("page", page+1).Msg("failed to rasterize page, skipping")
			continue
		}
		if err := client.SetImageFromBytes(png); err != nil {
			return nil, WrapError(op, ErrOCRFailed, fmt.Sprintf("page %d: %v", page+1, err))
		}
		pageText, err := client.Text()
		if err != nil {
			return nil, WrapError(op, ErrOCRFailed, fmt.Sprintf("page %d: %v", page+1, err))
		}

		if page > 0 {
			text.WriteString("\n\n")
		}
		text.WriteString(pageText)
	}

	extracted := text.String()
	if strings.TrimSpace(extracted) == "" {
		return nil, WrapError(op, ErrEmptyDocument, "OCR produced no text")
	}

	t.log.Debug().
		Int("pages", pageCount).
		Float64("dpi", t.dpi).
		Dur("duration", time.Since(start)).
		Msg("tesseract OCR completed")

	return &Result{
		Text:               extracted,
		PageCount:          pageCount,
		Source:             SourceTesseract,
		ProcessingDuration: time.Since(start),
	}, nil
}
