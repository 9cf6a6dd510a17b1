package textract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog"

	"invoiceaudit/internal/logger"
)

// NativeExtractor reads the embedded PDF text layer. It is the cheapest
// provider and the right one for digitally produced invoices; scanned
// documents yield little or no text here and need OCR instead.
type NativeExtractor struct {
	log zerolog.Logger
}

func NewNative() *NativeExtractor {
	return &NativeExtractor{log: logger.WithComponent("textract-native")}
}

func (n *NativeExtractor) Name() string { return SourceNative }

func (n *NativeExtractor) ExtractText(ctx context.Context, pdfData io.Reader) (result *Result, err error) {
	const op = "ExtractText"
	start := time.Now()

	// The pdf library panics on some malformed documents; a corrupted input
	// must surface as ErrInvalidPDF, not take the batch down.
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = WrapError(op, ErrInvalidPDF, fmt.Sprintf("parser panic: %v", r))
		}
	}()

	data, err := io.ReadAll(pdfData)
	if err != nil {
		return nil, WrapError(op, err, "failed to read PDF data")
	}
	if len(data) < 4 || string(data[:4]) != "%PDF" {
		return nil, WrapError(op, ErrInvalidPDF, "missing PDF header")
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, WrapError(op, ErrInvalidPDF, err.Error())
	}

	var text strings.Builder
	pageCount := reader.NumPage()
	for i := 1; i <= pageCount; i++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, WrapError(op, ctxErr, fmt.Sprintf("canceled at page %d", i))
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			n.log.Warn().Err(err).Int("page", i).Msg("skipping unreadable page")
			continue
		}
		for _, row := range rows {
			for w, word := range row.Content {
				if w > 0 {
					text.WriteString(" ")
				}
				text.WriteString(word.S)
			}
			text.WriteString("\n")
		}
	}

	extracted := text.String()
	if strings.TrimSpace(extracted) == "" {
		return nil, WrapError(op, ErrEmptyDocument, "no text layer")
	}

	return &Result{
		Text:               extracted,
		PageCount:          pageCount,
		Source:             SourceNative,
		ProcessingDuration: time.Since(start),
	}, nil
}
