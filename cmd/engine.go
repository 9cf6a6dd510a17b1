package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"invoiceaudit/internal/config"
	"invoiceaudit/internal/textract"
)

// buildExtractor assembles the text acquisition chain for the requested
// engine. "auto" uses the native PDF text layer and falls back to Tesseract
// OCR when the text layer is missing or too sparse.
func buildExtractor(ctx context.Context, engine string, cfg *config.Config, log zerolog.Logger) (textract.Extractor, error) {
	switch engine {
	case "native":
		return textract.NewNative(), nil
	case "tesseract":
		return textract.NewTesseract(cfg.OCRLanguages, cfg.OCRDPI), nil
	case "vision":
		extractor, err := textract.NewVision(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create Vision extractor")
			return nil, fmt.Errorf("failed to create Vision extractor: %w", err)
		}
		return extractor, nil
	case "auto":
		return textract.NewFallback(
			textract.NewNative(),
			textract.NewTesseract(cfg.OCRLanguages, cfg.OCRDPI),
		), nil
	default:
		return nil, fmt.Errorf("unknown engine: %s (must be one of auto, native, tesseract, vision)", engine)
	}
}

// createContextWithTimeout creates a context with timeout and signal handling
func createContextWithTimeout(timeoutSecs int, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling processing")
			cancel()
		case <-ctx.Done():
			// Context completed normally
		}
	}()

	return ctx, cancel
}

// validatePDFFile checks that the path exists, is a regular file, and is not empty.
func validatePDFFile(pdfPath string, log zerolog.Logger) (os.FileInfo, error) {
	fileInfo, err := os.Stat(pdfPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Error().
				Str("file", pdfPath).
				Msg("PDF file not found")
			return nil, fmt.Errorf("PDF file not found: %s", pdfPath)
		}
		if os.IsPermission(err) {
			log.Error().
				Str("file", pdfPath).
				Msg("Permission denied accessing PDF file")
			return nil, fmt.Errorf("permission denied accessing PDF file: %s", pdfPath)
		}
		return nil, fmt.Errorf("error accessing PDF file: %w", err)
	}

	if !fileInfo.Mode().IsRegular() {
		log.Error().
			Str("file", pdfPath).
			Msg("Path is not a regular file")
		return nil, fmt.Errorf("path is not a regular file: %s", pdfPath)
	}

	if fileInfo.Size() == 0 {
		log.Error().
			Str("file", pdfPath).
			Msg("PDF file is empty")
		return nil, fmt.Errorf("PDF file is empty: %s", pdfPath)
	}

	return fileInfo, nil
}
