package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"invoiceaudit/internal/config"
	"invoiceaudit/internal/extract"
	"invoiceaudit/internal/logger"
)

var extractCmd = &cobra.Command{
	Use:   "extract [pdf-file]",
	Short: "Extract invoice fields from a single PDF",
	Long: `Extract the key invoice fields (invoice number, vendor name, invoice
date, total amount) from a single PDF document.

The text layer of the PDF is used when present. Scanned documents fall back
to OCR; select the engine with --engine or the OCR_ENGINE environment
variable.

Optional environment variables:
  OCR_ENGINE    - auto, native, tesseract, or vision (default: auto)
  OCR_LANGUAGES - Comma-separated Tesseract language codes
  OCR_DPI       - Rasterization DPI for OCR (default: 300)
  DATE_LOCALE   - dmy or mdy, resolves ambiguous numeric dates (default: dmy)`,
	Example: `  # Extract fields from invoice.pdf to stdout
  invoiceaudit extract invoice.pdf

  # Output as JSON to a file
  invoiceaudit extract invoice.pdf --json -o fields.json

  # Force Tesseract OCR with a longer timeout
  invoiceaudit extract scan.pdf --engine tesseract --timeout 600`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

// ExtractOutput is the JSON structure written when --json is used.
type ExtractOutput struct {
	FileName           string   `json:"file_name"`
	InvoiceNumber      string   `json:"invoice_number,omitempty"`
	VendorName         string   `json:"vendor_name,omitempty"`
	InvoiceDate        string   `json:"invoice_date,omitempty"`
	TotalAmount        string   `json:"total_amount,omitempty"`
	LowConfidence      []string `json:"low_confidence,omitempty"`
	TextSource         string   `json:"text_source"`
	PageCount          int      `json:"page_count,omitempty"`
	ProcessingDuration string   `json:"processing_duration,omitempty"`
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	extractCmd.Flags().Bool("json", false, "Output as JSON")
	extractCmd.Flags().String("engine", "", "Text engine: auto, native, tesseract, vision (default: OCR_ENGINE)")
	extractCmd.Flags().Int("timeout", 300, "Processing timeout in seconds")
}

func runExtract(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("extract")

	outputPath, _ := cmd.Flags().GetString("output")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	engine, _ := cmd.Flags().GetString("engine")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	pdfPath := args[0]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if engine == "" {
		engine = cfg.Engine
	}

	log.Info().
		Str("file", pdfPath).
		Str("engine", engine).
		Bool("json", jsonOutput).
		Msg("Starting field extraction")

	if _, err := validatePDFFile(pdfPath, log); err != nil {
		return err
	}

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	extractor, err := buildExtractor(ctx, engine, cfg, log)
	if err != nil {
		return err
	}

	pdfFile, err := os.Open(pdfPath)
	if err != nil {
		log.Error().
			Err(err).
			Str("file", pdfPath).
			Msg("Failed to open PDF file")
		return fmt.Errorf("failed to open PDF file: %w", err)
	}
	defer func() {
		if closeErr := pdfFile.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close PDF file")
		}
	}()

	startTime := time.Now()
	text, err := extractor.ExtractText(ctx, pdfFile)
	if err != nil {
		log.Error().Err(err).Msg("Text extraction failed")
		return fmt.Errorf("text extraction failed: %w", err)
	}

	record := extract.Extract(text.Text, extract.DefaultRules(), extract.Options{
		Locale:           extract.Locale(cfg.DateLocale),
		ExtraDateLayouts: cfg.ExtraDateLayout,
	})

	log.Info().
		Str("source", text.Source).
		Int("page_count", text.PageCount).
		Str("invoice_number", record.InvoiceNumber).
		Strs("low_confidence", record.LowConfidence).
		Dur("duration", time.Since(startTime)).
		Msg("Field extraction completed")

	output := ExtractOutput{
		FileName:           filepath.Base(pdfPath),
		InvoiceNumber:      record.InvoiceNumber,
		VendorName:         record.VendorName,
		LowConfidence:      record.LowConfidence,
		TextSource:         text.Source,
		PageCount:          text.PageCount,
		ProcessingDuration: time.Since(startTime).String(),
	}
	if record.HasInvoiceDate() {
		output.InvoiceDate = record.InvoiceDate.Format("2006-01-02")
	}
	if record.HasTotalAmount() {
		output.TotalAmount = record.TotalAmount.StringFixed(2)
	}

	return writeExtractOutput(output, outputPath, jsonOutput)
}

func writeExtractOutput(output ExtractOutput, outputPath string, jsonOutput bool) error {
	var data []byte

	if jsonOutput {
		var err error
		data, err = json.MarshalIndent(output, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to create JSON output: %w", err)
		}
	} else {
		var b strings.Builder
		fmt.Fprintf(&b, "File:           %s\n", output.FileName)
		fmt.Fprintf(&b, "Invoice number: %s\n", orDash(output.InvoiceNumber))
		fmt.Fprintf(&b, "Vendor:         %s\n", orDash(output.VendorName))
		fmt.Fprintf(&b, "Invoice date:   %s\n", orDash(output.InvoiceDate))
		fmt.Fprintf(&b, "Total amount:   %s\n", orDash(output.TotalAmount))
		if len(output.LowConfidence) > 0 {
			fmt.Fprintf(&b, "Low confidence: %s\n", strings.Join(output.LowConfidence, ", "))
		}
		fmt.Fprintf(&b, "Text source:    %s\n", output.TextSource)
		data = []byte(b.String())
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		return nil
	}

	if _, err := os.Stdout.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if jsonOutput {
		fmt.Println()
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
