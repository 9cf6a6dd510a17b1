package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"invoiceaudit/internal/config"
	"invoiceaudit/internal/extract"
	"invoiceaudit/internal/logger"
	"invoiceaudit/internal/match"
	"invoiceaudit/internal/pipeline"
	"invoiceaudit/internal/reference"
	"invoiceaudit/internal/report"
	"invoiceaudit/pkg/models"
)

var auditCmd = &cobra.Command{
	Use:   "audit [folder-path]",
	Short: "Process all PDFs in a folder and write an audit report",
	Long: `Process every PDF invoice in a folder, match each one against the
reference records (purchase orders or ledger entries), and write a CSV or
XLSX audit report.

Each report row carries the extracted fields, the matched reference ID, a
match status (MATCHED, PARTIAL, MISMATCH, UNMATCHED), and the reasons for
any disagreement. Invoices matching the same reference record are flagged
as duplicates.

Reference records come from a CSV file or a SQLite database:
  --reference purchase-orders.csv
  --reference "sqlite://ledger.db?table=purchase_orders"

Optional environment variables:
  MATCH_AMOUNT_TOLERANCE    - Absolute amount tolerance (default: 0.01)
  MATCH_DATE_TOLERANCE_DAYS - Allowed day difference (default: 0)
  MATCH_VENDOR_MIN_SCORE    - Vendor similarity threshold 0-100 (default: 70)
  DUPLICATE_SCOPE           - batch or source (default: batch)
  BATCH_WORKERS             - Number of parallel workers (default: 4)`,
	Example: `  # Audit a folder of invoices against a purchase-order CSV
  invoiceaudit audit ./invoices --reference purchase-orders.csv -o audit.csv

  # Use a SQLite ledger and write an XLSX report
  invoiceaudit audit ./invoices --reference "sqlite://ledger.db?table=purchase_orders" \
    --format xlsx -o audit.xlsx

  # Force Tesseract OCR with 8 workers
  invoiceaudit audit ./scans --reference po.csv --engine tesseract --workers 8

  # Dry run: process and print a summary without writing the report
  invoiceaudit audit ./invoices --reference po.csv --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)

	auditCmd.Flags().String("reference", "", "Reference source: CSV path or sqlite://path?table=name [REQUIRED]")
	auditCmd.Flags().StringP("output", "o", "audit.csv", "Report output path")
	auditCmd.Flags().String("format", "csv", "Report format: csv or xlsx")
	auditCmd.Flags().String("engine", "", "Text engine: auto, native, tesseract, vision (default: OCR_ENGINE)")
	auditCmd.Flags().Int("workers", 0, "Number of parallel workers (default: BATCH_WORKERS)")
	auditCmd.Flags().Int("timeout", 1800, "Total processing timeout in seconds")
	auditCmd.Flags().Bool("dry-run", false, "Process files but don't write the report")
	auditCmd.Flags().Bool("verbose", false, "Show per-file progress")

	auditCmd.MarkFlagRequired("reference")
}

func runAudit(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("audit")

	folderPath := args[0]
	referenceSpec, _ := cmd.Flags().GetString("reference")
	outputPath, _ := cmd.Flags().GetString("output")
	format, _ := cmd.Flags().GetString("format")
	engine, _ := cmd.Flags().GetString("engine")
	workers, _ := cmd.Flags().GetInt("workers")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	verbose, _ := cmd.Flags().GetBool("verbose")

	if format != "csv" && format != "xlsx" {
		return fmt.Errorf("invalid format: %s (must be 'csv' or 'xlsx')", format)
	}

	folderInfo, err := os.Stat(folderPath)
	if err != nil {
		return fmt.Errorf("folder not found: %s", folderPath)
	}
	if !folderInfo.IsDir() {
		return fmt.Errorf("path is not a directory: %s", folderPath)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if engine == "" {
		engine = cfg.Engine
	}
	if workers <= 0 {
		workers = cfg.Workers
	}

	log.Info().
		Str("folder", folderPath).
		Str("reference", referenceSpec).
		Str("engine", engine).
		Str("format", format).
		Int("workers", workers).
		Bool("dry_run", dryRun).
		Msg("Starting audit")

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	source, err := reference.Open(referenceSpec, reference.Options{
		Locale:           extract.Locale(cfg.DateLocale),
		ExtraDateLayouts: cfg.ExtraDateLayout,
	})
	if err != nil {
		return fmt.Errorf("failed to open reference source: %w", err)
	}

	refs, err := source.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load reference records: %w", err)
	}

	pdfFiles, err := pipeline.FindPDFFiles(folderPath)
	if err != nil {
		return fmt.Errorf("failed to find PDF files: %w", err)
	}
	if len(pdfFiles) == 0 {
		fmt.Println("No PDF files found in folder.")
		return nil
	}

	extractor, err := buildExtractor(ctx, engine, cfg, log)
	if err != nil {
		return err
	}

	matcher := match.New(match.Config{
		AmountTolerance:   cfg.AmountTolerance,
		DateToleranceDays: cfg.DateToleranceDays,
		VendorMinScore:    cfg.VendorMinScore,
	})

	opts := pipeline.Options{
		Locale:           extract.Locale(cfg.DateLocale),
		ExtraDateLayouts: cfg.ExtraDateLayout,
		Workers:          workers,
		PerSource:        cfg.DuplicateScope == "source",
	}
	if verbose {
		opts.Progress = func(done, total int, fileName string, err error) {
			status := "ok"
			if err != nil {
				status = err.Error()
			}
			fmt.Printf("[%d/%d] %s - %s\n", done, total, fileName, status)
		}
	}

	fmt.Printf("Processing %d PDFs against %d reference records with %d workers...\n",
		len(pdfFiles), len(refs), workers)

	p := pipeline.New(extractor, matcher, opts)
	results, err := p.Run(ctx, pdfFiles, refs)
	if err != nil {
		return err
	}

	printAuditSummary(results)

	if dryRun {
		fmt.Println("Dry run: report not written.")
		return nil
	}

	rows := make([]report.Row, len(results))
	for i, result := range results {
		rows[i] = report.NewRow(result.FileName, *result.Result)
	}

	switch format {
	case "xlsx":
		err = report.WriteXLSXFile(outputPath, rows)
	default:
		err = report.WriteCSVFile(outputPath, rows)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Report written: %s\n", outputPath)

	log.Info().
		Str("run_id", p.RunID()).
		Int("total", len(results)).
		Str("output", outputPath).
		Msg("Audit completed")

	return nil
}

func printAuditSummary(results []pipeline.DocumentResult) {
	counts := map[models.MatchStatus]int{}
	failures := 0
	for _, result := range results {
		counts[result.Result.Status]++
		if result.ExtractionErr != nil {
			failures++
		}
	}

	fmt.Println()
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println("                 AUDIT SUMMARY")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("Matched:   %d\n", counts[models.StatusMatched])
	fmt.Printf("Partial:   %d\n", counts[models.StatusPartial])
	fmt.Printf("Mismatch:  %d\n", counts[models.StatusMismatch])
	fmt.Printf("Unmatched: %d\n", counts[models.StatusUnmatched])
	if failures > 0 {
		fmt.Printf("Extraction failures: %d\n", failures)
	}
	fmt.Println()
}
