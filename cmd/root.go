package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"invoiceaudit/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "invoiceaudit",
	Short: "Invoice audit CLI - extract invoice fields and reconcile them against reference records",
	Long: `Invoice audit CLI processes PDF invoices, extracts the key fields
(invoice number, vendor, date, total amount), matches each invoice against
purchase-order or ledger records, and writes an audit report.

Text is taken from the PDF text layer when present; scanned documents fall
back to OCR via Tesseract or Google Cloud Vision.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("Invoice audit CLI executed")

		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
