package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"remind/internal/config"
	"remind/internal/invoice"
	"remind/internal/logger"
	"remind/internal/reconciliation"
	"remind/internal/sheets"
)

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import an invoice spreadsheet and classify overdue invoices",
	Long: `Read an invoice spreadsheet (.xlsx or .csv) or a Google Sheets worksheet,
match its columns to client name, email, invoice number, date, amount and paid
flag, and flag every unpaid invoice older than the threshold as overdue.

A new import replaces the previous one, including any exclusions.

Column headers are matched case-insensitively ("E-mail", "Invoice #",
"Total" and so on). Dates may be ISO (2024-01-31), day-first (31/01/2024,
31.01.2024) or spreadsheet serial numbers.

The paid column is read from a header containing "paid" or "settled". An
invoice counts as paid only when that cell starts with "y" ("yes", "Y").
Status columns holding words such as "Paid" or "Open" are not used.

Environment variables:
  REMIND_THRESHOLD_DAYS - Days after which an unpaid invoice is overdue (default: 30)
  GOOGLE_SHEET_URL - Google Sheets URL, used with --sheet-url or when no file is given
  GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS - Service account for Google Sheets`,
	Example: `  # Import a local workbook
  remind import invoices.xlsx

  # Use a 45 day threshold and a fixed reference date
  remind import invoices.csv --threshold 45 --as-of 2024-06-30

  # Import from Google Sheets
  remind import --sheet-url https://docs.google.com/spreadsheets/d/<id>/edit --worksheet Invoices`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().String("sheet-url", "", "Google Sheets URL to import from")
	importCmd.Flags().String("worksheet", "", "Worksheet name (default: $GOOGLE_SHEET_WORKSHEET or Invoices)")
	importCmd.Flags().String("threshold", "", "Overdue threshold in days (default: $REMIND_THRESHOLD_DAYS or 30)")
	importCmd.Flags().String("as-of", "", "Reference date (format: YYYY-MM-DD, default: today)")

	_ = viper.BindPFlag("google_sheet_url", importCmd.Flags().Lookup("sheet-url"))
	_ = viper.BindPFlag("google_sheet_worksheet", importCmd.Flags().Lookup("worksheet"))
	_ = viper.BindPFlag("remind_threshold_days", importCmd.Flags().Lookup("threshold"))
}

func runImport(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("import")
	cfg := config.Load()

	asOfStr, _ := cmd.Flags().GetString("as-of")
	asOf := time.Now()
	if asOfStr != "" {
		parsed, err := time.Parse("2006-01-02", asOfStr)
		if err != nil {
			return fmt.Errorf("invalid --as-of date format. Use YYYY-MM-DD: %w", err)
		}
		asOf = parsed
	}

	if err := invoice.ValidateThreshold(cfg.ThresholdDays); err != nil {
		log.Warn().Err(err).Msg("Invalid threshold")
		fmt.Fprintf(os.Stderr, "Warning: threshold %q is not a non-negative number, using %d days\n",
			cfg.ThresholdDays, invoice.DefaultThresholdDays)
	}
	threshold := invoice.ParseThreshold(cfg.ThresholdDays)

	ctx, cancel := commandContext(2*time.Minute, log)
	defer cancel()

	var (
		source string
		table  reconciliation.Table
		err    error
	)
	if len(args) == 1 {
		source = args[0]
		table, err = readFile(source)
	} else {
		if err := cfg.ValidateSheet(); err != nil {
			return fmt.Errorf("no file given and Google Sheets is not configured: %w", err)
		}
		source = cfg.GoogleSheetURL + "#" + cfg.GoogleSheetWorksheet
		var svc *sheets.Service
		svc, err = sheets.NewSheetsService(ctx, cfg.GoogleSheetURL)
		if err != nil {
			return fmt.Errorf("failed to initialize Google Sheets service: %w", err)
		}
		table, err = svc.ReadTable(ctx, cfg.GoogleSheetWorksheet)
	}
	if err != nil {
		log.Error().Err(err).Str("source", source).Msg("Failed to read spreadsheet")
		return fmt.Errorf("could not read %s: %w", source, err)
	}

	ctrl, closeStore, err := openController(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer closeStore()

	result, err := ctrl.Import(ctx, source, table, threshold, asOf)
	if err != nil {
		log.Error().Err(err).Msg("Import failed, previous session kept")
		return err
	}

	fmt.Printf("Imported %s (threshold %d days, as of %s)\n",
		source, threshold, asOf.Format("2006-01-02"))
	if result.SkippedRows > 0 {
		fmt.Printf("Skipped blank rows: %d\n", result.SkippedRows)
	}
	if len(result.Mapping.Unmatched) > 0 {
		missing := make([]string, len(result.Mapping.Unmatched))
		for i, f := range result.Mapping.Unmatched {
			missing[i] = string(f)
		}
		fmt.Printf("Warning: no column found for %s\n", strings.Join(missing, ", "))
	}
	printCounts(result.Session.Counts())
	return nil
}

func readFile(path string) (reconciliation.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return reconciliation.Table{}, err
	}
	defer f.Close()
	return sheets.Decode(path, f)
}
