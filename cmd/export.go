package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"remind/internal/config"
	"remind/internal/logger"
	"remind/internal/sheets"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the eligible invoices to xlsx or Google Sheets",
	Long: `Write the invoices that would receive a reminder to an xlsx file with the
columns client, email, invoice, date, amount and days.

With --to-sheet the rows are written to a worksheet of GOOGLE_SHEET_URL
instead. The worksheet is created if missing and overwritten otherwise.`,
	Example: `  # Write overdue.xlsx
  remind export

  # Custom file name
  remind export -o reminders-june.xlsx

  # Write to a worksheet named "Overdue"
  remind export --to-sheet Overdue`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("output", "o", sheets.ExportFileName, "Output xlsx file")
	exportCmd.Flags().String("to-sheet", "", "Write to this Google Sheets worksheet instead of a file")
}

func runExport(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("export")
	cfg := config.Load()

	outputPath, _ := cmd.Flags().GetString("output")
	toSheet, _ := cmd.Flags().GetString("to-sheet")

	ctx, cancel := commandContext(2*time.Minute, log)
	defer cancel()

	ctrl, closeStore, err := openController(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer closeStore()

	records := ctrl.Eligible()

	if toSheet != "" {
		if cfg.GoogleSheetURL == "" {
			return fmt.Errorf("GOOGLE_SHEET_URL is required for --to-sheet")
		}
		svc, err := sheets.NewSheetsService(ctx, cfg.GoogleSheetURL)
		if err != nil {
			return fmt.Errorf("failed to initialize Google Sheets service: %w", err)
		}
		if err := svc.WriteOverdue(ctx, records, toSheet); err != nil {
			return fmt.Errorf("failed to write to Google Sheet: %w", err)
		}
		fmt.Printf("Wrote %d invoices to worksheet %s\n", len(records), toSheet)
		return nil
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := sheets.WriteOverdueXLSX(f, records); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}

	log.Info().Str("file", outputPath).Int("rows", len(records)).Msg("Export written")
	fmt.Printf("Wrote %d invoices to %s\n", len(records), outputPath)
	return nil
}
