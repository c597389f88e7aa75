package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"remind/internal/config"
	"remind/internal/logger"
	"remind/internal/reconciliation"
	"remind/pkg/models"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Preview the imported invoices",
	Long: `Show the invoices of the current import with their age and status.

By default only overdue invoices are listed. An overdue invoice is eligible for
a reminder unless it is excluded or has no valid email address.`,
	Example: `  # Overdue invoices
  remind list

  # Every imported row as JSON
  remind list --all --json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

// listRecord is the JSON form of one preview row.
type listRecord struct {
	ID       int    `json:"id"`
	Client   string `json:"client"`
	Email    string `json:"email"`
	Invoice  string `json:"invoice"`
	Date     string `json:"date"`
	Amount   string `json:"amount"`
	Days     *int   `json:"days"`
	Paid     string `json:"paid,omitempty"`
	Overdue  bool   `json:"overdue"`
	Excluded bool   `json:"excluded"`
	Eligible bool   `json:"eligible"`
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().Bool("all", false, "List every imported row, not just overdue ones")
	listCmd.Flags().Bool("json", false, "Output as JSON format")
}

func runList(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("list")
	cfg := config.Load()

	showAll, _ := cmd.Flags().GetBool("all")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	ctx, cancel := commandContext(30*time.Second, log)
	defer cancel()

	ctrl, closeStore, err := openController(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer closeStore()

	sess, err := ctrl.Session()
	if err != nil {
		return err
	}

	rows := make([]listRecord, 0, len(sess.Records))
	for i := range sess.Records {
		r := &sess.Records[i]
		if !showAll && !r.Overdue {
			continue
		}
		rows = append(rows, toListRecord(r))
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	fmt.Printf("Source: %s (threshold %d days, as of %s)\n\n",
		sess.Source, sess.ThresholdDays, sess.AsOf.Format("2006-01-02"))

	if len(rows) == 0 {
		fmt.Println("No overdue invoices.")
	} else {
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tCLIENT\tEMAIL\tINVOICE\tDATE\tAMOUNT\tDAYS\tOVERDUE\tEXCLUDED\tELIGIBLE")
		for _, r := range rows {
			days := "-"
			if r.Days != nil {
				days = fmt.Sprint(*r.Days)
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				r.ID, r.Client, r.Email, r.Invoice, r.Date, r.Amount, days,
				yesNo(r.Overdue), yesNo(r.Excluded), yesNo(r.Eligible))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	fmt.Println()
	printCounts(sess.Counts())
	return nil
}

func toListRecord(r *models.InvoiceRecord) listRecord {
	return listRecord{
		ID:       r.ID,
		Client:   r.ClientName,
		Email:    r.Email,
		Invoice:  r.InvoiceNumber,
		Date:     r.DisplayDate(),
		Amount:   r.Amount,
		Days:     r.AgeDays,
		Paid:     r.PaidFlag,
		Overdue:  r.Overdue,
		Excluded: r.Excluded,
		Eligible: reconciliation.Eligible(r),
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return ""
}
