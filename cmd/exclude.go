package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"remind/internal/config"
	"remind/internal/logger"
)

var excludeCmd = &cobra.Command{
	Use:   "exclude [id...]",
	Short: "Toggle whether invoices receive a reminder",
	Long: `Toggle the exclusion of the given invoices (IDs as shown by 'remind list').
Excluded invoices stay overdue but are left out of 'remind send'.

Use --all-overdue to exclude every overdue invoice, or --none to clear all
exclusions. Unknown IDs are reported and otherwise ignored.`,
	Example: `  # Skip invoices 3 and 7
  remind exclude 3 7

  # Start from nothing selected
  remind exclude --all-overdue

  # Select every overdue invoice again
  remind exclude --none`,
	RunE: runExclude,
}

func init() {
	rootCmd.AddCommand(excludeCmd)

	excludeCmd.Flags().Bool("all-overdue", false, "Exclude every overdue invoice")
	excludeCmd.Flags().Bool("none", false, "Clear the exclusion of every overdue invoice")
}

func runExclude(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("exclude")
	cfg := config.Load()

	allOverdue, _ := cmd.Flags().GetBool("all-overdue")
	none, _ := cmd.Flags().GetBool("none")

	if allOverdue && none {
		return fmt.Errorf("--all-overdue and --none cannot be combined")
	}
	if (allOverdue || none) && len(args) > 0 {
		return fmt.Errorf("IDs cannot be combined with --all-overdue or --none")
	}
	if !allOverdue && !none && len(args) == 0 {
		return fmt.Errorf("give at least one invoice ID, or --all-overdue / --none")
	}

	ids := make([]int, 0, len(args))
	for _, a := range args {
		id, err := strconv.Atoi(a)
		if err != nil {
			return fmt.Errorf("invalid invoice ID %q", a)
		}
		ids = append(ids, id)
	}

	ctx, cancel := commandContext(30*time.Second, log)
	defer cancel()

	ctrl, closeStore, err := openController(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer closeStore()

	if allOverdue || none {
		n, err := ctrl.SetAllOverdueExcluded(ctx, allOverdue)
		if err != nil {
			return err
		}
		if allOverdue {
			fmt.Printf("Excluded %d overdue invoices\n", n)
		} else {
			fmt.Printf("Cleared exclusions on %d overdue invoices\n", n)
		}
	} else {
		for _, id := range ids {
			excluded, found, err := ctrl.ToggleExcluded(ctx, id)
			if err != nil {
				return err
			}
			switch {
			case !found:
				fmt.Printf("No invoice with ID %d, ignored\n", id)
			case excluded:
				fmt.Printf("Invoice %d excluded\n", id)
			default:
				fmt.Printf("Invoice %d included\n", id)
			}
		}
	}

	sess, err := ctrl.Session()
	if err != nil {
		return err
	}
	printCounts(sess.Counts())
	return nil
}
