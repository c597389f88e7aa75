package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"remind/internal/config"
	"remind/internal/logger"
	"remind/internal/notify"
	"remind/internal/reconciliation"
	"remind/internal/reminder"
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send reminders for every eligible overdue invoice",
	Long: `Post one batch with every eligible invoice (overdue, not excluded, valid
email) to the notification endpoint, which emails one reminder per invoice.

The message template may use {{name}}, {{invoice}}, {{amount}} and {{days}}.
Without a template the endpoint applies its own default. The endpoint accepts
at most 100 invoices per batch and drops the rest.

A failed send leaves the import and exclusions untouched, so it can simply be
retried.

Environment variables:
  REMIND_ENDPOINT_URL - Notification endpoint (default: http://localhost:8080/api/send)
  REMIND_ENDPOINT_TOKEN - Bearer token for the endpoint (optional)
  REMIND_TEMPLATE - Default message template (optional)`,
	Example: `  # Send with the endpoint's default message
  remind send

  # Custom message
  remind send --template "Hi {{name}}, invoice {{invoice}} ({{amount}}) is {{days}} days overdue."

  # Show the request without posting it
  remind send --template-file reminder.txt --dry-run`,
	Args: cobra.NoArgs,
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().String("template", "", "Message template (default: $REMIND_TEMPLATE)")
	sendCmd.Flags().String("template-file", "", "Read the message template from a file")
	sendCmd.Flags().Bool("dry-run", false, "Print the request instead of posting it")
	sendCmd.MarkFlagsMutuallyExclusive("template", "template-file")
}

func runSend(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("send")
	cfg := config.Load()

	template, _ := cmd.Flags().GetString("template")
	templateFile, _ := cmd.Flags().GetString("template-file")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	if templateFile != "" {
		data, err := os.ReadFile(templateFile)
		if err != nil {
			return fmt.Errorf("failed to read template file: %w", err)
		}
		template = string(data)
	}
	if template == "" {
		template = cfg.Template
	}

	ctx, cancel := commandContext(2*time.Minute, log)
	defer cancel()

	ctrl, closeStore, err := openController(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer closeStore()

	eligible := ctrl.Eligible()
	if len(eligible) == 0 {
		fmt.Println("No overdue invoices eligible for a reminder.")
		return nil
	}
	if len(eligible) > reminder.MaxItems {
		fmt.Fprintf(os.Stderr, "Warning: %d invoices are eligible but the endpoint only accepts %d per batch\n",
			len(eligible), reminder.MaxItems)
	}

	if dryRun {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(reminder.BuildRequest(eligible, template))
	}

	if err := cfg.ValidateSend(); err != nil {
		return err
	}

	log.Info().
		Int("eligible", len(eligible)).
		Str("endpoint", cfg.EndpointURL).
		Msg("Sending reminders")

	client := notify.NewClient(cfg.EndpointURL, cfg.EndpointToken, nil)
	resp, err := ctrl.Send(ctx, client, template)
	if err != nil {
		if errors.Is(err, reconciliation.ErrNothingToSend) {
			fmt.Println("No overdue invoices eligible for a reminder.")
			return nil
		}
		if resp != nil && resp.Sent > 0 {
			fmt.Printf("Sent: %d\n", resp.Sent)
		}
		return fmt.Errorf("send failed: %w", err)
	}

	fmt.Printf("Sent %d reminders\n", resp.Sent)
	return nil
}
