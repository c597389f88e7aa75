package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"remind/internal/config"
	"remind/internal/logger"
	"remind/internal/mailer"
	"remind/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the notification endpoint that emails reminders",
	Long: `Serve POST /api/send. Every item of a batch becomes one email, rendered
from the item's message or the default template. Batches are capped at 100
items; items without a valid email are skipped.

With REDIS_ADDRESS set, delivered messages are remembered for 24 hours and not
sent again.

Environment variables:
  SERVER_ADDR - Listen address (default: :8080)
  SMTP_HOST, SMTP_PORT, SMTP_USERNAME, SMTP_PASSWORD, SMTP_FROM - Mail relay
  REMIND_TEMPLATE, REMIND_SUBJECT - Default message and subject
  REMIND_ENDPOINT_TOKEN - Require this bearer token (optional)
  REDIS_ADDRESS - Redis for de-duplication (optional)`,
	Example: `  # Log emails instead of sending them
  remind serve --dry-run

  # Listen on another port
  remind serve --addr :9090`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (default: $SERVER_ADDR or :8080)")
	serveCmd.Flags().Bool("dry-run", false, "Log emails instead of sending them")

	_ = viper.BindPFlag("server_addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("remind_dry_run", serveCmd.Flags().Lookup("dry-run"))
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")
	cfg := config.Load()

	if err := cfg.ValidateServe(); err != nil {
		return err
	}

	ctx, cancel := commandContext(0, log)
	defer cancel()

	var m mailer.Mailer
	if cfg.DryRun {
		log.Info().Msg("Dry run, emails are logged only")
		m = mailer.NewLogMailer()
	} else {
		m = mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
	}

	var dedupe server.Deduper
	if cfg.RedisAddress != "" {
		d, err := server.NewRedisDeduper(ctx, cfg.RedisAddress)
		if err != nil {
			log.Error().Err(err).Msg("Failed to connect to redis, de-duplication disabled")
		} else {
			defer d.Close()
			dedupe = d
		}
	}

	srv := server.New(server.Options{
		Template: cfg.Template,
		Subject:  cfg.Subject,
		Token:    cfg.EndpointToken,
	}, m, dedupe)

	if err := srv.Run(ctx, cfg.ServerAddr); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
