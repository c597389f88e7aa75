package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"remind/internal/config"
	"remind/internal/logger"
	"remind/internal/reconciliation"
	"remind/internal/store"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "remind",
	Short: "Remind - payment reminders for overdue invoices",
	Long: `Remind reads an invoice spreadsheet, flags invoices older than a
configurable threshold as overdue and sends one reminder email per overdue
invoice through a notification endpoint.

A typical session:
  remind import invoices.xlsx      # classify the spreadsheet
  remind list                      # preview the overdue invoices
  remind exclude 3 7               # skip invoices you do not want to chase
  remind send                      # post the reminders

The current import is kept in a local SQLite database (REMIND_DATABASE) so the
commands can be run one after another.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Debug().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("database", "", "Session database file (default: $REMIND_DATABASE or remind.db)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format (console, json)")

	_ = viper.BindPFlag("remind_database", rootCmd.PersistentFlags().Lookup("database"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// setupLogging re-applies the logger settings once flags are parsed.
func setupLogging(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// openController opens the session database and restores the last import.
// With requireSession, a missing import is reported as an error.
func openController(ctx context.Context, cfg *config.Config, requireSession bool) (*reconciliation.Controller, func(), error) {
	st, err := store.Open(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open session database: %w", err)
	}
	closeStore := func() {
		if err := st.Close(); err != nil {
			log := logger.WithComponent("cmd")
			log.Warn().Err(err).Msg("Failed to close session database")
		}
	}

	ctrl := reconciliation.NewController(st)
	if err := ctrl.Restore(ctx); err != nil {
		if errors.Is(err, reconciliation.ErrNoSession) && !requireSession {
			return ctrl, closeStore, nil
		}
		closeStore()
		if errors.Is(err, reconciliation.ErrNoSession) {
			return nil, nil, fmt.Errorf("no invoices imported yet, run 'remind import' first")
		}
		return nil, nil, fmt.Errorf("failed to restore session: %w", err)
	}
	return ctrl, closeStore, nil
}

// commandContext returns a context cancelled on SIGINT/SIGTERM and, when
// timeout is positive, after timeout.
func commandContext(timeout time.Duration, log zerolog.Logger) (context.Context, context.CancelFunc) {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

func printCounts(c reconciliation.Counts) {
	fmt.Printf("Records: %d, overdue: %d, excluded: %d, eligible for reminders: %d\n",
		c.Total, c.Overdue, c.Excluded, c.Eligible)
	if c.NoDate > 0 {
		fmt.Printf("Records without a usable date (never overdue): %d\n", c.NoDate)
	}
}
