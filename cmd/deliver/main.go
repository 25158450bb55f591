package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ceureg/ceureg/internal/config"
	"github.com/ceureg/ceureg/internal/database"
	"github.com/ceureg/ceureg/internal/email"
	"github.com/ceureg/ceureg/internal/logger"
	"github.com/ceureg/ceureg/internal/repository"
	"github.com/ceureg/ceureg/internal/service"
)

var (
	eventID    string
	recipients []string
	dryRun     bool
)

var rootCmd = &cobra.Command{
	Use:   "deliver",
	Short: "Certificate delivery tool for the CEU registry",
}

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send certificate emails for an event",
	Long: `Send certificate emails for an event.

Without --recipients, every attendee who has not already received a
successful delivery is targeted; attendees with a prior sent delivery are
recorded as skipped. With --recipients, only the listed addresses are
processed regardless of prior history.`,
	RunE: runSend,
}

var coverageCmd = &cobra.Command{
	Use:   "coverage",
	Short: "Report which attendees already have a sent certificate",
	RunE:  runCoverage,
}

func init() {
	sendCmd.Flags().StringVar(&eventID, "event", "", "event id (required)")
	sendCmd.Flags().StringSliceVar(&recipients, "recipients", nil, "restrict the run to these emails")
	sendCmd.Flags().BoolVar(&dryRun, "dry-run", false, "record skipped attempts without sending")
	sendCmd.MarkFlagRequired("event")

	coverageCmd.Flags().StringVar(&eventID, "event", "", "event id (required)")
	coverageCmd.MarkFlagRequired("event")

	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(coverageCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newDeliveryService() (*service.DeliveryService, *database.Postgres, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(cfg.Log.Level, "console")

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	svc := service.NewDeliveryService(
		repository.NewEventRepository(db),
		repository.NewAttendeeRepository(db),
		repository.NewUserRepository(db),
		repository.NewDeliveryRepository(db),
		email.NewTokenProvider(cfg.Gmail),
		email.NewGmailSender(cfg.Gmail.SenderAddress, cfg.Gmail.SenderName),
		cfg,
		log,
	)
	return svc, db, nil
}

func runSend(cmd *cobra.Command, args []string) error {
	svc, db, err := newDeliveryService()
	if err != nil {
		return err
	}
	defer db.Close()

	// A --recipients flag that was never set must stay nil: nil means
	// "all unsent", an explicit empty list means "nobody".
	var recipientList []string
	if cmd.Flags().Changed("recipients") {
		recipientList = recipients
	}

	summary, err := svc.DeliverCertificates(context.Background(), eventID, recipientList, dryRun)
	if err != nil {
		return err
	}

	fmt.Printf("Batch:     %s\n", summary.BatchID)
	fmt.Printf("Attempted: %d\n", summary.Attempted)
	fmt.Printf("Sent:      %d\n", summary.Sent)
	fmt.Printf("Failed:    %d\n", summary.Failed)
	fmt.Printf("Skipped:   %d\n", summary.Skipped)
	return nil
}

func runCoverage(cmd *cobra.Command, args []string) error {
	svc, db, err := newDeliveryService()
	if err != nil {
		return err
	}
	defer db.Close()

	coverage, err := svc.Coverage(context.Background(), eventID)
	if err != nil {
		return err
	}

	fmt.Printf("Attendees: %d\n", coverage.Attendees)
	fmt.Printf("Covered:   %d\n", coverage.Covered)
	if len(coverage.Uncovered) > 0 {
		fmt.Println("Uncovered:")
		for _, email := range coverage.Uncovered {
			fmt.Printf("  %s\n", email)
		}
	}
	return nil
}
