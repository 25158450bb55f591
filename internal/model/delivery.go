package model

import "time"

// DeliveryStatus is the terminal outcome of a single delivery attempt.
type DeliveryStatus string

const (
	DeliveryStatusSent    DeliveryStatus = "sent"
	DeliveryStatusFailed  DeliveryStatus = "failed"
	DeliveryStatusSkipped DeliveryStatus = "skipped"
)

// Delivery skip/failure reasons recorded in the ledger.
const (
	ReasonAlreadySent        = "already_sent"
	ReasonDryRun             = "dry_run"
	ReasonCredentialsMissing = "Gmail credentials missing"
)

// EmailProviderGmail identifies the transactional mail provider.
const EmailProviderGmail = "gmail"

// EmailDelivery is one immutable ledger entry for a certificate delivery
// attempt. Rows are append-only: corrections are new attempts, never edits.
type EmailDelivery struct {
	ID                string         `json:"id"`
	EventID           string         `json:"eventId"`
	AttendeeID        string         `json:"attendeeId"`
	Email             string         `json:"email"`
	Subject           string         `json:"subject"`
	Body              string         `json:"body"`
	Link              string         `json:"link"`
	Status            DeliveryStatus `json:"status"`
	Provider          string         `json:"provider"`
	ProviderMessageID *string        `json:"providerMessageId,omitempty"`
	Error             *string        `json:"error,omitempty"`
	SentAt            time.Time      `json:"sentAt"`
	BatchID           string         `json:"batchId"`
}

// DeliverySummary aggregates the outcome of one orchestrator run.
// Attempted counts recipients the run tried to act on; the pre-filtered
// "already sent" skip is excluded, dry-run and credential-missing outcomes
// are included.
type DeliverySummary struct {
	BatchID   string `json:"batchId"`
	Attempted int    `json:"attempted"`
	Sent      int    `json:"sent"`
	Failed    int    `json:"failed"`
	Skipped   int    `json:"skipped"`
}

// DeliveryCoverage reports which attendees of an event already have a
// successful delivery on record.
type DeliveryCoverage struct {
	EventID   string   `json:"eventId"`
	Attendees int      `json:"attendees"`
	Covered   int      `json:"covered"`
	Uncovered []string `json:"uncovered"`
}
