package repository

import (
	"context"
	"fmt"

	"github.com/ceureg/ceureg/internal/database"
	"github.com/ceureg/ceureg/internal/model"
)

// DeliveryRepository is the append-only delivery ledger. Every attempt is
// recorded exactly once per recipient per run and never updated; the set of
// rows with status "sent" drives idempotent re-runs.
type DeliveryRepository struct {
	db *database.Postgres
}

// NewDeliveryRepository creates a new DeliveryRepository
func NewDeliveryRepository(db *database.Postgres) *DeliveryRepository {
	return &DeliveryRepository{db: db}
}

// Create appends a delivery attempt to the ledger
func (r *DeliveryRepository) Create(ctx context.Context, d *model.EmailDelivery) error {
	query := `
		INSERT INTO email_deliveries (id, event_id, attendee_id, email, subject, body,
		    link, status, provider, provider_message_id, error, sent_at, batch_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.db.ExecContext(ctx, query,
		d.ID,
		d.EventID,
		d.AttendeeID,
		d.Email,
		d.Subject,
		d.Body,
		d.Link,
		d.Status,
		d.Provider,
		d.ProviderMessageID,
		d.Error,
		d.SentAt,
		d.BatchID,
	)
	if err != nil {
		return fmt.Errorf("failed to create delivery record: %w", err)
	}
	return nil
}

// ListByEvent retrieves delivery attempts for an event, optionally filtered
// by status. An empty status returns every attempt.
func (r *DeliveryRepository) ListByEvent(ctx context.Context, eventID string, status model.DeliveryStatus) ([]model.EmailDelivery, error) {
	query := `
		SELECT id, event_id, attendee_id, email, subject, body, link,
		       status, provider, provider_message_id, error, sent_at, batch_id
		FROM email_deliveries
		WHERE event_id = $1
	`
	args := []interface{}{eventID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY sent_at`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list deliveries: %w", err)
	}
	defer rows.Close()

	var deliveries []model.EmailDelivery
	for rows.Next() {
		var d model.EmailDelivery
		if err := rows.Scan(
			&d.ID,
			&d.EventID,
			&d.AttendeeID,
			&d.Email,
			&d.Subject,
			&d.Body,
			&d.Link,
			&d.Status,
			&d.Provider,
			&d.ProviderMessageID,
			&d.Error,
			&d.SentAt,
			&d.BatchID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan delivery: %w", err)
		}
		deliveries = append(deliveries, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate deliveries: %w", err)
	}
	return deliveries, nil
}

// SentEmails returns the normalized emails with a successful delivery for
// the event. Queried once per orchestrator run to bound ledger reads.
func (r *DeliveryRepository) SentEmails(ctx context.Context, eventID string) ([]string, error) {
	query := `
		SELECT DISTINCT email
		FROM email_deliveries
		WHERE event_id = $1 AND status = $2
	`
	rows, err := r.db.QueryContext(ctx, query, eventID, model.DeliveryStatusSent)
	if err != nil {
		return nil, fmt.Errorf("failed to query sent emails: %w", err)
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("failed to scan sent email: %w", err)
		}
		emails = append(emails, email)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sent emails: %w", err)
	}
	return emails, nil
}
