package repository

import (
	"context"
	"fmt"

	"github.com/ceureg/ceureg/internal/database"
	"github.com/ceureg/ceureg/internal/model"
)

// AttendeeRepository handles attendee data persistence
type AttendeeRepository struct {
	db *database.Postgres
}

// NewAttendeeRepository creates a new AttendeeRepository
func NewAttendeeRepository(db *database.Postgres) *AttendeeRepository {
	return &AttendeeRepository{db: db}
}

// ListByEvent retrieves all attendees for an event
func (r *AttendeeRepository) ListByEvent(ctx context.Context, eventID string) ([]model.Attendee, error) {
	query := `
		SELECT id, event_id, first_name, last_name, email,
		       bcba_number, rbt_number, certificate_issued, created_at
		FROM attendees
		WHERE event_id = $1
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendees: %w", err)
	}
	defer rows.Close()

	var attendees []model.Attendee
	for rows.Next() {
		var a model.Attendee
		if err := rows.Scan(
			&a.ID,
			&a.EventID,
			&a.FirstName,
			&a.LastName,
			&a.Email,
			&a.BCBANumber,
			&a.RBTNumber,
			&a.CertificateIssued,
			&a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan attendee: %w", err)
		}
		attendees = append(attendees, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendees: %w", err)
	}
	return attendees, nil
}

// MarkCertificateIssued flags an attendee's certificate as issued
func (r *AttendeeRepository) MarkCertificateIssued(ctx context.Context, id string) error {
	query := `UPDATE attendees SET certificate_issued = true WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark certificate issued: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
