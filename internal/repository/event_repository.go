package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ceureg/ceureg/internal/database"
	"github.com/ceureg/ceureg/internal/model"
)

// EventRepository handles event data persistence
type EventRepository struct {
	db *database.Postgres
}

// NewEventRepository creates a new EventRepository
func NewEventRepository(db *database.Postgres) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `id, legacy_id, title, description, date, hours, type, modality,
	       instructor_name, ace_coordinator_name, ace_organization_name,
	       ace_provider_type, provider_id, email_subject, status, is_archived, created_at`

// GetByID retrieves an event by ID
func (r *EventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE id = $1
	`
	return r.scanEvent(r.db.QueryRowContext(ctx, query, id))
}

// GetByLegacyID retrieves an event by its legacy public identifier
func (r *EventRepository) GetByLegacyID(ctx context.Context, legacyID string) (*model.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE legacy_id = $1
	`
	return r.scanEvent(r.db.QueryRowContext(ctx, query, legacyID))
}

// scanEvent scans a single event row
func (r *EventRepository) scanEvent(row *sql.Row) (*model.Event, error) {
	var event model.Event
	err := row.Scan(
		&event.ID,
		&event.LegacyID,
		&event.Title,
		&event.Description,
		&event.Date,
		&event.Hours,
		&event.Type,
		&event.Modality,
		&event.InstructorName,
		&event.CoordinatorName,
		&event.OrganizationName,
		&event.ProviderType,
		&event.ProviderID,
		&event.EmailSubject,
		&event.Status,
		&event.IsArchived,
		&event.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan event: %w", err)
	}
	return &event, nil
}
