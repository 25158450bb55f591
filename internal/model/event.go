package model

import "time"

// EventType classifies the CEU category an event awards hours in.
type EventType string

const (
	EventTypeLearning    EventType = "Learning"
	EventTypeEthics      EventType = "Ethics"
	EventTypeSupervision EventType = "Supervision"
)

// ProviderType is the ACE provider classification that selects the
// attestation layout on the rendered certificate.
type ProviderType string

const (
	ProviderTypeOrganization ProviderType = "Organization"
	ProviderTypeIndividual   ProviderType = "Individual"
)

// Event represents a continuing-education event
type Event struct {
	ID               string        `json:"id"`
	LegacyID         *string       `json:"legacyId,omitempty"`
	Title            string        `json:"title"`
	Description      *string       `json:"description,omitempty"`
	Date             string        `json:"date"`
	Hours            float64       `json:"hours"`
	Type             EventType     `json:"type"`
	Modality         *string       `json:"modality,omitempty"`
	InstructorName   string        `json:"instructorName"`
	CoordinatorName  string        `json:"aceCoordinatorName"`
	OrganizationName *string       `json:"aceOrganizationName,omitempty"`
	ProviderType     *ProviderType `json:"aceProviderType,omitempty"`
	ProviderID       string        `json:"providerId"`
	EmailSubject     *string       `json:"emailSubject,omitempty"`
	Status           string        `json:"status"`
	IsArchived       bool          `json:"isArchived"`
	CreatedAt        time.Time     `json:"createdAt"`
}

// PublicID returns the identifier used in public certificate links:
// the legacy id when one exists, otherwise the provider registration id.
func (e *Event) PublicID() string {
	if e.LegacyID != nil && *e.LegacyID != "" {
		return *e.LegacyID
	}
	return e.ProviderID
}

// EthicsHours returns the ethics-hours subtotal derived from the event type.
// Ethics and supervision hours are mutually exclusive: each is either 0 or
// the full hour total.
func (e *Event) EthicsHours() float64 {
	if e.Type == EventTypeEthics {
		return e.Hours
	}
	return 0
}

// SupervisionHours returns the supervision-hours subtotal derived from the
// event type.
func (e *Event) SupervisionHours() float64 {
	if e.Type == EventTypeSupervision {
		return e.Hours
	}
	return 0
}
