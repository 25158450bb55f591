package model

import "time"

// UserRole identifies a directory user's function in the registry.
type UserRole string

const (
	RoleBoardMember    UserRole = "board_member"
	RoleACECoordinator UserRole = "ace_coordinator"
	RoleLeadInstructor UserRole = "lead_instructor"
	RoleLearner        UserRole = "learner"
)

// User represents a coordinator/instructor directory entry. The delivery
// pipeline only reads it to resolve a coordinator's stored signature image.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         UserRole  `json:"role"`
	SignatureURL *string   `json:"signatureUrl,omitempty"`
	ProviderID   *string   `json:"providerId,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}
