package model

import "time"

// Attendee represents a checked-in event participant
type Attendee struct {
	ID                string    `json:"id"`
	EventID           string    `json:"eventId"`
	FirstName         string    `json:"firstName"`
	LastName          string    `json:"lastName"`
	Email             string    `json:"email"`
	BCBANumber        *string   `json:"bcbaNumber,omitempty"`
	RBTNumber         *string   `json:"rbtNumber,omitempty"`
	CertificateIssued bool      `json:"certificateIssued"`
	CreatedAt         time.Time `json:"createdAt"`
}

// FullName returns the attendee's display name as printed on certificates.
func (a *Attendee) FullName() string {
	return a.FirstName + " " + a.LastName
}

// CertNumber returns the attendee's certification number, preferring the
// BCBA number over the RBT number. Empty when neither is on file.
func (a *Attendee) CertNumber() string {
	if a.BCBANumber != nil && *a.BCBANumber != "" {
		return *a.BCBANumber
	}
	if a.RBTNumber != nil && *a.RBTNumber != "" {
		return *a.RBTNumber
	}
	return ""
}
