package models

import "time"

// CheckInStatus is the attendee lifecycle state. The transition is one-way:
// Registered -> CheckedIn, exactly once, never reversed.
type CheckInStatus string

const (
	StatusRegistered CheckInStatus = "Registered"
	StatusCheckedIn  CheckInStatus = "Checked In"
)

// Attendee is a registered participant. ID is the only identity key;
// duplicate names and emails are permitted. CheckInTime is set if and only
// if Status is CheckedIn. JSON field names match the ticket frontend.
type Attendee struct {
	ID          string        `json:"id"`
	FullName    string        `json:"fullName"`
	Email       string        `json:"email"`
	Role        string        `json:"role"`
	TicketType  string        `json:"ticketType"`
	Status      CheckInStatus `json:"status"`
	AIPersona   string        `json:"aiPersona,omitempty"`
	CheckInTime *time.Time    `json:"checkInTime,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// CheckedIn reports whether the attendee has passed the gate.
func (a *Attendee) CheckedIn() bool {
	return a.Status == StatusCheckedIn
}
