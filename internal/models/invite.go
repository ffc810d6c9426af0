package models

import "time"

// Invite grants another session access to a busser.
type Invite struct {
	ID        string    `json:"id"`
	BusserID  string    `json:"busserId"`
	SessionID string    `json:"sessionId"`
	CreatedAt time.Time `json:"createdAt"`
	Accepted  bool      `json:"accepted"`
}

// Status returns the display status of the invite.
func (i Invite) Status() string {
	if i.Accepted {
		return "Accepted"
	}
	return "Pending"
}
