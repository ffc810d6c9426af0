package models

import "time"

// Busser is a local-network device tracked by the backend through heartbeats.
type Busser struct {
	ID            string    `json:"id"`
	LastIP        string    `json:"lastIp"`
	CreatedAt     time.Time `json:"createdAt"`
	LastHeartbeat time.Time `json:"lastHeartbeat"`
	SessionID     *string   `json:"sessionId,omitempty"`
}

// AvailableBusser is the reduced busser view returned by session matching.
type AvailableBusser struct {
	ID            string    `json:"id"`
	LastHeartbeat time.Time `json:"lastHeartbeat"`
	SessionID     *string   `json:"sessionId,omitempty"`
}

// IsAssigned returns true if the busser is owned by a session.
func (b AvailableBusser) IsAssigned() bool {
	return b.SessionID != nil && *b.SessionID != ""
}

// IsAssigned returns true if the busser is owned by a session.
func (b Busser) IsAssigned() bool {
	return b.SessionID != nil && *b.SessionID != ""
}
