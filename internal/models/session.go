package models

import "time"

// Session is a client identity as reported by the backend's session list.
// The bearer token is never returned here, only on registration.
type Session struct {
	ID            string    `json:"id"`
	LastIP        string    `json:"lastIp"`
	CreatedAt     time.Time `json:"createdAt"`
	LastHeartbeat time.Time `json:"lastHeartbeat"`
}

// RegisterResponse is returned by session registration.
type RegisterResponse struct {
	ID    string `json:"id"`
	Token string `json:"token"`
}

// MatchResponse lists the bussers reachable from the caller's network.
type MatchResponse struct {
	AvailableBussers []AvailableBusser `json:"availableBussers"`
	SessionID        string            `json:"sessionId"`
	FromIP           string            `json:"fromIp"`
	LastChecked      time.Time         `json:"lastChecked"`
}
