// Package presence tracks which bussers are reachable across polling cycles.
//
// A busser that has been observed once stays in the map; when it is missing
// from a later observation it is marked offline with its last known fields.
package presence

import (
	"time"

	"github.com/wolfeidau/openbusser/internal/models"
)

// Status is the reachability of a tracked busser.
type Status string

const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
)

// Record is a busser as last observed plus its derived status.
type Record struct {
	ID            string
	LastHeartbeat time.Time
	SessionID     *string
	LastIP        string
	Status        Status
}

// Online returns true if the busser was present in the latest observation.
func (r Record) Online() bool {
	return r.Status == StatusOnline
}

// Map is the presence state keyed by busser id.
type Map map[string]Record

// Clone returns a shallow copy of m.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for id, rec := range m {
		out[id] = rec
	}
	return out
}

// Merge folds a fresh observation into prev and returns the new map.
// prev is not modified.
//
// Every busser in fresh is recorded online with fromIP as its address. Every
// busser in prev that is absent from fresh is recorded offline with its
// previous fields unchanged. Keys are never removed.
func Merge(prev Map, fresh []models.AvailableBusser, fromIP string) Map {
	next := prev.Clone()

	seen := make(map[string]struct{}, len(fresh))
	for _, b := range fresh {
		seen[b.ID] = struct{}{}
		next[b.ID] = Record{
			ID:            b.ID,
			LastHeartbeat: b.LastHeartbeat,
			SessionID:     b.SessionID,
			LastIP:        fromIP,
			Status:        StatusOnline,
		}
	}

	for id, rec := range prev {
		if _, ok := seen[id]; ok {
			continue
		}
		rec.Status = StatusOffline
		next[id] = rec
	}

	return next
}

// Degrade marks every busser in prev offline, used when an observation fails.
func Degrade(prev Map) Map {
	next := make(Map, len(prev))
	for id, rec := range prev {
		rec.Status = StatusOffline
		next[id] = rec
	}
	return next
}
