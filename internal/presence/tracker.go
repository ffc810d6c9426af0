package presence

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/openbusser/internal/models"
	"github.com/wolfeidau/openbusser/internal/telemetry"
)

// Snapshot is a point-in-time view of the tracker.
type Snapshot struct {
	// Bussers lists online records first, then offline, each ordered by id.
	Bussers   []Record
	Online    int
	Offline   int
	Err       error
	UpdatedAt time.Time
}

// OnlineBussers returns the online subset of the snapshot.
func (s Snapshot) OnlineBussers() []Record {
	return s.Bussers[:s.Online]
}

// OfflineBussers returns the offline subset of the snapshot.
func (s Snapshot) OfflineBussers() []Record {
	return s.Bussers[s.Online:]
}

// Tracker owns a presence map updated by polling cycles.
//
// Each update carries the sequence number of the cycle that produced it.
// Updates older than the last applied one are discarded, so a slow response
// can never overwrite a newer observation.
type Tracker struct {
	mu        sync.Mutex
	known     Map
	err       error
	applied   uint64
	updatedAt time.Time
	now       func() time.Time
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		known: make(Map),
		now:   time.Now,
	}
}

// Apply merges a successful match response produced by cycle seq.
// It returns false if the result was stale and ignored.
func (t *Tracker) Apply(ctx context.Context, seq uint64, resp *models.MatchResponse) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.accept(ctx, seq) {
		return false
	}

	var fresh []models.AvailableBusser
	fromIP := ""
	if resp != nil {
		fresh = resp.AvailableBussers
		fromIP = resp.FromIP
	}

	t.known = Merge(t.known, fresh, fromIP)
	t.err = nil
	t.record(ctx)

	return true
}

// Fail records a failed observation from cycle seq. Known bussers are kept
// and marked offline. It returns false if the result was stale and ignored.
func (t *Tracker) Fail(ctx context.Context, seq uint64, err error) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.accept(ctx, seq) {
		return false
	}

	t.known = Degrade(t.known)
	t.err = err
	t.record(ctx)

	return true
}

// Snapshot returns the current state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := Snapshot{
		Bussers:   make([]Record, 0, len(t.known)),
		Err:       t.err,
		UpdatedAt: t.updatedAt,
	}

	for _, rec := range t.known {
		snap.Bussers = append(snap.Bussers, rec)
		if rec.Online() {
			snap.Online++
		} else {
			snap.Offline++
		}
	}

	sort.Slice(snap.Bussers, func(i, j int) bool {
		a, b := snap.Bussers[i], snap.Bussers[j]
		if a.Online() != b.Online() {
			return a.Online()
		}
		return a.ID < b.ID
	})

	return snap
}

// Get returns the record for id.
func (t *Tracker) Get(id string) (Record, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.known[id]
	return rec, ok
}

func (t *Tracker) accept(ctx context.Context, seq uint64) bool {
	if seq < t.applied {
		log.Debug().Uint64("seq", seq).Uint64("applied", t.applied).Msg("discarding stale presence update")
		telemetry.GetMetrics().PollStaleResultsTotal.Add(ctx, 1)
		return false
	}
	t.applied = seq
	t.updatedAt = t.now()
	return true
}

func (t *Tracker) record(ctx context.Context) {
	var online, offline int64
	for _, rec := range t.known {
		if rec.Online() {
			online++
		} else {
			offline++
		}
	}

	m := telemetry.GetMetrics()
	m.BussersOnline.Record(ctx, online)
	m.BussersOffline.Record(ctx, offline)
}
