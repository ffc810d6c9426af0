// Package dashboard periodically loads bussers, sessions and invites for a
// session and keeps a presence history of every busser seen.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/openbusser/internal/api"
	"github.com/wolfeidau/openbusser/internal/models"
	"github.com/wolfeidau/openbusser/internal/poller"
	"github.com/wolfeidau/openbusser/internal/presence"
	"github.com/wolfeidau/openbusser/internal/telemetry"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrBusserOffline is returned when an invite is requested for a busser that is not online.
	ErrBusserOffline = errors.New("busser is not online")

	// ErrNoBusserSelected is returned when an invite is requested without a busser id.
	ErrNoBusserSelected = errors.New("no busser selected")
)

// API is the subset of the backend client the dashboard reads from.
type API interface {
	FindAvailableBussers(ctx context.Context, creds api.Credentials) (*models.MatchResponse, error)
	ListSessions(ctx context.Context) ([]models.Session, error)
	ListInvites(ctx context.Context) (*api.InviteList, error)
	CreateInvite(ctx context.Context, busserID string, creds api.Credentials) (string, error)
}

// Sessions provides the dashboard's session.
type Sessions interface {
	Current(ctx context.Context) (api.Credentials, error)
	Heartbeat(ctx context.Context) error
}

// Options configures a dashboard.
type Options struct {
	// Heartbeat sends a session heartbeat before each refresh.
	Heartbeat bool
}

// View is what a refresh produced.
type View struct {
	SessionID   string
	Bussers     []presence.Record
	Online      []presence.Record
	Offline     []presence.Record
	Sessions    []models.Session
	Invites     []models.Invite
	Err         error
	RefreshedAt time.Time
}

// TotalDevices counts every busser seen since the dashboard opened.
func (v View) TotalDevices() int { return len(v.Bussers) }

// OnlineDevices counts bussers in the latest match.
func (v View) OnlineDevices() int { return len(v.Online) }

// ActiveSessions counts sessions known to the backend.
func (v View) ActiveSessions() int { return len(v.Sessions) }

// Invitations counts invites known to the backend.
func (v View) Invitations() int { return len(v.Invites) }

// Dashboard holds the state shown by the dashboard command.
type Dashboard struct {
	api       API
	sessions  Sessions
	creds     api.Credentials
	heartbeat bool
	tracker   *presence.Tracker
	seq       atomic.Uint64

	mu          sync.Mutex
	sessionList []models.Session
	invites     []models.Invite
	err         error
	refreshedAt time.Time
	now         func() time.Time
}

// Open creates a dashboard for the stored session. It returns
// session.ErrNoSession if the client has not registered yet.
func Open(ctx context.Context, client API, sessions Sessions, opts Options) (*Dashboard, error) {
	creds, err := sessions.Current(ctx)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		api:         client,
		sessions:    sessions,
		creds:       creds,
		heartbeat:   opts.Heartbeat,
		tracker:     presence.NewTracker(),
		sessionList: []models.Session{},
		invites:     []models.Invite{},
		now:         time.Now,
	}, nil
}

// Refresh loads the match, session and invite lists concurrently.
//
// On success the presence history is merged and the lists replaced. On any
// failure every known busser is marked offline, the lists are emptied and the
// error is kept in the view. Results from a refresh older than the last one
// applied are dropped.
func (d *Dashboard) Refresh(ctx context.Context) error {
	seq := d.seq.Add(1)

	if d.heartbeat {
		if err := d.sessions.Heartbeat(ctx); err != nil {
			log.Warn().Err(err).Str("session_id", d.creds.SessionID).Msg("heartbeat failed")
		}
	}

	var (
		match       *models.MatchResponse
		sessionList []models.Session
		invites     *api.InviteList
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		match, err = d.api.FindAvailableBussers(gctx, d.creds)
		return err
	})

	g.Go(func() error {
		var err error
		sessionList, err = d.api.ListSessions(gctx)
		return err
	})

	g.Go(func() error {
		var err error
		invites, err = d.api.ListInvites(gctx)
		return err
	})

	err := g.Wait()

	d.mu.Lock()
	defer d.mu.Unlock()

	if err != nil {
		if !d.tracker.Fail(ctx, seq, err) {
			return err
		}
		d.sessionList = []models.Session{}
		d.invites = []models.Invite{}
		d.err = err
		d.refreshedAt = d.now()

		telemetry.GetMetrics().PollErrorsTotal.Add(ctx, 1)

		return err
	}

	if !d.tracker.Apply(ctx, seq, match) {
		return nil
	}

	d.sessionList = nonNil(sessionList)
	d.invites = []models.Invite{}
	if invites != nil {
		d.invites = nonNil(invites.Invites)
	}
	d.err = nil
	d.refreshedAt = d.now()

	return nil
}

// Run refreshes on p until ctx is cancelled. render, if set, receives the view
// after every refresh. Failed refreshes are retried on the next tick.
func (d *Dashboard) Run(ctx context.Context, p *poller.Poller, render func(View)) error {
	return p.Run(ctx, func(ctx context.Context, seq uint64) bool {
		if err := d.Refresh(ctx); err != nil {
			if ctx.Err() != nil {
				return true
			}
			log.Warn().Err(err).Uint64("seq", seq).Msg("dashboard refresh failed")
		}

		if render != nil {
			render(d.View())
		}

		return false
	})
}

// View returns the current dashboard state.
func (d *Dashboard) View() View {
	snap := d.tracker.Snapshot()

	d.mu.Lock()
	defer d.mu.Unlock()

	return View{
		SessionID:   d.creds.SessionID,
		Bussers:     snap.Bussers,
		Online:      snap.OnlineBussers(),
		Offline:     snap.OfflineBussers(),
		Sessions:    append([]models.Session(nil), d.sessionList...),
		Invites:     append([]models.Invite(nil), d.invites...),
		Err:         d.err,
		RefreshedAt: d.refreshedAt,
	}
}

// CreateInvite creates an invite for an online busser and refreshes the view.
// A failure is kept in the view without clearing the lists.
func (d *Dashboard) CreateInvite(ctx context.Context, busserID string) (string, error) {
	if busserID == "" {
		return "", ErrNoBusserSelected
	}

	rec, ok := d.tracker.Get(busserID)
	if !ok || !rec.Online() {
		return "", fmt.Errorf("failed to create invite for %s: %w", busserID, ErrBusserOffline)
	}

	inviteID, err := d.api.CreateInvite(ctx, busserID, d.creds)
	if err != nil {
		d.mu.Lock()
		d.err = err
		d.mu.Unlock()
		return "", err
	}

	log.Info().Str("invite_id", inviteID).Str("busser_id", busserID).Msg("invite created")

	if err := d.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("refresh after invite creation failed")
	}

	return inviteID, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
