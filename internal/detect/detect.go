// Package detect bootstraps a session and auto-assigns the first reachable busser.
package detect

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/openbusser/internal/api"
	"github.com/wolfeidau/openbusser/internal/models"
	"github.com/wolfeidau/openbusser/internal/poller"
	"github.com/wolfeidau/openbusser/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// API is the subset of the backend client used while detecting.
type API interface {
	FindAvailableBussers(ctx context.Context, creds api.Credentials) (*models.MatchResponse, error)
	AssignBusser(ctx context.Context, busserID string, creds api.Credentials) (bool, error)
}

// Sessions provides the session an attempt runs under.
type Sessions interface {
	Ensure(ctx context.Context) (creds api.Credentials, created bool, err error)
}

// State is the outcome of a successful attempt.
type State string

const (
	StateWaiting  State = "waiting"
	StateAssigned State = "assigned"
)

// Result describes one detection attempt.
type Result struct {
	State      State
	BusserID   string
	SessionID  string
	FromIP     string
	Available  int
	NewSession bool
}

// Assigned reports whether a busser was assigned to the session.
func (r Result) Assigned() bool {
	return r.State == StateAssigned
}

// Detector runs detection attempts.
type Detector struct {
	api      API
	sessions Sessions
}

// New creates a detector.
func New(client API, sessions Sessions) *Detector {
	return &Detector{api: client, sessions: sessions}
}

// Attempt ensures a session, asks for reachable bussers and assigns the first
// one returned. No busser, or an assignment the server declines, yields
// StateWaiting.
func (d *Detector) Attempt(ctx context.Context) (Result, error) {
	creds, created, err := d.sessions.Ensure(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to ensure session: %w", err)
	}

	res := Result{State: StateWaiting, SessionID: creds.SessionID, NewSession: created}

	match, err := d.api.FindAvailableBussers(ctx, creds)
	if err != nil {
		return res, err
	}

	res.FromIP = match.FromIP
	res.Available = len(match.AvailableBussers)

	if res.Available == 0 {
		log.Debug().Str("session_id", creds.SessionID).Str("from_ip", match.FromIP).Msg("no bussers available")
		return res, nil
	}

	first := match.AvailableBussers[0]

	ok, err := d.api.AssignBusser(ctx, first.ID, creds)
	if err != nil {
		return res, fmt.Errorf("failed to assign busser %s: %w", first.ID, err)
	}
	if !ok {
		log.Warn().Str("busser_id", first.ID).Str("session_id", creds.SessionID).Msg("assignment declined")
		return res, nil
	}

	res.State = StateAssigned
	res.BusserID = first.ID

	telemetry.GetMetrics().BussersAssignedTotal.Add(ctx, 1)
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("busser.id", first.ID))

	log.Info().Str("busser_id", first.ID).Str("session_id", creds.SessionID).Msg("busser assigned")

	return res, nil
}

// Run repeats Attempt on p until a busser is assigned or ctx is cancelled.
// report, if set, is called after every attempt. Failed attempts are retried on
// the next tick.
func (d *Detector) Run(ctx context.Context, p *poller.Poller, report func(Result, error)) (Result, error) {
	var last Result

	err := p.Run(ctx, func(ctx context.Context, seq uint64) bool {
		res, err := d.Attempt(ctx)
		if ctx.Err() != nil {
			return true
		}

		last = res

		if err != nil {
			telemetry.GetMetrics().PollErrorsTotal.Add(ctx, 1)
			log.Warn().Err(err).Uint64("seq", seq).Msg("detection attempt failed")
		}

		if report != nil {
			report(res, err)
		}

		return err == nil && res.Assigned()
	})
	if err != nil {
		return last, err
	}

	// the cycle callback may stop the poller on cancellation
	if !last.Assigned() {
		return last, ctx.Err()
	}

	return last, nil
}
