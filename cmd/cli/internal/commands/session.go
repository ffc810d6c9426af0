package commands

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/wolfeidau/openbusser/internal/session"
	"github.com/wolfeidau/openbusser/internal/util"
)

// SessionCmd manages the locally stored session.
type SessionCmd struct {
	Show      SessionShowCmd      `cmd:"" help:"Show the stored session"`
	Register  SessionRegisterCmd  `cmd:"" help:"Register a session if none is stored"`
	Clear     SessionClearCmd     `cmd:"" help:"Forget the stored session"`
	List      SessionListCmd      `cmd:"" help:"List sessions known to the backend"`
	Heartbeat SessionHeartbeatCmd `cmd:"" help:"Send a heartbeat for the stored session"`
}

type SessionShowCmd struct{}

func (s *SessionShowCmd) Run(ctx context.Context, globals *Globals) error {
	w := globals.out()

	manager, err := globals.sessionManager(globals.apiClient())
	if err != nil {
		return err
	}

	creds, err := manager.Current(ctx)
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			fmt.Fprintln(w, "No session stored.")
			fmt.Fprintln(w)
			fmt.Fprintln(w, "To register a session:")
			fmt.Fprintln(w, "  openbusser session register")
			return nil
		}
		return fmt.Errorf("failed to load session: %w", err)
	}

	fmt.Fprintf(w, "Session: %s\n", creds.SessionID)
	return nil
}

type SessionRegisterCmd struct{}

func (s *SessionRegisterCmd) Run(ctx context.Context, globals *Globals) error {
	w := globals.out()

	manager, err := globals.sessionManager(globals.apiClient())
	if err != nil {
		return err
	}

	creds, created, err := manager.Ensure(ctx)
	if err != nil {
		return err
	}

	if created {
		fmt.Fprintf(w, "Registered session %s\n", creds.SessionID)
		return nil
	}

	fmt.Fprintf(w, "Session %s already registered\n", creds.SessionID)
	return nil
}

type SessionClearCmd struct{}

func (s *SessionClearCmd) Run(ctx context.Context, globals *Globals) error {
	manager, err := globals.sessionManager(globals.apiClient())
	if err != nil {
		return err
	}

	if err := manager.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	fmt.Fprintln(globals.out(), "Session cleared")
	return nil
}

type SessionListCmd struct{}

func (s *SessionListCmd) Run(ctx context.Context, globals *Globals) error {
	w := globals.out()

	sessions, err := globals.apiClient().ListSessions(ctx)
	if err != nil {
		return err
	}

	if len(sessions) == 0 {
		fmt.Fprintln(w, "No sessions found.")
		return nil
	}

	now := time.Now()

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLAST IP\tCREATED\tLAST ACTIVE\tACTIVE")
	for _, sess := range sessions {
		active := ""
		if util.IsRecentlyActive(sess.LastHeartbeat, now, util.DefaultActivityWindow) {
			active = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			sess.ID, sess.LastIP,
			util.FormatTimeAgo(sess.CreatedAt, now),
			util.FormatTimeAgo(sess.LastHeartbeat, now),
			active)
	}
	tw.Flush()

	return nil
}

type SessionHeartbeatCmd struct{}

func (s *SessionHeartbeatCmd) Run(ctx context.Context, globals *Globals) error {
	manager, err := globals.sessionManager(globals.apiClient())
	if err != nil {
		return err
	}

	if err := manager.Heartbeat(ctx); err != nil {
		return fmt.Errorf("failed to send heartbeat: %w", err)
	}

	fmt.Fprintln(globals.out(), "Heartbeat sent")
	return nil
}
