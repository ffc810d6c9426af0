package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/wolfeidau/openbusser/internal/dashboard"
	"github.com/wolfeidau/openbusser/internal/poller"
	"github.com/wolfeidau/openbusser/internal/presence"
	"github.com/wolfeidau/openbusser/internal/session"
	"github.com/wolfeidau/openbusser/internal/util"
)

type DashboardCmd struct {
	Interval  time.Duration `help:"Refresh interval" default:"5s"`
	Once      bool          `help:"Refresh once, print and exit"`
	Heartbeat bool          `help:"Send a session heartbeat before each refresh"`
	Invite    string        `help:"Create an invitation for this online busser after the first refresh"`
}

func (d *DashboardCmd) Run(ctx context.Context, globals *Globals) error {
	w := globals.out()

	apiClient := globals.apiClient()
	manager, err := globals.sessionManager(apiClient)
	if err != nil {
		return err
	}

	dash, err := dashboard.Open(ctx, apiClient, manager, dashboard.Options{Heartbeat: d.Heartbeat})
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			return fmt.Errorf("%w\n\nRun 'openbusser detect' to register a session", err)
		}
		return fmt.Errorf("failed to open dashboard: %w", err)
	}

	if d.Once || d.Invite != "" {
		if err := dash.Refresh(ctx); err != nil && d.Invite != "" {
			return fmt.Errorf("failed to load dashboard: %w", err)
		}

		if d.Invite != "" {
			inviteID, err := dash.CreateInvite(ctx, d.Invite)
			if err != nil {
				return err
			}
			link, err := session.InviteLink(globals.siteURL(), inviteID)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "Invitation created: %s\n\n", link)
		}

		if d.Once {
			renderDashboard(w, dash.View(), time.Now())
			return nil
		}
	}

	ctx, cancel := withInterrupt(ctx, w)
	defer cancel()

	err = dash.Run(ctx, poller.New("dashboard", d.Interval), func(v dashboard.View) {
		fmt.Fprint(w, "\033[2J\033[H") // Clear screen and move cursor to top
		renderDashboard(w, v, time.Now())
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to run dashboard: %w", err)
	}

	return nil
}

func renderDashboard(w io.Writer, v dashboard.View, now time.Time) {
	fmt.Fprintf(w, "OpenBusser dashboard (session %s, updated %s)\n", util.ShortID(v.SessionID), v.RefreshedAt.Format("15:04:05"))
	if v.Err != nil {
		fmt.Fprintf(w, "Error: %v\n", v.Err)
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TOTAL DEVICES\tONLINE\tACTIVE SESSIONS\tINVITATIONS")
	fmt.Fprintf(tw, "%d\t%d\t%d\t%d\n", v.TotalDevices(), v.OnlineDevices(), v.ActiveSessions(), v.Invitations())
	tw.Flush()

	fmt.Fprintln(w)
	renderDevices(w, "Online devices", v.Online, now)
	renderDevices(w, "Offline devices", v.Offline, now)

	fmt.Fprintln(w, "Active sessions")
	if len(v.Sessions) == 0 {
		fmt.Fprintln(w, "  none")
	} else {
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  ID\tLAST IP\tCREATED\tLAST ACTIVE\tACTIVE")
		for _, s := range v.Sessions {
			active := ""
			if util.IsRecentlyActive(s.LastHeartbeat, now, util.DefaultActivityWindow) {
				active = "*"
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\n",
				util.ShortID(s.ID), s.LastIP,
				util.FormatTimeAgo(s.CreatedAt, now),
				util.FormatTimeAgo(s.LastHeartbeat, now),
				active)
		}
		tw.Flush()
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Invitations")
	if len(v.Invites) == 0 {
		fmt.Fprintln(w, "  none")
	} else {
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  ID\tBUSSER\tSESSION\tCREATED\tSTATUS")
		for _, inv := range v.Invites {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\n",
				util.ShortID(inv.ID), util.ShortID(inv.BusserID), util.ShortID(inv.SessionID),
				util.FormatTimeAgo(inv.CreatedAt, now), inv.Status())
		}
		tw.Flush()
	}
}

func renderDevices(w io.Writer, title string, records []presence.Record, now time.Time) {
	fmt.Fprintf(w, "%s (%d)\n", title, len(records))
	if len(records) == 0 {
		fmt.Fprintln(w, "  none")
		fmt.Fprintln(w)
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  ID\tLAST IP\tLAST SEEN\tASSIGNED")
	for _, rec := range records {
		assigned := ""
		if rec.SessionID != nil {
			assigned = util.ShortID(*rec.SessionID)
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", rec.ID, rec.LastIP, util.FormatTimeAgo(rec.LastHeartbeat, now), assigned)
	}
	tw.Flush()
	fmt.Fprintln(w)
}
