package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/wolfeidau/openbusser/internal/session"
	"github.com/wolfeidau/openbusser/internal/util"
)

// InviteCmd manages invitations.
type InviteCmd struct {
	List   InviteListCmd   `cmd:"" help:"List invitations"`
	Create InviteCreateCmd `cmd:"" help:"Create an invitation for a busser"`
	Accept InviteAcceptCmd `cmd:"" help:"Accept an invitation link or id"`
}

type InviteListCmd struct{}

func (i *InviteListCmd) Run(ctx context.Context, globals *Globals) error {
	w := globals.out()

	list, err := globals.apiClient().ListInvites(ctx)
	if err != nil {
		return err
	}

	if len(list.Invites) == 0 {
		fmt.Fprintln(w, "No invitations found.")
		return nil
	}

	now := time.Now()

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tBUSSER\tSESSION\tCREATED\tSTATUS")
	for _, inv := range list.Invites {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			inv.ID, inv.BusserID, util.ShortID(inv.SessionID),
			util.FormatTimeAgo(inv.CreatedAt, now), inv.Status())
	}
	tw.Flush()

	return nil
}

type InviteCreateCmd struct {
	BusserID string `arg:"" help:"Busser to invite to"`
}

func (i *InviteCreateCmd) Run(ctx context.Context, globals *Globals) error {
	apiClient := globals.apiClient()
	manager, err := globals.sessionManager(apiClient)
	if err != nil {
		return err
	}

	creds, err := manager.Current(ctx)
	if err != nil {
		return fmt.Errorf("%w\n\nRun 'openbusser detect' to register a session", err)
	}

	inviteID, err := apiClient.CreateInvite(ctx, i.BusserID, creds)
	if err != nil {
		return err
	}

	link, err := session.InviteLink(globals.siteURL(), inviteID)
	if err != nil {
		return err
	}

	fmt.Fprintf(globals.out(), "Invitation created: %s\n", link)
	return nil
}

type InviteAcceptCmd struct {
	Invite string `arg:"" help:"Invitation link or id"`
}

func (i *InviteAcceptCmd) Run(ctx context.Context, globals *Globals) error {
	inviteID, err := session.InviteIDFromLink(i.Invite)
	if err != nil {
		return err
	}

	manager, err := globals.sessionManager(globals.apiClient())
	if err != nil {
		return err
	}

	creds, err := session.AcceptInvite(ctx, manager, inviteID)
	if err != nil {
		return fmt.Errorf("failed to accept invitation: %w", err)
	}

	fmt.Fprintf(globals.out(), "Invitation accepted, session %s\n", util.ShortID(creds.SessionID))
	return nil
}
