package session

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/openbusser/internal/api"
)

// ErrInvalidInvite is returned when an invitation link carries no id.
var ErrInvalidInvite = errors.New("invalid invitation link")

// AcceptInvite ensures a local session exists for an invitation link.
//
// The invite id is not redeemed against the backend: no endpoint takes it.
// Acceptance therefore only guarantees that this client holds a session.
func AcceptInvite(ctx context.Context, m *Manager, inviteID string) (api.Credentials, error) {
	if inviteID == "" {
		return api.Credentials{}, ErrInvalidInvite
	}

	creds, created, err := m.Ensure(ctx)
	if err != nil {
		return api.Credentials{}, err
	}

	log.Debug().
		Str("invite_id", inviteID).
		Str("session_id", creds.SessionID).
		Bool("created", created).
		Msg("invite accepted, id not redeemed")

	return creds, nil
}

// InviteLink builds the shareable link for an invitation, <siteURL>/invite?id=<id>.
func InviteLink(siteURL, inviteID string) (string, error) {
	if inviteID == "" {
		return "", ErrInvalidInvite
	}

	u, err := url.Parse(strings.TrimRight(siteURL, "/"))
	if err != nil {
		return "", fmt.Errorf("failed to parse site url: %w", err)
	}

	u = u.JoinPath("invite")
	u.RawQuery = url.Values{"id": {inviteID}}.Encode()

	return u.String(), nil
}

// InviteIDFromLink extracts the invite id from a link produced by InviteLink.
// A bare id is returned unchanged.
func InviteIDFromLink(link string) (string, error) {
	if !strings.Contains(link, "://") && !strings.Contains(link, "?") {
		if link == "" {
			return "", ErrInvalidInvite
		}
		return link, nil
	}

	u, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("failed to parse invitation link: %w", err)
	}

	id := u.Query().Get("id")
	if id == "" {
		return "", ErrInvalidInvite
	}

	return id, nil
}
