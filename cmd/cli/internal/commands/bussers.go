package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/wolfeidau/openbusser/internal/util"
)

type BussersCmd struct {
	List BussersListCmd `cmd:"" help:"List every busser known to the backend"`
}

type BussersListCmd struct{}

func (b *BussersListCmd) Run(ctx context.Context, globals *Globals) error {
	w := globals.out()

	list, err := globals.apiClient().ListBussers(ctx)
	if err != nil {
		return err
	}

	if len(list.Bussers) == 0 {
		fmt.Fprintln(w, "No bussers found.")
		return nil
	}

	now := time.Now()

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLAST IP\tCREATED\tLAST HEARTBEAT\tSESSION")
	for _, busser := range list.Bussers {
		sessionID := "-"
		if busser.IsAssigned() {
			sessionID = util.ShortID(*busser.SessionID)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			busser.ID, busser.LastIP,
			util.FormatTimeAgo(busser.CreatedAt, now),
			util.FormatTimeAgo(busser.LastHeartbeat, now),
			sessionID)
	}
	tw.Flush()

	fmt.Fprintf(w, "\nSeen from %s\n", list.FromIP)
	return nil
}
