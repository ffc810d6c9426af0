package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/wolfeidau/openbusser/internal/detect"
	"github.com/wolfeidau/openbusser/internal/poller"
	"github.com/wolfeidau/openbusser/internal/util"
)

type DetectCmd struct {
	Interval time.Duration `help:"Delay between detection attempts" default:"5s"`
	Once     bool          `help:"Make a single attempt and exit"`
}

func (d *DetectCmd) Run(ctx context.Context, globals *Globals) error {
	w := globals.out()

	apiClient := globals.apiClient()
	manager, err := globals.sessionManager(apiClient)
	if err != nil {
		return err
	}

	detector := detect.New(apiClient, manager)

	if d.Once {
		res, err := detector.Attempt(ctx)
		if err != nil {
			return fmt.Errorf("failed to detect busser: %w", err)
		}
		printDetectResult(w, res, nil)
		if res.Assigned() {
			printAssigned(w, res)
		}
		return nil
	}

	ctx, cancel := withInterrupt(ctx, w)
	defer cancel()

	fmt.Fprintln(w, "Detecting your busser...")

	res, err := detector.Run(ctx, poller.New("detect", d.Interval), func(res detect.Result, err error) {
		printDetectResult(w, res, err)
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(w, "Detection stopped")
			return nil
		}
		return fmt.Errorf("failed to detect busser: %w", err)
	}

	printAssigned(w, res)
	return nil
}

func printDetectResult(w io.Writer, res detect.Result, err error) {
	if res.NewSession {
		fmt.Fprintf(w, "Registered session %s\n", util.ShortID(res.SessionID))
	}

	switch {
	case err != nil:
		fmt.Fprintf(w, "Connection error - retrying... (%v)\n", err)
	case res.Assigned():
		fmt.Fprintf(w, "Found busser %s\n", res.BusserID)
	default:
		fmt.Fprintf(w, "No busser reachable from %s. Make sure your OpenBusser device is connected to the same network.\n", res.FromIP)
	}
}

func printAssigned(w io.Writer, res detect.Result) {
	fmt.Fprintf(w, "Busser %s assigned to session %s\n", res.BusserID, util.ShortID(res.SessionID))
	fmt.Fprintln(w, "Run 'openbusser dashboard' to manage your devices")
}
