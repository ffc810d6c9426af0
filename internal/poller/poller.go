// Package poller runs a function on a fixed interval for as long as a context lives.
package poller

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/openbusser/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultInterval matches the refresh rate of the detection and dashboard loops.
const DefaultInterval = 5 * time.Second

// Func is called once per tick with the cycle's sequence number.
// Returning true stops the poller.
type Func func(ctx context.Context, seq uint64) (done bool)

// Poller is a cancellable repeating task.
//
// The first cycle runs immediately. Cycles start an interval apart, measured
// from the start of the previous cycle, and never overlap: a cycle that
// outlasts the interval is followed immediately by at most one pending tick.
type Poller struct {
	name     string
	interval time.Duration
	seq      atomic.Uint64
}

// New creates a poller. A non-positive interval uses DefaultInterval.
func New(name string, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{name: name, interval: interval}
}

// Interval returns the delay between cycles.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Run calls fn until it returns true (Run returns nil) or ctx is cancelled
// (Run returns ctx.Err()). No cycle starts after cancellation.
func (p *Poller) Run(ctx context.Context, fn Func) error {
	ticker := backoff.NewTicker(backoff.NewConstantBackOff(p.interval))
	defer ticker.Stop()

	log.Debug().Str("poller", p.name).Dur("interval", p.interval).Msg("poller started")

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("poller", p.name).Msg("poller stopped")
			return ctx.Err()

		case _, ok := <-ticker.C:
			if !ok {
				return ctx.Err()
			}
			// a tick and cancellation can be ready together
			if ctx.Err() != nil {
				return ctx.Err()
			}

			if p.cycle(ctx, fn) {
				log.Debug().Str("poller", p.name).Msg("poller finished")
				return nil
			}
		}
	}
}

func (p *Poller) cycle(ctx context.Context, fn Func) bool {
	seq := p.seq.Add(1)

	ctx, span := telemetry.Tracer().Start(ctx, p.name+".cycle",
		trace.WithAttributes(attribute.Int64("poll.seq", int64(seq))))
	defer span.End()

	telemetry.GetMetrics().PollCyclesTotal.Add(ctx, 1)

	return fn(ctx, seq)
}
