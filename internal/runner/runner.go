// Package runner holds power assertions for the requested duration and
// releases them on timeout, interrupt, or cancellation.
package runner

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/scienceol/awake/internal/duration"
	"github.com/scienceol/awake/internal/power"
)

// Reason says why a run ended.
type Reason int

const (
	// Skipped means the duration was zero and nothing was acquired.
	Skipped Reason = iota
	// TimedOut means the requested duration elapsed.
	TimedOut
	// Interrupted means an interrupt signal arrived.
	Interrupted
	// Canceled means the caller's context ended the run.
	Canceled
)

func (r Reason) String() string {
	switch r {
	case Skipped:
		return "skipped"
	case TimedOut:
		return "timed out"
	case Interrupted:
		return "interrupted"
	case Canceled:
		return "canceled"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

// Outcome describes a finished run.
type Outcome struct {
	Reason Reason
	Signal os.Signal
	// Held is the number of assertions acquired, Released the number whose
	// release succeeded.
	Held     int
	Released int
}

// Interrupts blocks until an interrupt is observed or ctx is done.
type Interrupts interface {
	Wait(ctx context.Context) (os.Signal, error)
}

// Options configures a Controller.
type Options struct {
	// Open binds a new capability. It is called once for the control path
	// and once for the interrupt path.
	Open func() (power.Capability, error)
	Plan power.Plan

	Interrupts Interrupts

	// After defaults to time.After.
	After func(time.Duration) <-chan time.Time

	Logger zerolog.Logger
}

// Controller runs one keep-awake session.
type Controller struct {
	open       func() (power.Capability, error)
	plan       power.Plan
	interrupts Interrupts
	after      func(time.Duration) <-chan time.Time
	logger     zerolog.Logger
}

// New creates a Controller.
func New(opts Options) *Controller {
	c := &Controller{
		open:       opts.Open,
		plan:       opts.Plan,
		interrupts: opts.Interrupts,
		after:      opts.After,
		logger:     opts.Logger,
	}
	if c.after == nil {
		c.after = time.After
	}
	return c
}

// Run acquires the planned assertions and holds them until d elapses,
// an interrupt arrives, or ctx is done. The assertions are released exactly
// once on every path. A bounded d of zero seconds acquires nothing.
func (c *Controller) Run(ctx context.Context, d duration.Spec) (Outcome, error) {
	if d.IsBounded() && d.Seconds() == 0 {
		c.logger.Debug().Msg("zero duration, nothing to hold")
		return Outcome{Reason: Skipped}, nil
	}

	capability, err := c.open()
	if err != nil {
		return Outcome{}, err
	}
	defer capability.Close()

	set, err := power.Acquire(capability, c.plan)
	if err != nil {
		return Outcome{}, err
	}
	c.logger.Info().
		Interface("handles", set.Handles()).
		Str("duration", d.String()).
		Msg("assertions held")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Only the goroutine whose Release call wins the set's gate writes out.
	var out Outcome

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()

		own, err := c.open()
		if err != nil {
			return fmt.Errorf("interrupt watcher: %w", err)
		}
		defer own.Close()

		sig, err := c.interrupts.Wait(gctx)
		if err != nil {
			return nil
		}
		c.logger.Info().Stringer("signal", sig).Msg("interrupt received")

		won, err := set.Release(own)
		if won {
			out = Outcome{Reason: Interrupted, Signal: sig}
		}
		return err
	})
	g.Go(func() error {
		if !d.IsBounded() {
			<-gctx.Done()
			return nil
		}

		select {
		case <-c.after(d.Duration()):
		case <-gctx.Done():
			return nil
		}
		defer cancel()
		c.logger.Info().Msg("duration elapsed")

		won, err := set.Release(capability)
		if won {
			out = Outcome{Reason: TimedOut}
		}
		return err
	})
	err = g.Wait()

	if !set.Released() {
		out = Outcome{Reason: Canceled}
		if _, rerr := set.Release(capability); rerr != nil && err == nil {
			err = rerr
		}
	}
	out.Held = set.Len()
	out.Released = set.Freed()

	if err != nil {
		c.logger.Error().Err(err).Msg("run failed")
		return out, err
	}
	c.logger.Info().Stringer("reason", out.Reason).Int("released", out.Released).Msg("assertions released")
	return out, nil
}
