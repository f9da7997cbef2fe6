package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/scienceol/awake/internal/config"
	"github.com/scienceol/awake/internal/daemon"
	"github.com/scienceol/awake/internal/duration"
	"github.com/scienceol/awake/internal/instance"
	"github.com/scienceol/awake/internal/interrupt"
	"github.com/scienceol/awake/internal/logging"
	"github.com/scienceol/awake/internal/power"
	"github.com/scienceol/awake/internal/runner"
	"github.com/scienceol/awake/internal/ui"
)

// interruptSource is satisfied by *interrupt.Watcher.
type interruptSource interface {
	runner.Interrupts
	Start()
	Stop()
}

// deps are the process-level collaborators, replaced in tests.
type deps struct {
	program     string
	pid         int
	now         func() time.Time
	openPower   func(name string) (power.Capability, error)
	killOthers  func(ctx context.Context, program string, self int) ([]int, error)
	reexec      func(args []string) error
	startDaemon func(args []string) (int, error)
	acquirePID  func(path string) (*daemon.PIDFile, error)
	interrupts  func() interruptSource
}

func defaultDeps() deps {
	return deps{
		program:     os.Args[0],
		pid:         os.Getpid(),
		now:         time.Now,
		openPower:   power.Open,
		killOthers:  instance.KillOthers,
		reexec:      daemon.Reexec,
		startDaemon: daemon.Start,
		acquirePID:  daemon.AcquirePIDFile,
		interrupts:  func() interruptSource { return interrupt.New() },
	}
}

type app struct {
	deps
	flags *flags
}

func (a *app) run(cmd *cobra.Command, args []string) error {
	f := a.flags

	cfg, err := config.Load(config.Overrides{
		ConfigFile: f.config,
		LogFile:    f.logFile,
		PIDFile:    f.pidFile,
		NoReexec:   f.noReexec,
	})
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logOpts := logging.Options{Verbose: f.verbose, Quiet: f.quiet, Console: cmd.ErrOrStderr()}
	if f.detached {
		logOpts.File = cfg.LogFile
	}
	logger, closer, err := logging.New(logOpts)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx := cmd.Context()

	// The detached child was spawned after its parent already did this.
	if !f.detached {
		killed, err := a.killOthers(ctx, filepath.Base(a.program), a.pid)
		if err != nil {
			return err
		}
		if len(killed) > 0 {
			logger.Info().Ints("pids", killed).Msg("stopped running instances")
		}
		if f.kill {
			if len(killed) > 0 {
				ui.Success("Stopped %d running awake process(es)", len(killed))
			}
			return nil
		}
	}

	spec := duration.Unbounded()
	var token string
	if len(args) == 1 {
		token = args[0]
		now := a.now()

		if !duration.IsAbsolute(token) {
			secs, err := duration.ParseRelative(token)
			if err != nil {
				return err
			}
			if cfg.ReexecEnabled() && !f.detached {
				return a.reexecAt(duration.Deadline(now, secs), logger)
			}
			spec = duration.Seconds(secs)
		} else {
			spec, err = duration.Parse(token, now)
			if err != nil {
				return err
			}
		}
	}

	if spec.IsBounded() && spec.Seconds() == 0 {
		logger.Debug().Msg("end time already passed")
		return nil
	}

	if f.daemon && !f.detached {
		childArgs := append(f.forward(), daemon.DetachedFlag)
		if token != "" {
			childArgs = append(childArgs, token)
		}
		pid, err := a.startDaemon(childArgs)
		if err != nil {
			return err
		}
		ui.Success("Running in background %s", ui.Dim(fmt.Sprintf("(pid %d)", pid)))
		return nil
	}

	if f.detached {
		pf, err := a.acquirePID(cfg.PIDFile)
		if err != nil {
			return err
		}
		defer pf.Release()
		logger.Info().Str("pid_file", pf.Path()).Msg("daemon started")
	}

	plan, err := cfg.Plan()
	if err != nil {
		return err
	}

	w := a.interrupts()
	w.Start()
	defer w.Stop()

	ctrl := runner.New(runner.Options{
		Open:       func() (power.Capability, error) { return a.openPower(cfg.AssertionName) },
		Plan:       plan,
		Interrupts: w,
		Logger:     logger,
	})

	if !f.detached {
		ui.Banner("awake", version)
		if spec.IsBounded() {
			ui.KeyValue("Until", duration.FormatAbsolute(duration.Deadline(a.now(), spec.Seconds())))
		} else {
			ui.KeyValue("Until", "interrupted")
		}
		ui.Separator()
		ui.Info("Press Ctrl+C to release")
	}

	out, err := ctrl.Run(ctx, spec)
	if err != nil {
		if !f.detached && errors.Is(err, power.ErrAssertionRelease) {
			ui.Error("Released %d of %d assertions", out.Released, out.Held)
		}
		return err
	}
	if !f.detached {
		switch out.Reason {
		case runner.Interrupted:
			fmt.Fprintln(cmd.ErrOrStderr())
			ui.Warn("Interrupted, released %d assertions", out.Released)
		case runner.TimedOut:
			ui.Success("Done, released %d assertions", out.Released)
		}
	}
	return nil
}

// reexecAt replaces the process with one whose argument is the absolute end
// time, so the process list shows when it ends.
func (a *app) reexecAt(deadline time.Time, logger zerolog.Logger) error {
	argv := append([]string{a.program}, a.flags.forward()...)
	if a.flags.daemon {
		argv = append(argv, "--daemon")
	}
	argv = append(argv, duration.FormatAbsolute(deadline))

	logger.Debug().Strs("argv", argv).Msg("re-executing with end time")
	return a.reexec(argv)
}
